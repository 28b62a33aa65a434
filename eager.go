// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package prom

// eagerNode behaves as if someone were actively waiting on its
// dependency: it registers itself at construction so evaluation
// proceeds without a downstream observer, stores the result, and
// hands it to whichever consumer shows up.
type eagerNode struct {
	baseNode
	ev   event
	dep  node
	res  result
	or   onReadyEvent
	done bool
}

func newEager(l *Loop, dep node) *eagerNode {
	n := &eagerNode{dep: dep}
	dep.setSelfPointer(&n.dep)
	n.ev.init(l, n)
	n.dep.onReady(&n.ev)
	return n
}

func (n *eagerNode) fire() droppable {
	n.dep.get(&n.res)
	n.dep.drop()
	n.dep = nil
	n.done = true
	n.or.arm()
	return nil
}

func (n *eagerNode) onReady(ev *event) {
	n.or.register(ev)
}

func (n *eagerNode) get(out *result) {
	*out = n.res
}

func (n *eagerNode) innerForTrace() node {
	return n.dep
}

func (n *eagerNode) drop() {
	n.ev.disarm()
	if n.dep != nil {
		n.dep.drop()
		n.dep = nil
	}
}
