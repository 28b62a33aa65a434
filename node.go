// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package prom

// node is a vertex in the promise graph. The value type is erased so
// every node has uniform dispatch cost; typed boundaries recover it
// with assertions, as the frame chain does in kont.
type node interface {
	// onReady attaches ev as the single event to arm when the node
	// becomes ready. May be called at any time; the most recent call
	// wins; nil detaches. Registering after readiness arms immediately.
	onReady(ev *event)

	// get moves the node's result into out. Called exactly once, only
	// after readiness, directly from the loop with no user code on the
	// stack.
	get(out *result)

	// setSelfPointer tells the node which slot owns it, letting chain
	// nodes replace themselves with their inner node. Most nodes ignore
	// it.
	setSelfPointer(self *node)

	// innerForTrace returns the wrapped dependency, if any.
	innerForTrace() node

	// drop cancels the node's work and releases its dependencies.
	// A node drops its dependency before its captured state, so held
	// attachments outlive the dependency's shutdown.
	drop()
}

// baseNode supplies the default no-op hooks of the node contract.
type baseNode struct{}

func (baseNode) setSelfPointer(*node) {}
func (baseNode) innerForTrace() node  { return nil }

// nodeCarrier extracts the node out of an erased promise value; the
// chain node uses it to flatten promise-of-promise. Promise[T]
// implements it for every T.
type nodeCarrier interface {
	intoNode() node
}

// -------------------------------------------------------------------

// immediateNode is ready from construction. Registration arms the
// consumer via the breadth-first queue, which is also what makes
// EvalLater a yield: an immediate dependency never runs its consumer
// before the current turn completes.
type immediateNode struct {
	baseNode
	res result
}

func (n *immediateNode) onReady(ev *event) {
	if ev != nil {
		ev.armBreadthFirst()
	}
}

func (n *immediateNode) get(out *result) {
	*out = n.res
}

func (n *immediateNode) drop() {}

func newImmediateValue(v any) *immediateNode {
	n := &immediateNode{}
	n.res.setValue(v)
	return n
}

func newImmediateBroken(err error) *immediateNode {
	n := &immediateNode{}
	n.res.addError(err)
	return n
}

// lastNode is an immediate that arms via the last queue: its consumer
// runs only once nothing else remains to do.
type lastNode struct {
	immediateNode
}

func (n *lastNode) onReady(ev *event) {
	if ev != nil {
		ev.armLast()
	}
}

// neverNode is never ready.
type neverNode struct {
	baseNode
}

func (neverNode) onReady(*event) {}

func (neverNode) get(*result) {
	panic("prom: internal error: get on a never-done promise")
}

func (neverNode) drop() {}

// -------------------------------------------------------------------

// attachmentNode holds auxiliary values alive until its dependency
// settles, forwarding readiness and result unchanged. Dropping
// releases the dependency first, then the attachments, because the
// dependency may still reference them.
type attachmentNode struct {
	baseNode
	dep         node
	attachments []any
}

func (n *attachmentNode) onReady(ev *event) {
	n.dep.onReady(ev)
}

func (n *attachmentNode) get(out *result) {
	n.dep.get(out)
}

func (n *attachmentNode) innerForTrace() node {
	return n.dep
}

func (n *attachmentNode) drop() {
	if n.dep != nil {
		n.dep.drop()
		n.dep = nil
	}
	for i := len(n.attachments) - 1; i >= 0; i-- {
		if c, ok := n.attachments[i].(interface{ Close() error }); ok {
			_ = c.Close()
		}
	}
	n.attachments = nil
}
