// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package prom

// exclusiveJoinNode settles with whichever of its two dependencies
// settles first; the loser is canceled on the spot and its
// continuations never run.
type exclusiveJoinNode struct {
	baseNode
	or        onReadyEvent
	left      xjoinBranch
	right     xjoinBranch
	res       result
	done      bool
	activated bool
}

type xjoinBranch struct {
	ev  event
	j   *exclusiveJoinNode
	dep node
}

func newExclusiveJoin(left, right node) *exclusiveJoinNode {
	j := &exclusiveJoinNode{}
	j.left = xjoinBranch{j: j, dep: left}
	j.right = xjoinBranch{j: j, dep: right}
	left.setSelfPointer(&j.left.dep)
	right.setSelfPointer(&j.right.dep)
	return j
}

func (j *exclusiveJoinNode) onReady(ev *event) {
	j.or.register(ev)
	if ev != nil && !j.activated && !j.done {
		j.activated = true
		j.left.ev.init(ev.loop, &j.left)
		j.right.ev.init(ev.loop, &j.right)
		j.left.dep.onReady(&j.left.ev)
		j.right.dep.onReady(&j.right.ev)
	}
}

func (j *exclusiveJoinNode) get(out *result) {
	*out = j.res
}

func (j *exclusiveJoinNode) innerForTrace() node {
	if j.left.dep != nil {
		return j.left.dep
	}
	return j.right.dep
}

func (j *exclusiveJoinNode) drop() {
	j.left.ev.disarm()
	j.right.ev.disarm()
	if j.left.dep != nil {
		j.left.dep.drop()
		j.left.dep = nil
	}
	if j.right.dep != nil {
		j.right.dep.drop()
		j.right.dep = nil
	}
}

// fire latches the winning branch's result and cancels the loser.
// The second branch's fire, if it was already armed, is a no-op.
func (b *xjoinBranch) fire() droppable {
	j := b.j
	if j.done {
		return nil
	}
	j.done = true
	b.dep.get(&j.res)
	j.left.ev.disarm()
	j.right.ev.disarm()
	if j.left.dep != nil {
		j.left.dep.drop()
		j.left.dep = nil
	}
	if j.right.dep != nil {
		j.right.dep.drop()
		j.right.dep = nil
	}
	j.or.arm()
	return nil
}

// ExclusiveJoin returns a promise for whichever of p and other settles
// first. The loser is canceled promptly; no side effects from its
// subtree execute after the winner latches.
func (p Promise[T]) ExclusiveJoin(other Promise[T]) Promise[T] {
	return newPromise[T](newExclusiveJoin(p.take(), other.take()))
}

// -------------------------------------------------------------------

// arrayJoinNode waits for all of its dependencies. Each branch moves
// its dependency's output into a pre-allocated slot when it fires; the
// first failure is latched and later ones dropped, so the consumer
// observes exactly one failure even when several dependencies fail.
type arrayJoinNode struct {
	baseNode
	or        onReadyEvent
	branches  []arrayJoinBranch
	countLeft int
	failure   error
	assemble  func([]arrayJoinBranch) any
	activated bool
}

type arrayJoinBranch struct {
	ev  event
	j   *arrayJoinNode
	dep node
	out result
}

func newArrayJoin(deps []node, assemble func([]arrayJoinBranch) any) *arrayJoinNode {
	j := &arrayJoinNode{
		branches:  make([]arrayJoinBranch, len(deps)),
		countLeft: len(deps),
		assemble:  assemble,
	}
	for i, dep := range deps {
		j.branches[i] = arrayJoinBranch{j: j, dep: dep}
		dep.setSelfPointer(&j.branches[i].dep)
	}
	return j
}

func (j *arrayJoinNode) onReady(ev *event) {
	j.or.register(ev)
	if ev == nil || j.activated {
		return
	}
	j.activated = true
	if j.countLeft == 0 {
		// Joining nothing completes through the breadth-first queue
		// like any other immediate value.
		j.or.armBreadthFirst()
		return
	}
	for i := range j.branches {
		b := &j.branches[i]
		b.ev.init(ev.loop, b)
		b.dep.onReady(&b.ev)
	}
}

func (j *arrayJoinNode) get(out *result) {
	if j.failure != nil {
		out.addError(j.failure)
		return
	}
	out.setValue(j.assemble(j.branches))
}

func (j *arrayJoinNode) drop() {
	for i := range j.branches {
		b := &j.branches[i]
		b.ev.disarm()
		if b.dep != nil {
			b.dep.drop()
			b.dep = nil
		}
	}
}

func (b *arrayJoinBranch) fire() droppable {
	j := b.j
	b.dep.get(&b.out)
	if b.out.err != nil && j.failure == nil {
		j.failure = b.out.err
	}
	if j.countLeft--; j.countLeft == 0 {
		j.or.arm()
	}
	return nil
}

// All returns a promise for the collected results of ps, in order.
// It settles once every input has settled; if any input failed, the
// first failure observed is the join's failure.
func All[T any](ps ...Promise[T]) Promise[[]T] {
	deps := make([]node, len(ps))
	for i, p := range ps {
		deps[i] = p.take()
	}
	j := newArrayJoin(deps, func(branches []arrayJoinBranch) any {
		vs := make([]T, len(branches))
		for i := range branches {
			v, ok := branches[i].out.value.(T)
			if !ok && branches[i].out.value != nil {
				panic("prom: internal error: join part has wrong type")
			}
			vs[i] = v
		}
		return vs
	})
	return newPromise[[]T](j)
}
