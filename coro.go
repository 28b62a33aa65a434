// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package prom

import (
	"code.hybscloud.com/kont"
)

// Await is the effect operation for awaiting a promise inside an async
// computation. Perform(Await[T]{Promise: p}) suspends the computation
// until p settles and resumes it with p's value; a failure rejects the
// whole computation's promise instead of resuming.
type Await[T any] struct {
	kont.Phantom[T]
	Promise Promise[T]
}

// awaiter is the structural interface the async driver dispatches on.
type awaiter interface {
	awaitNode() node
}

func (a Await[T]) awaitNode() node {
	return a.Promise.intoNode()
}

// Yield is the effect operation for yielding the computation
// through the breadth-first queue: everything already armed runs
// before the computation resumes.
type Yield struct {
	kont.Phantom[struct{}]
}

func (Yield) awaitNode() node {
	return newImmediateValue(struct{}{})
}

// asyncDriver evaluates an Expr-world computation against a loop. The
// suspension returned by kont.StepExpr is the coroutine frame; the
// driver, which owns the event registered on awaited nodes, lives
// outside it, so a failed await can discard the frame from inside the
// event's own fire.
type asyncDriver[R any] struct {
	baseNode
	ev      event
	or      onReadyEvent
	res     result
	waiting bool
	susp    *kont.Suspension[R]
	awaited node
}

// Async starts evaluating comp against l and returns a promise for its
// result. Evaluation begins immediately and proceeds effect by effect;
// canceling the returned promise discards the suspended computation.
func Async[R any](l *Loop, comp kont.Expr[R]) Promise[R] {
	d := &asyncDriver[R]{waiting: true}
	d.ev.init(l, d)
	value, susp := kont.StepExpr(comp)
	if susp == nil {
		d.settleValue(value)
	} else {
		d.susp = susp
		d.attach()
	}
	return newPromise[R](d)
}

// AsyncEff is Async for a Cont-world computation.
func AsyncEff[R any](l *Loop, comp kont.Eff[R]) Promise[R] {
	return Async(l, kont.Reify(comp))
}

// ExecAsync evaluates comp to completion, blocking the wait scope on
// the computation's promise.
func ExecAsync[R any](ws *WaitScope, comp kont.Expr[R]) (R, error) {
	return Async(ws.loop, comp).Wait(ws)
}

// attach registers the driver's event on the node behind the current
// suspension's operation.
func (d *asyncDriver[R]) attach() {
	op, ok := d.susp.Op().(awaiter)
	if !ok {
		panic("prom: unhandled effect in async computation")
	}
	d.awaited = op.awaitNode()
	d.awaited.setSelfPointer(&d.awaited)
	d.awaited.onReady(&d.ev)
}

// fire advances the computation: read the awaited node's result,
// reject the outer promise on failure (discarding the frame), resume
// on success, and re-attach if the computation suspends again.
func (d *asyncDriver[R]) fire() droppable {
	nd := d.awaited
	d.awaited = nil
	var r result
	nd.get(&r)
	nd.drop()

	if r.err != nil {
		d.susp.Discard()
		d.susp = nil
		d.settleErr(r.err)
		return nil
	}

	value, next := d.susp.Resume(r.value)
	d.susp = next
	if next == nil {
		d.settleValue(value)
		return nil
	}
	d.attach()
	return nil
}

func (d *asyncDriver[R]) settleValue(v R) {
	if !d.waiting {
		return
	}
	d.waiting = false
	d.res.setValue(v)
	d.or.arm()
}

func (d *asyncDriver[R]) settleErr(err error) {
	if !d.waiting {
		return
	}
	d.waiting = false
	d.res.addError(err)
	d.or.arm()
}

func (d *asyncDriver[R]) onReady(ev *event) {
	d.or.register(ev)
}

func (d *asyncDriver[R]) get(out *result) {
	if d.waiting {
		panic("prom: internal error: get on an unsettled async computation")
	}
	*out = d.res
}

func (d *asyncDriver[R]) innerForTrace() node {
	return d.awaited
}

func (d *asyncDriver[R]) drop() {
	d.waiting = false
	d.ev.disarm()
	if d.awaited != nil {
		d.awaited.onReady(nil)
		d.awaited.drop()
		d.awaited = nil
	}
	if d.susp != nil {
		d.susp.Discard()
		d.susp = nil
	}
}
