// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package prom

import (
	"sync"

	"code.hybscloud.com/atomix"
)

// Cross-thread event states. Transitions are serialized by the target
// executor's mutex; DONE is additionally published with an atomic
// release store so the requesting thread can observe completion
// without taking the lock.
const (
	xsUnused uint32 = iota
	xsQueued
	xsExecuting
	xsCanceling
	xsDone
)

// An Executor is a loop's thread-safe handle for receiving work from
// other threads. It owns a mutex protecting three intrusive lists of
// incoming events (start, executing, cancel) plus the reply list used
// when the submission came from another loop.
type Executor struct {
	loop *Loop

	mu        sync.Mutex
	live      bool
	start     xthreadList
	executing xthreadList
	cancel    xthreadList
	reply     xthreadList
}

// Executor returns the loop's executor. The first call initializes it
// and must happen on the loop's thread; the returned handle is then
// usable from any thread.
func (l *Loop) Executor() *Executor {
	if l.exec == nil {
		l.exec = &Executor{loop: l, live: !l.closed}
	}
	return l.exec
}

type xthreadList struct {
	head *xthreadEvent
}

func (ls *xthreadList) push(e *xthreadEvent) {
	e.next = ls.head
	e.prev = &ls.head
	if ls.head != nil {
		ls.head.prev = &e.next
	}
	ls.head = e
}

func (e *xthreadEvent) unlink() {
	if e.prev == nil {
		return
	}
	*e.prev = e.next
	if e.next != nil {
		e.next.prev = e.prev
	}
	e.next = nil
	e.prev = nil
}

// xthreadRunner is the typed half of a cross-thread event: run the
// submitted function, possibly producing an inner node to wait on.
type xthreadRunner interface {
	execute() node
}

// xthreadEvent lives in the requesting thread's memory but is queued
// in the target loop. It doubles as a promise node in the requesting
// thread for the async mode.
type xthreadEvent struct {
	baseNode
	ev     event // in the target loop
	state  atomix.Uint32
	done   chan struct{}
	runner xthreadRunner
	res    *result

	target *Executor
	reply  *Executor // set when submitted from another loop (async mode)

	// Target-side: inner node produced by a promise-returning function.
	promiseNode node

	next *xthreadEvent
	prev **xthreadEvent

	replyNext *xthreadEvent
	replyPrev **xthreadEvent

	// Requesting side.
	or onReadyEvent
}

func newXThreadEvent(target *Executor, res *result, runner xthreadRunner) *xthreadEvent {
	return &xthreadEvent{
		done:   make(chan struct{}),
		runner: runner,
		res:    res,
		target: target,
	}
}

// send queues e on the target executor and wakes its loop. Returns
// false if the target loop has already exited, in which case e's
// result carries a disconnected failure.
func (x *Executor) send(e *xthreadEvent) bool {
	x.mu.Lock()
	if !x.live {
		x.mu.Unlock()
		e.res.addError(ErrDisconnected)
		e.state.Store(xsDone)
		close(e.done)
		return false
	}
	e.state.Store(xsQueued)
	x.start.push(e)
	x.mu.Unlock()
	x.loop.Wake()
	return true
}

// pollIncoming moves newly arrived events from the start list to the
// executing list and arms them. Loop-thread only. Also drains replies
// destined for this loop's own submissions.
func (x *Executor) pollIncoming() bool {
	x.mu.Lock()
	progressed := false
	for e := x.start.head; e != nil; e = x.start.head {
		e.unlink()
		e.state.Store(xsExecuting)
		x.executing.push(e)
		e.ev.init(x.loop, (*xthreadTargetFirer)(e))
		e.ev.armBreadthFirst()
		progressed = true
	}
	var canceled *xthreadEvent
	for e := x.cancel.head; e != nil; e = x.cancel.head {
		e.unlink()
		e.replyNext = canceled
		canceled = e
		progressed = true
	}
	var replies *xthreadEvent
	for e := x.reply.head; e != nil; e = x.reply.head {
		e.unlinkReply()
		e.replyNext = replies
		replies = e
		progressed = true
	}
	x.mu.Unlock()
	for e := canceled; e != nil; {
		next := e.replyNext
		e.replyNext = nil
		e.ev.disarm()
		if e.promiseNode != nil {
			e.promiseNode.drop()
			e.promiseNode = nil
		}
		e.finish()
		e = next
	}
	for e := replies; e != nil; {
		next := e.replyNext
		e.replyNext = nil
		e.or.arm()
		e = next
	}
	return progressed
}

func (e *xthreadEvent) unlinkReply() {
	if e.replyPrev == nil {
		return
	}
	*e.replyPrev = e.replyNext
	if e.replyNext != nil {
		e.replyNext.replyPrev = e.replyPrev
	}
	e.replyNext = nil
	e.replyPrev = nil
}

// xthreadTargetFirer is the event behavior on the target loop: first
// fire runs the function; if it produced an inner promise, the second
// fire collects that promise's result.
type xthreadTargetFirer xthreadEvent

func (f *xthreadTargetFirer) fire() droppable {
	e := (*xthreadEvent)(f)
	if e.promiseNode == nil {
		if e.state.Load() == xsCanceling {
			e.finish()
			return nil
		}
		var inner node
		func() {
			defer func() {
				if v := recover(); v != nil {
					e.res.addError(recoverToError(v))
				}
			}()
			inner = e.runner.execute()
		}()
		if inner != nil {
			e.promiseNode = inner
			inner.setSelfPointer(&e.promiseNode)
			inner.onReady(&e.ev)
			return nil
		}
		e.finish()
		return nil
	}

	inner := e.promiseNode
	e.promiseNode = nil
	if e.state.Load() != xsCanceling {
		inner.get(e.res)
	}
	inner.drop()
	e.finish()
	return nil
}

// finish retires the event on the target side: unlink from whichever
// list holds it, hand it to the reply executor if the submission was
// asynchronous, then publish DONE with a release store. After the
// store the target thread never touches the event again.
func (e *xthreadEvent) finish() {
	x := e.target
	x.mu.Lock()
	e.unlink()
	x.mu.Unlock()

	if e.reply != nil {
		r := e.reply
		r.mu.Lock()
		if r.live {
			e.replyNext = r.reply.head
			e.replyPrev = &r.reply.head
			if r.reply.head != nil {
				r.reply.head.replyPrev = &e.replyNext
			}
			r.reply.head = e
		}
		r.mu.Unlock()
		r.loop.Wake()
	}

	e.state.Store(xsDone)
	close(e.done)
}

// ensureDoneOrCanceled blocks the requesting thread until the target
// is finished with e. The DONE fast path is a lock-free acquire load.
func (e *xthreadEvent) ensureDoneOrCanceled() {
	if e.state.Load() == xsDone {
		return
	}
	x := e.target
	x.mu.Lock()
	switch e.state.Load() {
	case xsDone:
		x.mu.Unlock()
		return
	case xsQueued:
		// Not dequeued yet: unlink and own it again without waiting.
		e.unlink()
		e.res.addError(NewError(Failed, "cross-thread work canceled"))
		e.state.Store(xsDone)
		x.mu.Unlock()
		close(e.done)
		return
	case xsExecuting:
		e.unlink()
		x.cancel.push(e)
		e.state.Store(xsCanceling)
		x.mu.Unlock()
		x.loop.Wake()
	default:
		x.mu.Unlock()
	}
	<-e.done
}

// disconnect marks the executor dead and fails everything still
// queued with a disconnected error. Called when the target loop
// exits.
func (x *Executor) disconnect() {
	x.mu.Lock()
	var doomed []*xthreadEvent
	x.live = false
	for _, ls := range []*xthreadList{&x.start, &x.executing, &x.cancel} {
		for e := ls.head; e != nil; e = ls.head {
			e.unlink()
			doomed = append(doomed, e)
		}
	}
	x.mu.Unlock()

	for _, e := range doomed {
		e.ev.disarm()
		if e.promiseNode != nil {
			e.promiseNode.drop()
			e.promiseNode = nil
		}
		e.res.addError(ErrDisconnected)
		if e.reply != nil {
			r := e.reply
			r.mu.Lock()
			if r.live {
				e.replyNext = r.reply.head
				e.replyPrev = &r.reply.head
				if r.reply.head != nil {
					r.reply.head.replyPrev = &e.replyNext
				}
				r.reply.head = e
			}
			r.mu.Unlock()
			r.loop.Wake()
		}
		e.state.Store(xsDone)
		close(e.done)
	}
}

// Requesting-side promise node hooks (async mode).

func (e *xthreadEvent) onReady(ev *event) {
	e.or.register(ev)
}

func (e *xthreadEvent) get(out *result) {
	*out = *e.res
}

func (e *xthreadEvent) drop() {
	e.ensureDoneOrCanceled()
}

// -------------------------------------------------------------------

type xthreadFunc struct {
	f func() (any, error)
}

func (r xthreadFunc) execute() node {
	v, err := r.f()
	if err != nil {
		return newImmediateBroken(err)
	}
	return newImmediateValue(v)
}

type xthreadPromiseFunc struct {
	f func() node
}

func (r xthreadPromiseFunc) execute() node {
	return r.f()
}

// ExecuteSync runs f on the executor's loop from any other thread and
// blocks until it completes, returning its result. If the target loop
// exits before completion the call fails with a Disconnected error.
func ExecuteSync[T any](x *Executor, f func() (T, error)) (T, error) {
	var res result
	e := newXThreadEvent(x, &res, xthreadFunc{f: func() (any, error) { return f() }})
	if x.send(e) {
		<-e.done
	}
	return toReturn[T](&res)
}

// ExecuteSyncPromise is ExecuteSync for a promise-returning function:
// the target loop runs the returned promise to completion before
// replying.
func ExecuteSyncPromise[T any](x *Executor, f func() Promise[T]) (T, error) {
	var res result
	e := newXThreadEvent(x, &res, xthreadPromiseFunc{f: func() node { return f().take() }})
	if x.send(e) {
		<-e.done
	}
	return toReturn[T](&res)
}

// ExecuteAsync runs f on the executor's loop and returns a promise for
// its result in the calling loop. ws identifies the calling loop; the
// reply travels through its executor's reply list. Canceling the
// returned promise cancels the remote work, blocking briefly if it is
// already executing.
func ExecuteAsync[T any](x *Executor, ws *WaitScope, f func() (T, error)) Promise[T] {
	res := new(result)
	e := newXThreadEvent(x, res, xthreadFunc{f: func() (any, error) { return f() }})
	e.reply = ws.loop.Executor()
	if !x.send(e) {
		return Rejected[T](ErrDisconnected)
	}
	return newPromise[T](e)
}

// ExecuteAsyncPromise is ExecuteAsync for a promise-returning
// function.
func ExecuteAsyncPromise[T any](x *Executor, ws *WaitScope, f func() Promise[T]) Promise[T] {
	res := new(result)
	e := newXThreadEvent(x, res, xthreadPromiseFunc{f: func() node { return f().take() }})
	e.reply = ws.loop.Executor()
	if !x.send(e) {
		return Rejected[T](ErrDisconnected)
	}
	return newPromise[T](e)
}
