// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package prom

const (
	fiberWaiting = iota
	fiberRunning
	fiberCanceled
	fiberFinished
)

// fiberNode runs user code on its own stack (a dedicated goroutine)
// while presenting as an ordinary promise node to its consumer.
// Control is handed back and forth through a pair of unbuffered
// channels, so exactly one of the loop goroutine and the fiber
// goroutine runs at any moment — the loop stays single-threaded.
type fiberNode struct {
	baseNode
	ev    event
	or    onReadyEvent
	loop  *Loop
	state int

	// toFiber carries resume (true) or cancel (false); toLoop signals
	// that the fiber has suspended, finished, or unwound.
	toFiber chan bool
	toLoop  chan struct{}

	currentInner node
	res          result
	body         func(ws *WaitScope)
	done         bool
}

// StartFiber runs f on its own stack. Inside f, Wait suspends the
// fiber on node readiness instead of spinning the loop, so f may block
// on promises the way straight-line code blocks on calls. Canceling
// the returned promise while the fiber is suspended unwinds its stack.
func StartFiber[T any](l *Loop, f func(ws *WaitScope) (T, error)) Promise[T] {
	fb := &fiberNode{
		loop:    l,
		state:   fiberWaiting,
		toFiber: make(chan bool),
		toLoop:  make(chan struct{}),
	}
	fb.body = func(ws *WaitScope) {
		v, err := f(ws)
		if err != nil {
			fb.res.addError(err)
		} else {
			fb.res.setValue(v)
		}
	}
	fb.ev.init(l, fb)
	go fb.main()
	fb.ev.armDepthFirst()
	return newPromise[T](fb)
}

// main is the fiber goroutine. It parks until the scheduler hands
// control over, runs the body, and reports the outcome. A cancel
// delivered while suspended unwinds the stack via a panic recovered
// here.
func (fb *fiberNode) main() {
	if !<-fb.toFiber {
		fb.state = fiberCanceled
		fb.toLoop <- struct{}{}
		return
	}
	fb.state = fiberRunning

	ws := &WaitScope{loop: fb.loop, fiber: fb}
	func() {
		defer func() {
			if v := recover(); v != nil {
				if err, ok := v.(error); ok && err == errFiberCanceled {
					fb.state = fiberCanceled
					return
				}
				fb.res.addError(recoverToError(v))
			}
		}()
		fb.body(ws)
	}()

	if fb.state != fiberCanceled {
		fb.state = fiberFinished
		fb.done = true
		// The loop goroutine is blocked in fire or drop, so touching
		// its queues here is still single-threaded; the channel
		// handoff publishes the writes.
		fb.or.arm()
	}
	fb.toLoop <- struct{}{}
}

// fire switches control to the fiber's stack: on the first fire it
// starts the body, on later fires it resumes a wait whose node became
// ready.
func (fb *fiberNode) fire() droppable {
	fb.toFiber <- true
	<-fb.toLoop
	return nil
}

// waitFor runs on the fiber goroutine: register the fiber's event on
// nd, yield to the scheduler, and pick up the result when the
// scheduler switches back.
func (fb *fiberNode) waitFor(nd node, out *result) {
	nd.setSelfPointer(&nd)
	fb.currentInner = nd
	nd.onReady(&fb.ev)
	fb.state = fiberWaiting

	consumed := false
	defer func() {
		if !consumed {
			// Unwinding due to cancellation: release the awaited node.
			nd.onReady(nil)
			nd.drop()
		}
	}()

	fb.toLoop <- struct{}{}
	if !<-fb.toFiber {
		panic(errFiberCanceled)
	}
	fb.state = fiberRunning
	fb.currentInner = nil

	consumed = true
	nd.get(out)
	nd.drop()
}

func (fb *fiberNode) onReady(ev *event) {
	fb.or.register(ev)
}

func (fb *fiberNode) get(out *result) {
	if !fb.done {
		panic("prom: internal error: get on an unfinished fiber")
	}
	*out = fb.res
}

func (fb *fiberNode) innerForTrace() node {
	return fb.currentInner
}

// drop cancels the fiber. If it is suspended — waiting to start or
// waiting on a node — the scheduler switches back into the fiber's
// stack with a cancellation unwind and joins it before returning.
func (fb *fiberNode) drop() {
	if fb.done || fb.state == fiberCanceled {
		return
	}
	fb.ev.disarm()
	fb.currentInner = nil
	fb.toFiber <- false
	<-fb.toLoop
}
