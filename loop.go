// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package prom

// Loop is a single-threaded cooperative event loop. It owns three
// intrusive queues of runnable events: depth-first (continuations,
// popped first), breadth-first (yields, FIFO), and last (drained only
// at idle). All promise evaluation belonging to a loop happens on the
// goroutine that spins it; the only multi-thread touch points are the
// loop's [Executor], [Inlet] producers, and Wake.
type Loop struct {
	serial       Serial
	depthFirst   eventQueue
	breadthFirst eventQueue
	last         eventQueue

	// dfInsert is the depth-first insertion point. It is reset to the
	// queue head at the start of every fire so that events armed during
	// the fire run immediately after it, in arm order.
	dfInsert **event

	currentlyFiring *event

	// wake is the external wake channel. Producers and executors nudge
	// it after publishing work; an idle loop parks on it.
	wake chan struct{}

	exec    *Executor
	sources []drainSource
	daemons *TaskSet
	closed  bool
}

// drainSource is an external feed polled by the loop at idle and after
// a wake.
type drainSource interface {
	drainInto() bool
}

// New creates a loop together with the wait scope permitting blocking
// calls on it. The returned pair is owned by the calling goroutine;
// only that goroutine may spin the loop.
func New() (*Loop, *WaitScope) {
	l := &Loop{
		serial: nextSerial(),
		wake:   make(chan struct{}, 1),
	}
	l.depthFirst.init()
	l.breadthFirst.init()
	l.last.init()
	l.dfInsert = &l.depthFirst.head
	return l, &WaitScope{loop: l}
}

// turn pops and fires one event from the depth-first queue, falling
// back to breadth-first. Reports whether an event ran.
func (l *Loop) turn() bool {
	e := l.depthFirst.head
	if e == nil {
		e = l.breadthFirst.head
	}
	if e == nil {
		return false
	}
	l.fireEvent(e)
	return true
}

// turnLast fires one event from the last queue. Only called once the
// other queues are empty and external sources are drained.
func (l *Loop) turnLast() bool {
	e := l.last.head
	if e == nil {
		return false
	}
	l.fireEvent(e)
	return true
}

func (l *Loop) fireEvent(e *event) {
	e.disarm()
	e.firing = true
	l.currentlyFiring = e
	l.dfInsert = &l.depthFirst.head
	d := e.f.fire()
	l.currentlyFiring = nil
	e.firing = false
	if d != nil {
		d.drop()
	}
}

// hasWork reports whether any queue holds a runnable event.
func (l *Loop) hasWork() bool {
	return !l.depthFirst.empty() || !l.breadthFirst.empty() || !l.last.empty()
}

// pollExternal drains cross-thread submissions and registered inlet
// sources, arming events for anything that arrived. Reports whether
// any external work was ingested.
func (l *Loop) pollExternal() bool {
	progressed := false
	if l.exec != nil && l.exec.pollIncoming() {
		progressed = true
	}
	for _, s := range l.sources {
		if s.drainInto() {
			progressed = true
		}
	}
	return progressed
}

// park blocks until an external wake arrives, then ingests the work
// that caused it. Must only be called with empty queues.
func (l *Loop) park() {
	<-l.wake
	l.pollExternal()
}

// tryWake consumes a pending wake without blocking. Reports whether
// one was pending.
func (l *Loop) tryWake() bool {
	select {
	case <-l.wake:
		l.pollExternal()
		return true
	default:
		return false
	}
}

// Wake nudges the loop's external wake channel. Safe to call from any
// goroutine; used by executors and inlet producers after publishing.
func (l *Loop) Wake() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// addSource registers an external feed. Loop-thread only.
func (l *Loop) addSource(s drainSource) {
	l.sources = append(l.sources, s)
}

// Close tears the loop down: cross-thread work still queued on its
// executor is marked disconnected and future submissions are refused.
// Promises still held by the owner are unaffected; drop them
// individually. Loop-thread only.
func (l *Loop) Close() {
	if l.closed {
		return
	}
	l.closed = true
	if l.daemons != nil {
		l.daemons.Cancel()
	}
	if l.exec != nil {
		l.exec.disconnect()
	}
}
