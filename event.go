// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package prom

// firer is the behavior behind an event. fire runs on the loop thread
// with no other loop code on the stack. It may return a droppable,
// which the loop releases after fire returns; returning the event's
// own container is the only way an event may destroy itself as a
// result of firing.
type firer interface {
	fire() droppable
}

// droppable releases owned resources. Dropping a node cancels the
// work it represents.
type droppable interface {
	drop()
}

// event is a member of one of the loop's intrusive queues.
// States: unlinked (prev == nil), linked, currently firing.
// A linked event is in exactly one queue.
type event struct {
	loop   *Loop
	f      firer
	q      *eventQueue
	next   *event
	prev   **event
	firing bool
}

func (e *event) init(loop *Loop, f firer) {
	e.loop = loop
	e.f = f
}

func (e *event) linked() bool {
	return e.prev != nil
}

// armDepthFirst queues e at the loop's depth-first insertion point so
// that events armed during a fire run immediately after it, in arm
// order. Arming an already linked event preserves its position.
func (e *event) armDepthFirst() {
	if e.linked() {
		return
	}
	l := e.loop
	e.q = &l.depthFirst
	insertAt(l.dfInsert, e, &l.depthFirst)
	l.dfInsert = &e.next
}

// armBreadthFirst appends e to the breadth-first queue.
func (e *event) armBreadthFirst() {
	if e.linked() {
		return
	}
	e.q = &e.loop.breadthFirst
	insertAt(e.loop.breadthFirst.tail, e, &e.loop.breadthFirst)
}

// armLast queues e to run only once nothing else remains.
func (e *event) armLast() {
	if e.linked() {
		return
	}
	e.q = &e.loop.last
	insertAt(e.loop.last.tail, e, &e.loop.last)
}

// disarm unlinks e from its queue, if linked. Always safe.
func (e *event) disarm() {
	if !e.linked() {
		return
	}
	l := e.loop
	if l.dfInsert == &e.next {
		l.dfInsert = e.prev
	}
	*e.prev = e.next
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		e.q.tail = e.prev
	}
	e.next = nil
	e.prev = nil
	e.q = nil
}

// eventQueue is an intrusive FIFO of events.
type eventQueue struct {
	head *event
	tail **event
}

func (q *eventQueue) init() {
	q.tail = &q.head
}

func (q *eventQueue) empty() bool {
	return q.head == nil
}

// insertAt links e into q at position pos, which must point into q.
func insertAt(pos **event, e *event, q *eventQueue) {
	e.next = *pos
	e.prev = pos
	*pos = e
	if e.next != nil {
		e.next.prev = &e.next
	} else {
		q.tail = &e.next
	}
}

// onReadyEvent implements the register-event half of the node
// contract: it holds the single consumer event to arm on readiness.
// Once armed, a later registration arms the new event immediately.
type onReadyEvent struct {
	ev    *event
	ready bool
}

// register attaches ev as the event to arm; nil detaches. The most
// recent call wins. Registering after readiness arms immediately.
func (o *onReadyEvent) register(ev *event) {
	o.ev = ev
	if o.ready && ev != nil {
		ev.armDepthFirst()
	}
}

// arm signals readiness, queuing the registered event depth-first.
func (o *onReadyEvent) arm() {
	o.ready = true
	if o.ev != nil {
		o.ev.armDepthFirst()
	}
}

// armBreadthFirst signals readiness via the breadth-first queue.
func (o *onReadyEvent) armBreadthFirst() {
	o.ready = true
	if o.ev != nil {
		o.ev.armBreadthFirst()
	}
}
