// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package prom

// A WaitScope is the per-thread capability permitting blocking calls
// on a loop. The scope returned by [New] belongs to the goroutine that
// spins the loop; fibers receive their own scope bound to the fiber.
type WaitScope struct {
	loop  *Loop
	fiber *fiberNode
}

// Loop returns the loop this scope blocks on.
func (ws *WaitScope) Loop() *Loop {
	return ws.loop
}

// boolEvent is the waiter's event: firing it just records that the
// awaited node became ready.
type boolEvent struct {
	fired bool
}

func (b *boolEvent) fire() droppable {
	b.fired = true
	return nil
}

// waitNode spins the loop until nd is ready, then moves its result
// into out and drops it. Inside a fiber the wait suspends the fiber
// instead of spinning.
func waitNode(nd node, out *result, ws *WaitScope) {
	if ws.fiber != nil {
		ws.fiber.waitFor(nd, out)
		return
	}

	l := ws.loop
	nd.setSelfPointer(&nd)
	var done boolEvent
	ev := &event{}
	ev.init(l, &done)
	nd.onReady(ev)

	for !done.fired {
		if l.turn() {
			continue
		}
		if l.pollExternal() {
			continue
		}
		if l.turnLast() {
			continue
		}
		l.park()
	}

	ev.disarm()
	nd.get(out)
	nd.drop()
}

// pollNode spins the loop until nd is ready or nothing remains to do,
// without blocking. The node is left registered-free either way.
func pollNode(nd node, ws *WaitScope) bool {
	if ws.fiber != nil {
		panic("prom: poll inside a fiber; use Wait")
	}

	l := ws.loop
	var done boolEvent
	ev := &event{}
	ev.init(l, &done)
	nd.onReady(ev)

	for !done.fired {
		if l.turn() {
			continue
		}
		if l.pollExternal() {
			continue
		}
		if l.turnLast() {
			continue
		}
		if l.tryWake() {
			continue
		}
		break
	}

	nd.onReady(nil)
	ev.disarm()
	return done.fired
}
