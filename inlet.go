// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package prom

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
)

// inletCapacity is the default bounded capacity for inlet transport
// queues. 4 balances amortizing producer-side cached-index refresh
// cost while keeping ring buffers within a single cache line.
const inletCapacity = 4

// An Inlet feeds values from exactly one external producer goroutine
// into a loop, where they surface as promises. Transport is a bounded
// lock-free SPSC queue; Push is non-blocking and returns
// [code.hybscloud.com/iox.ErrWouldBlock] on backpressure, PushWait
// waits past it with adaptive backoff.
type Inlet[T any] struct {
	q      lfq.SPSC[any]
	loop   *Loop
	closed atomix.Uint32

	// Loop-thread state: consumers waiting for values, and values that
	// arrived before anyone asked.
	pending  []*Fulfiller[T]
	buffered []T
	slot     any
}

// NewInlet creates an inlet delivering into l. Must be called on the
// loop's thread; Push and PushWait may then be called from one other
// goroutine.
func NewInlet[T any](l *Loop) *Inlet[T] {
	in := &Inlet[T]{loop: l}
	in.q.Init(inletCapacity)
	l.addSource(in)
	return in
}

// Push hands v to the loop. Non-blocking: returns iox.ErrWouldBlock
// when the bounded queue is full, a Disconnected error after Close.
func (in *Inlet[T]) Push(v T) error {
	if in.closed.Load() != 0 {
		return ErrDisconnected
	}
	in.slot = v
	if err := in.q.Enqueue(&in.slot); err != nil {
		return err
	}
	in.loop.Wake()
	return nil
}

// PushWait hands v to the loop, waiting past backpressure with
// adaptive backoff.
func (in *Inlet[T]) PushWait(v T) error {
	var bo iox.Backoff
	for {
		err := in.Push(v)
		if err == nil || !iox.IsWouldBlock(err) {
			return err
		}
		bo.Wait()
	}
}

// Close marks the producer side finished. Consumers still waiting, and
// all later Recv calls, observe a Disconnected failure once the queue
// has drained.
func (in *Inlet[T]) Close() {
	in.closed.Store(1)
	in.loop.Wake()
}

// Recv returns a promise for the next value pushed into the inlet.
// Loop-thread only. Values are delivered in push order.
func (in *Inlet[T]) Recv() Promise[T] {
	in.drainInto()
	if len(in.buffered) > 0 {
		v := in.buffered[0]
		in.buffered = in.buffered[1:]
		return Resolved(v)
	}
	if in.closed.Load() != 0 {
		// drainInto leaves the queue empty, so nothing else can arrive.
		return Rejected[T](ErrDisconnected)
	}
	p, f := NewPromiseFulfiller[T]()
	in.pending = append(in.pending, f)
	return p
}

// drainInto moves queued values to waiting consumers, buffering the
// overflow. Runs on the loop thread at idle and after a wake.
func (in *Inlet[T]) drainInto() bool {
	progressed := false
	for {
		v, err := in.q.Dequeue()
		if err != nil {
			break
		}
		progressed = true
		t, _ := v.(T)
		if len(in.pending) > 0 {
			f := in.pending[0]
			in.pending = in.pending[1:]
			f.Fulfill(t)
		} else {
			in.buffered = append(in.buffered, t)
		}
	}
	if in.closed.Load() != 0 && len(in.pending) > 0 {
		for _, f := range in.pending {
			f.Reject(ErrDisconnected)
		}
		in.pending = nil
		progressed = true
	}
	return progressed
}
