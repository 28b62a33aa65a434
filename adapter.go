// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package prom

// adapterNode is the graph-side half of an externally settled promise.
// It stays pending until the fulfiller settles it; the first settle
// wins and later ones are no-ops.
type adapterNode struct {
	baseNode
	or      onReadyEvent
	res     result
	waiting bool
}

func (n *adapterNode) onReady(ev *event) {
	n.or.register(ev)
}

func (n *adapterNode) get(out *result) {
	if n.waiting {
		panic("prom: internal error: get on an unsettled adapter")
	}
	*out = n.res
}

// drop detaches the promise side: the work is canceled, so any late
// settle from the producer becomes a no-op.
func (n *adapterNode) drop() {
	n.waiting = false
}

// A Fulfiller is the external producer's capability to settle an
// adapter-backed promise. It is two-way detachable: releasing it
// without settling rejects the promise, and canceling the promise
// turns every later call into a no-op.
//
// Settling arms the consumer's event, so a Fulfiller may only be used
// on the loop's thread. Producers on other threads go through an
// [Inlet] or an [Executor].
type Fulfiller[T any] struct {
	n *adapterNode
}

// Fulfill resolves the promise with v. No-op if the promise has
// already settled or was canceled.
func (f *Fulfiller[T]) Fulfill(v T) {
	n := f.n
	if n == nil || !n.waiting {
		return
	}
	n.waiting = false
	n.res.setValue(v)
	n.or.arm()
}

// Reject breaks the promise with err. No-op if the promise has already
// settled or was canceled.
func (f *Fulfiller[T]) Reject(err error) {
	n := f.n
	if n == nil || !n.waiting {
		return
	}
	n.waiting = false
	n.res.addError(err)
	n.or.arm()
}

// IsWaiting reports whether the promise is still unsettled and
// uncanceled.
func (f *Fulfiller[T]) IsWaiting() bool {
	return f.n != nil && f.n.waiting
}

// RejectIfPanics runs fn, converting a panic into a rejection.
// Reports whether fn completed without panicking.
func (f *Fulfiller[T]) RejectIfPanics(fn func()) (ok bool) {
	defer func() {
		if v := recover(); v != nil {
			f.Reject(recoverToError(v))
			ok = false
		}
	}()
	fn()
	return true
}

// Release drops the producer's handle. If the promise is still
// waiting, it is rejected with [ErrBrokenFulfiller].
func (f *Fulfiller[T]) Release() {
	n := f.n
	if n == nil {
		return
	}
	f.n = nil
	if n.waiting {
		n.waiting = false
		n.res.addError(ErrBrokenFulfiller)
		n.or.arm()
	}
}

// NewPromiseFulfiller returns a promise together with the fulfiller
// that settles it.
func NewPromiseFulfiller[T any]() (Promise[T], *Fulfiller[T]) {
	n := &adapterNode{waiting: true}
	return newPromise[T](n), &Fulfiller[T]{n: n}
}
