// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package prom

// Refcounted is implemented by owning handles that can mint an
// additional reference to themselves. Fork branches hand such values
// out via AddRef; everything else is shared as-is.
type Refcounted interface {
	AddRef() any
}

// forkHub is the shared settlement point behind Fork. It owns the
// inner node, caches its result, and holds the branch list. Branches
// hold the only references; the last branch consumed or dropped
// releases the hub.
type forkHub struct {
	ev         event
	inner      node
	res        result
	ready      bool
	refs       int
	head       *forkBranch
	tail       **forkBranch
	registered bool
	released   bool
}

func newForkHub(inner node) *forkHub {
	h := &forkHub{inner: inner}
	h.tail = &h.head
	inner.setSelfPointer(&h.inner)
	return h
}

func (h *forkHub) activate(l *Loop) {
	if h.registered || h.ready {
		return
	}
	h.registered = true
	h.ev.init(l, h)
	h.inner.onReady(&h.ev)
}

// fire caches the inner result and arms every branch in the order the
// branches were added.
func (h *forkHub) fire() droppable {
	h.inner.get(&h.res)
	h.ready = true
	for b := h.head; b != nil; {
		next := b.next
		b.next, b.prev = nil, nil
		b.or.arm()
		b = next
	}
	h.head = nil
	h.tail = nil
	return nil
}

func (h *forkHub) addBranch(extract func(any) any) *forkBranch {
	if h.released {
		panic("prom: fork used after all branches were consumed")
	}
	b := &forkBranch{hub: h, extract: extract}
	h.refs++
	if h.ready {
		b.or.ready = true
	} else {
		b.prev = h.tail
		*h.tail = b
		h.tail = &b.next
	}
	return b
}

func (h *forkHub) release() {
	h.refs--
	if h.refs > 0 || h.released {
		return
	}
	h.released = true
	h.ev.disarm()
	if h.inner != nil {
		h.inner.drop()
		h.inner = nil
	}
}

// forkBranch is one consumer-facing node referring to the hub. Its get
// copies the cached value — minting a new reference when the value is
// refcounted — then drops its hub reference.
type forkBranch struct {
	baseNode
	hub     *forkHub
	or      onReadyEvent
	extract func(any) any
	next    *forkBranch
	prev    **forkBranch
}

func (b *forkBranch) onReady(ev *event) {
	b.or.register(ev)
	if ev != nil && b.hub != nil {
		b.hub.activate(ev.loop)
	}
}

func (b *forkBranch) get(out *result) {
	h := b.hub
	if h == nil {
		panic("prom: internal error: fork branch consumed twice")
	}
	if h.res.hasValue {
		out.setValue(b.extract(h.res.value))
	}
	if h.res.err != nil {
		out.addError(h.res.err)
	}
	b.hub = nil
	h.release()
}

func (b *forkBranch) innerForTrace() node {
	if b.hub == nil {
		return nil
	}
	return b.hub.inner
}

func (b *forkBranch) drop() {
	h := b.hub
	if h == nil {
		return
	}
	b.hub = nil
	if b.prev != nil {
		// Still linked in the hub's pending list.
		*b.prev = b.next
		if b.next != nil {
			b.next.prev = b.prev
		} else {
			h.tail = b.prev
		}
		b.next = nil
		b.prev = nil
	}
	h.release()
}

// shareValue is the default branch copy: refcounted handles mint a new
// reference, everything else is shared.
func shareValue(v any) any {
	if rc, ok := v.(Refcounted); ok {
		return rc.AddRef()
	}
	return v
}

// A ForkedPromise hands out any number of branch promises that all
// resolve to the inner promise's result.
type ForkedPromise[T any] struct {
	hub *forkHub
}

// Fork converts p into a multi-consumer promise. The inner node starts
// evaluating as soon as the first branch finds a consumer; the hub is
// released when the last branch has been consumed or canceled.
func (p Promise[T]) Fork() *ForkedPromise[T] {
	return &ForkedPromise[T]{hub: newForkHub(p.take())}
}

// AddBranch returns a promise for a copy of the forked result.
// Branches become ready in the order they were added.
func (f *ForkedPromise[T]) AddBranch() Promise[T] {
	return newPromise[T](f.hub.addBranch(shareValue))
}

// Pair carries the two components split by SplitPair.
type Pair[A, B any] struct {
	First  A
	Second B
}

// SplitPair is the tuple-destructuring form of Fork: both component
// promises are produced at once, each extracting one element of the
// pair.
func SplitPair[A, B any](p Promise[Pair[A, B]]) (Promise[A], Promise[B]) {
	hub := newForkHub(p.take())
	first := hub.addBranch(func(v any) any {
		pair, _ := v.(Pair[A, B])
		return shareValue(pair.First)
	})
	second := hub.addBranch(func(v any) any {
		pair, _ := v.(Pair[A, B])
		return shareValue(pair.Second)
	})
	return newPromise[A](first), newPromise[B](second)
}
