// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package prom

// A Promise is the owning handle over one vertex of the promise graph.
// It is single-consumer: combinators and Wait consume the handle, and
// using it again afterwards panics. To consume a result more than once,
// Fork first. Dropping the handle ([Promise.Cancel]) cancels the
// underlying work.
type Promise[T any] struct {
	n *node
}

// newPromise wraps nd in an owning handle. The handle points at the
// cell holding the node so that consumption can be detected. The cell
// is not registered as an owner slot; consumers that take the node
// register their own slot for chain shortening.
func newPromise[T any](nd node) Promise[T] {
	cell := new(node)
	*cell = nd
	return Promise[T]{n: cell}
}

// take moves the node out of the handle.
func (p Promise[T]) take() node {
	if p.n == nil {
		panic("prom: use of zero Promise")
	}
	nd := *p.n
	if nd == nil {
		panic("prom: promise used after being consumed or canceled")
	}
	*p.n = nil
	return nd
}

// intoNode implements nodeCarrier so chain nodes can flatten a promise
// carried as an erased value.
func (p Promise[T]) intoNode() node {
	return p.take()
}

// Cancel drops the promise, canceling the underlying work. After the
// owning handle is dropped, no further callbacks execute for the
// subtree. Canceling an already consumed promise is a no-op.
func (p Promise[T]) Cancel() {
	if p.n == nil || *p.n == nil {
		return
	}
	nd := *p.n
	*p.n = nil
	nd.drop()
}

// Resolved returns a promise already resolved to v.
func Resolved[T any](v T) Promise[T] {
	return newPromise[T](newImmediateValue(v))
}

// Rejected returns a promise already broken with err.
func Rejected[T any](err error) Promise[T] {
	return newPromise[T](newImmediateBroken(err))
}

// Never returns a promise that is never ready. Waiting on it without
// an external wake source blocks forever; canceling it is the only
// clean exit.
func Never[T any]() Promise[T] {
	return newPromise[T](neverNode{})
}

// Then transforms the result of p through f. f runs on the loop thread
// once p settles successfully; failures bypass f and propagate. An
// error returned by f (or a panic, converted to a Failed error) breaks
// the returned promise.
func Then[A, B any](p Promise[A], f func(A) (B, error)) Promise[B] {
	t := &transformNode{dep: p.take(), f: func(v any) (any, error) {
		a, _ := v.(A)
		return f(a)
	}}
	return newPromise[B](t)
}

// Bind transforms the result of p through f, flattening the promise f
// returns: the outer observer sees a flat Promise[B], never a
// promise-of-promise. The flattening node collapses chains of chains
// so that recursive binds run in constant space.
func Bind[A, B any](p Promise[A], f func(A) Promise[B]) Promise[B] {
	t := &transformNode{dep: p.take(), f: func(v any) (any, error) {
		a, _ := v.(A)
		return f(a), nil
	}}
	return newPromise[B](newChain(t))
}

// Catch recovers failures of p through f: f may return a replacement
// value or re-raise by returning an error. Successful results bypass f.
func (p Promise[T]) Catch(f func(error) (T, error)) Promise[T] {
	t := &transformNode{dep: p.take(), e: func(err error) (any, error) {
		return f(err)
	}}
	return newPromise[T](t)
}

// Recover is Catch with a promise-returning handler.
func (p Promise[T]) Recover(f func(error) Promise[T]) Promise[T] {
	t := &transformNode{
		dep: p.take(),
		f: func(v any) (any, error) {
			val, _ := v.(T)
			return Resolved(val), nil
		},
		e: func(err error) (any, error) {
			return f(err), nil
		},
	}
	return newPromise[T](newChain(t))
}

// Attach extends the lifetime of values until p settles. Attachments
// implementing io.Closer are closed, in reverse order, after the
// dependency has been released.
func (p Promise[T]) Attach(values ...any) Promise[T] {
	return newPromise[T](&attachmentNode{dep: p.take(), attachments: values})
}

// Eager forces evaluation of p on l even though nothing is waiting yet.
// The result is stored and handed to whichever consumer turns up later.
func (p Promise[T]) Eager(l *Loop) Promise[T] {
	return newPromise[T](newEager(l, p.take()))
}

// Void discards the eventual value of p, keeping its settlement.
func Void[T any](p Promise[T]) Promise[struct{}] {
	return Then(p, func(T) (struct{}, error) { return struct{}{}, nil })
}

// EvalLater evaluates f through the breadth-first queue: it runs after
// everything currently armed, making it the explicit yield point of
// long promise chains.
func EvalLater[T any](f func() (T, error)) Promise[T] {
	return Then(yieldPromise(), func(struct{}) (T, error) { return f() })
}

// EvalLast evaluates f only once both other queues are empty and no
// external work remains.
func EvalLast[T any](f func() (T, error)) Promise[T] {
	ln := &lastNode{}
	ln.res.setValue(struct{}{})
	p := newPromise[struct{}](ln)
	return Then(p, func(struct{}) (T, error) { return f() })
}

// EvalNow evaluates f immediately, converting a panic into a broken
// promise instead of unwinding the caller.
func EvalNow[T any](f func() (T, error)) (p Promise[T]) {
	defer func() {
		if v := recover(); v != nil {
			p = Rejected[T](recoverToError(v))
		}
	}()
	v, err := f()
	if err != nil {
		return Rejected[T](err)
	}
	return Resolved(v)
}

func yieldPromise() Promise[struct{}] {
	return newPromise[struct{}](newImmediateValue(struct{}{}))
}

// Wait spins the wait scope's loop until p settles, then returns its
// value or failure. When the settled carrier holds both a value and a
// failure, both are returned: the value was produced and the failure
// is recoverable. Nested waits from continuations are permitted; a
// wait from inside an event callback is not, except through a fiber's
// wait scope.
func (p Promise[T]) Wait(ws *WaitScope) (T, error) {
	var r result
	waitNode(p.take(), &r, ws)
	return toReturn[T](&r)
}

// Poll spins the loop without blocking and reports whether p is ready.
// The promise is not consumed; a ready promise is then typically
// consumed with Wait, which returns immediately.
func (p Promise[T]) Poll(ws *WaitScope) bool {
	if p.n == nil || *p.n == nil {
		panic("prom: poll on a consumed promise")
	}
	return pollNode(*p.n, ws)
}
