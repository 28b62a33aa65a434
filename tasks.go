// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package prom

// A TaskSet owns fire-and-forget promises. Each added promise is
// evaluated eagerly; failures are routed to the set's error handler
// instead of being silently dropped. Destroying the set cancels
// everything still pending.
type TaskSet struct {
	loop    *Loop
	onError func(error)
	head    *setTask
	tail    **setTask
	count   int
	onEmpty *Fulfiller[struct{}]
}

type setTask struct {
	ev   event
	ts   *TaskSet
	dep  node
	next *setTask
	prev **setTask
}

// NewTaskSet creates a task set on l. onError receives the failure of
// any task that breaks; nil discards failures.
func NewTaskSet(l *Loop, onError func(error)) *TaskSet {
	ts := &TaskSet{loop: l, onError: onError}
	ts.tail = &ts.head
	return ts
}

// Add hands p to the set. The promise starts evaluating immediately,
// as if someone were waiting on it.
func (ts *TaskSet) Add(p Promise[struct{}]) {
	t := &setTask{ts: ts, dep: p.take()}
	t.dep.setSelfPointer(&t.dep)
	t.prev = ts.tail
	*ts.tail = t
	ts.tail = &t.next
	ts.count++
	t.ev.init(ts.loop, t)
	t.dep.onReady(&t.ev)
}

// Empty reports whether no tasks remain.
func (ts *TaskSet) Empty() bool {
	return ts.count == 0
}

// OnEmpty returns a promise that settles once the set next becomes
// empty.
func (ts *TaskSet) OnEmpty() Promise[struct{}] {
	if ts.count == 0 {
		return Resolved(struct{}{})
	}
	p, f := NewPromiseFulfiller[struct{}]()
	ts.onEmpty = f
	return p
}

// Cancel drops every task still pending.
func (ts *TaskSet) Cancel() {
	for t := ts.head; t != nil; t = ts.head {
		t.remove()
		t.ev.disarm()
		if t.dep != nil {
			t.dep.drop()
			t.dep = nil
		}
	}
}

func (t *setTask) fire() droppable {
	ts := t.ts
	t.remove()
	var r result
	t.dep.get(&r)
	t.dep.drop()
	t.dep = nil
	if r.err != nil && ts.onError != nil {
		ts.onError(r.err)
	}
	if ts.count == 0 && ts.onEmpty != nil {
		f := ts.onEmpty
		ts.onEmpty = nil
		f.Fulfill(struct{}{})
	}
	return nil
}

func (t *setTask) remove() {
	if t.prev == nil {
		return
	}
	*t.prev = t.next
	if t.next != nil {
		t.next.prev = t.prev
	} else {
		t.ts.tail = t.prev
	}
	t.next = nil
	t.prev = nil
	t.ts.count--
}

// Detach evaluates p in the background on l, routing an eventual
// failure to onError. The promise handle is consumed; the work can no
// longer be canceled individually.
func Detach[T any](l *Loop, p Promise[T], onError func(error)) {
	if l.daemons == nil {
		l.daemons = NewTaskSet(l, nil)
	}
	caught := p.Catch(func(err error) (T, error) {
		if onError != nil {
			onError(err)
		}
		var zero T
		return zero, nil
	})
	l.daemons.Add(Void(caught))
}
