// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package prom_test

import (
	"errors"
	"testing"
	"time"

	"code.hybscloud.com/prom"
)

// startLoopThread spins a loop on its own goroutine until the returned
// stop function is called, then closes the loop and reports back.
func startLoopThread() (x *prom.Executor, stop func()) {
	ready := make(chan *prom.Executor)
	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		l, ws := prom.New()
		p, f := prom.NewPromiseFulfiller[struct{}]()
		go func() {
			<-done
			// Settle from the loop thread: route the stop through the
			// executor so the fulfiller is only touched there.
			prom.ExecuteSync(l.Executor(), func() (struct{}, error) {
				f.Fulfill(struct{}{})
				return struct{}{}, nil
			})
		}()
		ready <- l.Executor()
		p.Wait(ws)
		l.Close()
		close(stopped)
	}()

	x = <-ready
	return x, func() {
		close(done)
		<-stopped
	}
}

func TestExecuteSync(t *testing.T) {
	x, stop := startLoopThread()
	defer stop()

	v, err := prom.ExecuteSync(x, func() (int, error) { return 42, nil })
	if err != nil || v != 42 {
		t.Fatalf("got %d, %v; want 42", v, err)
	}
}

func TestExecuteSyncError(t *testing.T) {
	x, stop := startLoopThread()
	defer stop()

	_, err := prom.ExecuteSync(x, func() (int, error) { return 0, errors.New("remote") })
	if err == nil || err.Error() != "remote" {
		t.Fatalf("got %v", err)
	}
}

func TestExecuteSyncPanicIsFailure(t *testing.T) {
	x, stop := startLoopThread()
	defer stop()

	_, err := prom.ExecuteSync(x, func() (int, error) { panic("target bug") })
	if err == nil || prom.KindOf(err) != prom.Failed {
		t.Fatalf("got %v", err)
	}
}

func TestExecuteSyncPromise(t *testing.T) {
	x, stop := startLoopThread()
	defer stop()

	v, err := prom.ExecuteSyncPromise(x, func() prom.Promise[int] {
		return prom.EvalLater(func() (int, error) { return 7, nil })
	})
	if err != nil || v != 7 {
		t.Fatalf("got %d, %v; want 7", v, err)
	}
}

func TestExecuteSyncDisconnected(t *testing.T) {
	x, stop := startLoopThread()
	stop()

	_, err := prom.ExecuteSync(x, func() (int, error) { return 1, nil })
	if !errors.Is(err, prom.ErrDisconnected) {
		t.Fatalf("got %v, want disconnected", err)
	}
}

func TestExecuteAsync(t *testing.T) {
	x, stop := startLoopThread()
	defer stop()

	_, ws := prom.New()
	p := prom.ExecuteAsync(x, ws, func() (int, error) { return 10, nil })
	if v := mustWait(t, p, ws); v != 10 {
		t.Fatalf("got %d, want 10", v)
	}
}

func TestExecuteAsyncParksUntilReply(t *testing.T) {
	x, stop := startLoopThread()
	defer stop()

	_, ws := prom.New()
	p := prom.ExecuteAsync(x, ws, func() (int, error) {
		time.Sleep(20 * time.Millisecond)
		return 5, nil
	})

	// The requesting loop has nothing to do but park on its wake
	// channel until the reply lands.
	if v := mustWait(t, p, ws); v != 5 {
		t.Fatalf("got %d, want 5", v)
	}
}

func TestExecuteAsyncCancel(t *testing.T) {
	x, stop := startLoopThread()
	defer stop()

	_, ws := prom.New()

	block := make(chan struct{})
	ran := make(chan struct{}, 1)
	p := prom.ExecuteAsync(x, ws, func() (int, error) {
		ran <- struct{}{}
		<-block
		return 1, nil
	})

	<-ran // executing on the target loop now
	go func() {
		time.Sleep(10 * time.Millisecond)
		close(block)
	}()
	p.Cancel() // transitions to CANCELING, then blocks until DONE
}

func TestExecuteAsyncPromise(t *testing.T) {
	x, stop := startLoopThread()
	defer stop()

	_, ws := prom.New()
	p := prom.ExecuteAsyncPromise(x, ws, func() prom.Promise[string] {
		return prom.EvalLater(func() (string, error) { return "across", nil })
	})
	if v := mustWait(t, p, ws); v != "across" {
		t.Fatalf("got %q", v)
	}
}

func TestManyExecuteSyncCallers(t *testing.T) {
	x, stop := startLoopThread()
	defer stop()

	const callers = 8
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			v, err := prom.ExecuteSync(x, func() (int, error) { return i, nil })
			if err == nil && v != i {
				err = errors.New("wrong value")
			}
			errs <- err
		}(i)
	}
	for i := 0; i < callers; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("caller failed: %v", err)
		}
	}
}
