// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package prom_test

import (
	"errors"
	"testing"

	"code.hybscloud.com/kont"
	"code.hybscloud.com/prom"
)

func TestAsyncAwaitChain(t *testing.T) {
	l, ws := prom.New()

	comp := prom.AwaitBind(prom.Resolved(20), func(x int) kont.Eff[int] {
		return prom.AwaitBind(prom.EvalLater(func() (int, error) { return x + 1, nil }),
			func(y int) kont.Eff[int] {
				return kont.Pure(y * 2)
			})
	})

	p := prom.AsyncEff(l, comp)
	if v := mustWait(t, p, ws); v != 42 {
		t.Fatalf("got %d, want 42", v)
	}
}

func TestAsyncImmediateCompletion(t *testing.T) {
	l, ws := prom.New()

	p := prom.AsyncEff(l, kont.Pure("done"))
	if v := mustWait(t, p, ws); v != "done" {
		t.Fatalf("got %q", v)
	}
}

func TestAsyncFailedAwaitRejectsOuter(t *testing.T) {
	l, ws := prom.New()

	resumed := false
	comp := prom.AwaitBind(prom.Rejected[int](errors.New("await failed")), func(int) kont.Eff[int] {
		resumed = true
		return kont.Pure(0)
	})

	p := prom.AsyncEff(l, comp)
	if err := waitErr(t, p, ws); err.Error() != "await failed" {
		t.Fatalf("got %v", err)
	}
	if resumed {
		t.Fatalf("computation resumed past a failed await")
	}
}

func TestAsyncYield(t *testing.T) {
	l, ws := prom.New()

	var order []string
	comp := prom.YieldThen[int](prom.AwaitBind(
		prom.EvalLater(func() (int, error) {
			order = append(order, "comp")
			return 1, nil
		}),
		func(x int) kont.Eff[int] { return kont.Pure(x) },
	))

	other := prom.EvalLater(func() (struct{}, error) {
		order = append(order, "other")
		return struct{}{}, nil
	})

	p := prom.AsyncEff(l, comp)
	mustWait(t, other, ws)
	if v := mustWait(t, p, ws); v != 1 {
		t.Fatalf("got %d", v)
	}
	if len(order) != 2 || order[0] != "other" {
		t.Fatalf("yield did not let armed work run first: %v", order)
	}
}

func TestAsyncExprWorld(t *testing.T) {
	l, ws := prom.New()

	comp := prom.ExprAwaitBind(prom.Resolved(5), func(x int) kont.Expr[int] {
		return prom.ExprAwaitBind(prom.Resolved(x*2), func(y int) kont.Expr[int] {
			return kont.ExprReturn(y + 1)
		})
	})

	p := prom.Async(l, comp)
	if v := mustWait(t, p, ws); v != 11 {
		t.Fatalf("got %d, want 11", v)
	}
}

func TestExprAwaitThenAndDone(t *testing.T) {
	l, ws := prom.New()

	comp := prom.ExprAwaitThen(prom.Resolved("ignored"),
		prom.ExprAwaitDone(prom.EvalLater(func() (int, error) { return 7, nil })))

	if v, err := prom.ExecAsync(ws, comp); err != nil || v != 7 {
		t.Fatalf("got %d, %v", v, err)
	}
	_ = l
}

func TestAsyncCancelDiscardsComputation(t *testing.T) {
	l, ws := prom.New()

	resumed := false
	work, fulfiller := prom.NewPromiseFulfiller[int]()
	comp := prom.AwaitBind(work, func(int) kont.Eff[int] {
		resumed = true
		return kont.Pure(0)
	})

	p := prom.AsyncEff(l, comp)
	settle(ws)
	p.Cancel()

	fulfiller.Fulfill(9)
	settle(ws)
	if resumed {
		t.Fatalf("discarded computation resumed")
	}
}
