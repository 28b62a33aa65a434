// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package prom_test

import (
	"testing"

	"code.hybscloud.com/prom"
)

func TestEagerRunsWithoutConsumer(t *testing.T) {
	l, ws := prom.New()

	ran := false
	p := prom.Then(prom.Resolved(1), func(x int) (int, error) {
		ran = true
		return x, nil
	}).Eager(l)

	// Spin the loop without touching p: the eager node is its own
	// consumer.
	settle(ws)
	if !ran {
		t.Fatalf("eager promise did not evaluate without a waiter")
	}

	if v := mustWait(t, p, ws); v != 1 {
		t.Fatalf("got %d, want 1", v)
	}
}

func TestLazyWithoutEager(t *testing.T) {
	_, ws := prom.New()

	ran := false
	p := prom.Then(prom.Resolved(1), func(x int) (int, error) {
		ran = true
		return x, nil
	})

	settle(ws)
	if ran {
		t.Fatalf("promise with no consumer evaluated")
	}
	p.Cancel()
}

func TestEagerCancelation(t *testing.T) {
	l, ws := prom.New()

	ran := false
	p := prom.EvalLater(func() (int, error) {
		ran = true
		return 1, nil
	}).Eager(l)
	p.Cancel()

	settle(ws)
	if ran {
		t.Fatalf("canceled eager promise still evaluated")
	}
}

func TestDetachRoutesErrors(t *testing.T) {
	l, ws := prom.New()

	var got error
	prom.Detach(l, prom.EvalLater(func() (int, error) {
		return 0, prom.NewError(prom.Unimplemented, "nope")
	}), func(err error) { got = err })

	settle(ws)
	if got == nil || prom.KindOf(got) != prom.Unimplemented {
		t.Fatalf("detach error = %v", got)
	}
}
