// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package prom_test

import (
	"errors"
	"testing"

	"code.hybscloud.com/prom"
)

func TestForkSharesResult(t *testing.T) {
	_, ws := prom.New()

	f := prom.Resolved("hi").Fork()
	b1 := f.AddBranch()
	b2 := f.AddBranch()

	joined := prom.Then(prom.All(b1, b2), func(vs []string) (string, error) {
		return vs[0] + " " + vs[1], nil
	})

	if v := mustWait(t, joined, ws); v != "hi hi" {
		t.Fatalf("got %q, want %q", v, "hi hi")
	}
}

func TestForkBranchesArmInAddOrder(t *testing.T) {
	_, ws := prom.New()

	f := prom.EvalLater(func() (int, error) { return 1, nil }).Fork()

	var order []string
	b1 := prom.Then(f.AddBranch(), func(int) (struct{}, error) {
		order = append(order, "b1")
		return struct{}{}, nil
	})
	b2 := prom.Then(f.AddBranch(), func(int) (struct{}, error) {
		order = append(order, "b2")
		return struct{}{}, nil
	})

	mustWait(t, prom.All(b1, b2), ws)

	if len(order) != 2 || order[0] != "b1" || order[1] != "b2" {
		t.Fatalf("order = %v", order)
	}
}

func TestForkPropagatesFailureToAllBranches(t *testing.T) {
	_, ws := prom.New()

	f := prom.Rejected[int](errors.New("boom")).Fork()
	b1 := f.AddBranch()
	b2 := f.AddBranch()

	if err := waitErr(t, b1, ws); err.Error() != "boom" {
		t.Fatalf("b1 got %v", err)
	}
	if err := waitErr(t, b2, ws); err.Error() != "boom" {
		t.Fatalf("b2 got %v", err)
	}
}

func TestForkLateBranchSeesCachedResult(t *testing.T) {
	_, ws := prom.New()

	f := prom.Resolved(5).Fork()
	b1 := f.AddBranch()
	// A second pending branch keeps the hub alive after b1 is consumed.
	held := f.AddBranch()
	if v := mustWait(t, b1, ws); v != 5 {
		t.Fatalf("got %d", v)
	}

	// The hub has settled; a branch added now reads the cached slot.
	b2 := f.AddBranch()
	if v := mustWait(t, b2, ws); v != 5 {
		t.Fatalf("late branch got %d", v)
	}
	held.Cancel()
}

func TestForkReleaseAfterLastBranch(t *testing.T) {
	_, ws := prom.New()

	f := prom.Resolved(1).Fork()
	b1 := f.AddBranch()
	b2 := f.AddBranch()
	mustWait(t, b1, ws)
	mustWait(t, b2, ws)

	defer func() {
		if recover() == nil {
			t.Fatalf("branch after release did not panic")
		}
	}()
	f.AddBranch()
}

type refHandle struct {
	refs *int
	v    int
}

func (h *refHandle) AddRef() any {
	*h.refs++
	return &refHandle{refs: h.refs, v: h.v}
}

func TestForkAddsRefForRefcountedValues(t *testing.T) {
	_, ws := prom.New()

	refs := 1
	f := prom.Resolved(&refHandle{refs: &refs, v: 7}).Fork()
	b1 := f.AddBranch()
	b2 := f.AddBranch()

	h1 := mustWait(t, b1, ws)
	h2 := mustWait(t, b2, ws)

	if h1.v != 7 || h2.v != 7 {
		t.Fatalf("branch values %d %d, want 7 7", h1.v, h2.v)
	}
	if refs != 3 {
		t.Fatalf("refs = %d, want 3 (one per branch copy)", refs)
	}
}

func TestSplitPair(t *testing.T) {
	_, ws := prom.New()

	p := prom.Resolved(prom.Pair[int, string]{First: 4, Second: "four"})
	a, b := prom.SplitPair(p)

	if v := mustWait(t, a, ws); v != 4 {
		t.Fatalf("first = %d", v)
	}
	if v := mustWait(t, b, ws); v != "four" {
		t.Fatalf("second = %q", v)
	}
}

func TestForkBranchCancelReleasesShare(t *testing.T) {
	_, ws := prom.New()

	f := prom.EvalLater(func() (int, error) { return 9, nil }).Fork()
	b1 := f.AddBranch()
	b2 := f.AddBranch()
	b1.Cancel()

	if v := mustWait(t, b2, ws); v != 9 {
		t.Fatalf("got %d, want 9", v)
	}
}
