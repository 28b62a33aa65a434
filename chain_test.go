// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package prom_test

import (
	"errors"
	"strings"
	"testing"

	"code.hybscloud.com/kont"
	"code.hybscloud.com/prom"
)

func TestIterateCountsDown(t *testing.T) {
	_, ws := prom.New()

	p := prom.Iterate(10, func(n int) prom.Promise[kont.Either[int, string]] {
		if n == 0 {
			return prom.Finish[int, string]("done")
		}
		return prom.Continue[int, string](n - 1)
	})

	if v := mustWait(t, p, ws); v != "done" {
		t.Fatalf("got %q, want done", v)
	}
}

func TestTraceNamesChain(t *testing.T) {
	p := prom.Bind(prom.Resolved(1), func(int) prom.Promise[int] { return prom.Resolved(2) })
	tr := p.Trace()
	if !strings.Contains(tr, "chainNode") || !strings.Contains(tr, "transformNode") {
		t.Fatalf("trace missing expected nodes:\n%s", tr)
	}
	p.Cancel()
}

func TestBindFailureShortCircuits(t *testing.T) {
	_, ws := prom.New()

	p := prom.Bind(prom.Rejected[int](errors.New("outer")), func(int) prom.Promise[int] {
		t.Fatalf("bind continuation ran on failure")
		return prom.Resolved(0)
	})

	if err := waitErr(t, p, ws); err.Error() != "outer" {
		t.Fatalf("got %v, want outer", err)
	}
}

func TestDeepIterateCompletes(t *testing.T) {
	_, ws := prom.New()

	const rounds = 100000
	sum := 0
	p := prom.Iterate(0, func(n int) prom.Promise[kont.Either[int, int]] {
		if n == rounds {
			return prom.Finish[int, int](sum)
		}
		sum += n
		return prom.Continue[int, int](n + 1)
	})

	want := rounds * (rounds - 1) / 2
	if v := mustWait(t, p, ws); v != want {
		t.Fatalf("got %d, want %d", v, want)
	}
}
