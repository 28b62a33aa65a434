// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package prom_test

import (
	"testing"

	"code.hybscloud.com/prom"
)

// mustWait drives p to completion and fails the test on error.
func mustWait[T any](t *testing.T, p prom.Promise[T], ws *prom.WaitScope) T {
	t.Helper()
	v, err := p.Wait(ws)
	if err != nil {
		t.Fatalf("wait: unexpected error: %v", err)
	}
	return v
}

// waitErr drives p to completion and fails the test unless it broke.
func waitErr[T any](t *testing.T, p prom.Promise[T], ws *prom.WaitScope) error {
	t.Helper()
	_, err := p.Wait(ws)
	if err == nil {
		t.Fatalf("wait: expected an error")
	}
	return err
}

// settle spins the loop until a throwaway breadth-first promise is
// ready, so all depth-first work and every breadth-first event armed
// before it have run.
func settle(ws *prom.WaitScope) {
	p := prom.EvalLater(func() (struct{}, error) { return struct{}{}, nil })
	if !p.Poll(ws) {
		panic("helper: loop did not settle")
	}
	p.Cancel()
}
