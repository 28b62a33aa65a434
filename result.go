// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package prom

// result is the type-erased carrier a node writes its outcome into.
// One of the slots is occupied in the ordinary case. Both may be
// occupied when a continuation failed after producing a value; the
// value is then delivered and the failure surfaced alongside it.
// Neither occupied at consumption time is an internal invariant
// violation.
type result struct {
	value    any
	hasValue bool
	err      error
}

func (r *result) setValue(v any) {
	r.value = v
	r.hasValue = true
}

// addError latches err unless a failure is already present.
// The first failure wins; later ones are dropped.
func (r *result) addError(err error) {
	if r.err == nil {
		r.err = err
	}
}

// toReturn converts the carrier into the (T, error) shape handed back
// to callers. A carrier holding both slots returns both: the caller
// receives the value and may treat the failure as recoverable.
func toReturn[T any](r *result) (T, error) {
	if r.hasValue {
		v, ok := r.value.(T)
		if !ok && r.value != nil {
			panic("prom: internal error: result value has wrong type")
		}
		return v, r.err
	}
	if r.err != nil {
		var zero T
		return zero, r.err
	}
	panic("prom: internal error: result carrier has neither value nor failure")
}
