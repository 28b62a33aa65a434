// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package prom

import (
	"code.hybscloud.com/kont"
)

// AwaitBind awaits p and passes its value to f.
// Fuses Perform(Await[A]{Promise: p}) + Bind.
func AwaitBind[A, B any](p Promise[A], f func(A) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(Await[A]{Promise: p}), f)
}

// AwaitThen awaits p, discards its value, and continues with next.
// Fuses Perform(Await[A]{Promise: p}) + Then.
func AwaitThen[A, B any](p Promise[A], next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(kont.Perform(Await[A]{Promise: p}), next)
}

// AwaitDone awaits p and completes with its value.
// Fuses Perform(Await[A]{Promise: p}) + Pure.
func AwaitDone[A any](p Promise[A]) kont.Eff[A] {
	return kont.Perform(Await[A]{Promise: p})
}

// YieldThen yields through the breadth-first queue and continues with
// next. Fuses Perform(Yield{}) + Then.
func YieldThen[B any](next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(kont.Perform(Yield{}), next)
}
