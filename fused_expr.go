// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package prom

import (
	"code.hybscloud.com/kont"
)

// Pre-allocated erased frame tail for Expr-world construction.
var exprReturnFrame kont.Frame = kont.ReturnFrame{}

// identityResume is the identity resume function for EffectFrame
// construction. Named function produces a static function value,
// consistent with kont convention.
func identityResume(v kont.Erased) kont.Erased { return v }

// ExprAwaitThen awaits p, discards its value, and continues with next.
// Fuses ExprPerform(Await[A]{Promise: p}) + ExprThen.
func ExprAwaitThen[A, B any](p Promise[A], next kont.Expr[B]) kont.Expr[B] {
	tf := kont.AcquireThenFrame()
	tf.Second = kont.Expr[kont.Erased]{Value: kont.Erased(next.Value), Frame: next.Frame}
	tf.Next = exprReturnFrame
	ef := kont.AcquireEffectFrame()
	ef.Operation = Await[A]{Promise: p}
	ef.Resume = identityResume
	ef.Next = tf
	return kont.ExprSuspend[B](ef)
}

func awaitBindUnwind[A, B any](data, _, _ kont.Erased, current kont.Erased) (kont.Erased, kont.Frame) {
	f := data.(func(A) kont.Expr[B])
	result := f(current.(A))
	return kont.Erased(result.Value), result.Frame
}

// ExprAwaitBind awaits p and passes its value to f.
// Fuses ExprPerform(Await[A]{Promise: p}) + ExprBind.
func ExprAwaitBind[A, B any](p Promise[A], f func(A) kont.Expr[B]) kont.Expr[B] {
	bf := kont.AcquireUnwindFrame()
	bf.Data1 = f
	bf.Unwind = awaitBindUnwind[A, B]
	ef := kont.AcquireEffectFrame()
	ef.Operation = Await[A]{Promise: p}
	ef.Resume = identityResume
	ef.Next = bf
	return kont.ExprSuspend[B](ef)
}

// ExprAwaitDone awaits p and completes with its value.
// Fuses ExprPerform(Await[A]{Promise: p}) + ExprReturn.
func ExprAwaitDone[A any](p Promise[A]) kont.Expr[A] {
	ef := kont.AcquireEffectFrame()
	ef.Operation = Await[A]{Promise: p}
	ef.Resume = identityResume
	ef.Next = exprReturnFrame
	return kont.ExprSuspend[A](ef)
}

// ExprYieldThen yields through the breadth-first queue and continues
// with next. Fuses ExprPerform(Yield{}) + ExprThen.
func ExprYieldThen[B any](next kont.Expr[B]) kont.Expr[B] {
	tf := kont.AcquireThenFrame()
	tf.Second = kont.Expr[kont.Erased]{Value: kont.Erased(next.Value), Frame: next.Frame}
	tf.Next = exprReturnFrame
	ef := kont.AcquireEffectFrame()
	ef.Operation = Yield{}
	ef.Resume = identityResume
	ef.Next = tf
	return kont.ExprSuspend[B](ef)
}
