// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package prom

import "code.hybscloud.com/kont"

// Iterate runs a recursive promise loop.
// step returns Left(nextState) to continue or Right(result) to finish.
// Each round flattens through a chain node that collapses into its
// owner slot, so the graph holds a constant number of nodes no matter
// how many rounds run.
func Iterate[S, A any](initial S, step func(S) Promise[kont.Either[S, A]]) Promise[A] {
	return Bind(step(initial), func(e kont.Either[S, A]) Promise[A] {
		if left, ok := e.GetLeft(); ok {
			return Iterate(left, step)
		}
		right, _ := e.GetRight()
		return Resolved(right)
	})
}

// Continue wraps the next loop state for [Iterate].
func Continue[S, A any](s S) Promise[kont.Either[S, A]] {
	return Resolved(kont.Left[S, A](s))
}

// Finish wraps the final loop result for [Iterate].
func Finish[S, A any](a A) Promise[kont.Either[S, A]] {
	return Resolved(kont.Right[S](a))
}
