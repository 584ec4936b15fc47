// SPDX-License-Identifier: GPL-3.0-or-later

package sock

import "context"

// Compose2 runs first and feeds its result to second.
//
// When first fails, second never runs. Combined with the close-on-error
// contract of the socket stages, a failing pipeline leaks no handle.
func Compose2[A, B, C any](first Func[A, B], second Func[B, C]) Func[A, C] {
	return FuncAdapter[A, C](func(ctx context.Context, input A) (C, error) {
		mid, err := first.Call(ctx, input)
		if err != nil {
			var zero C
			return zero, err
		}
		return second.Call(ctx, mid)
	})
}

// Compose3 is [Compose2] over three stages, such as open, bind, listen.
func Compose3[A, B, C, D any](s1 Func[A, B], s2 Func[B, C], s3 Func[C, D]) Func[A, D] {
	return Compose2(Compose2(s1, s2), s3)
}

// Compose4 is [Compose2] over four stages.
func Compose4[A, B, C, D, E any](s1 Func[A, B], s2 Func[B, C], s3 Func[C, D], s4 Func[D, E]) Func[A, E] {
	return Compose2(Compose3(s1, s2, s3), s4)
}

// Apply fixes the input of fn, so that it can start a pipeline.
func Apply[A, B any](fn Func[A, B], input A) Func[Unit, B] {
	return FuncAdapter[Unit, B](func(ctx context.Context, _ Unit) (B, error) {
		return fn.Call(ctx, input)
	})
}

// ConstFunc returns a [Func] yielding value and never failing.
func ConstFunc[B any](value B) Func[Unit, B] {
	return FuncAdapter[Unit, B](func(context.Context, Unit) (B, error) {
		return value, nil
	})
}
