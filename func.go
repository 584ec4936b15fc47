// SPDX-License-Identifier: GPL-3.0-or-later

package sock

import "context"

// Func is a generic operation that accepts an input and returns a result.
//
// Func instances can be composed using [Compose2], [Compose3] and [Compose4]
// to build socket pipelines where the output of one stage (e.g., an open
// [*TCPStream]) flows to the input of the next (e.g., a bind or connect).
//
// Resource cleanup contract: when a Func receives a socket as input and
// returns an error, it closes that socket before returning. Composed
// pipelines therefore never leak handles on partial failure.
type Func[A, B any] interface {
	Call(ctx context.Context, input A) (B, error)
}

// FuncAdapter wraps a function as a [Func] implementation.
type FuncAdapter[A, B any] func(ctx context.Context, input A) (B, error)

// Call implements [Func].
func (f FuncAdapter[A, B]) Call(ctx context.Context, input A) (B, error) {
	return f(ctx, input)
}

// Unit is a type not containing any value.
//
// Use it to construct [Func] that take no argument, such as [NewOpenFunc].
type Unit struct{}
