package observe

import "context"

// Combine2 emits fn(a, b) once both inputs have produced a value and again on
// every later change of either. The output closes when ctx is done or either
// input closes.
func Combine2[A, B, R any](ctx context.Context, as <-chan A, bs <-chan B, fn func(A, B) R) <-chan R {
	out := make(chan R, 1)
	go func() {
		defer close(out)
		var (
			a      A
			b      B
			haveA  bool
			haveB  bool
			closed bool
		)
		for !closed {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-as:
				a, haveA, closed = v, true, !ok
			case v, ok := <-bs:
				b, haveB, closed = v, true, !ok
			}
			if !closed && haveA && haveB {
				offer(out, fn(a, b))
			}
		}
	}()
	return out
}

// Combine3 is Combine2 over three inputs.
func Combine3[A, B, C, R any](ctx context.Context, as <-chan A, bs <-chan B, cs <-chan C, fn func(A, B, C) R) <-chan R {
	out := make(chan R, 1)
	go func() {
		defer close(out)
		var (
			a      A
			b      B
			c      C
			haveA  bool
			haveB  bool
			haveC  bool
			closed bool
		)
		for !closed {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-as:
				a, haveA, closed = v, true, !ok
			case v, ok := <-bs:
				b, haveB, closed = v, true, !ok
			case v, ok := <-cs:
				c, haveC, closed = v, true, !ok
			}
			if !closed && haveA && haveB && haveC {
				offer(out, fn(a, b, c))
			}
		}
	}()
	return out
}
