package stream

import "context"

// Map derives a subject whose values are fn applied to each value of src.
// The derived subject is closed when ctx ends or src closes.
func Map[A, B any](ctx context.Context, src Source[A], fn func(A) B) *Subject[B] {
	out := NewSubject[B]()
	in := src.Subscribe(ctx)

	go func() {
		defer out.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case a, ok := <-in:
				if !ok {
					return
				}
				out.Publish(fn(a))
			}
		}
	}()
	return out
}

// Combine2 emits fn(a, b) once both sources have produced a value, and again
// whenever either of them changes.
func Combine2[A, B, C any](ctx context.Context, sa Source[A], sb Source[B], fn func(A, B) C) *Subject[C] {
	out := NewSubject[C]()
	ca, cb := sa.Subscribe(ctx), sb.Subscribe(ctx)

	go func() {
		defer out.Close()
		var (
			a    A
			b    B
			hasA bool
			hasB bool
			ok   bool
		)
		for {
			select {
			case <-ctx.Done():
				return
			case a, ok = <-ca:
				if !ok {
					return
				}
				hasA = true
			case b, ok = <-cb:
				if !ok {
					return
				}
				hasB = true
			}
			if hasA && hasB {
				out.Publish(fn(a, b))
			}
		}
	}()
	return out
}
