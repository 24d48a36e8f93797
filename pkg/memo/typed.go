package memo

import "context"

// Memo is a typed view over a shared [Store]. It namespaces its keys with a
// prefix so independent callers can share one process-wide store without
// colliding.
type Memo[T any] struct {
	store  *Store
	prefix string
}

// NewMemo creates a typed view over store. All keys are prefixed, so two
// views with different prefixes never share entries.
func NewMemo[T any](store *Store, prefix string) *Memo[T] {
	return &Memo[T]{store: store, prefix: prefix}
}

// Do returns the memoized value for key, invoking fn at most once per key
// for the lifetime of the process. See [Store.GetOrCompute] for the
// concurrency contract.
func (m *Memo[T]) Do(ctx context.Context, key string, fn func() (T, error)) (T, error) {
	v, err := m.store.GetOrCompute(ctx, m.prefix+key, func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
