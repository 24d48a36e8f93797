// Package memo provides the process-wide memoization store for upstream calls.
//
// The store guarantees that for any given key the factory runs at most once,
// no matter how many callers ask concurrently: in-flight computations are
// collapsed through a singleflight group, and completed outcomes are pinned
// in an in-memory cache that never expires. Cardinality is bounded by the
// number of distinct builds and jobs a process ever queries, so entries are
// kept for the process lifetime and never evicted.
//
// Failed computations are pinned too by default, so every concurrent and
// subsequent caller for that key observes the identical failure. Set
// Options.PinFailures to false to let the next caller retry instead.
package memo

import (
	"context"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/funcfeed/funcfeed/pkg/observability"
)

// Options configures a Store.
type Options struct {
	// PinFailures keeps failed computations cached so they are never
	// retried for the lifetime of the process. When false, a failed
	// computation is dropped and the next caller invokes the factory again.
	PinFailures bool
}

// DefaultOptions pins failures, matching the append-only cache contract.
func DefaultOptions() Options {
	return Options{PinFailures: true}
}

// Store memoizes computation outcomes by key.
//
// Entries are append-only: a result, once stored, is immutable and no reader
// ever observes an entry mid-mutation. Distinct keys never block each other.
type Store struct {
	group   singleflight.Group
	results *gocache.Cache
	opts    Options
}

// outcome is the pinned result of one factory invocation.
type outcome struct {
	value any
	err   error
}

// NewStore creates an empty Store.
func NewStore(opts Options) *Store {
	// No expiration and no janitor goroutine: entries live as long as the process.
	return &Store{
		results: gocache.New(gocache.NoExpiration, 0),
		opts:    opts,
	}
}

// GetOrCompute returns the memoized outcome for key, invoking fn at most once.
//
// If no entry exists, fn is invoked and every concurrent caller with the same
// key joins the same in-flight computation rather than triggering a duplicate
// call. The stored outcome (value or failure, subject to Options.PinFailures)
// is returned identically to all of them.
func (s *Store) GetOrCompute(ctx context.Context, key string, fn func() (any, error)) (any, error) {
	if v, ok := s.results.Get(key); ok {
		observability.Cache().OnHit(ctx, key)
		o := v.(outcome)
		return o.value, o.err
	}
	observability.Cache().OnMiss(ctx, key)

	v, err, _ := s.group.Do(key, func() (any, error) {
		// A racing caller may have pinned the outcome between our cache
		// check and joining the group.
		if v, ok := s.results.Get(key); ok {
			o := v.(outcome)
			return o.value, o.err
		}

		value, err := fn()
		if err == nil || s.opts.PinFailures {
			s.results.Set(key, outcome{value: value, err: err}, gocache.NoExpiration)
			observability.Cache().OnStore(ctx, key, err != nil)
		}
		return value, err
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Len reports how many outcomes are pinned. Intended for diagnostics.
func (s *Store) Len() int {
	return s.results.ItemCount()
}
