// Package cache provides a string-keyed LRU cache that loads missing values on demand.
package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Loader caches values by key and loads misses through a callback.
// Concurrent misses for the same key share one load.
type Loader[V any] struct {
	lru   *lru.Cache[string, V]
	group singleflight.Group
}

// NewLoader creates a loader holding at most maxEntries values.
func NewLoader[V any](maxEntries int) (*Loader[V], error) {
	c, err := lru.New[string, V](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}

	return &Loader[V]{lru: c}, nil
}

// Get returns the cached value for key or calls load and caches its result.
// hit reports whether the value was already cached. Failed loads are not cached.
func (l *Loader[V]) Get(ctx context.Context, key string, load func(context.Context) (V, error)) (v V, hit bool, err error) {
	if v, ok := l.lru.Get(key); ok {
		return v, true, nil
	}

	val, err, _ := l.group.Do(key, func() (any, error) {
		loaded, loadErr := load(ctx)
		if loadErr != nil {
			return nil, loadErr
		}

		l.lru.Add(key, loaded)

		return loaded, nil
	})
	if err != nil {
		var zero V

		//nolint:wrapcheck // load errors belong to the caller
		return zero, false, err
	}

	v, _ = val.(V)

	return v, false, nil
}

// Len returns the number of cached values.
func (l *Loader[V]) Len() int {
	return l.lru.Len()
}
