package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_missThenHit(t *testing.T) {
	loader, err := NewLoader[[]float32](4)
	require.NoError(t, err)

	loads := 0
	load := func(context.Context) ([]float32, error) {
		loads++

		return []float32{1, 2}, nil
	}

	v, hit, err := loader.Get(context.Background(), "art history", load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []float32{1, 2}, v)

	v, hit, err = loader.Get(context.Background(), "art history", load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []float32{1, 2}, v)
	assert.Equal(t, 1, loads)
}

func TestLoader_errorsAreNotCached(t *testing.T) {
	loader, err := NewLoader[string](4)
	require.NoError(t, err)

	boom := errors.New("boom")

	_, _, err = loader.Get(context.Background(), "k", func(context.Context) (string, error) { return "", boom })
	require.ErrorIs(t, err, boom)
	assert.Zero(t, loader.Len())

	v, hit, err := loader.Get(context.Background(), "k", func(context.Context) (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "ok", v)
}

func TestLoader_evictsLeastRecentlyUsed(t *testing.T) {
	loader, err := NewLoader[int](2)
	require.NoError(t, err)

	ctx := context.Background()
	for i, key := range []string{"a", "b", "c"} {
		_, _, err := loader.Get(ctx, key, func(context.Context) (int, error) { return i, nil })
		require.NoError(t, err)
	}

	assert.Equal(t, 2, loader.Len())

	_, hit, err := loader.Get(ctx, "a", func(context.Context) (int, error) { return 9, nil })
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestLoader_concurrentMissesLoadOnce(t *testing.T) {
	loader, err := NewLoader[string](4)
	require.NoError(t, err)

	var loads atomic.Int32

	release := make(chan struct{})
	load := func(context.Context) (string, error) {
		loads.Add(1)
		<-release

		return "v", nil
	}

	const workers = 8

	var (
		wg      sync.WaitGroup
		started sync.WaitGroup
	)

	started.Add(workers)

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			started.Done()

			v, _, err := loader.Get(context.Background(), "same", load)
			assert.NoError(t, err)
			assert.Equal(t, "v", v)
		}()
	}

	started.Wait()
	close(release)
	wg.Wait()

	assert.GreaterOrEqual(t, loads.Load(), int32(1))
	assert.Equal(t, 1, loader.Len())
}
