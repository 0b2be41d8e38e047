package pipeline

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPool_OneResultPerTask(t *testing.T) {
	t.Parallel()

	pool := NewWorkerPool(4, func(low, high uint64, _ []uint64) []uint64 {
		return []uint64{low, high}
	})
	defer pool.Close()

	const n = 4

	for i := range uint64(n) {
		pool.Submit(Task{Ordinal: i, Low: i * 10, High: i*10 + 10})
	}

	seen := make(map[uint64]Result, n)

	for range n {
		res := <-pool.Results()
		require.NoError(t, res.Err)
		seen[res.Ordinal] = res
	}

	require.Len(t, seen, n)

	for i := range uint64(n) {
		assert.Equal(t, []uint64{i * 10, i*10 + 10}, seen[i].Primes)
		assert.Equal(t, i*10+10, seen[i].High)
	}
}

func TestWorkerPool_CompletionOrderUnconstrained(t *testing.T) {
	t.Parallel()

	// Ordinal 0 stalls until ordinal 1 has completed, forcing an
	// out-of-order arrival.
	release := make(chan struct{})

	pool := NewWorkerPool(2, func(low, _ uint64, _ []uint64) []uint64 {
		if low == 0 {
			<-release
		}

		return []uint64{low}
	})
	defer pool.Close()

	pool.Submit(Task{Ordinal: 0, Low: 0, High: 1})
	pool.Submit(Task{Ordinal: 1, Low: 1, High: 2})

	first := <-pool.Results()
	close(release)
	second := <-pool.Results()

	assert.Equal(t, uint64(1), first.Ordinal)
	assert.Equal(t, uint64(0), second.Ordinal)
}

func TestWorkerPool_PanicBecomesResultError(t *testing.T) {
	t.Parallel()

	pool := NewWorkerPool(1, func(low, _ uint64, _ []uint64) []uint64 {
		if low == 42 {
			panic("boom")
		}

		return []uint64{low}
	})
	defer pool.Close()

	pool.Submit(Task{Ordinal: 0, Low: 42, High: 43})
	pool.Submit(Task{Ordinal: 1, Low: 7, High: 8})

	var failed, succeeded int

	for range 2 {
		res := <-pool.Results()
		if res.Err != nil {
			failed++

			assert.Equal(t, uint64(0), res.Ordinal)
			assert.Contains(t, res.Err.Error(), "boom")
			assert.Nil(t, res.Primes)
		} else {
			succeeded++

			assert.Equal(t, uint64(1), res.Ordinal)
		}
	}

	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, succeeded)
}

func TestWorkerPool_CloseWaitsForWorkers(t *testing.T) {
	t.Parallel()

	var running atomic.Int32

	pool := NewWorkerPool(2, func(low, _ uint64, _ []uint64) []uint64 {
		running.Add(1)
		defer running.Add(-1)

		time.Sleep(10 * time.Millisecond)

		return []uint64{low}
	})

	pool.Submit(Task{Ordinal: 0})
	pool.Submit(Task{Ordinal: 1})

	<-pool.Results()
	<-pool.Results()

	pool.Close()
	assert.Zero(t, running.Load())

	_, open := <-pool.Results()
	assert.False(t, open, "results channel closes after Close")
}
