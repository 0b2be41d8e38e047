package pipeline

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// segmentsFixture builds N fake segment results with distinct payloads.
func segmentsFixture(n int) [][]uint64 {
	segments := make([][]uint64, n)
	value := uint64(2)

	for i := range segments {
		segment := make([]uint64, 3)
		for j := range segment {
			segment[j] = value
			value += 2
		}

		segments[i] = segment
	}

	return segments
}

// releaseAll feeds results to a fresh assembler in the given completion
// order and returns the concatenated released stream.
func releaseAll(t *testing.T, segments [][]uint64, order []int) []uint64 {
	t.Helper()

	a := NewOrderedAssembler(0)

	var stream []uint64

	for _, ordinal := range order {
		for _, released := range a.Accept(uint64(ordinal), segments[ordinal]) {
			stream = append(stream, released...)
		}
	}

	require.Zero(t, a.Pending(), "all results must be released at the end")
	require.Equal(t, uint64(len(segments)), a.NextToRelease())

	return stream
}

func TestAssembler_AllPermutationsMatchSubmissionOrder(t *testing.T) {
	t.Parallel()

	const n = 5

	segments := segmentsFixture(n)
	want := releaseAll(t, segments, []int{0, 1, 2, 3, 4})

	var permute func(order []int, k int)
	permute = func(order []int, k int) {
		if k == len(order) {
			got := releaseAll(t, segments, order)
			assert.Equal(t, want, got, "completion order %v", order)

			return
		}

		for i := k; i < len(order); i++ {
			order[k], order[i] = order[i], order[k]
			permute(order, k+1)
			order[k], order[i] = order[i], order[k]
		}
	}

	permute([]int{0, 1, 2, 3, 4}, 0)
}

func TestAssembler_RandomShuffles(t *testing.T) {
	t.Parallel()

	const n = 64

	segments := segmentsFixture(n)
	want := make([]uint64, 0, n*3)

	for _, segment := range segments {
		want = append(want, segment...)
	}

	rng := rand.New(rand.NewSource(1))

	for range 50 {
		order := rng.Perm(n)
		assert.Equal(t, want, releaseAll(t, segments, order))
	}
}

func TestAssembler_StragglerUnblocksParkedSuccessors(t *testing.T) {
	t.Parallel()

	a := NewOrderedAssembler(0)

	// Ordinals 1 and 2 arrive first and must park.
	assert.Empty(t, a.Accept(1, []uint64{5, 7}))
	assert.Empty(t, a.Accept(2, []uint64{11}))
	assert.Equal(t, 2, a.Pending())
	assert.Equal(t, uint64(0), a.NextToRelease())

	// Ordinal 0 releases all three back-to-back.
	released := a.Accept(0, []uint64{2, 3})
	assert.Equal(t, [][]uint64{{2, 3}, {5, 7}, {11}}, released)
	assert.Zero(t, a.Pending())
	assert.Equal(t, uint64(3), a.NextToRelease())
}

func TestAssembler_EmptySegmentStillAdvancesCursor(t *testing.T) {
	t.Parallel()

	a := NewOrderedAssembler(0)

	released := a.Accept(0, nil)
	assert.Len(t, released, 1)
	assert.Empty(t, released[0])
	assert.Equal(t, uint64(1), a.NextToRelease())
}

func TestAssembler_StartsAtConfiguredOrdinal(t *testing.T) {
	t.Parallel()

	a := NewOrderedAssembler(7)

	assert.Empty(t, a.Accept(8, []uint64{23}))
	assert.Equal(t, [][]uint64{{19}, {23}}, a.Accept(7, []uint64{19}))
}
