package sieve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/primefang/pkg/mathutil"
)

// isPrimeTrial is the trial-division reference used to validate sieving.
func isPrimeTrial(n uint64) bool {
	if n < 2 {
		return false
	}

	for d := uint64(2); d <= mathutil.ISqrt(n); d++ {
		if n%d == 0 {
			return false
		}
	}

	return true
}

// trialPrimes returns all primes <= limit by trial division.
func trialPrimes(limit uint64) []uint64 {
	var primes []uint64

	for n := uint64(2); n <= limit; n++ {
		if isPrimeTrial(n) {
			primes = append(primes, n)
		}
	}

	return primes
}

func TestClassic_MatchesTrialDivision(t *testing.T) {
	t.Parallel()

	for _, limit := range []uint64{0, 1, 2, 3, 4, 10, 30, 31, 97, 100, 1000} {
		assert.Equal(t, trialPrimes(limit), Classic(limit), "limit=%d", limit)
	}
}

func TestClassic_BelowTwoEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Classic(0))
	assert.Empty(t, Classic(1))
}

func TestSegment_MatchesClassic(t *testing.T) {
	t.Parallel()

	const limit = 5000

	all := Classic(limit)

	ranges := []struct{ low, high uint64 }{
		{0, 10},
		{0, 2},
		{1, 2},
		{2, 32},
		{32, 62},
		{100, 200},
		{991, 1009},
		{4000, 5000},
		{4999, 5000},
	}

	for _, r := range ranges {
		base := Classic(mathutil.ISqrt(r.high - 1))

		want := make([]uint64, 0)

		for _, p := range all {
			if p >= r.low && p < r.high {
				want = append(want, p)
			}
		}

		got := Segment(r.low, r.high, base)
		assert.Equal(t, want, got, "range [%d,%d)", r.low, r.high)
	}
}

func TestSegment_FirstSegmentExample(t *testing.T) {
	t.Parallel()

	// Segment [2,32) with base primes covering isqrt(31) = 5.
	base := Classic(mathutil.ISqrt(31))
	require.Equal(t, []uint64{2, 3, 5}, base)

	got := Segment(2, 32, base)
	assert.Equal(t, []uint64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29}, got)
}

func TestSegment_EmptyAndDegenerateRanges(t *testing.T) {
	t.Parallel()

	base := Classic(100)

	assert.Empty(t, Segment(10, 10, base))
	assert.Empty(t, Segment(10, 5, base))
	assert.Empty(t, Segment(0, 1, base))
	assert.Empty(t, Segment(24, 29, base), "no primes in [24,29)")
}

func TestSegment_LargeValues(t *testing.T) {
	t.Parallel()

	// A window high above the base prime range exercises the
	// first-multiple arithmetic away from p*p.
	const (
		low  = 1_000_000
		high = 1_000_100
	)

	base := Classic(mathutil.ISqrt(high - 1))
	got := Segment(low, high, base)

	want := make([]uint64, 0)

	for n := uint64(low); n < high; n++ {
		if isPrimeTrial(n) {
			want = append(want, n)
		}
	}

	assert.Equal(t, want, got)
}

func TestBasePrimeCache_GrowOnly(t *testing.T) {
	t.Parallel()

	cache := NewBasePrimeCache()

	first := cache.Ensure(10)
	assert.Equal(t, []uint64{2, 3, 5, 7}, first)
	assert.Equal(t, uint64(10), cache.Ceiling())

	// A smaller bound returns the cached slice unchanged.
	again := cache.Ensure(5)
	assert.Equal(t, uint64(10), cache.Ceiling())
	assert.Equal(t, first, again)

	grown := cache.Ensure(30)
	assert.Equal(t, []uint64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29}, grown)

	// The earlier snapshot is untouched by growth.
	assert.Equal(t, []uint64{2, 3, 5, 7}, first)
}

func TestBasePrimeCache_Restore(t *testing.T) {
	t.Parallel()

	cache := NewBasePrimeCache()
	cache.Restore(30, Classic(30))

	assert.Equal(t, uint64(30), cache.Ceiling())
	assert.Equal(t, Classic(30), cache.Ensure(25))
}
