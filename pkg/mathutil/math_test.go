package mathutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinMax(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, Min(1, 2))
	assert.Equal(t, 1, Min(2, 1))
	assert.Equal(t, 2, Max(1, 2))
	assert.Equal(t, 2, Max(2, 1))
}

func TestISqrt_ExactSquares(t *testing.T) {
	t.Parallel()

	for n := uint64(0); n <= 1000; n++ {
		sq := n * n
		assert.Equal(t, n, ISqrt(sq), "sqrt(%d)", sq)

		if sq > 0 {
			assert.Equal(t, n-1, ISqrt(sq-1), "sqrt(%d)", sq-1)
		}
	}
}

func TestISqrt_FloatBoundary(t *testing.T) {
	t.Parallel()

	// Values near 2^53 and 2^64 where float64 sqrt loses precision.
	cases := []uint64{
		math.MaxUint64,
		math.MaxUint64 - 1,
		1 << 62,
		(1 << 62) - 1,
		4611686014132420609, // (2^31+1)^2
	}

	for _, n := range cases {
		root := ISqrt(n)
		assert.LessOrEqual(t, root, n/root, "floor property for %d", n)
		// Division form avoids overflow of (root+1)^2 near MaxUint64.
		assert.Greater(t, root+1, n/(root+1), "minimality for %d", n)
	}
}

func TestPrimeCountEstimate_NeverUndershoots(t *testing.T) {
	t.Parallel()

	// Exact pi(n) values for spot checks.
	exact := map[uint64]int{
		10:      4,
		100:     25,
		1000:    168,
		10000:   1229,
		100000:  9592,
		1000000: 78498,
	}

	for limit, count := range exact {
		assert.GreaterOrEqual(t, PrimeCountEstimate(limit), count, "pi(%d)", limit)
	}
}
