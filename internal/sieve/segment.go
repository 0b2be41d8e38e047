package sieve

import (
	"math"
)

// minPrime is the smallest prime; window slots below it are cleared up front.
const minPrime = 2

// Segment sieves the half-open range [low, high) against basePrimes and
// returns the primes found, ascending. basePrimes must contain every prime
// <= isqrt(high-1); a violated precondition silently yields missed
// composites and is a caller bug, not a runtime failure.
func Segment(low, high uint64, basePrimes []uint64) []uint64 {
	if high <= low {
		return nil
	}

	n := high - low
	composite := make([]bool, n)

	// Values below 2 are not prime regardless of striking.
	for v := low; v < minPrime && v < high; v++ {
		composite[v-low] = true
	}

	for _, p := range basePrimes {
		start := firstMultiple(low, p)
		if start >= high {
			continue
		}

		// m >= high-p means the next step leaves the range; checking
		// before the add also avoids wrap-around near MaxUint64.
		for m := start; ; {
			composite[m-low] = true

			if m >= high-p {
				break
			}

			m += p
		}
	}

	primes := make([]uint64, 0, segmentCountEstimate(low, high))

	for i := uint64(0); i < n; i++ {
		if !composite[i] {
			primes = append(primes, low+i)
		}
	}

	return primes
}

// firstMultiple returns the first multiple of p at or above low that is also
// >= p*p. Values below p*p are either primes or were struck by smaller base
// primes. Returns MaxUint64 when no such multiple is representable.
func firstMultiple(low, p uint64) uint64 {
	start := (low / p) * p
	if start < low {
		next := start + p
		if next < start {
			return math.MaxUint64
		}

		start = next
	}

	if square := p * p; start < square {
		start = square
	}

	return start
}

// segmentCountEstimate approximates the number of primes in [low, high) for
// pre-sizing the result slice, via the prime density 1/ln(high).
func segmentCountEstimate(low, high uint64) int {
	n := high - low
	if high < 16 {
		return int(n)
	}

	density := math.Log(float64(high))

	return int(float64(n)/density) + 8
}
