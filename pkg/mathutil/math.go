// Package mathutil provides integer math helper functions for sieving.
package mathutil

import "math"

// Min calculates the minimum of two 32-bit integers.
func Min(a, b int) int {
	if a < b {
		return a
	}

	return b
}

// Max calculates the maximum of two 32-bit integers.
func Max(a, b int) int {
	if a < b {
		return b
	}

	return a
}

// ISqrt returns the floor of the square root of n.
// The float64 result is refined to be exact across the full uint64 range,
// where math.Sqrt alone can be off by one.
func ISqrt(n uint64) uint64 {
	if n == 0 {
		return 0
	}

	root := uint64(math.Sqrt(float64(n)))

	for root > 0 && root > n/root {
		root--
	}

	for (root+1) <= n/(root+1) {
		root++
	}

	return root
}

// primeCountSlack pads the prime-count estimate so slice growth is rare
// even for small limits where the asymptotic bound undershoots.
const primeCountSlack = 8

// PrimeCountEstimate returns an estimate of the number of primes not
// exceeding limit, for pre-sizing result slices. Derived from the prime
// number theorem: pi(n) is roughly n/(ln n - 1) for n >= 11.
func PrimeCountEstimate(limit uint64) int {
	if limit < 11 {
		return primeCountSlack
	}

	estimate := float64(limit) / (math.Log(float64(limit)) - 1)

	return int(estimate) + primeCountSlack
}
