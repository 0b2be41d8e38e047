// Package sieve implements prime sieving: a classic bounded sieve of
// Eratosthenes for base primes and a windowed segment sieve for arbitrary
// half-open ranges.
package sieve

import (
	"github.com/Sumatoshi-tech/primefang/pkg/mathutil"
)

// Classic returns all primes <= limit using a non-segmented sieve of
// Eratosthenes. The result is in ascending order.
func Classic(limit uint64) []uint64 {
	if limit < 2 {
		return nil
	}

	composite := make([]bool, limit+1)
	root := mathutil.ISqrt(limit)

	for p := uint64(2); p <= root; p++ {
		if composite[p] {
			continue
		}

		for m := p * p; m <= limit; m += p {
			composite[m] = true
		}
	}

	primes := make([]uint64, 0, mathutil.PrimeCountEstimate(limit))

	for i := uint64(2); i <= limit; i++ {
		if !composite[i] {
			primes = append(primes, i)
		}
	}

	return primes
}
