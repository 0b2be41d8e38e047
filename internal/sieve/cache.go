package sieve

// BasePrimeCache maintains a grow-only cache of primes up to the largest
// bound requested so far. It is not safe for concurrent use; the pipeline
// coordinator is its only caller, and workers receive the returned slice as
// a read-only snapshot that is never mutated afterwards.
type BasePrimeCache struct {
	primes  []uint64
	ceiling uint64
}

// NewBasePrimeCache creates an empty cache. The ceiling starts at 1 so the
// first Ensure call always sieves.
func NewBasePrimeCache() *BasePrimeCache {
	return &BasePrimeCache{ceiling: 1}
}

// Ensure returns all primes <= bound. When the cached ceiling already covers
// bound, the cached slice is returned unchanged; otherwise the cache is
// recomputed from scratch up to bound and replaced. The previous slice is
// never mutated, so snapshots handed to in-flight workers stay valid.
//
// Recomputation is amortized: bounds grow with the square root of the
// segment cursor, so growth is rare relative to segment throughput.
func (c *BasePrimeCache) Ensure(bound uint64) []uint64 {
	if bound <= c.ceiling {
		return c.primes
	}

	c.primes = Classic(bound)
	c.ceiling = bound

	return c.primes
}

// Ceiling returns the highest bound the cache currently covers.
func (c *BasePrimeCache) Ceiling() uint64 {
	return c.ceiling
}

// Primes returns the cached primes without recomputation.
func (c *BasePrimeCache) Primes() []uint64 {
	return c.primes
}

// Restore replaces the cache contents, used when resuming from a checkpoint.
// The primes must be exactly the ascending primes <= ceiling.
func (c *BasePrimeCache) Restore(ceiling uint64, primes []uint64) {
	if ceiling < 1 {
		ceiling = 1
	}

	c.ceiling = ceiling
	c.primes = primes
}
