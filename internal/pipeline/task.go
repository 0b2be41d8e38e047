// Package pipeline implements the segmented prime generation pipeline:
// a windowed scheduler issuing fixed-width segments, a worker pool sieving
// them concurrently, an ordered assembler that restores submission order,
// and a coordinator tying those to the durable writer.
package pipeline

import "time"

// Task is one segment sieving assignment. The half-open range [Low, High)
// has the fixed segment width, and BasePrimes is a read-only snapshot
// covering isqrt(High-1).
type Task struct {
	// Ordinal is the strictly increasing submission sequence number.
	Ordinal uint64

	// Low is the inclusive lower bound of the segment.
	Low uint64

	// High is the exclusive upper bound of the segment.
	High uint64

	// BasePrimes is the shared base prime snapshot. Workers must not mutate it.
	BasePrimes []uint64
}

// Result is the outcome of sieving one segment. Exactly one Result is
// produced per submitted Task, in no particular order.
type Result struct {
	// Ordinal echoes the task's submission sequence number.
	Ordinal uint64

	// High echoes the task's exclusive upper bound.
	High uint64

	// Primes are the segment's primes in ascending order. Nil when Err is set.
	Primes []uint64

	// Duration is the wall time the sieve took.
	Duration time.Duration

	// Err is non-nil when the worker failed. A failed segment is fatal for
	// the run: a silently missing segment would be an undetectable gap.
	Err error
}
