// Package checkpoint persists generation frontier state so a stopped run can
// resume appending to the same output file without duplicating or skipping a
// single value.
package checkpoint

// StateVersion is the current checkpoint schema version.
const StateVersion = 1

// State records the durable frontier of a generation run. It is only written
// after the covered primes have been force-flushed, so NextLow is always a
// safe restart cursor: every prime below it is on disk, none at or above it
// has been written.
type State struct {
	// Version is the checkpoint schema version.
	Version int `json:"version"`

	// OutputPath is the output file this checkpoint belongs to. Resuming
	// against a different path is rejected.
	OutputPath string `json:"output_path"`

	// NextLow is the lower bound of the first unwritten segment.
	NextLow uint64 `json:"next_low"`

	// TotalReleased is the number of primes written across all runs.
	TotalReleased uint64 `json:"total_released"`

	// LastPrime is the largest prime written, 0 when none yet.
	LastPrime uint64 `json:"last_prime"`

	// BaseCeiling is the bound the base prime cache covered at save time.
	BaseCeiling uint64 `json:"base_ceiling"`

	// BasePrimeCount is the number of cached base primes in the snapshot.
	BasePrimeCount int `json:"base_prime_count"`

	// BasePrimes is the delta-encoded, LZ4-compressed base prime snapshot.
	// Empty is valid; resume recomputes the cache instead.
	BasePrimes []byte `json:"base_primes,omitempty"`

	// CreatedAt is the RFC3339 save timestamp.
	CreatedAt string `json:"created_at"`
}
