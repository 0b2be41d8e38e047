package pipeline

import "sync/atomic"

// Progress exposes release totals to observers outside the coordinator
// goroutine. Safe for concurrent reads while the pipeline runs.
type Progress struct {
	total     atomic.Uint64
	lastTap   atomic.Uint64
	highValue atomic.Uint64
}

// seed initializes carried-over totals when resuming from a checkpoint.
// The tap baseline starts at the carried total so the first TakeDelta only
// reports primes from the current run.
func (p *Progress) seed(total, highest uint64) {
	p.total.Store(total)
	p.lastTap.Store(total)
	p.highValue.Store(highest)
}

// record adds released primes and the highest value released so far.
func (p *Progress) record(count, highest uint64) {
	p.total.Add(count)

	if highest > 0 {
		p.highValue.Store(highest)
	}
}

// Total returns the number of primes released since the run started.
func (p *Progress) Total() uint64 {
	return p.total.Load()
}

// HighestReleased returns the largest prime released so far, 0 before the
// first release.
func (p *Progress) HighestReleased() uint64 {
	return p.highValue.Load()
}

// TakeDelta returns primes released since the previous TakeDelta call and
// resets the tap. Intended for the periodic progress reporter.
func (p *Progress) TakeDelta() uint64 {
	total := p.total.Load()
	previous := p.lastTap.Swap(total)

	return total - previous
}
