package pipeline

import (
	"math"

	"github.com/Sumatoshi-tech/primefang/internal/sieve"
	"github.com/Sumatoshi-tech/primefang/pkg/mathutil"
)

// firstCandidate is where the number line of primes begins.
const firstCandidate = 2

// Scheduler issues fixed-width segments in strictly increasing order, keeps
// the in-flight task count within the window, and feeds each task the base
// prime snapshot covering its range. Single-goroutine use only.
type Scheduler struct {
	segmentSize uint64
	window      int

	// until, when non-zero, stops issuing once nextLow reaches it. The last
	// issued segment may overshoot the bound by up to one segment width.
	until uint64

	nextLow     uint64
	nextOrdinal uint64
	inFlight    int

	cache *sieve.BasePrimeCache
	pool  *WorkerPool
}

// SchedulerConfig holds scheduler construction parameters.
type SchedulerConfig struct {
	// SegmentSize is the fixed number of values per segment.
	SegmentSize uint64

	// Window is the in-flight task cap, normally the worker count.
	Window int

	// StartLow is the first segment's lower bound, 2 for a fresh run or the
	// checkpointed frontier on resume.
	StartLow uint64

	// Until, when non-zero, stops scheduling once the cursor reaches it.
	Until uint64
}

// NewScheduler creates a scheduler submitting to pool and growing cache on demand.
func NewScheduler(config SchedulerConfig, cache *sieve.BasePrimeCache, pool *WorkerPool) *Scheduler {
	startLow := config.StartLow
	if startLow < firstCandidate {
		startLow = firstCandidate
	}

	return &Scheduler{
		segmentSize: config.SegmentSize,
		window:      config.Window,
		until:       config.Until,
		nextLow:     startLow,
		cache:       cache,
		pool:        pool,
	}
}

// Fill submits segments until the window is full or the bound is reached.
// Returns the number of tasks submitted.
func (s *Scheduler) Fill() int {
	submitted := 0

	for s.inFlight < s.window && !s.exhausted() {
		low := s.nextLow

		high := low + s.segmentSize
		if high < low {
			// Cursor wrapped past MaxUint64; nothing further is representable.
			high = math.MaxUint64
		}

		base := s.cache.Ensure(mathutil.ISqrt(high - 1))

		s.pool.Submit(Task{
			Ordinal:    s.nextOrdinal,
			Low:        low,
			High:       high,
			BasePrimes: base,
		})

		s.nextLow = high
		s.nextOrdinal++
		s.inFlight++
		submitted++
	}

	return submitted
}

// exhausted reports whether the cursor has reached the configured bound or
// the end of the representable range.
func (s *Scheduler) exhausted() bool {
	if s.until > 0 && s.nextLow >= s.until {
		return true
	}

	return s.nextLow == math.MaxUint64
}

// TaskDone records one collected completion, freeing a window slot.
func (s *Scheduler) TaskDone() {
	s.inFlight--
}

// InFlight returns the number of submitted but uncollected tasks.
func (s *Scheduler) InFlight() int {
	return s.inFlight
}

// NextLow returns the submission cursor.
func (s *Scheduler) NextLow() uint64 {
	return s.nextLow
}

// NextOrdinal returns the next submission sequence number.
func (s *Scheduler) NextOrdinal() uint64 {
	return s.nextOrdinal
}

// SegmentSize returns the fixed segment width.
func (s *Scheduler) SegmentSize() uint64 {
	return s.segmentSize
}
