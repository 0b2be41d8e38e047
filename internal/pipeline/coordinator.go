package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/primefang/internal/checkpoint"
	"github.com/Sumatoshi-tech/primefang/internal/observability"
	"github.com/Sumatoshi-tech/primefang/internal/sieve"
	"github.com/Sumatoshi-tech/primefang/internal/writer"
	"github.com/Sumatoshi-tech/primefang/pkg/safeconv"
)

// tracerName is the default OTel tracer name for the pipeline package.
const tracerName = "primefang"

// Config holds coordinator construction parameters.
type Config struct {
	// SegmentSize is the fixed number of values per segment.
	SegmentSize uint64

	// Workers is the worker goroutine count and the in-flight window cap.
	Workers int

	// Until, when non-zero, stops scheduling once the cursor reaches it.
	// The run still drains and flushes normally, so the output ends at the
	// last issued segment boundary.
	Until uint64

	// Logger is the structured logger. When nil, a discard logger is used.
	Logger *slog.Logger

	// Metrics records pipeline OTel metrics. Nil-safe: when nil, no metrics
	// are recorded.
	Metrics *observability.PipelineMetrics

	// Tracer is the OTel tracer for the run span.
	// When nil, falls back to otel.Tracer("primefang").
	Tracer trace.Tracer

	// Checkpoint, when non-nil, persists the durable frontier so the run can
	// resume later.
	Checkpoint *checkpoint.Manager

	// CheckpointInterval is the minimum spacing between checkpoint saves.
	// Each save force-flushes the writer first.
	CheckpointInterval time.Duration
}

// logger returns the configured logger, or a discard logger if nil.
func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}

	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Coordinator owns the sequential side of the pipeline: scheduling,
// assembly, persistence, and checkpointing all run on the goroutine that
// calls Run, with workers as the only parallel collaborators.
type Coordinator struct {
	config Config
	logger *slog.Logger

	cache     *sieve.BasePrimeCache
	pool      *WorkerPool
	scheduler *Scheduler
	assembler *OrderedAssembler
	writer    *writer.DurableWriter
	progress  *Progress

	// releasedLow is the durable frontier: every prime below it is released,
	// none at or above it is.
	releasedLow uint64

	lastCheckpoint time.Time
	seenSyncErrors uint64

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// New creates a coordinator writing to out. A non-nil resume state restarts
// the cursor at the checkpointed frontier and restores the base prime cache
// and running totals; nil starts a fresh run at 2.
func New(config Config, out *writer.DurableWriter, resume *checkpoint.State) *Coordinator {
	cache := sieve.NewBasePrimeCache()
	progress := &Progress{}
	startLow := uint64(firstCandidate)

	if resume != nil {
		startLow = resume.NextLow
		progress.seed(resume.TotalReleased, resume.LastPrime)

		if primes := checkpoint.DecodeBasePrimes(resume.BasePrimes, resume.BasePrimeCount); primes != nil {
			cache.Restore(resume.BaseCeiling, primes)
		}
	}

	pool := NewWorkerPool(config.Workers, sieve.Segment)
	scheduler := NewScheduler(SchedulerConfig{
		SegmentSize: config.SegmentSize,
		Window:      config.Workers,
		StartLow:    startLow,
		Until:       config.Until,
	}, cache, pool)

	now := time.Now

	return &Coordinator{
		config:         config,
		logger:         config.logger(),
		cache:          cache,
		pool:           pool,
		scheduler:      scheduler,
		assembler:      NewOrderedAssembler(0),
		writer:         out,
		progress:       progress,
		releasedLow:    scheduler.NextLow(),
		lastCheckpoint: now(),
		now:            now,
	}
}

// Progress returns the read-only progress tap.
func (c *Coordinator) Progress() *Progress {
	return c.progress
}

// tracer returns the configured tracer, falling back to the global provider.
func (c *Coordinator) tracer() trace.Tracer {
	if c.config.Tracer != nil {
		return c.config.Tracer
	}

	return otel.Tracer(tracerName)
}

// Run drives the pipeline until the context is cancelled, the optional bound
// is reached, or a segment fails. It always drains in-flight work, releases
// every contiguous prefix, force-flushes, and checkpoints before returning.
// The returned count is the cumulative number of primes released.
func (c *Coordinator) Run(ctx context.Context) (uint64, error) {
	ctx, span := c.tracer().Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.Int64("segment_size", safeconv.MustUint64ToInt64(c.config.SegmentSize)),
		attribute.Int("workers", c.config.Workers),
	))
	defer span.End()

	runErr := c.loop(ctx)

	drainErr := c.drain(ctx)
	if runErr == nil {
		runErr = drainErr
	}

	finalErr := c.finish(ctx)
	if runErr == nil {
		runErr = finalErr
	}

	c.pool.Close()

	total := c.progress.Total()
	span.SetAttributes(attribute.Int64("primes_released", safeconv.MustUint64ToInt64(total)))

	if runErr != nil {
		span.RecordError(runErr)

		return total, runErr
	}

	return total, nil
}

// loop is the steady-state schedule/collect cycle. It returns nil on
// cancellation or bound exhaustion, or the first fatal error.
func (c *Coordinator) loop(ctx context.Context) error {
	for {
		// Checked before scheduling so a cancelled run stops submitting even
		// when results are ready on every pass.
		select {
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "cancellation received, draining in-flight segments",
				"in_flight", c.scheduler.InFlight())

			return nil
		default:
		}

		c.scheduler.Fill()

		if c.scheduler.InFlight() == 0 {
			// Bound reached and every result collected.
			return nil
		}

		select {
		case res := <-c.pool.Results():
			err := c.collect(ctx, res)
			if err != nil {
				return err
			}

			err = c.writer.Flush(false)
			if err != nil {
				return err
			}

			err = c.maybeCheckpoint(ctx)
			if err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// collect accounts one completion and releases every contiguous prefix it
// unblocks. A worker error is fatal for the run: a dropped segment would be
// an undetectable gap in the output, which is strictly worse than stopping.
func (c *Coordinator) collect(ctx context.Context, res Result) error {
	c.scheduler.TaskDone()

	if res.Err != nil {
		return fmt.Errorf("sieve segment: %w", res.Err)
	}

	c.config.Metrics.RecordSegment(ctx, res.Duration)

	pendingBefore := c.assembler.Pending()
	released := c.assembler.Accept(res.Ordinal, res.Primes)
	c.config.Metrics.AddPending(ctx, int64(c.assembler.Pending()-pendingBefore))

	for _, primes := range released {
		c.release(ctx, primes)
	}

	return nil
}

// release appends one segment's primes to the writer and advances the frontier.
func (c *Coordinator) release(ctx context.Context, primes []uint64) {
	c.releasedLow += c.scheduler.SegmentSize()

	if len(primes) == 0 {
		return
	}

	c.writer.Append(primes)

	highest := primes[len(primes)-1]
	c.progress.record(uint64(len(primes)), highest)
	c.config.Metrics.AddReleased(ctx, int64(len(primes)), safeconv.MustUint64ToInt64(highest))
}

// drain collects every remaining in-flight result, releasing what stays
// contiguous. Worker errors are reported but do not stop the drain; later
// results still free their window slots and park behind the gap.
func (c *Coordinator) drain(ctx context.Context) error {
	var firstErr error

	for c.scheduler.InFlight() > 0 {
		res := <-c.pool.Results()

		err := c.collect(ctx, res)
		if err != nil {
			c.logger.ErrorContext(ctx, "segment failed during drain", "error", err)

			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// finish force-flushes all released primes and writes the final checkpoint.
func (c *Coordinator) finish(ctx context.Context) error {
	err := c.flushTimed(ctx, true)
	if err != nil {
		return err
	}

	c.saveCheckpoint(ctx)

	return nil
}

// maybeCheckpoint saves the frontier when the checkpoint interval elapsed.
// The save is preceded by a forced flush so the checkpoint never runs ahead
// of the durable output.
func (c *Coordinator) maybeCheckpoint(ctx context.Context) error {
	if c.config.Checkpoint == nil {
		return nil
	}

	if c.now().Sub(c.lastCheckpoint) < c.config.CheckpointInterval {
		return nil
	}

	err := c.flushTimed(ctx, true)
	if err != nil {
		return err
	}

	c.saveCheckpoint(ctx)

	return nil
}

// flushTimed flushes the writer and records flush metrics and any new
// fsync failures.
func (c *Coordinator) flushTimed(ctx context.Context, force bool) error {
	started := c.now()
	err := c.writer.Flush(force)
	c.config.Metrics.RecordFlush(ctx, c.now().Sub(started))

	if syncErrors := c.writer.SyncErrors(); syncErrors > c.seenSyncErrors {
		c.config.Metrics.AddFsyncErrors(ctx, int64(syncErrors-c.seenSyncErrors))
		c.seenSyncErrors = syncErrors
	}

	return err
}

// saveCheckpoint persists the durable frontier. A failed save is logged and
// sacrifices resumability, not output correctness, so it is non-fatal.
func (c *Coordinator) saveCheckpoint(ctx context.Context) {
	if c.config.Checkpoint == nil {
		return
	}

	primes := c.cache.Primes()

	state := &checkpoint.State{
		OutputPath:     c.writer.Path(),
		NextLow:        c.releasedLow,
		TotalReleased:  c.progress.Total(),
		LastPrime:      c.progress.HighestReleased(),
		BaseCeiling:    c.cache.Ceiling(),
		BasePrimeCount: len(primes),
		BasePrimes:     checkpoint.EncodeBasePrimes(primes),
	}

	err := c.config.Checkpoint.Save(state)
	if err != nil {
		c.logger.WarnContext(ctx, "checkpoint save failed", "error", err)

		return
	}

	c.lastCheckpoint = c.now()
}
