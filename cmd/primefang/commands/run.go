// Package commands implements CLI command handlers for primefang.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/primefang/internal/checkpoint"
	"github.com/Sumatoshi-tech/primefang/internal/config"
	"github.com/Sumatoshi-tech/primefang/internal/observability"
	"github.com/Sumatoshi-tech/primefang/internal/pipeline"
	"github.com/Sumatoshi-tech/primefang/internal/writer"
	"github.com/Sumatoshi-tech/primefang/pkg/safeconv"
	"github.com/Sumatoshi-tech/primefang/pkg/version"
)

// RunCommand holds configuration and dependencies for the run command.
type RunCommand struct {
	configPath string

	output        string
	batchSize     int
	fsyncInterval time.Duration

	segmentSize    uint64
	workers        int
	until          uint64
	reportInterval time.Duration

	checkpointDir      string
	checkpointInterval time.Duration
	resume             bool
	clearCheckpoint    bool

	diagnosticsAddr string
	otlpEndpoint    string

	silent bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	rc := &RunCommand{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate primes into an output file",
		Long: "Run the segmented sieve pipeline, appending primes in order to the\n" +
			"output file until interrupted or the optional bound is reached.",
		Args: cobra.NoArgs,
		RunE: rc.run,
	}

	cmd.Flags().StringVarP(&rc.configPath, "config", "c", "", "Config file path (default: .primefang.yaml in CWD or $HOME)")

	cmd.Flags().StringVarP(&rc.output, "output", "o", "", "Output file path")
	cmd.Flags().IntVar(&rc.batchSize, "batch-write-size", 0, "Primes per write batch")
	cmd.Flags().DurationVar(&rc.fsyncInterval, "fsync-interval", 0, "Minimum spacing between fsync calls")

	cmd.Flags().Uint64Var(&rc.segmentSize, "segment-size", 0, "Values per sieve segment")
	cmd.Flags().IntVarP(&rc.workers, "workers", "w", 0, "Number of sieve workers (default: CPU count)")
	cmd.Flags().Uint64Var(&rc.until, "until", 0, "Stop scheduling once the cursor reaches this value (0 = unbounded)")
	cmd.Flags().DurationVar(&rc.reportInterval, "report-interval", 0, "Spacing between progress reports")

	cmd.Flags().StringVar(&rc.checkpointDir, "checkpoint-dir", "", "Enable checkpointing into this directory")
	cmd.Flags().DurationVar(&rc.checkpointInterval, "checkpoint-interval", 0, "Minimum spacing between checkpoint saves")
	cmd.Flags().BoolVar(&rc.resume, "resume", false, "Resume from an existing checkpoint")
	cmd.Flags().BoolVar(&rc.clearCheckpoint, "clear-checkpoint", false, "Clear any existing checkpoint before running")

	cmd.Flags().StringVar(&rc.diagnosticsAddr, "diagnostics-addr", "", "Serve /healthz, /readyz, and /metrics on this address")
	cmd.Flags().StringVar(&rc.otlpEndpoint, "otlp-endpoint", "", "OTLP gRPC collector address (empty = telemetry disabled)")

	cmd.Flags().BoolVar(&rc.silent, "silent", false, "Disable progress output")

	return cmd
}

func (rc *RunCommand) run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(rc.configPath)
	if err != nil {
		return err
	}

	rc.applyFlags(cmd, cfg)

	err = cfg.Validate()
	if err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	providers, err := observability.Init(observability.Config{
		ServiceName:    "primefang",
		ServiceVersion: version.Version,
		Environment:    cfg.Telemetry.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure:   cfg.Telemetry.Insecure,
		SampleRatio:    cfg.Telemetry.SampleRatio,
		LogLevel:       parseLogLevel(cfg.Telemetry.LogLevel),
		LogJSON:        cfg.Telemetry.LogJSON,
	})
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() {
		shutdownErr := providers.Shutdown(context.Background())
		if shutdownErr != nil {
			providers.Logger.Warn("telemetry shutdown failed", "error", shutdownErr)
		}
	}()

	return rc.execute(cmd, cfg, providers)
}

func (rc *RunCommand) execute(cmd *cobra.Command, cfg *config.Config, providers observability.Providers) error {
	logger := providers.Logger

	metrics, err := observability.NewPipelineMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("create pipeline metrics: %w", err)
	}

	_, err = observability.NewRuntimeMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("create runtime metrics: %w", err)
	}

	if cfg.Diagnostics.Addr != "" {
		// Runtime metrics are already registered above; a nil meter keeps the
		// diagnostics server from registering them a second time.
		diag, diagErr := observability.NewDiagnosticsServer(cfg.Diagnostics.Addr, nil)
		if diagErr != nil {
			return fmt.Errorf("start diagnostics server: %w", diagErr)
		}

		defer func() { _ = diag.Close() }()

		logger.Info("diagnostics server listening", "addr", diag.Addr())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, err := writer.Open(writer.Config{
		Path:         cfg.Output.Path,
		BatchSize:    cfg.Output.BatchWriteSize,
		SyncInterval: cfg.Output.FsyncInterval,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}

	manager, resumeState, err := rc.setupCheckpoint(cfg, logger)
	if err != nil {
		closeErr := out.Close()

		return errors.Join(err, closeErr)
	}

	coordinator := pipeline.New(pipeline.Config{
		SegmentSize:        cfg.Pipeline.SegmentSize,
		Workers:            cfg.Pipeline.Workers,
		Until:              cfg.Pipeline.Until,
		Logger:             logger,
		Metrics:            metrics,
		Tracer:             providers.Tracer,
		Checkpoint:         manager,
		CheckpointInterval: cfg.Checkpoint.Interval,
	}, out, resumeState)

	stopReporting := rc.startReporter(cmd, coordinator.Progress(), cfg.Pipeline.ReportInterval)

	logger.InfoContext(ctx, "pipeline starting",
		"output", cfg.Output.Path,
		"segment_size", cfg.Pipeline.SegmentSize,
		"workers", cfg.Pipeline.Workers,
		"until", cfg.Pipeline.Until,
		"resume", resumeState != nil)

	total, runErr := coordinator.Run(ctx)

	stopReporting()

	closeErr := out.Close()
	if closeErr != nil {
		closeErr = fmt.Errorf("close output: %w", closeErr)
	}

	rc.report(cmd, coordinator, total, cfg.Output.Path)

	return errors.Join(runErr, closeErr)
}

// applyFlags overrides loaded config values with explicitly set flags.
// Unset flags leave the file and env values in place.
func (rc *RunCommand) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("output") {
		cfg.Output.Path = rc.output
	}

	if cmd.Flags().Changed("batch-write-size") {
		cfg.Output.BatchWriteSize = rc.batchSize
	}

	if cmd.Flags().Changed("fsync-interval") {
		cfg.Output.FsyncInterval = rc.fsyncInterval
	}

	if cmd.Flags().Changed("segment-size") {
		cfg.Pipeline.SegmentSize = rc.segmentSize
	}

	if cmd.Flags().Changed("workers") {
		cfg.Pipeline.Workers = rc.workers
	}

	if cmd.Flags().Changed("until") {
		cfg.Pipeline.Until = rc.until
	}

	if cmd.Flags().Changed("report-interval") {
		cfg.Pipeline.ReportInterval = rc.reportInterval
	}

	if cmd.Flags().Changed("checkpoint-dir") {
		cfg.Checkpoint.Enabled = true
		cfg.Checkpoint.Dir = rc.checkpointDir
	}

	if cmd.Flags().Changed("checkpoint-interval") {
		cfg.Checkpoint.Interval = rc.checkpointInterval
	}

	if cmd.Flags().Changed("diagnostics-addr") {
		cfg.Diagnostics.Addr = rc.diagnosticsAddr
	}

	if cmd.Flags().Changed("otlp-endpoint") {
		cfg.Telemetry.OTLPEndpoint = rc.otlpEndpoint
	}
}

// setupCheckpoint builds the checkpoint manager and loads resume state when
// requested. A checkpoint for a different output file is a hard error rather
// than a silent fresh start.
func (rc *RunCommand) setupCheckpoint(cfg *config.Config, logger *slog.Logger) (*checkpoint.Manager, *checkpoint.State, error) {
	if !cfg.Checkpoint.Enabled {
		return nil, nil, nil
	}

	manager := checkpoint.NewManager(cfg.Checkpoint.Dir)

	if rc.clearCheckpoint {
		err := manager.Clear()
		if err != nil {
			return nil, nil, err
		}
	}

	if !rc.resume || !manager.Exists() {
		return manager, nil, nil
	}

	state, err := manager.Load(cfg.Output.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("resume: %w", err)
	}

	logger.Info("resuming from checkpoint",
		"next_low", state.NextLow,
		"total_released", state.TotalReleased,
		"saved_at", state.CreatedAt)

	return manager, state, nil
}

// startReporter spawns the periodic progress printer and returns its stop
// function. A zero interval or silent mode yields a no-op.
func (rc *RunCommand) startReporter(cmd *cobra.Command, progress *pipeline.Progress, interval time.Duration) func() {
	if rc.isSilent(cmd) || interval <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				delta := progress.TakeDelta()
				fmt.Fprintf(cmd.ErrOrStderr(), "progress: +%s primes (total %s, highest %s)\n",
					humanize.Comma(safeconv.MustUint64ToInt64(delta)),
					humanize.Comma(safeconv.MustUint64ToInt64(progress.Total())),
					humanize.Comma(safeconv.MustUint64ToInt64(progress.HighestReleased())))
			}
		}
	}()

	return func() {
		close(done)
		<-stopped
	}
}

func (rc *RunCommand) report(cmd *cobra.Command, coordinator *pipeline.Coordinator, total uint64, path string) {
	if rc.isSilent(cmd) {
		return
	}

	highest := coordinator.Progress().HighestReleased()

	fmt.Fprintf(cmd.OutOrStdout(), "released %s primes to %s (highest %s)\n",
		humanize.Comma(safeconv.MustUint64ToInt64(total)),
		path,
		humanize.Comma(safeconv.MustUint64ToInt64(highest)))
}

func (rc *RunCommand) isSilent(cmd *cobra.Command) bool {
	if rc.silent {
		return true
	}

	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return false
	}

	return quiet
}

// parseLogLevel maps a config string to a slog level, defaulting to info.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
