package config

import (
	"errors"
	"time"
)

// Config is the top-level configuration struct for primefang.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Output      OutputConfig      `mapstructure:"output"`
	Pipeline    PipelineConfig    `mapstructure:"pipeline"`
	Checkpoint  CheckpointConfig  `mapstructure:"checkpoint"`
	Diagnostics DiagnosticsConfig `mapstructure:"diagnostics"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
}

// OutputConfig holds destination file and durability knobs.
type OutputConfig struct {
	Path           string        `mapstructure:"path"`
	BatchWriteSize int           `mapstructure:"batch_write_size"`
	FsyncInterval  time.Duration `mapstructure:"fsync_interval"`
}

// PipelineConfig holds sieve scheduling knobs.
type PipelineConfig struct {
	SegmentSize    uint64        `mapstructure:"segment_size"`
	Workers        int           `mapstructure:"workers"`
	ReportInterval time.Duration `mapstructure:"report_interval"`
	Until          uint64        `mapstructure:"until"`
}

// CheckpointConfig holds resume checkpoint settings.
type CheckpointConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Dir      string        `mapstructure:"dir"`
	Interval time.Duration `mapstructure:"interval"`
}

// DiagnosticsConfig holds the optional diagnostics HTTP server settings.
// An empty Addr disables the server.
type DiagnosticsConfig struct {
	Addr string `mapstructure:"addr"`
}

// TelemetryConfig holds OpenTelemetry export and logging settings.
// An empty OTLPEndpoint leaves tracing and metrics as no-ops.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	Insecure     bool    `mapstructure:"insecure"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	Environment  string  `mapstructure:"environment"`
	LogLevel     string  `mapstructure:"log_level"`
	LogJSON      bool    `mapstructure:"log_json"`
}

// Default configuration values.
const (
	DefaultOutputPath     = "primes.txt"
	DefaultBatchWriteSize = 1024
	DefaultFsyncInterval  = 2 * time.Second

	DefaultSegmentSize    = uint64(1_000_000)
	DefaultReportInterval = 10 * time.Second

	DefaultCheckpointEnabled  = false
	DefaultCheckpointDir      = ".primefang-checkpoints"
	DefaultCheckpointInterval = 30 * time.Second

	DefaultTelemetrySampleRatio = 1.0
	DefaultTelemetryEnvironment = "development"
	DefaultTelemetryLogLevel    = "info"
)

// minSegmentSize is the smallest window the sieve can work on.
const minSegmentSize = 2

// Sentinel errors for configuration validation.
var (
	// ErrEmptyOutputPath indicates no destination file was given.
	ErrEmptyOutputPath = errors.New("output.path must not be empty")
	// ErrInvalidBatchWriteSize indicates the write batch size is not positive.
	ErrInvalidBatchWriteSize = errors.New("output.batch_write_size must be positive")
	// ErrInvalidFsyncInterval indicates the fsync interval is negative.
	ErrInvalidFsyncInterval = errors.New("output.fsync_interval must be non-negative")
	// ErrInvalidSegmentSize indicates the segment width is below the minimum.
	ErrInvalidSegmentSize = errors.New("pipeline.segment_size must be at least 2")
	// ErrInvalidWorkers indicates the worker count is not positive.
	ErrInvalidWorkers = errors.New("pipeline.workers must be positive")
	// ErrInvalidReportInterval indicates the report interval is negative.
	ErrInvalidReportInterval = errors.New("pipeline.report_interval must be non-negative")
	// ErrInvalidCheckpointInterval indicates the checkpoint interval is negative.
	ErrInvalidCheckpointInterval = errors.New("checkpoint.interval must be non-negative")
	// ErrInvalidSampleRatio indicates the trace sample ratio is out of range.
	ErrInvalidSampleRatio = errors.New("telemetry.sample_ratio must be between 0 and 1")
)

// sampleRatioMax is the upper bound for the trace sample ratio.
const sampleRatioMax = 1.0

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	outputErr := c.validateOutput()
	if outputErr != nil {
		return outputErr
	}

	pipelineErr := c.validatePipeline()
	if pipelineErr != nil {
		return pipelineErr
	}

	if c.Checkpoint.Interval < 0 {
		return ErrInvalidCheckpointInterval
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > sampleRatioMax {
		return ErrInvalidSampleRatio
	}

	return nil
}

func (c *Config) validateOutput() error {
	if c.Output.Path == "" {
		return ErrEmptyOutputPath
	}

	if c.Output.BatchWriteSize < 1 {
		return ErrInvalidBatchWriteSize
	}

	if c.Output.FsyncInterval < 0 {
		return ErrInvalidFsyncInterval
	}

	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.SegmentSize < minSegmentSize {
		return ErrInvalidSegmentSize
	}

	if c.Pipeline.Workers < 1 {
		return ErrInvalidWorkers
	}

	if c.Pipeline.ReportInterval < 0 {
		return ErrInvalidReportInterval
	}

	return nil
}
