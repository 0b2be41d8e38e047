// Package writer persists released primes to an append-mode text file with
// batched writes and rate-limited fsync.
package writer

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// outputFileMode is the permission mode for newly created output files.
const outputFileMode = 0o644

// decimalDigitsEstimate sizes the per-batch write buffer: a uint64 prints in
// at most 20 decimal digits plus a newline.
const decimalDigitsEstimate = 21

// Config holds durable writer settings.
type Config struct {
	// Path is the output file destination. The file is opened in append mode
	// and created if missing.
	Path string

	// BatchSize is the number of primes buffered before a write is issued.
	BatchSize int

	// SyncInterval is the minimum spacing between fsync calls on unforced
	// flushes. Forced flushes always sync.
	SyncInterval time.Duration

	// Logger receives sync failure warnings. When nil, a discard logger is used.
	Logger *slog.Logger
}

// logger returns the configured logger, or a discard logger if nil.
func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}

	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// DurableWriter owns the single output file handle and writes primes as
// newline-terminated ASCII decimals. Write errors are fatal; sync errors are
// logged and counted but never abort the run, since plain writes already
// provide baseline durability.
//
// Not safe for concurrent use; the coordinator is the only caller.
type DurableWriter struct {
	file   *os.File
	buf    []uint64
	config Config
	logger *slog.Logger

	lastSync       time.Time
	wroteSinceSync bool
	syncErrors     uint64
	bytesWritten   uint64

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// Open creates a durable writer appending to the configured path.
// A non-creatable destination is a startup configuration error.
func Open(config Config) (*DurableWriter, error) {
	file, err := os.OpenFile(config.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, outputFileMode)
	if err != nil {
		return nil, fmt.Errorf("open output file %s: %w", config.Path, err)
	}

	now := time.Now

	return &DurableWriter{
		file:     file,
		config:   config,
		logger:   config.logger(),
		lastSync: now(),
		now:      now,
	}, nil
}

// Append buffers primes for a later batched write. The caller guarantees the
// values arrive in globally increasing order.
func (w *DurableWriter) Append(primes []uint64) {
	w.buf = append(w.buf, primes...)
}

// Flush writes complete batches from the buffer. When force is true, the
// remainder is written regardless of batch size and the file is always
// synced; otherwise a sync happens only when SyncInterval has elapsed since
// the last one and at least one write occurred in between.
func (w *DurableWriter) Flush(force bool) error {
	for len(w.buf) >= w.config.BatchSize || (force && len(w.buf) > 0) {
		batch := w.buf
		if len(batch) > w.config.BatchSize {
			batch = batch[:w.config.BatchSize]
		}

		err := w.writeBatch(batch)
		if err != nil {
			return err
		}

		w.buf = w.buf[:copy(w.buf, w.buf[len(batch):])]
		w.wroteSinceSync = true
	}

	if force || (w.wroteSinceSync && w.now().Sub(w.lastSync) >= w.config.SyncInterval) {
		w.sync()
	}

	return nil
}

// writeBatch writes one batch of primes as decimal lines in a single write call.
func (w *DurableWriter) writeBatch(batch []uint64) error {
	out := make([]byte, 0, len(batch)*decimalDigitsEstimate)

	for _, p := range batch {
		out = strconv.AppendUint(out, p, 10)
		out = append(out, '\n')
	}

	n, err := w.file.Write(out)
	w.bytesWritten += uint64(n)

	if err != nil {
		return fmt.Errorf("write output batch: %w", err)
	}

	return nil
}

// sync attempts an fsync and records the attempt time regardless of outcome,
// so a persistently failing storage layer does not turn into a sync storm.
func (w *DurableWriter) sync() {
	err := w.file.Sync()
	if err != nil {
		w.syncErrors++
		w.logger.Warn("output fsync failed", "path", w.config.Path, "error", err)
	}

	w.lastSync = w.now()
	w.wroteSinceSync = false
}

// Close force-flushes all buffered primes, syncs, and closes the file.
func (w *DurableWriter) Close() error {
	flushErr := w.Flush(true)

	closeErr := w.file.Close()
	if flushErr != nil {
		return flushErr
	}

	if closeErr != nil {
		return fmt.Errorf("close output file: %w", closeErr)
	}

	return nil
}

// Buffered returns the number of primes awaiting a write.
func (w *DurableWriter) Buffered() int {
	return len(w.buf)
}

// SyncErrors returns the count of non-fatal fsync failures so far.
func (w *DurableWriter) SyncErrors() uint64 {
	return w.syncErrors
}

// BytesWritten returns the total bytes written to the output file.
func (w *DurableWriter) BytesWritten() uint64 {
	return w.bytesWritten
}

// Path returns the output file destination.
func (w *DurableWriter) Path() string {
	return w.config.Path
}
