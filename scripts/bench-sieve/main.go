// bench-sieve measures segmented sieve throughput across worker counts and
// segment sizes, without touching disk.
//
// Usage:
//
//	go run ./scripts/bench-sieve --until 100000000 --segment-sizes 262144,1048576 \
//	  --workers 1,4,8 --profile-dir docs/profiles/sieve
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/Sumatoshi-tech/primefang/internal/pipeline"
	"github.com/Sumatoshi-tech/primefang/internal/writer"
)

type benchResult struct {
	segmentSize uint64
	workers     int
	primes      uint64
	elapsed     time.Duration
}

func main() {
	until := flag.Uint64("until", 100_000_000, "Sieve bound for each run")
	segmentSizes := flag.String("segment-sizes", "262144,1048576,4194304", "Comma-separated segment sizes")
	workers := flag.String("workers", "1,2,4,8", "Comma-separated worker counts")
	profileDir := flag.String("profile-dir", "", "Directory to write CPU profiles (empty = no profiling)")

	flag.Parse()

	if *profileDir != "" {
		if err := os.MkdirAll(*profileDir, 0o755); err != nil {
			log.Fatalf("mkdir profile-dir: %v", err)
		}
	}

	sizes := parseUint64List(*segmentSizes)
	counts := parseIntList(*workers)

	var results []benchResult

	for _, size := range sizes {
		for _, count := range counts {
			log.Printf("run: segment_size=%d workers=%d until=%d", size, count, *until)

			res := runOnce(size, count, *until, *profileDir)
			results = append(results, res)

			log.Printf("  %d primes in %s (%.1f M values/s)",
				res.primes, res.elapsed.Round(time.Millisecond), rate(*until, res.elapsed))
		}
	}

	fmt.Println()
	fmt.Println("=== Sieve Throughput ===")
	fmt.Printf("%12s %8s %12s %12s %14s\n", "SegmentSize", "Workers", "Primes", "Elapsed", "MValues/s")

	for _, res := range results {
		fmt.Printf("%12d %8d %12d %12s %14.1f\n",
			res.segmentSize, res.workers, res.primes,
			res.elapsed.Round(time.Millisecond), rate(*until, res.elapsed))
	}
}

func runOnce(segmentSize uint64, workers int, until uint64, profileDir string) benchResult {
	out, err := writer.Open(writer.Config{
		Path:      os.DevNull,
		BatchSize: 1 << 16,
	})
	if err != nil {
		log.Fatalf("open sink: %v", err)
	}

	stopProfile := maybeStartProfile(profileDir, segmentSize, workers)
	defer stopProfile()

	coordinator := pipeline.New(pipeline.Config{
		SegmentSize: segmentSize,
		Workers:     workers,
		Until:       until,
	}, out, nil)

	started := time.Now()

	primes, err := coordinator.Run(context.Background())
	if err != nil {
		log.Fatalf("run: %v", err)
	}

	elapsed := time.Since(started)

	if closeErr := out.Close(); closeErr != nil {
		log.Fatalf("close sink: %v", closeErr)
	}

	return benchResult{
		segmentSize: segmentSize,
		workers:     workers,
		primes:      primes,
		elapsed:     elapsed,
	}
}

func maybeStartProfile(dir string, segmentSize uint64, workers int) func() {
	if dir == "" {
		return func() {}
	}

	name := fmt.Sprintf("cpu_s%d_w%d.prof", segmentSize, workers)

	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		log.Fatalf("create cpu profile: %v", err)
	}

	if err := pprof.StartCPUProfile(f); err != nil {
		log.Fatalf("start cpu profile: %v", err)
	}

	return func() {
		pprof.StopCPUProfile()

		if closeErr := f.Close(); closeErr != nil {
			log.Printf("warning: close profile: %v", closeErr)
		}
	}
}

func rate(values uint64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}

	return float64(values) / elapsed.Seconds() / 1e6
}

func parseUint64List(s string) []uint64 {
	parts := strings.Split(s, ",")
	values := make([]uint64, 0, len(parts))

	for _, part := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			log.Fatalf("parse %q: %v", part, err)
		}

		values = append(values, v)
	}

	return values
}

func parseIntList(s string) []int {
	parts := strings.Split(s, ",")
	values := make([]int, 0, len(parts))

	for _, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			log.Fatalf("parse %q: %v", part, err)
		}

		values = append(values, v)
	}

	return values
}
