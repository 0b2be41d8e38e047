package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/primefang/internal/sieve"
	"github.com/Sumatoshi-tech/primefang/pkg/mathutil"
	"github.com/Sumatoshi-tech/primefang/pkg/safeconv"
)

// maxReportedDefects caps the per-line defect listing in the output.
const maxReportedDefects = 10

// ErrVerificationFailed is returned when the output file has defects.
var ErrVerificationFailed = errors.New("verification failed")

// VerifyCommand holds flags for the verify command.
type VerifyCommand struct {
	skipGaps bool
	noColor  bool
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand() *cobra.Command {
	vc := &VerifyCommand{}

	cmd := &cobra.Command{
		Use:   "verify <file>",
		Short: "Check an output file for gaps, duplicates, and composites",
		Long: "Verify reads a prime output file and checks that every line is a\n" +
			"prime, the sequence is strictly increasing, and no prime is missing\n" +
			"between consecutive lines.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return vc.run(cmd, args[0])
		},
	}

	cmd.Flags().BoolVar(&vc.skipGaps, "skip-gaps", false, "Skip the missing-prime scan between consecutive lines")
	cmd.Flags().BoolVar(&vc.noColor, "no-color", false, "Disable colored output")

	return cmd
}

// verifyReport accumulates findings over one pass of the file.
type verifyReport struct {
	lines      uint64
	highest    uint64
	composites uint64
	misordered uint64
	missing    uint64
	malformed  uint64

	defects []string
}

func (r *verifyReport) failed() bool {
	return r.composites+r.misordered+r.missing+r.malformed > 0
}

func (r *verifyReport) addDefect(line uint64, format string, args ...any) {
	if len(r.defects) < maxReportedDefects {
		r.defects = append(r.defects, fmt.Sprintf("line %d: %s", line, fmt.Sprintf(format, args...)))
	}
}

func (vc *VerifyCommand) run(cmd *cobra.Command, path string) error {
	if vc.noColor {
		color.NoColor = true //nolint:reassign // intentional override of library global
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	report, err := vc.scan(file)
	if err != nil {
		return err
	}

	vc.render(cmd.OutOrStdout(), path, report)

	if report.failed() {
		return ErrVerificationFailed
	}

	return nil
}

// scan streams the file once, checking each line against the previous one.
func (vc *VerifyCommand) scan(r io.Reader) (*verifyReport, error) {
	report := &verifyReport{}
	checker := newPrimeChecker()

	var prev uint64

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		report.lines++

		value, parseErr := strconv.ParseUint(scanner.Text(), 10, 64)
		if parseErr != nil {
			report.malformed++
			report.addDefect(report.lines, "not a decimal integer: %q", scanner.Text())

			continue
		}

		vc.checkValue(report, checker, prev, value)

		if value > report.highest {
			report.highest = value
		}

		prev = value
	}

	scanErr := scanner.Err()
	if scanErr != nil {
		return nil, fmt.Errorf("read output file: %w", scanErr)
	}

	return report, nil
}

func (vc *VerifyCommand) checkValue(report *verifyReport, checker *primeChecker, prev, value uint64) {
	if value <= prev {
		report.misordered++
		report.addDefect(report.lines, "%d does not increase over %d", value, prev)

		return
	}

	if !checker.isPrime(value) {
		report.composites++
		report.addDefect(report.lines, "%d is not prime", value)
	}

	if vc.skipGaps {
		return
	}

	// A fresh file starts at the first prime; a gap before line one means
	// primes below the first value are missing.
	low := prev + 1
	if prev == 0 {
		low = 2
	}

	for n := low; n < value; n++ {
		if checker.isPrime(n) {
			report.missing++
			report.addDefect(report.lines, "prime %d missing before %d", n, value)

			break
		}
	}
}

func (vc *VerifyCommand) render(w io.Writer, path string, report *verifyReport) {
	if report.failed() {
		color.New(color.FgRed).Fprintf(w, "verification failed (%s)\n", path)
	} else {
		color.New(color.FgGreen).Fprintf(w, "output is a valid prime prefix (%s)\n", path)
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.SeparateHeader = false

	tbl.AppendRow(table.Row{"lines", humanize.Comma(safeconv.MustUint64ToInt64(report.lines))})
	tbl.AppendRow(table.Row{"highest", humanize.Comma(safeconv.MustUint64ToInt64(report.highest))})
	tbl.AppendRow(table.Row{"composites", report.composites})
	tbl.AppendRow(table.Row{"misordered", report.misordered})
	tbl.AppendRow(table.Row{"missing", report.missing})
	tbl.AppendRow(table.Row{"malformed", report.malformed})

	fmt.Fprintf(w, "%s\n", tbl.Render())

	for _, defect := range report.defects {
		color.New(color.FgYellow).Fprintf(w, "  - %s\n", defect)
	}
}

// primeChecker answers primality by trial division against a grow-only
// base prime cache.
type primeChecker struct {
	cache *sieve.BasePrimeCache
}

func newPrimeChecker() *primeChecker {
	return &primeChecker{cache: sieve.NewBasePrimeCache()}
}

func (pc *primeChecker) isPrime(n uint64) bool {
	if n < 2 {
		return false
	}

	root := mathutil.ISqrt(n)

	for _, p := range pc.cache.Ensure(root) {
		if p > root {
			break
		}

		if n%p == 0 {
			return false
		}
	}

	return true
}
