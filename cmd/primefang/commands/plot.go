package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/spf13/cobra"
)

// defaultPlotBuckets is the bucket count when none is given.
const defaultPlotBuckets = 100

// plotLineWidth is the series line width in the rendered chart.
const plotLineWidth = 2

// ErrEmptyPlotInput is returned when the output file has no values to plot.
var ErrEmptyPlotInput = errors.New("no values to plot")

// PlotCommand holds flags for the plot command.
type PlotCommand struct {
	out     string
	buckets int
}

// NewPlotCommand creates the plot command.
func NewPlotCommand() *cobra.Command {
	pc := &PlotCommand{}

	cmd := &cobra.Command{
		Use:   "plot <file>",
		Short: "Render prime density of an output file as an HTML chart",
		Long: "Plot buckets the primes in an output file into equal-width ranges and\n" +
			"renders the observed count per bucket next to the density the prime\n" +
			"number theorem predicts.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return pc.run(cmd, args[0])
		},
	}

	cmd.Flags().StringVarP(&pc.out, "out", "o", "primes.html", "Destination HTML file")
	cmd.Flags().IntVar(&pc.buckets, "buckets", defaultPlotBuckets, "Number of equal-width buckets")

	return cmd
}

func (pc *PlotCommand) run(cmd *cobra.Command, path string) error {
	if pc.buckets < 1 {
		pc.buckets = defaultPlotBuckets
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	primes, err := readValues(file)
	if err != nil {
		return err
	}

	if len(primes) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyPlotInput, path)
	}

	line := pc.buildChart(primes)

	dest, err := os.Create(pc.out)
	if err != nil {
		return fmt.Errorf("create %s: %w", pc.out, err)
	}
	defer dest.Close()

	err = line.Render(dest)
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d primes, %d buckets)\n", pc.out, len(primes), pc.buckets)

	return nil
}

// buildChart buckets the primes and assembles the two density series.
func (pc *PlotCommand) buildChart(primes []uint64) *charts.Line {
	highest := primes[len(primes)-1]

	width := highest/uint64(pc.buckets) + 1
	counts := make([]int, pc.buckets)

	for _, p := range primes {
		counts[p/width]++
	}

	labels := make([]string, pc.buckets)
	observed := make([]opts.LineData, pc.buckets)
	expected := make([]opts.LineData, pc.buckets)

	for i := range counts {
		bucketLow := uint64(i) * width
		labels[i] = strconv.FormatUint(bucketLow, 10)
		observed[i] = opts.LineData{Value: counts[i]}
		expected[i] = opts.LineData{Value: expectedCount(bucketLow, width)}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Prime density",
			Subtitle: fmt.Sprintf("primes per bucket of width %d", width),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Range start"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Primes per bucket"}),
	)
	line.SetXAxis(labels)
	line.AddSeries("Observed", observed,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: plotLineWidth}),
	)
	line.AddSeries("Expected (PNT)", expected,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: plotLineWidth, Type: "dashed"}),
	)

	return line
}

// expectedCount approximates the prime count in [low, low+width) as
// width / ln(mid), the local density the prime number theorem gives.
func expectedCount(low, width uint64) float64 {
	mid := float64(low) + float64(width)/2
	if mid < math.E {
		mid = math.E
	}

	return math.Round(float64(width) / math.Log(mid))
}

// readValues parses a prime output file into a slice.
func readValues(r io.Reader) ([]uint64, error) {
	values := make([]uint64, 0)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		value, err := strconv.ParseUint(scanner.Text(), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse value %q: %w", scanner.Text(), err)
		}

		values = append(values, value)
	}

	err := scanner.Err()
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	return values, nil
}
