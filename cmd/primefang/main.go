// Package main provides the entry point for the primefang CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/primefang/cmd/primefang/commands"
	"github.com/Sumatoshi-tech/primefang/pkg/version"
)

var quiet bool

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "primefang",
		Short: "Primefang - unbounded segmented prime sieve",
		Long: `Primefang generates the prime sequence with a parallel segmented
sieve and streams it durably to a file.

Commands:
  run       Generate primes into an output file
  verify    Check an output file for gaps, duplicates, and composites
  plot      Render prime density of an output file as an HTML chart`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")

	// Add commands.
	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewVerifyCommand())
	rootCmd.AddCommand(commands.NewPlotCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "primefang %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
