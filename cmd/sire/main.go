package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"sire/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "sire",
	Short: "Inspect structured interpreter execution traces",
	Long: `sire rebuilds call trees from flat enter/leave event traces and lets you
render, summarize, and browse them together with the traced value pool.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		stopProfiling, err := setupProfiling(cmd)
		if err != nil {
			return err
		}
		cleanups = append(cleanups, stopProfiling)
		stopTracing, err := setupTracing(cmd)
		if err != nil {
			return err
		}
		cleanups = append(cleanups, stopTracing)
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		runCleanups()
	},
}

// cleanups are registered by the persistent pre-run and run once, newest
// first.
var cleanups []func()

func runCleanups() {
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
	cleanups = nil
}

func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(valuesCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(flattenCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)

	pf := rootCmd.PersistentFlags()
	pf.String("color", "", "colorize output (auto|on|off, default from config)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "show timing information")
	pf.String("config", "", "path to sire.toml (default: search upwards from the working directory)")
	pf.Bool("lenient", false, "tolerate unbalanced traces and report the problems as warnings")
	pf.Bool("no-cache", false, "bypass the structured trace cache")

	pf.String("trace", "", "write the tool's own trace to file (- for stderr)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-mode", "stream", "trace storage (stream|ring|both)")
	pf.String("trace-format", "auto", "trace format (auto|text|ndjson)")
	pf.Int("trace-ring-size", 4096, "events kept by the ring tracer")
	pf.Duration("trace-heartbeat", 0, "emit heartbeat events at this interval (0 disables)")
	pf.String("trace-record", "", "record the tool's own spans as a sire trace document")

	pf.String("cpu-profile", "", "write a CPU profile to file")
	pf.String("mem-profile", "", "write a heap profile to file on exit")
	pf.String("runtime-trace", "", "write a Go runtime execution trace to file")
}

func main() {
	err := rootCmd.Execute()
	// PersistentPostRun is skipped when RunE fails
	runCleanups()
	if err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// warnf prints a diagnostic to stderr unless --quiet is set.
func warnf(cmd *cobra.Command, format string, args ...any) {
	if quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet"); quiet {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
}
