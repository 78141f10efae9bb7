package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sire/internal/calltree"
	"sire/internal/render"
)

var statsCmd = &cobra.Command{
	Use:   "stats [flags] [src...]",
	Short: "Summarize calls, depth and the most frequent functions of a trace",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().Int("top", 10, "number of most frequent functions to list")
}

func runStats(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()

	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	top, _ := cmd.Flags().GetInt("top")

	docs, err := loadDocuments(cmd.Context(), s, s.sourcesOrDefault(args))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for i, doc := range docs {
		reportIssues(cmd, doc)
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "source:    %s", doc.source)
		if doc.cached {
			fmt.Fprint(out, " (cached)")
		}
		fmt.Fprintf(out, "\nevents:    %d\nvalues:    %d\nissues:    %d\n", doc.report.Events, doc.report.Values, len(doc.report.Issues))
		if err := render.WriteStats(out, calltree.Stats(doc.trace.Events), top); err != nil {
			return err
		}
	}
	s.printTimings(cmd)
	return nil
}
