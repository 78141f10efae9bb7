package main

import (
	"github.com/spf13/cobra"

	"sire/internal/calltree"
	"sire/internal/sirdoc"
)

var flattenCmd = &cobra.Command{
	Use:   "flatten [src]",
	Short: "Re-emit the balanced enter/leave event stream of a trace",
	Long: `Reconstruct the call tree of a trace and write it back out as a flat input
document. With --lenient this repairs unbalanced traces.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFlatten,
}

func runFlatten(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()

	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	docs, err := loadDocuments(cmd.Context(), s, s.sourcesOrDefault(args))
	if err != nil {
		return err
	}
	doc := docs[0]
	reportIssues(cmd, doc)

	out := &sirdoc.InputTrace{
		Events: calltree.Flatten(doc.trace.Events),
		Stage3: doc.trace.Stage3,
	}
	if err := sirdoc.EncodeInput(cmd.OutOrStdout(), out); err != nil {
		return err
	}
	s.printTimings(cmd)
	return nil
}
