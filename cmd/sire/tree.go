package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"sire/internal/calltree"
	"sire/internal/render"
	"sire/internal/sirdoc"
	"sire/internal/source"
	"sire/internal/watch"
)

var treeCmd = &cobra.Command{
	Use:   "tree [flags] [src...]",
	Short: "Reconstruct and print the call tree of a trace",
	Long: `Reconstruct the call tree of each source (file, - for stdin, or http(s) URL)
and print it as an indented tree or as a structured JSON document.
Without a source the configured URL is used.`,
	RunE: runTree,
}

func init() {
	treeCmd.Flags().String("format", "", "output format (text|json, default from config)")
	treeCmd.Flags().Int("max-depth", -1, "hide calls nested deeper than this (0 = unlimited, default from config)")
	treeCmd.Flags().Int("arg-width", -1, "truncate args to this many cells (0 hides them, default from config)")
	treeCmd.Flags().String("find", "", "print only the subtrees of calls with this name")
	treeCmd.Flags().Bool("watch", false, "re-render whenever the (local) trace file changes")
}

func runTree(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()

	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = s.cfg.Output.Format
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format: %s", format)
	}
	opts := render.TreeOptions{
		Color:    s.color,
		MaxDepth: s.cfg.Output.MaxDepth,
		ArgWidth: s.cfg.Output.ArgWidth,
	}
	if v, _ := cmd.Flags().GetInt("max-depth"); v >= 0 {
		opts.MaxDepth = v
	}
	if v, _ := cmd.Flags().GetInt("arg-width"); v >= 0 {
		opts.ArgWidth = v
	}
	find, _ := cmd.Flags().GetString("find")

	watchMode, _ := cmd.Flags().GetBool("watch")
	srcs := s.sourcesOrDefault(args)

	renderAll := func() error {
		docs, err := loadDocuments(cmd.Context(), s, srcs)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for i, doc := range docs {
			reportIssues(cmd, doc)
			calls := doc.trace.Events
			if find != "" {
				calls = calltree.Find(calls, find)
			}
			if err := writeDocumentTree(out, doc, calls, format, opts, len(docs) > 1, i > 0); err != nil {
				return err
			}
		}
		return nil
	}

	if !watchMode {
		if err := renderAll(); err != nil {
			return err
		}
		s.printTimings(cmd)
		return nil
	}

	if len(srcs) != 1 || srcs[0] == source.Stdin || source.IsRemote(srcs[0]) {
		return errors.New("--watch needs exactly one local trace file")
	}
	if err := renderAll(); err != nil {
		warnf(cmd, "error: %v", err)
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	return watch.File(ctx, srcs[0], watch.DefaultDebounce, func() error {
		fmt.Fprintf(cmd.OutOrStdout(), "\n--- %s changed ---\n", srcs[0])
		// a half-written file is reported and picked up on the next write
		if err := renderAll(); err != nil {
			warnf(cmd, "error: %v", err)
		}
		return nil
	})
}

func writeDocumentTree(out io.Writer, doc document, calls []*calltree.Call, format string, opts render.TreeOptions, header, gap bool) error {
	if format == "json" {
		return sirdoc.Encode(out, &sirdoc.StructuredTrace{Events: calls, Stage3: doc.trace.Stage3})
	}
	if gap {
		fmt.Fprintln(out)
	}
	if header {
		fmt.Fprintf(out, "==> %s <==\n", doc.source)
	}
	return render.WriteTree(out, calls, opts)
}

// reportIssues prints the problems lenient reconstruction recovered from.
func reportIssues(cmd *cobra.Command, doc document) {
	for _, issue := range doc.report.Issues {
		warnf(cmd, "warning: %s: %v", doc.source, issue)
	}
}
