package main

import (
	"errors"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"sire/internal/sirdoc"
	"sire/internal/ui"
)

var viewCmd = &cobra.Command{
	Use:   "view [src]",
	Short: "Browse the call tree of a trace interactively",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runView,
}

func runView(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()

	if !isTerminal(os.Stdout) {
		return errors.New("view needs a terminal; use \"sire tree\" instead")
	}
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	srcs := s.sourcesOrDefault(args)
	ctx := cmd.Context()

	var issues []document
	model := ui.NewBrowser(srcs[0], func() (*sirdoc.StructuredTrace, error) {
		docs, err := loadDocuments(ctx, s, srcs)
		if err != nil {
			return nil, err
		}
		issues = docs
		return docs[0].trace, nil
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return err
	}
	if err := model.Err(); err != nil {
		return err
	}
	for _, doc := range issues {
		reportIssues(cmd, doc)
	}
	s.printTimings(cmd)
	return nil
}
