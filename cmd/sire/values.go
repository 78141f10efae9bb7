package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"sire/internal/render"
	"sire/internal/value"
)

var valuesCmd = &cobra.Command{
	Use:   "values [flags] [src]",
	Short: "List and validate the value pool of a trace",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runValues,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [flags] [src] <pool_id> <index>",
	Short: "Resolve a value id against the pool of a trace",
	Args:  cobra.RangeArgs(2, 3),
	RunE:  runResolve,
}

func init() {
	valuesCmd.Flags().Int("depth", 0, "expand each value through its references up to this depth")
	valuesCmd.Flags().Bool("check-refs", false, "fail when a value refers to an id outside the loaded pools")
	resolveCmd.Flags().Int("depth", 4, "expand references up to this depth")
}

func runValues(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()

	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	depth, _ := cmd.Flags().GetInt("depth")
	checkRefs, _ := cmd.Flags().GetBool("check-refs")

	docs, err := loadDocuments(cmd.Context(), s, s.sourcesOrDefault(args))
	if err != nil {
		return err
	}
	doc := docs[0]
	reportIssues(cmd, doc)
	if doc.trace.Stage3 == nil {
		return fmt.Errorf("%s: trace has no stage3 value pool", doc.source)
	}
	pools := doc.trace.Pools()
	pool := &doc.trace.Stage3.Values
	if err := value.ValidatePool(pool, pools, value.ValidateOptions{CheckRefs: checkRefs}); err != nil {
		return fmt.Errorf("%s: %w", doc.source, err)
	}
	if err := render.WritePool(cmd.OutOrStdout(), pool, pools, depth); err != nil {
		return err
	}
	s.printTimings(cmd)
	return nil
}

// parseResolveArgs splits [src] <pool_id> <index>.
func parseResolveArgs(args []string) ([]string, value.Id, error) {
	if len(args) < 2 {
		return nil, value.Id{}, errors.New("expected <pool_id> <index>")
	}
	srcs := args[:len(args)-2]
	poolArg, indexArg := args[len(args)-2], args[len(args)-1]
	poolID, err := strconv.ParseUint(poolArg, 10, 64)
	if err != nil {
		return nil, value.Id{}, fmt.Errorf("invalid pool id %q: %w", poolArg, err)
	}
	index, err := strconv.Atoi(indexArg)
	if err != nil {
		return nil, value.Id{}, fmt.Errorf("invalid index %q: %w", indexArg, err)
	}
	if index < 0 {
		return nil, value.Id{}, fmt.Errorf("invalid index %d: must not be negative", index)
	}
	return srcs, value.Id{PoolID: poolID, Index: index}, nil
}

func runResolve(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()

	srcs, id, err := parseResolveArgs(args)
	if err != nil {
		return err
	}
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	depth, _ := cmd.Flags().GetInt("depth")

	docs, err := loadDocuments(cmd.Context(), s, s.sourcesOrDefault(srcs))
	if err != nil {
		return err
	}
	doc := docs[0]
	reportIssues(cmd, doc)
	pools := doc.trace.Pools()
	v, err := pools.Resolve(id)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s = %s\n", id, value.Summary(v))
	if depth > 0 {
		fmt.Fprintf(out, "  %s\n", render.Describe(id, pools, depth))
	}
	s.printTimings(cmd)
	return nil
}
