package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vsearch"
)

type searchFlags struct {
	topN     int
	nearest  bool
	maxDims  int
	maxNodes int
}

func (f *searchFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.topN, "top", "n", 0, "Number of results (default from config)")
	cmd.Flags().BoolVar(&f.nearest, "nearest", false, "Scan the buckets nearest to the query weight first")
	cmd.Flags().IntVar(&f.maxDims, "max-dims", 0, "Query dimensions to scan (default from config)")
	cmd.Flags().IntVar(&f.maxNodes, "max-nodes", 0, "Buckets to scan per dimension (default from config)")
}

func (f *searchFlags) options() []vsearch.SearchOption {
	var opts []vsearch.SearchOption
	if f.topN > 0 {
		opts = append(opts, vsearch.WithTopN(f.topN))
	}
	if f.maxDims > 0 {
		opts = append(opts, vsearch.WithMaxScanDimensions(f.maxDims))
	}
	if f.maxNodes > 0 {
		opts = append(opts, vsearch.WithMaxScanNodes(f.maxNodes))
	}
	if f.nearest {
		opts = append(opts, vsearch.WithNearestBuckets())
	}
	return opts
}

func newQueryCmd(a *app) *cobra.Command {
	var flags searchFlags

	cmd := &cobra.Command{
		Use:   "query <text>...",
		Short: "Search the index with free text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := a.openEngine(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			start := time.Now()
			results, err := e.Search(ctx, strings.Join(args, " "), flags.options()...)
			if err != nil {
				return err
			}
			printResults(cmd.OutOrStdout(), results, time.Since(start))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newSimilarCmd(a *app) *cobra.Command {
	var flags searchFlags

	cmd := &cobra.Command{
		Use:   "similar <document-id>",
		Short: "Find documents similar to an ingested document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid document id %q: %w", args[0], err)
			}

			ctx := cmd.Context()
			e, err := a.openEngine(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			start := time.Now()
			results, err := e.Similar(ctx, int32(id), flags.options()...)
			if err != nil {
				return err
			}
			printResults(cmd.OutOrStdout(), results, time.Since(start))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func printResults(w io.Writer, results []vsearch.SearchResult, elapsed time.Duration) {
	if len(results) == 0 {
		fmt.Fprintf(w, "no results (%s)\n", elapsed.Round(time.Microsecond))
		return
	}
	for i, r := range results {
		fmt.Fprintf(w, "%3d. %8.4f  [%d] %s\n", i+1, r.Score, r.DocumentID, r.Source)
		if r.Title != "" {
			fmt.Fprintf(w, "     %s\n", r.Title)
		}
	}
	fmt.Fprintf(w, "%d results (%s)\n", len(results), elapsed.Round(time.Microsecond))
}
