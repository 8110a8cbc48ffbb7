package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newVocabCmd(a *app) *cobra.Command {
	var exts []string

	cmd := &cobra.Command{
		Use:   "vocab <dir>",
		Short: "Build the vocabulary from a directory of text files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := a.openEngine(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			start := time.Now()
			n := 0
			err = walkCorpus(ctx, args[0], exts, func(f textFile) error {
				n++
				return e.AddToVocabulary(ctx, f.Text)
			})
			if err != nil {
				return err
			}
			if err := e.SaveVocabulary(ctx); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "vocabulary: %d documents, %d tokens (%s)\n",
				n, e.Stats().VocabularySize, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&exts, "ext", nil, "Only read files with these extensions")
	return cmd
}

func newIngestCmd(a *app) *cobra.Command {
	var exts []string

	cmd := &cobra.Command{
		Use:   "ingest <dir>",
		Short: "Vectorize text files and append them to the vector store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := a.openEngine(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			if e.Stats().VocabularySize == 0 {
				return fmt.Errorf("vocabulary is empty: run \"vsearch vocab\" first")
			}

			next, err := e.NextDocumentID(ctx)
			if err != nil {
				return err
			}

			start := time.Now()
			n := 0
			err = walkCorpus(ctx, args[0], exts, func(f textFile) error {
				if err := e.Ingest(ctx, next, f.Path, f.Text); err != nil {
					return err
				}
				next++
				n++
				return nil
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "ingested %d documents (%s)\n", n, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&exts, "ext", nil, "Only read files with these extensions")
	return cmd
}

func newBuildCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build the bucketed index from the vector store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := a.openEngine(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			start := time.Now()
			stats, err := e.BuildIndex(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "index: %d documents, %d dimensions, %d postings (%s)\n",
				stats.Documents, stats.Dimensions, stats.Postings, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show vocabulary, store, and index sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := a.openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			s := e.Stats()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "directory:          %s\n", e.Dir())
			fmt.Fprintf(out, "vocabulary tokens:  %d\n", s.VocabularySize)
			fmt.Fprintf(out, "vocabulary docs:    %d\n", s.VocabularyDocuments)
			fmt.Fprintf(out, "stored documents:   %d\n", s.Documents)
			fmt.Fprintf(out, "index built:        %t\n", s.Built)
			if s.Built {
				fmt.Fprintf(out, "indexed documents:  %d\n", s.IndexedDocuments)
				fmt.Fprintf(out, "indexed dimensions: %d\n", s.IndexedDimensions)
			}
			return nil
		},
	}
}
