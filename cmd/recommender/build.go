package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"recommender/internal/catalogue"
	"recommender/internal/chunker"
	"recommender/internal/embedding"
	"recommender/internal/service"
	"recommender/internal/summarizer"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func NewBuildCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the index snapshot from a catalogue file",
		Long:  `Cleans and chunks the catalogue, embeds every record and writes the index snapshot.`,
		Args:  cobra.NoArgs,
		RunE:  makeBuildRunner(a),
	}

	cmd.Flags().StringP("catalogue", "c", "", "Catalogue JSON file (overrides catalogue.path)")
	return cmd
}

func makeBuildRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		path, _ := cmd.Flags().GetString("catalogue")
		if path == "" {
			path = a.cfg.Catalogue.Path
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		items, err := catalogue.Load(path)
		if err != nil {
			return fmt.Errorf("load catalogue: %w", err)
		}

		emb, err := a.newEmbedder()
		if err != nil {
			return fmt.Errorf("embedder: %w", err)
		}
		indexer := service.NewIndexer(
			chunker.New(a.cfg.Chunker.MaxTokens, a.cfg.Chunker.Overlap()),
			embedding.NewProvider(emb, a.embeddingOptions()),
			service.IndexerOptions{
				Dir:               a.cfg.Index.Path,
				Summarizer:        summarizer.NewFrequencySummarizer(),
				OverviewSentences: a.cfg.Summarizer.MaxSentences,
				OverviewTerms:     a.cfg.Summarizer.MaxTerms,
				Logger:            a.logger,
			},
		)

		_, report, err := indexer.Build(ctx, items)
		if err != nil {
			return fmt.Errorf("build index: %w", err)
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		printBuildReport(cmd.OutOrStdout(), a.cfg.Index.Path, report)
		return nil
	}
}

func printBuildReport(w io.Writer, dir string, r service.BuildReport) {
	fmt.Fprintln(w, headingStyle.Render("Index built"))
	fmt.Fprintf(w, "  snapshot:  %s\n", dir)
	fmt.Fprintf(w, "  model:     %s (%d dimensions)\n", r.Model, r.Index.Dimension)
	fmt.Fprintf(w, "  items:     %d (%d chunked into %d records)\n", r.Chunks.Items, r.Chunks.ChunkedItems, r.Chunks.ChunksCreated)
	fmt.Fprintf(w, "  vectors:   %d\n", r.Index.TotalVectors)
	fmt.Fprintf(w, "  batches:   %d\n", r.Batches.Batches)
	if r.Batches.FailedBatches > 0 {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("  %d batches failed, %d records stored as zero vectors",
			r.Batches.FailedBatches, r.Batches.ZeroFilled)))
	}

	ov := r.Overview
	if ov == nil {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, headingStyle.Render("Catalogue overview"))
	for _, c := range ov.Categories {
		fmt.Fprintf(w, "  %-28s %d\n", c.Category, c.Items)
	}
	if len(ov.TopTerms) > 0 {
		fmt.Fprintf(w, "  top terms: %s\n", strings.Join(ov.TopTerms, ", "))
	}
	if ov.Summary != "" {
		fmt.Fprintln(w, dimStyle.Render("  "+ov.Summary))
	}
}
