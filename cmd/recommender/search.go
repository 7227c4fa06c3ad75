package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"recommender/internal/domain"
	"recommender/internal/retriever"
)

func NewSearchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the index without ranking",
		Long:  `Runs similarity retrieval only and prints the matched assessments.`,
		Args:  cobra.MinimumNArgs(1),
		RunE:  makeSearchRunner(a),
	}

	cmd.Flags().IntP("number", "n", 0, "Maximum results (default retrieval.top_k)")
	cmd.Flags().String("category", "", "Keep only this category (case-insensitive)")
	cmd.Flags().Float64("min-score", 0, "Keep only results with at least this similarity")
	cmd.Flags().Bool("context", false, "Print the ranking prompt context block instead")
	return cmd
}

func makeSearchRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		q := strings.Join(args, " ")
		limit, _ := cmd.Flags().GetInt("number")
		category, _ := cmd.Flags().GetString("category")
		minScore, _ := cmd.Flags().GetFloat64("min-score")
		asContext, _ := cmd.Flags().GetBool("context")
		asJSON, _ := cmd.Flags().GetBool("json")

		p, err := a.openPipeline(ctx, "")
		if err != nil {
			return err
		}

		filter := domain.RetrievalFilter{Category: category, MinScore: minScore}
		var docs []domain.RetrievedDocument
		if filter.Active() {
			docs, err = p.retriever.RetrieveWithFilter(ctx, q, limit, filter)
		} else {
			docs, err = p.retriever.Retrieve(ctx, q, limit)
		}
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}

		switch {
		case asJSON:
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(docs)
		case asContext:
			fmt.Fprintln(cmd.OutOrStdout(), retriever.FormatContext(docs))
			return nil
		}

		if len(docs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render(retriever.NoResultsContext))
			return nil
		}
		for _, d := range docs {
			fmt.Fprintf(cmd.OutOrStdout(), "%2d. %.4f  %s  %s\n", d.Rank, d.SimilarityScore,
				d.Item.Name, dimStyle.Render(d.Item.Category))
		}
		return nil
	}
}
