package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"recommender/internal/domain"
)

func NewRecommendCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend <query>",
		Short: "Recommend assessments for a hiring requirement",
		Long:  `Retrieves similar assessments and asks the ranking model to order and explain them.`,
		Args:  cobra.MinimumNArgs(1),
		RunE:  makeRecommendRunner(a),
	}

	cmd.Flags().IntP("top-k", "k", 0, "Number of candidates and recommendations (default retrieval.top_k)")
	cmd.Flags().StringP("template", "t", "", "Prompt template: default, simple or structured")
	cmd.Flags().Bool("raw", false, "Print the ranking model's raw response")
	return cmd
}

func makeRecommendRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		q := strings.Join(args, " ")
		topK, _ := cmd.Flags().GetInt("top-k")
		template, _ := cmd.Flags().GetString("template")
		raw, _ := cmd.Flags().GetBool("raw")
		asJSON, _ := cmd.Flags().GetBool("json")

		p, err := a.openPipeline(ctx, template)
		if err != nil {
			return err
		}
		res, err := p.recommender.Recommend(ctx, q, topK)
		if err != nil {
			return fmt.Errorf("recommend: %w", err)
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		printRecommendations(cmd.OutOrStdout(), res, raw)
		return nil
	}
}

func printRecommendations(w io.Writer, res *domain.RecommendationResult, raw bool) {
	switch {
	case res.Error != "":
		fmt.Fprintln(w, warnStyle.Render(res.Error))
	case res.Message != "":
		fmt.Fprintln(w, warnStyle.Render(res.Message))
	}
	for i, r := range res.Recommendations {
		fmt.Fprintf(w, "%s  %s\n", headingStyle.Render(fmt.Sprintf("%d. %s", i+1, r.AssessmentName)),
			dimStyle.Render(fmt.Sprintf("%.1f/10", r.RelevanceScore)))
		if r.Category != "" {
			fmt.Fprintf(w, "   %s", r.Category)
			if r.Duration != "" {
				fmt.Fprintf(w, " | %s", r.Duration)
			}
			fmt.Fprintln(w)
		}
		if r.Reasoning != "" {
			fmt.Fprintf(w, "   %s\n", r.Reasoning)
		}
		if r.URL != "" {
			fmt.Fprintf(w, "   %s\n", dimStyle.Render(r.URL))
		}
	}
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("%s | %d candidates | %.2fs", res.State, res.RetrievedCount, res.ProcessingTime)))
	if res.ParseAnomaly {
		fmt.Fprintln(w, warnStyle.Render("ranking response could not be parsed; see --raw"))
	}
	if raw && res.RawResponse != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, res.RawResponse)
	}
}
