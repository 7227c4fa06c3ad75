package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"recommender/internal/vectorstore"
	"recommender/internal/vectorstore/memory"
)

func NewInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the index snapshot record and statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir := a.cfg.Index.Path
			asJSON, _ := cmd.Flags().GetBool("json")

			info, err := vectorstore.ReadInfo(dir)
			if err != nil {
				return fmt.Errorf("read snapshot info: %w", err)
			}
			idx, err := memory.Load(dir, a.logger)
			if err != nil {
				return fmt.Errorf("load snapshot: %w", err)
			}
			stats := idx.Stats()

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"dir":   dir,
					"info":  info,
					"stats": stats,
				})
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, headingStyle.Render("Index snapshot"))
			fmt.Fprintf(w, "  dir:        %s\n", dir)
			fmt.Fprintf(w, "  model:      %s\n", info.Model)
			fmt.Fprintf(w, "  embeddings: %d\n", info.NumEmbeddings)
			fmt.Fprintf(w, "  dimension:  %d\n", info.EmbeddingDimension)
			fmt.Fprintf(w, "  vectors:    %d (metadata %d)\n", stats.TotalVectors, stats.MetadataCount)
			if info.NumEmbeddings != stats.TotalVectors {
				fmt.Fprintln(w, warnStyle.Render("  info record and loaded index disagree; rebuild the snapshot"))
			}
			return nil
		},
	}
}
