package main

import (
	"context"

	"github.com/spf13/cobra"
)

func NewRootCmd(version string) *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "recommender",
		Short:         "Recommend assessments for a hiring requirement",
		Long:          `Builds a vector index over an assessment catalogue and ranks matches for free-text hiring queries.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	addPersistentFlags(rootCmd)
	rootCmd.AddCommand(
		NewBuildCmd(a),
		NewRecommendCmd(a),
		NewSearchCmd(a),
		NewInfoCmd(a),
		NewTUICmd(a),
	)
	return rootCmd
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", "", "Path to YAML config file (default ./config.yaml or ~/.config/recommender/config.yaml)")
	cmd.PersistentFlags().String("index", "", "Index snapshot directory (overrides index.path)")
	cmd.PersistentFlags().Duration("timeout", 0, "Abort the command after this long (0 = no limit)")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
}

// commandContext applies --timeout to the command's context.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}
