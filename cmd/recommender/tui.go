package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"recommender/internal/service"
	"recommender/internal/tui"
	"recommender/internal/vectorstore"
)

func NewTUICmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse recommendations interactively",
		Args:  cobra.NoArgs,
		RunE:  makeTUIRunner(a),
	}

	cmd.Flags().Bool("watch", false, "Reload the index when the snapshot is rebuilt")
	cmd.Flags().StringP("template", "t", "", "Prompt template: default, simple or structured")
	return cmd
}

func makeTUIRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		watch, _ := cmd.Flags().GetBool("watch")
		template, _ := cmd.Flags().GetString("template")

		p, err := a.openPipeline(ctx, template)
		if err != nil {
			return err
		}

		m := tui.New(ctx, p.recommender, a.cfg.Retrieval.TopK, snapshotSummary(a.cfg.Index.Path))
		prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

		if watch {
			p.holder.OnReload(func() {
				prog.Send(tui.ReloadedMsg{Summary: snapshotSummary(a.cfg.Index.Path)})
			})
			go func() {
				err := service.WatchSnapshot(ctx, p.holder, service.DefaultReloadDebounce)
				if err != nil && !errors.Is(err, context.Canceled) {
					a.logger.Error("snapshot watcher stopped", "error", err)
				}
			}()
		}

		_, err = prog.Run()
		return err
	}
}

func snapshotSummary(dir string) string {
	info, err := vectorstore.ReadInfo(dir)
	if err != nil {
		return dir
	}
	return fmt.Sprintf("%d records indexed with %s (%d dimensions)",
		info.NumEmbeddings, info.Model, info.EmbeddingDimension)
}
