package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/beefcake-data/beefcake/internal/dictionary"
	"github.com/beefcake-data/beefcake/internal/model"
	"github.com/beefcake-data/beefcake/internal/render"
)

var dictionaryCmd = &cobra.Command{
	Use:   "dictionary",
	Short: "Inspect and render data dictionary snapshots",
	Long: `Every clean/export run that registers a dataset also writes a data
dictionary snapshot: an immutable record combining auto-captured technical
metadata with a user-editable business-metadata layer. dictionary list
and dictionary render read those snapshots back.`,
}

var dictionaryListFlags struct {
	DatasetHash string
}

var dictionaryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List data dictionary snapshots, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		snaps, err := dictionary.ListSnapshots(deps.Registry.Root(), dictionaryListFlags.DatasetHash)
		if err != nil {
			return err
		}

		result := &model.Result{
			Kind:        model.KindDictionaryList,
			Data:        snaps,
			GeneratedAt: time.Now(),
			Stats: model.ResultStats{
				Items:      len(snaps),
				DurationMs: time.Since(start).Milliseconds(),
			},
		}
		return render.RenderTo(globalFlags.Out, result, formatOrDefault(deps))
	},
}

var dictionaryRenderFlags struct {
	SnapshotID string
	Output     string
}

var dictionaryRenderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a data dictionary snapshot as Markdown documentation",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		id, err := uuid.Parse(dictionaryRenderFlags.SnapshotID)
		if err != nil {
			return model.Context(model.ErrValidation, "cmd.dictionary.render", fmt.Errorf("invalid --snapshot-id: %w", err))
		}

		snap, err := dictionary.LoadSnapshot(id, deps.Registry.Root())
		if err != nil {
			return err
		}
		md := dictionary.RenderMarkdown(snap)

		if dictionaryRenderFlags.Output != "" {
			if err := os.WriteFile(dictionaryRenderFlags.Output, []byte(md), 0644); err != nil {
				return model.Context(model.ErrIo, "cmd.dictionary.render", err)
			}
			if !globalFlags.Quiet {
				fmt.Printf("✓ Rendered dictionary snapshot %s → %s\n", id, dictionaryRenderFlags.Output)
			}
			return nil
		}
		fmt.Print(md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dictionaryCmd)
	dictionaryCmd.AddCommand(dictionaryListCmd)
	dictionaryCmd.AddCommand(dictionaryRenderCmd)

	dictionaryListCmd.Flags().StringVar(&dictionaryListFlags.DatasetHash, "dataset-hash", "", "only list snapshots for this output dataset hash")

	dictionaryRenderCmd.Flags().StringVar(&dictionaryRenderFlags.SnapshotID, "snapshot-id", "", "snapshot UUID to render (required)")
	dictionaryRenderCmd.Flags().StringVar(&dictionaryRenderFlags.Output, "output", "", "write Markdown to this file instead of stdout")
	dictionaryRenderCmd.MarkFlagRequired("snapshot-id")
}
