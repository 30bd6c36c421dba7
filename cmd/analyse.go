package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/beefcake-data/beefcake/internal/flows"
	"github.com/beefcake-data/beefcake/internal/model"
	"github.com/beefcake-data/beefcake/internal/render"
)

var analyseFlags struct {
	File string
}

var analyseCmd = &cobra.Command{
	Use:     "analyse",
	Aliases: []string{"analyze"},
	Short:   "Profile a tabular file and print per-column summaries and a health score",
	Long: `Analyse loads --file (or the alphabetically first file in data/input/) and
runs the statistical profiler over it, printing each column's kind, null
rate, interpretation, and a file-level health score.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		inputPath := analyseFlags.File
		if inputPath == "" {
			inputPath, err = flows.ResolveDefaultInput(flows.InputDir)
			if err != nil {
				return err
			}
		}

		report, err := flows.Analyse(inputPath)
		if err != nil {
			return err
		}

		result := &model.Result{
			Kind:        model.KindColumnSummaries,
			Data:        report,
			GeneratedAt: time.Now(),
			Stats: model.ResultStats{
				Items:      len(report.Columns),
				DurationMs: time.Since(start).Milliseconds(),
			},
		}
		if err := render.RenderTo(globalFlags.Out, result, formatOrDefault(deps)); err != nil {
			return err
		}
		if globalFlags.Verbose {
			fmt.Printf("analysed %s in %s\n", inputPath, time.Since(start).Round(time.Millisecond))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyseCmd)
	analyseCmd.Flags().StringVar(&analyseFlags.File, "file", "", "input file (default: alphabetically first file in data/input/)")
}
