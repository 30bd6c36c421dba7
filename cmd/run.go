package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/beefcake-data/beefcake/internal/model"
	"github.com/beefcake-data/beefcake/internal/pipelinespec"
	"github.com/beefcake-data/beefcake/internal/render"
)

// errFailOnWarnings is returned by run's RunE when --fail-on-warnings is set
// and the executor produced at least one per-step warning, mapped to exit
// code 3 by exitCodeFor.
var errFailOnWarnings = errors.New("run produced warnings and --fail-on-warnings is set")

var runFlags struct {
	SpecPath       string
	Input          string
	Output         string
	Date           string
	LogPath        string
	FailOnWarnings bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay a pipeline spec against an input file",
	Long: `Run validates --spec against --input's schema, applies every step in
order, and writes the result to --output or the path --spec's output
section templates. A step failure becomes a warning and the remaining
steps still run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		deps, err := buildDepsWithLogOverride(runFlags.LogPath)
		if err != nil {
			return err
		}
		defer deps.Close()

		if runFlags.SpecPath == "" {
			return fmt.Errorf("run requires --spec")
		}
		if runFlags.Input == "" {
			return fmt.Errorf("run requires --input")
		}

		spec, err := pipelinespec.LoadFile(runFlags.SpecPath)
		if err != nil {
			return err
		}

		report, err := pipelinespec.Run(spec, runFlags.Input, pipelinespec.RunOptions{
			OutputPathOverride: runFlags.Output,
			Date:               runFlags.Date,
		})
		if err != nil {
			return err
		}

		result := &model.Result{
			Kind:        model.KindRunReport,
			Data:        report,
			Warnings:    report.Warnings,
			GeneratedAt: time.Now(),
			Stats: model.ResultStats{
				Items:      int(report.RowsAfter),
				DurationMs: time.Since(start).Milliseconds(),
			},
		}
		if err := render.RenderTo(globalFlags.Out, result, formatOrDefault(deps)); err != nil {
			return err
		}

		if runFlags.FailOnWarnings && len(report.Warnings) > 0 {
			return errFailOnWarnings
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runFlags.SpecPath, "spec", "", "path to the pipeline spec JSON (required)")
	runCmd.Flags().StringVar(&runFlags.Input, "input", "", "input file (required)")
	runCmd.Flags().StringVar(&runFlags.Output, "output", "", "output path override (default: the pipeline spec's output.path_template)")
	runCmd.Flags().StringVar(&runFlags.Date, "date", "", "YYYY-MM-DD used to expand {date} in the output path_template (default: today)")
	runCmd.Flags().StringVar(&runFlags.LogPath, "log", "", "log file path override")
	runCmd.Flags().BoolVar(&runFlags.FailOnWarnings, "fail-on-warnings", false, "exit 3 if the run produced any per-step warnings")
}
