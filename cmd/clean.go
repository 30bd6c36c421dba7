package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/beefcake-data/beefcake/internal/flows"
	"github.com/beefcake-data/beefcake/internal/model"
	"github.com/beefcake-data/beefcake/internal/render"
)

var cleanFlags struct {
	File       string
	Output     string
	ConfigPath string
	Restricted bool
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean a tabular file and record the result as a new dataset version",
	Long: `Clean loads --file (or the alphabetically first file in data/input/),
applies the per-column rules in --config, writes the result to --output (or
data/processed/clean_<stem>.parquet), and registers the run at the Cleaned
lifecycle stage. On success the input is archived to data/processed/.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		inputPath := cleanFlags.File
		if inputPath == "" {
			inputPath, err = flows.ResolveDefaultInput(flows.InputDir)
			if err != nil {
				return err
			}
		}
		outputPath := cleanFlags.Output
		if outputPath == "" {
			outputPath = flows.DefaultOutputPath("clean", inputPath)
		}

		configs, err := loadCleaningConfigs(cleanFlags.ConfigPath)
		if err != nil {
			return err
		}

		cr, err := flows.Clean(deps.Registry, inputPath, outputPath, configs, cleanFlags.Restricted)
		if err != nil {
			return err
		}

		archived, err := flows.ArchiveInput(inputPath)
		if err != nil {
			return err
		}

		result := &model.Result{
			Kind:        model.KindReceipt,
			Data:        cr.Receipt,
			GeneratedAt: time.Now(),
			Stats: model.ResultStats{
				Items:      int(cr.RowsAfter),
				DurationMs: time.Since(start).Milliseconds(),
			},
		}
		if err := render.RenderTo(globalFlags.Out, result, formatOrDefault(deps)); err != nil {
			return err
		}
		if !globalFlags.Quiet {
			fmt.Printf("✓ Cleaned %s → %s (%d→%d rows, %d→%d cols)\n", inputPath, outputPath, cr.RowsBefore, cr.RowsAfter, cr.ColsBefore, cr.ColsAfter)
			fmt.Printf("  archived input to %s\n", archived)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringVar(&cleanFlags.File, "file", "", "input file (default: alphabetically first file in data/input/)")
	cleanCmd.Flags().StringVar(&cleanFlags.Output, "output", "", "output file (default: data/processed/clean_<stem>.parquet)")
	cleanCmd.Flags().StringVar(&cleanFlags.ConfigPath, "config", "", "path to a JSON file mapping column name to cleaning config")
	cleanCmd.Flags().BoolVar(&cleanFlags.Restricted, "restricted", false, "skip text case, regex replace and ML preprocessing rules")
}
