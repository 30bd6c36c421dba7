package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/beefcake-data/beefcake/internal/flows"
	"github.com/beefcake-data/beefcake/internal/model"
	"github.com/beefcake-data/beefcake/internal/render"
)

var exportFlags struct {
	Input      string
	Output     string
	Clean      bool
	ConfigPath string
	Restricted bool
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a tabular file, optionally cleaning it, at the Advanced lifecycle stage",
	Long: `Export loads --input (or the alphabetically first file in data/input/),
optionally applies --config's cleaning rules when --clean is set, writes the
result to --output (or data/processed/export_<stem>.parquet), and registers
the run at the Advanced lifecycle stage.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		inputPath := exportFlags.Input
		if inputPath == "" {
			inputPath, err = flows.ResolveDefaultInput(flows.InputDir)
			if err != nil {
				return err
			}
		}
		outputPath := exportFlags.Output
		if outputPath == "" {
			outputPath = flows.DefaultOutputPath("export", inputPath)
		}

		var configs map[string]model.CleaningConfig
		if exportFlags.Clean {
			configs, err = loadCleaningConfigs(exportFlags.ConfigPath)
			if err != nil {
				return err
			}
		}

		cr, err := flows.Export(deps.Registry, inputPath, outputPath, exportFlags.Clean, configs, exportFlags.Restricted)
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
			fmt.Printf("✓ Exported %s → %s (%d rows, %d cols)\n", inputPath, outputPath, cr.RowsAfter, cr.ColsAfter)
			fmt.Printf("  archived input to %s\n", archived)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportFlags.Input, "input", "", "input file (default: alphabetically first file in data/input/)")
	exportCmd.Flags().StringVar(&exportFlags.Output, "output", "", "output file (default: data/processed/export_<stem>.parquet)")
	exportCmd.Flags().BoolVar(&exportFlags.Clean, "clean", false, "apply --config's cleaning rules before exporting")
	exportCmd.Flags().StringVar(&exportFlags.ConfigPath, "config", "", "path to a JSON file mapping column name to cleaning config")
	exportCmd.Flags().BoolVar(&exportFlags.Restricted, "restricted", false, "skip text case, regex replace and ML preprocessing rules")
}
