// Package cmd implements the beefcake CLI command tree.
// This file defines the root command and registers all global persistent flags.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/beefcake-data/beefcake/internal/app"
	"github.com/beefcake-data/beefcake/internal/config"
	"github.com/beefcake-data/beefcake/internal/model"
)

// globalFlags holds the parsed values of all persistent (global) flags.
// Commands read from this struct via the deps they receive.
var globalFlags struct {
	RegistryRoot string
	LogLevel     string
	Format       string
	Out          string
	NoCache      bool
	Quiet        bool
	Verbose      bool
}

// rootCmd is the base command. Running `beefcake` with no subcommand
// prints help.
var rootCmd = &cobra.Command{
	Use:   "beefcake",
	Short: "beefcake — a tabular data-preparation and lineage engine",
	Long: `beefcake loads, profiles, cleans, and pushes tabular data, keeping a
lineage trail of every dataset version it touches.

Quick start:
  beefcake analyse --file data/input/sales.csv
  beefcake clean --file data/input/sales.csv --config config.json
  beefcake export --input data/input/sales.csv --output out.parquet`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps an error to the process exit code: 1 for a generic
// error, 2 for a validation error, 3 for warnings promoted to failures
// via --fail-on-warnings.
func exitCodeFor(err error) int {
	if errors.Is(err, errFailOnWarnings) {
		return 3
	}
	if model.CategoryOf(err) == model.ErrValidation {
		return 2
	}
	return 1
}

// buildDeps resolves config and constructs the dependency container.
// Called at the start of each command's RunE.
func buildDeps() (*app.Deps, error) {
	return buildDepsWithLogOverride("")
}

// buildDepsWithLogOverride is buildDeps with an optional --log path
// override, used by the run command's `run --log PATH` flag.
func buildDepsWithLogOverride(logPath string) (*app.Deps, error) {
	cfg, err := config.Load(globalFlags.RegistryRoot, globalFlags.LogLevel)
	if err != nil {
		return nil, err
	}

	cfg.Quiet = globalFlags.Quiet
	cfg.Verbose = globalFlags.Verbose
	cfg.NoCache = globalFlags.NoCache

	if globalFlags.Format != "" {
		cfg.Format = globalFlags.Format
	}
	if logPath != "" {
		cfg.LogPath = logPath
	}

	return app.New(cfg)
}

func init() {
	pf := rootCmd.PersistentFlags()

	pf.StringVar(&globalFlags.RegistryRoot, "registry-root", "",
		"dataset registry root (overrides env BEEFCAKE_REGISTRY_ROOT and config)")
	pf.StringVar(&globalFlags.LogLevel, "log-level", "",
		"log level: debug|info|warn|error (overrides env BEEFCAKE_LOG_LEVEL and config)")
	pf.StringVar(&globalFlags.Format, "format", "",
		"output format: table|json|jsonl|csv|tsv|md (default: table)")
	pf.StringVar(&globalFlags.Out, "out", "",
		"write output to file instead of stdout")
	pf.BoolVar(&globalFlags.NoCache, "no-cache", false,
		"bypass the run cache")
	pf.BoolVar(&globalFlags.Quiet, "quiet", false,
		"suppress all non-error output")
	pf.BoolVar(&globalFlags.Verbose, "verbose", false,
		"show timing/volume stats after output")
}
