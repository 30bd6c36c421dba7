package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/beefcake-data/beefcake/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage beefcake configuration",
	Long:  `Read and write beefcake configuration stored in ~/.beefcake_config.json.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a template config file in the home directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		home, _ := os.UserHomeDir()
		path := filepath.Join(home, config.DefaultConfigFileName)
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (delete it first to re-initialise)", path)
		}
		if err := config.WriteFile(path, config.Template()); err != nil {
			return err
		}
		fmt.Printf("✓ Created %s\n", path)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(globalFlags.RegistryRoot, globalFlags.LogLevel)
		if err != nil {
			return err
		}

		src := "(not found)"
		if cfg.ConfigPath != "" {
			src = cfg.ConfigPath
		}

		if globalFlags.Format == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				RegistryRoot string `json:"registry_root"`
				LogLevel     string `json:"log_level"`
				LogPath      string `json:"log_path"`
				Format       string `json:"default_format"`
				SampleSeed   int64  `json:"sample_seed"`
				ConfigFile   string `json:"config_file"`
			}{cfg.RegistryRoot, cfg.LogLevel, cfg.LogPath, cfg.Format, cfg.SampleSeed, src})
		}

		rows := [][]string{
			{"registry_root", cfg.RegistryRoot},
			{"log_level", cfg.LogLevel},
			{"log_path", cfg.LogPath},
			{"default_format", cfg.Format},
			{"sample_seed", fmt.Sprintf("%d", cfg.SampleSeed)},
			{"config_file", src},
		}
		printKVTable(rows)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in the config file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := strings.ToLower(args[0])
		val := args[1]

		home, _ := os.UserHomeDir()
		path := filepath.Join(home, config.DefaultConfigFileName)
		var f config.File
		if data, err := os.ReadFile(path); err == nil {
			if err := json.Unmarshal(data, &f); err != nil {
				return fmt.Errorf("parsing %s: %w", path, err)
			}
		} else {
			f = config.Template()
		}

		switch key {
		case "registry_root":
			f.RegistryRoot = val
		case "log_level":
			f.LogLevel = val
		case "log_path":
			f.LogPath = val
		case "default_format", "format":
			f.DefaultFormat = val
		case "active_dataset_id":
			f.ActiveDatasetID = val
		case "active_version_id":
			f.ActiveVersionID = val
		default:
			return fmt.Errorf("unknown config key: %q\n\nValid keys: registry_root, log_level, log_path, default_format, active_dataset_id, active_version_id", key)
		}

		if err := config.WriteFile(path, f); err != nil {
			return err
		}
		fmt.Printf("✓ Set %s in %s\n", key, path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}

// printKVTable renders a two-column key/value table to stdout using aligned columns.
func printKVTable(rows [][]string) {
	maxKey := 0
	for _, r := range rows {
		if len(r[0]) > maxKey {
			maxKey = len(r[0])
		}
	}
	for _, r := range rows {
		padding := strings.Repeat(" ", maxKey-len(r[0]))
		fmt.Printf("  %s%s  %s\n", r[0], padding, r[1])
	}
}
