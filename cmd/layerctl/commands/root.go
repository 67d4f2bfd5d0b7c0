// Package commands implements the layerctl CLI commands.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ankit-chaubey/layer/internal/config"
)

var (
	// cfg is the loaded configuration, populated in PersistentPreRunE.
	cfg *config.Config

	// configPath is the path to the configuration file (YAML).
	configPath string

	// outputFormat controls the output format for all commands (table or json).
	outputFormat string
)

// rootCmd is the top-level cobra command for layerctl.
var rootCmd = &cobra.Command{
	Use:   "layerctl",
	Short: "CLI companion for the layer MTProto client library",
	Long:  "layerctl inspects and manages the on-disk session state used by layer clients.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		var err error
		if configPath != "" {
			cfg, err = config.Load(configPath)
		} else {
			cfg = config.DefaultConfig()
		}
		return err
	},
	// Silence cobra's built-in usage/error printing so we control it.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to configuration file (YAML)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table", "output format: table, json")

	rootCmd.AddCommand(sessionCmd())
	rootCmd.AddCommand(versionCmd())
}

// Execute runs the root command and exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
