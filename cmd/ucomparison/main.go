// Package main is the entry point for the ucomparison server and CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pitabwire/ucomparison/internal/config"
	"github.com/pitabwire/ucomparison/internal/definition"
	"github.com/pitabwire/ucomparison/model"
)

// Build-time variables set via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc1234"
var (
	version = "dev"
	commit  = "unknown"
)

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:           "ucomparison",
		Short:         "Serve and inspect feature comparison tables",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version + " (" + commit + ")",
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to configuration file")
	rootCmd.AddCommand(newServeCmd(), newViewCmd(), newValidateCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the service configuration named by --config. A missing
// default file falls back to built-in defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			cfg := config.Defaults()
			return cfg, cfg.Validate()
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

func sourceFor(cfg *config.Config) definition.Source {
	return definition.Source{
		ConfigFile:      cfg.Comparison.ConfigFile,
		DataFile:        cfg.Comparison.DataFile,
		DescriptionFile: cfg.Comparison.DescriptionFile,
	}
}

func loadDataset(ctx context.Context, cfg *config.Config) (*model.Dataset, error) {
	return definition.NewLoader().Load(ctx, sourceFor(cfg))
}
