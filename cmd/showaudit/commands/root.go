package commands

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wonny/showaudit/pkg/config"
)

var (
	// Global flags
	configFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "showaudit",
	Short: "Ticket vendor listing audit",
	Long: `showaudit

Finds each production on the ticket vendor site, extracts availability and
prices of every performance, and writes the sold count of the promotional
channel back into the tickets ledger.

Usage:
  go run ./cmd/showaudit [command]

Examples:
  go run ./cmd/showaudit run
  go run ./cmd/showaudit run --show "Concert X" --dry-run
  go run ./cmd/showaudit locate "Concert X"
  go run ./cmd/showaudit scrape https://www.cal-store.co.il/product/123
  go run ./cmd/showaudit serve
  go run ./cmd/showaudit test-db`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "env file to load before the environment (default is .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// loadConfig applies the global flags and loads the configuration
func loadConfig() (*config.Config, error) {
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", configFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}
