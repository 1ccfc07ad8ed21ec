package commands

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "Stock screener backend and CLI",
	Long: `Stock screener

Loads the stock list and five years of prices from the stock service,
derives market cap, day change and period returns, and serves filtered,
sorted views as a JSON API or a terminal table.

Usage:
  go run ./cmd/screener [command]

Examples:
  go run ./cmd/screener api
  go run ./cmd/screener screen --preset value
  go run ./cmd/screener screen --filter minPrice=50 --sort market_cap --dir desc
  go run ./cmd/screener search thy
  go run ./cmd/screener alerts --user ayse --listen`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			if err := godotenv.Overload(configFile); err != nil {
				return fmt.Errorf("load %s: %w", configFile, err)
			}
		}
		if cmd.Flags().Changed("env") {
			os.Setenv("ENV", env)
		}
		if verbose {
			os.Setenv("LOG_LEVEL", "debug")
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "env file to load (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
