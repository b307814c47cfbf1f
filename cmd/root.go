package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"invoicetools/internal/config"
	"invoicetools/internal/logger"
)

var version = "1.0.0"

// cfg holds the configuration main loaded; flags override its values.
var cfg = config.Default()

var rootCmd = &cobra.Command{
	Use:   "invoicetools",
	Short: "Invoice line item extractor",
	Long: `invoicetools flattens nested invoice records into a sorted table of
line items.

Each invoice is validated and its numeric fields are coerced leniently.
Every line gets its total, its share of the invoice total and an
expiration flag taken from a separate list of expired invoice ids.
Malformed invoices and lines are skipped and reported; they never abort a run.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Debug().
			Str("version", version).
			Msg("invoicetools executed")

		fmt.Println("Use --help to see available commands and options.")
	},
}

// Execute runs the root command with the given configuration.
func Execute(c *config.Config) {
	log := logger.WithComponent("cmd")

	if c != nil {
		cfg = c
	}

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
