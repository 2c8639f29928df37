package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "papertrade",
	Short: "A paper trading engine driven by written trading plans",
	Long: `Papertrade simulates trading against live market prices without risking
real money.

It provides tools for:
  - Executing entry, take-profit and stop-loss levels parsed from trading plans
  - Tracking a simulated account with cost-basis averaging and realized P&L
  - Persisting trades, equity samples and monitor logs to SQLite
  - Serving account state over a read-only JSON API and websocket feed`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
