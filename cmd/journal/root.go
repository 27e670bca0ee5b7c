package main

import (
	"github.com/spf13/cobra"
)

const banner = `
╔══════════════════════════════════════╗
║        TRAHN Trade Journal v1.0      ║
║                                      ║
╚══════════════════════════════════════╝
`

var rootCmd = &cobra.Command{
	Use:   "journal",
	Short: "Trading journal REST backend",
	Long: `journal records strategies, currency pairs and closed trades per user
and serves performance statistics (win rate, equity curve, drawdown,
risk/reward, holding period) over a JSON API.

Configuration is read from .env, an optional journal.yaml and the
environment.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(newServeCmd(), newMigrateCmd())
}
