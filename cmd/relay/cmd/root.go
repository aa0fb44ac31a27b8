package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "relay",
	Short: "Relay chat server",
	Long: `Relay is a room-scoped realtime chat server backed by a durable,
strictly-ordered message log. Reconnecting clients resume exactly where they
left off, without duplicates or gaps.`,
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
