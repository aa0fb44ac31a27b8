package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roomrelay/relay/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat server",
	Run: func(cmd *cobra.Command, args []string) {
		s, err := server.New()
		if err != nil {
			slog.Error("Failed to initialize server", "error", err)
			os.Exit(1)
		}

		if err := s.RegisterRoutes(); err != nil {
			slog.Error("Failed to register routes", "error", err)
			os.Exit(1)
		}

		s.Start()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
