package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mateatletas/tutorbilling/internal/interfaces/cli/events"
	"github.com/mateatletas/tutorbilling/internal/interfaces/cli/migrate"
	"github.com/mateatletas/tutorbilling/internal/interfaces/cli/server"
	"github.com/mateatletas/tutorbilling/internal/interfaces/cli/sweep"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tutorbilling",
		Short: "Tutor subscription billing service",
		Long:  `tutorbilling reconciles payment gateway events into tutor subscription state, runs grace period sweeps and manages the database schema.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		sweep.NewCommand(),
		events.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
