package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/junction-io/junction/internal/interfaces/cli/migrate"
	"github.com/junction-io/junction/internal/interfaces/cli/runcmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "junction",
		Short: "Junction - identity reconciliation engine",
		Long:  `Junction reconciles identity data between a central hub and connected systems: imports, sync rules, joins, and staged exports.`,
	}

	rootCmd.AddCommand(
		runcmd.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
