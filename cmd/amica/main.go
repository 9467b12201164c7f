package main

import (
	"os"

	"github.com/spf13/cobra"

	"amica/internal/interfaces/cli/migrate"
	"amica/internal/interfaces/cli/promo"
	"amica/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "amica",
		Short: "Amica - entitlement and billing service",
		Long:  `Amica tracks trial, paid and promotional access for the companion chat product and reconciles payment gateway callbacks.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		promo.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
