// Package main provides the chronosatlas command line tool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	envFile string
	verbose bool
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rootCmd := &cobra.Command{
		Use:     "chronosatlas",
		Short:   "Historical figures, fields, timeline events and influences over GraphQL and REST",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnv()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load if it exists")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newSeedCmd(),
		newImportCmd(),
		newVerifyIndexesCmd(),
	)

	return rootCmd.ExecuteContext(ctx)
}
