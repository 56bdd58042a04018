// Package handlers holds the CLI commands.
package handlers

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"newsmesh/internal/config"
)

var cfgFile string

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "newsmesh",
		Short: "newsmesh ingests news feeds and publishes synthesized event articles.",
		Long: `newsmesh runs a news pipeline: it pulls the source catalogue's RSS/Atom
feeds, dedups and scores the entries, clusters articles that cover the same
event, and publishes one synthesized article per cluster.

Run one cycle directly with 'newsmesh run-once', or keep a server running and
trigger cycles over HTTP with 'newsmesh serve'.`,
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.newsmesh.yaml)")

	rootCmd.AddCommand(NewRunOnceCmd())
	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewMigrateCmd())

	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig() {
	if _, err := config.Load(cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
}
