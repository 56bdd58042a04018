package handlers

import (
	"fmt"

	"github.com/spf13/cobra"

	"newsmesh/internal/config"
	"newsmesh/internal/persistence"
)

// NewMigrateCmd creates the migrate command.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Long: `Create or update the pipeline's tables and indexes. Every statement is
idempotent, so migrate is safe to run on every deploy.

Requires the pgvector extension to be installable in the target database.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()

			db, err := persistence.New(cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer func() { _ = db.Close() }()

			if err := db.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Schema up to date")
			return nil
		},
	}
}
