package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sharebnb/internal/config"
	"sharebnb/internal/database"
	"sharebnb/internal/repository"
	"sharebnb/internal/seed"
)

func newSeedCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load generated CSV files into the configured database",
		Long: `Load users.csv, listings.csv and messages.csv into PostgreSQL.

The connection is read from the same DB_* environment variables (or .env
file) as the API server. The schema must already exist. All rows are written
in one transaction, so a failed run leaves the database unchanged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, dir)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "generator", "directory containing the CSV files")
	return cmd
}

func runSeed(cmd *cobra.Command, dir string) error {
	fixtures, err := seed.ReadDir(dir)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	var stats seed.Stats
	err = repository.WithTx(cmd.Context(), db, func(repos repository.Repositories) error {
		stats, err = seed.NewLoader(repos.Users, repos.Listings, repos.Messages).Load(cmd.Context(), fixtures)
		return err
	})
	if err != nil {
		return fmt.Errorf("seed rolled back: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d users, %d listings, %d messages\n", stats.Users, stats.Listings, stats.Messages)
	return nil
}
