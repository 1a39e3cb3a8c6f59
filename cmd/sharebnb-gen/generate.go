package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sharebnb/internal/seed"
)

type generateOptions struct {
	out string
	seed.GenerateOptions
}

func newGenerateCommand() *cobra.Command {
	opts := &generateOptions{GenerateOptions: seed.DefaultGenerateOptions()}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write users.csv, listings.csv and messages.csv",
		Long: `Generate random users, listings and messages as CSV files.

Every user's password is "password". Message rows reference listings by
their 1-based row in listings.csv.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.out, "out", "generator", "output directory")
	cmd.Flags().IntVar(&opts.Users, "users", opts.Users, "number of users")
	cmd.Flags().IntVar(&opts.Listings, "listings", opts.Listings, "number of listings")
	cmd.Flags().IntVar(&opts.Messages, "messages", opts.Messages, "number of messages")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", opts.Seed, "random seed")
	return cmd
}

func runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	fixtures, err := seed.Generate(opts.GenerateOptions)
	if err != nil {
		return err
	}
	if err := fixtures.WriteDir(opts.out); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d users, %d listings, %d messages to %s\n",
		len(fixtures.Users), len(fixtures.Listings), len(fixtures.Messages), opts.out)
	return nil
}
