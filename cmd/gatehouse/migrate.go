// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gatehouse/gatehouse/internal/store"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long:  `Apply, roll back, or inspect database migrations.`,
	}

	cmd.AddCommand(newMigrateUpCmd(nil))
	cmd.AddCommand(newMigrateDownCmd(nil))
	cmd.AddCommand(newMigrateStatusCmd(nil))

	return cmd
}

// migratorFactory creates a Migrator; injectable for tests.
type migratorFactory func(url string) (Migrator, error)

func defaultMigratorFactory(url string) (Migrator, error) {
	return store.NewMigrator(url)
}

// migrationDatabaseURL resolves the database URL for migrate commands.
// DATABASE_URL takes precedence so one-off migrations work without a
// config file.
func migrationDatabaseURL() (string, error) {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url, nil
	}
	if url := os.Getenv("GATEHOUSE_DATABASE__URL"); url != "" {
		return url, nil
	}
	return "", oops.Code("CONFIG_INVALID").Errorf("DATABASE_URL environment variable is required")
}

func withMigrator(factory migratorFactory, fn func(cmd *cobra.Command, m Migrator) error) func(*cobra.Command, []string) error {
	if factory == nil {
		factory = defaultMigratorFactory
	}
	return func(cmd *cobra.Command, _ []string) error {
		databaseURL, err := migrationDatabaseURL()
		if err != nil {
			return err
		}

		m, err := factory(databaseURL)
		if err != nil {
			return oops.Code("MIGRATION_INIT_FAILED").With("operation", "create migrator").Wrap(err)
		}
		defer func() {
			if closeErr := m.Close(); closeErr != nil {
				cmd.PrintErrf("Warning: failed to close migrator: %v\n", closeErr)
			}
		}()

		return fn(cmd, m)
	}
}

func newMigrateUpCmd(factory migratorFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: withMigrator(factory, func(cmd *cobra.Command, m Migrator) error {
			cmd.Println("Running migrations...")
			if err := m.Up(); err != nil {
				return oops.With("operation", "run migrations").Wrap(err)
			}
			cmd.Println("Migrations completed successfully")
			return nil
		}),
	}
}

func newMigrateDownCmd(factory migratorFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		Long:  `Roll back all migrations. This drops all tables and data.`,
		RunE: withMigrator(factory, func(cmd *cobra.Command, m Migrator) error {
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return oops.Wrap(err)
			}
			if !force {
				return oops.Code("CONFIG_INVALID").Errorf("migrate down is destructive; pass --force to confirm")
			}

			cmd.Println("Rolling back migrations...")
			if err := m.Down(); err != nil {
				return oops.With("operation", "roll back migrations").Wrap(err)
			}
			cmd.Println("Rollback completed successfully")
			return nil
		}),
	}
	cmd.Flags().Bool("force", false, "confirm the destructive rollback")
	return cmd
}

func newMigrateStatusCmd(factory migratorFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show current migration version and pending migrations",
		RunE: withMigrator(factory, func(cmd *cobra.Command, m Migrator) error {
			version, dirty, err := m.Version()
			if err != nil {
				return oops.With("operation", "get migration version").Wrap(err)
			}

			if version == 0 {
				cmd.Println("Current version: none")
			} else {
				cmd.Printf("Current version: %d\n", version)
			}
			if dirty {
				cmd.Println("State: DIRTY (a migration failed partway; manual repair needed)")
			}

			pending, err := m.PendingMigrations()
			if err != nil {
				return oops.With("operation", "get pending migrations").Wrap(err)
			}
			if len(pending) == 0 {
				cmd.Println("Pending migrations: none")
				return nil
			}
			cmd.Printf("Pending migrations: %d\n", len(pending))
			for _, v := range pending {
				cmd.Printf("  %06d\n", v)
			}
			return nil
		}),
	}
}
