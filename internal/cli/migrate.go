package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/migrate"
)

var errSQLiteMigrations = errors.New("goose migrations target postgres; sqlite databases are migrated from the models on startup")

// newMigrateCommand manages the goose schema. It replaces the root setup
// hook: create and validate only touch the migrations directory, and the
// rest open a bare database handle without building the services.
func newMigrateCommand(envFile *string) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage goose schema migrations",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", migrate.DefaultDir, "goose migrations directory")

	create := &cobra.Command{
		Use:   "create <name...>",
		Short: "Write an empty migration file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := migrate.CreateSQLMigration(dir, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "created migration:", path)
			return nil
		},
	}
	validate := &cobra.Command{
		Use:   "validate",
		Short: "Check migration filenames and goose annotations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := migrate.ValidateDir(dir); err != nil {
				return fmt.Errorf("migration validation failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migration validation passed")
			return nil
		},
	}
	to := &cobra.Command{
		Use:   "to <YYYYMMDDHHMMSS>",
		Short: "Migrate up or down to a version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrationDB(cmd.Context(), *envFile, func(ctx context.Context, sqlDB *sql.DB) error {
				return migrate.MigrateToVersion(ctx, sqlDB, dir, args[0])
			})
		},
	}

	cmd.AddCommand(
		create,
		validate,
		gooseCommand("up", "Apply every pending migration", envFile, &dir),
		gooseCommand("down", "Roll back the latest migration", envFile, &dir),
		gooseCommand("status", "Print applied and pending migrations", envFile, &dir),
		to,
	)
	return cmd
}

func gooseCommand(name, short string, envFile, dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrationDB(cmd.Context(), *envFile, func(ctx context.Context, sqlDB *sql.DB) error {
				return migrate.Run(ctx, sqlDB, *dir, name)
			})
		},
	}
}

func withMigrationDB(ctx context.Context, envFile string, fn func(context.Context, *sql.DB) error) error {
	cfg, logg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	if cfg.DB.IsSQLite() {
		return errSQLiteMigrations
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("sql database: %w", err)
	}
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "migrate ready")
	return fn(ctx, sqlDB)
}
