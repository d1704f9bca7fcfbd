package cmd

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"github.com/templui/muzer/internal/config"
	"github.com/templui/muzer/internal/db"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back or inspect database migrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDatabase(func(cfg *config.Config, conn *sqlx.DB) error {
					return db.RunMigrations(conn.DB, cfg.DBDriver)
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDatabase(func(cfg *config.Config, conn *sqlx.DB) error {
					return db.MigrateDown(conn.DB, cfg.DBDriver)
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the applied schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDatabase(func(cfg *config.Config, conn *sqlx.DB) error {
					version, err := db.Version(conn.DB, cfg.DBDriver)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "driver=%s version=%d\n", cfg.DBDriver, version)
					return nil
				})
			},
		},
	)

	return cmd
}

// withDatabase opens the configured database for a single command.
func withDatabase(fn func(cfg *config.Config, conn *sqlx.DB) error) error {
	cfg := config.Load()

	conn, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(conn) }()

	return fn(cfg, conn)
}
