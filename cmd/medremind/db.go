package main

import (
	"errors"
	"fmt"

	"github.com/sandeepkv93/medremind/internal/config"
	"github.com/sandeepkv93/medremind/internal/storage"
	"github.com/spf13/cobra"
)

var resetConfirmed bool

func init() {
	dbResetCmd.Flags().BoolVar(&resetConfirmed, "yes", false, "confirm deleting every reminder and the permission decision")
	dbCmd.AddCommand(dbVersionCmd)
	dbCmd.AddCommand(dbResetCmd)
	rootCmd.AddCommand(dbCmd)
}

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect or reset the reminder database",
	Long: `Inspect or reset the SQLite database holding reminders and the
notification permission.

Examples:
  medremind db version
  medremind db reset --yes`,
}

var dbVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the applied schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		db, err := storage.OpenDB(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()

		version, ok, err := storage.SchemaVersion(db)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "no schema applied")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: schema version %d\n", cfg.DatabasePath, version)
		return nil
	},
}

var dbResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every reminder and start from an empty schema",
	Long: `Revert all migrations and apply them again. Every reminder and the
notification permission decision are lost. Do not run it while the terminal
UI or watch is using the database.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !resetConfirmed {
			return errors.New("refusing to reset without --yes")
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		db, err := storage.OpenDB(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := storage.MigrateDown(db); err != nil {
			return err
		}
		if err := storage.MigrateUp(db); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s reset\n", cfg.DatabasePath)
		return nil
	},
}
