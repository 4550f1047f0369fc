package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillharvest/pkg/dataset"
	"github.com/jingkaihe/skillharvest/pkg/db"
	"github.com/jingkaihe/skillharvest/pkg/presenter"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Validation database management commands",
	Long:  `Commands for managing the validation database (migrations, status).`,
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		path, err := outputDBPath(cmd)
		if err != nil {
			return err
		}

		database, err := db.Open(ctx, path)
		if err != nil {
			return err
		}
		defer database.Close()

		if err := db.NewMigrationRunner(database).Run(ctx, dataset.Migrations()); err != nil {
			return err
		}
		presenter.Success("Migrations applied to " + path)
		return nil
	},
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database migration status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		path, err := outputDBPath(cmd)
		if err != nil {
			return err
		}

		database, err := db.Open(ctx, path)
		if err != nil {
			return err
		}
		defer database.Close()

		applied, err := db.NewMigrationRunner(database).AppliedVersions(ctx)
		if err != nil {
			return err
		}
		appliedMap := make(map[int64]bool, len(applied))
		for _, v := range applied {
			appliedMap[v] = true
		}

		presenter.Section("Migration status: " + path)
		appliedCount := 0
		for _, m := range dataset.Migrations() {
			status := "[ ]"
			if appliedMap[m.Version] {
				status = "[x]"
				appliedCount++
			}
			presenter.Info(fmt.Sprintf("%s %d - %s", status, m.Version, m.Description))
		}
		presenter.Info(fmt.Sprintf("Applied: %d/%d migrations", appliedCount, len(dataset.Migrations())))
		return nil
	},
}

func outputDBPath(cmd *cobra.Command) (string, error) {
	path, _ := cmd.Flags().GetString("output-db")
	if path != "" {
		return path, nil
	}
	path, err := db.DefaultOutputDBPath()
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve output database path")
	}
	return path, nil
}

func init() {
	for _, cmd := range []*cobra.Command{dbMigrateCmd, dbStatusCmd} {
		cmd.Flags().String("output-db", "", "Path to the validation database (default ~/.skillharvest/validation.db)")
	}
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbStatusCmd)
}
