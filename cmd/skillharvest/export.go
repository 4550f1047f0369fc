package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillharvest/pkg/dataset"
	"github.com/jingkaihe/skillharvest/pkg/db"
	"github.com/jingkaihe/skillharvest/pkg/export"
	"github.com/jingkaihe/skillharvest/pkg/presenter"
)

// ExportConfig holds configuration for the export command
type ExportConfig struct {
	MainDB         string
	OutputDB       string
	OutputDir      string
	KaggleUsername string
	AllowNoRepo    bool
	AllowNoHistory bool
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export accepted files as a Parquet dataset",
	Long: `Joins the accepted validation results against the fetcher database and
writes files.parquet, repos.parquet and history.parquet. With
--kaggle-username it also emits dataset-metadata.json and a dataset README.

Example:
  skillharvest export --main-db skills.db --output-dir ./dataset
  skillharvest export --main-db skills.db --output-dir ./dataset --kaggle-username alice`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		config, err := getExportConfigFromFlags(cmd)
		if err != nil {
			return err
		}

		candidates, err := dataset.OpenCandidateStore(ctx, config.MainDB)
		if err != nil {
			return err
		}
		defer candidates.Close()

		results, err := dataset.OpenResultStore(ctx, config.OutputDB)
		if err != nil {
			return err
		}
		defer results.Close()

		exporter := export.New(candidates, results, export.Options{
			OutputDir:      config.OutputDir,
			KaggleUsername: config.KaggleUsername,
			AllowNoRepo:    config.AllowNoRepo,
			AllowNoHistory: config.AllowNoHistory,
		})

		summary, err := exporter.Run(ctx)
		if err != nil {
			if errors.Is(err, export.ErrMissingData) {
				presenter.Warning("Use --allow-no-repo / --allow-no-history to export anyway")
			}
			return err
		}

		presenter.Section("Export results")
		presenter.Info(fmt.Sprintf("files.parquet:   %d rows", summary.Files))
		presenter.Info(fmt.Sprintf("repos.parquet:   %d rows", summary.Repos))
		presenter.Info(fmt.Sprintf("history.parquet: %d rows", summary.History))
		presenter.Success("Dataset written to " + config.OutputDir)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("main-db", "", "Path to the fetcher database (required)")
	exportCmd.Flags().String("output-db", "", "Path to the validation database (default ~/.skillharvest/validation.db)")
	exportCmd.Flags().String("output-dir", "dataset", "Directory to write the Parquet files into")
	exportCmd.Flags().String("kaggle-username", "", "Kaggle username used in dataset-metadata.json")
	exportCmd.Flags().Bool("allow-no-repo", false, "Export even when accepted files lack repo metadata")
	exportCmd.Flags().Bool("allow-no-history", false, "Export even when accepted files lack commit history")
	exportCmd.MarkFlagRequired("main-db")
}

// getExportConfigFromFlags extracts export configuration from command flags
func getExportConfigFromFlags(cmd *cobra.Command) (*ExportConfig, error) {
	config := &ExportConfig{}

	config.MainDB, _ = cmd.Flags().GetString("main-db")
	config.OutputDB, _ = cmd.Flags().GetString("output-db")
	config.OutputDir, _ = cmd.Flags().GetString("output-dir")
	config.KaggleUsername, _ = cmd.Flags().GetString("kaggle-username")
	config.AllowNoRepo, _ = cmd.Flags().GetBool("allow-no-repo")
	config.AllowNoHistory, _ = cmd.Flags().GetBool("allow-no-history")

	if config.OutputDB == "" {
		var err error
		if config.OutputDB, err = db.DefaultOutputDBPath(); err != nil {
			return nil, errors.Wrap(err, "failed to resolve output database path")
		}
	}
	return config, nil
}
