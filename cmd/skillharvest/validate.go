package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillharvest/pkg/classifier"
	"github.com/jingkaihe/skillharvest/pkg/dataset"
	"github.com/jingkaihe/skillharvest/pkg/db"
	"github.com/jingkaihe/skillharvest/pkg/presenter"
	"github.com/jingkaihe/skillharvest/pkg/skillfile"
	"github.com/jingkaihe/skillharvest/pkg/validate"
	"github.com/jingkaihe/skillharvest/pkg/vcache"
)

// ValidateConfig holds configuration for the validate command
type ValidateConfig struct {
	MainDB        string
	OutputDB      string
	ContentDir    string
	Model         string
	BaseURL       string
	BatchSize     int
	MaxConcurrent int
	TruncateBytes int
	CacheDir      string
}

// NewValidateConfig creates a new ValidateConfig with default values
func NewValidateConfig() *ValidateConfig {
	return &ValidateConfig{
		Model:         classifier.DefaultModel,
		BatchSize:     validate.DefaultBatchSize,
		MaxConcurrent: validate.DefaultMaxConcurrent,
		TruncateBytes: skillfile.DefaultTruncateBytes,
	}
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run the two-pass validation pipeline over collected SKILL.md files",
	Long: `Validates every candidate file from the fetcher database: a structural
frontmatter check first, then LLM-based semantic classification for the
survivors. Verdicts are cached on disk so re-runs only pay for new content.

Example:
  skillharvest validate --main-db skills.db --content-dir ./content
  skillharvest validate --main-db skills.db --content-dir ./content --base-url http://localhost:8000/v1 --model qwen3-30b`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		config, err := getValidateConfigFromFlags(cmd)
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

		store, err := vcache.NewDirStore(config.CacheDir)
		if err != nil {
			return err
		}

		backend := newBackend(config)
		cached := classifier.NewCachingClassifier(backend, store)

		orchestrator := validate.New(candidates, results, cached, validate.Config{
			ContentDir:    config.ContentDir,
			Model:         config.Model,
			BatchSize:     config.BatchSize,
			MaxConcurrent: config.MaxConcurrent,
			TruncateBytes: config.TruncateBytes,
		})

		summary, err := orchestrator.Run(ctx)
		if err != nil {
			return err
		}

		presenter.Section("Validation results")
		presenter.Info(fmt.Sprintf("Candidates:           %d", summary.Total))
		presenter.Info(fmt.Sprintf("Accepted:             %d", summary.Counts[dataset.StatusAccepted]))
		presenter.Info(fmt.Sprintf("Rejected (structure): %d", summary.Counts[dataset.StatusStructurallyRejected]))
		presenter.Info(fmt.Sprintf("Rejected (semantic):  %d", summary.Counts[dataset.StatusSemanticallyRejected]))
		presenter.Info(fmt.Sprintf("Skipped:              %d", summary.Counts[dataset.StatusSkipped]))
		presenter.Info(fmt.Sprintf("Errors:               %d", summary.Counts[dataset.StatusError]))
		presenter.Info(fmt.Sprintf("Classifier calls:     %d", cached.BackendCalls()))
		presenter.Success(fmt.Sprintf("%d accepted files mirrored to %s", summary.FilesRebuilt, config.OutputDB))
		return nil
	},
}

func newBackend(config *ValidateConfig) classifier.Classifier {
	if config.BaseURL != "" {
		return classifier.NewOpenAIClassifier(config.BaseURL)
	}
	return classifier.NewAnthropicClassifier()
}

func init() {
	defaults := NewValidateConfig()
	validateCmd.Flags().String("main-db", "", "Path to the fetcher database (required)")
	validateCmd.Flags().String("output-db", "", "Path to the validation database (default ~/.skillharvest/validation.db)")
	validateCmd.Flags().String("content-dir", "", "Directory holding fetched file content (required)")
	validateCmd.Flags().String("model", defaults.Model, "Classifier model")
	validateCmd.Flags().String("base-url", "", "OpenAI-compatible server URL (uses Anthropic API when unset)")
	validateCmd.Flags().Int("batch-size", defaults.BatchSize, "Candidates per batch")
	validateCmd.Flags().Int("max-concurrent", defaults.MaxConcurrent, "Maximum in-flight classifier calls")
	validateCmd.Flags().Int("truncate-bytes", defaults.TruncateBytes, "Content budget per classification")
	validateCmd.Flags().String("cache-dir", "", "Verdict cache directory (default ~/.cache/skillharvest/verdicts)")
	validateCmd.MarkFlagRequired("main-db")
	validateCmd.MarkFlagRequired("content-dir")
}

// getValidateConfigFromFlags extracts validate configuration from command flags
func getValidateConfigFromFlags(cmd *cobra.Command) (*ValidateConfig, error) {
	config := NewValidateConfig()

	config.MainDB, _ = cmd.Flags().GetString("main-db")
	config.OutputDB, _ = cmd.Flags().GetString("output-db")
	config.ContentDir, _ = cmd.Flags().GetString("content-dir")
	config.Model, _ = cmd.Flags().GetString("model")
	config.BaseURL, _ = cmd.Flags().GetString("base-url")
	config.BatchSize, _ = cmd.Flags().GetInt("batch-size")
	config.MaxConcurrent, _ = cmd.Flags().GetInt("max-concurrent")
	config.TruncateBytes, _ = cmd.Flags().GetInt("truncate-bytes")
	config.CacheDir, _ = cmd.Flags().GetString("cache-dir")

	var err error
	if config.OutputDB == "" {
		if config.OutputDB, err = db.DefaultOutputDBPath(); err != nil {
			return nil, errors.Wrap(err, "failed to resolve output database path")
		}
	}
	if config.CacheDir == "" {
		if config.CacheDir, err = vcache.DefaultDir(); err != nil {
			return nil, errors.Wrap(err, "failed to resolve cache directory")
		}
	}
	return config, nil
}
