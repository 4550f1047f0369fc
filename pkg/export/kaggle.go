package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

type kaggleResource struct {
	Path        string `json:"path"`
	Description string `json:"description"`
}

type kaggleLicense struct {
	Name string `json:"name"`
}

type kaggleMetadata struct {
	Title       string           `json:"title"`
	ID          string           `json:"id"`
	Licenses    []kaggleLicense  `json:"licenses"`
	Keywords    []string         `json:"keywords"`
	Description string           `json:"description"`
	Resources   []kaggleResource `json:"resources"`
}

// writeKaggleMetadata emits dataset-metadata.json and a dataset README next
// to the Parquet files, in the shape the kaggle CLI expects.
func writeKaggleMetadata(outputDir, username string, filesCount, reposCount int) error {
	metadata := kaggleMetadata{
		Title:    "GitHub SKILL.md Files - Claude Code Skills",
		ID:       fmt.Sprintf("%s/github-skill-files", username),
		Licenses: []kaggleLicense{{Name: "CC0-1.0"}},
		Keywords: []string{"github", "claude", "skills", "ai", "automation", "claude-code"},
		Description: fmt.Sprintf(
			"Validated SKILL.md files from %d GitHub repositories. Contains %d skill files with repository metadata and commit history.",
			reposCount, filesCount),
		Resources: []kaggleResource{
			{Path: "files.parquet", Description: "File URLs and basic Git info"},
			{Path: "repos.parquet", Description: "Repository metadata (stars, forks, language, topics)"},
			{Path: "history.parquet", Description: "Per-commit history for each accepted file"},
		},
	}

	raw, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal dataset metadata")
	}
	if err := os.WriteFile(filepath.Join(outputDir, "dataset-metadata.json"), raw, 0o644); err != nil {
		return errors.Wrap(err, "failed to write dataset metadata")
	}

	readme := fmt.Sprintf(`# GitHub SKILL.md Files Dataset

Validated SKILL.md files from %d GitHub repositories.

## Contents

- **%d validated skill files** from GitHub
- **%d repositories** with metadata (stars, forks, topics, language)
- **Commit history** showing when files were created and last modified

## Files

### files.parquet
- `+"`url`"+`: GitHub blob URL (primary key)
- `+"`sha`"+`: Git commit SHA
- `+"`filename`"+`: File name (e.g. "SKILL.md")
- `+"`path`"+`: Path in repository
- `+"`repo_key`"+`: Foreign key to repos (owner/repo)
- `+"`size_bytes`"+`: File size in bytes
- `+"`discovered_at`"+`: When the file was collected

### repos.parquet
- `+"`repo_key`"+`: owner/repo (primary key)
- `+"`repo_owner`"+`, `+"`repo_name`"+`
- `+"`stars`"+`, `+"`forks`"+`, `+"`watchers`"+`
- `+"`language`"+`, `+"`topics`"+`, `+"`description`"+`, `+"`license`"+`
- `+"`created_at`"+`, `+"`updated_at`"+`

### history.parquet
One row per commit that touched an accepted file:
- `+"`url`"+`: File URL (foreign key to files)
- `+"`commit_sha`"+`, `+"`commit_author`"+`, `+"`commit_date`"+`, `+"`commit_message`"+`

## Data Collection

1. **Collection**: SKILL.md files discovered via GitHub code search
2. **Validation**: two-pass validation: a structural frontmatter check, then
   Claude-based semantic classification
3. **Export**: 3 normalized Parquet files

## License

CC0-1.0 (Public Domain)
`, reposCount, filesCount, reposCount)

	if err := os.WriteFile(filepath.Join(outputDir, "README.md"), []byte(readme), 0o644); err != nil {
		return errors.Wrap(err, "failed to write dataset README")
	}
	return nil
}
