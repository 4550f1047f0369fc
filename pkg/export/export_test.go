package export

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillharvest/pkg/dataset"
	"github.com/jingkaihe/skillharvest/pkg/db"
)

type fixtureOpts struct {
	repoMetadata bool
	history      bool
}

// newStores seeds a candidate db with three files (two of which get accepted)
// and returns open stores plus the output dir.
func newStores(t *testing.T, opts fixtureOpts) (*dataset.CandidateStore, *dataset.ResultStore, string) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	candidatePath := filepath.Join(dir, "skills.db")
	database, err := db.Open(ctx, candidatePath)
	require.NoError(t, err)

	for _, stmt := range []string{
		`CREATE TABLE files (
			url TEXT PRIMARY KEY,
			sha TEXT,
			size_bytes INTEGER,
			discovered_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE repo_metadata (
			repo_key TEXT PRIMARY KEY,
			stars INTEGER, forks INTEGER, watchers INTEGER,
			language TEXT, topics TEXT, description TEXT, license TEXT,
			created_at TIMESTAMP, updated_at TIMESTAMP
		)`,
		`CREATE TABLE file_history (
			url TEXT PRIMARY KEY,
			commits TEXT
		)`,
	} {
		_, err = database.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}

	urls := []string{
		"https://github.com/alice/tools/blob/main/skills/deploy/SKILL.md",
		"https://github.com/bob/scripts/blob/main/SKILL.md",
		"https://github.com/carol/misc/blob/main/SKILL.md",
	}
	for _, url := range urls {
		_, err = database.ExecContext(ctx,
			"INSERT INTO files (url, sha, size_bytes) VALUES (?, ?, ?)",
			url, "abc123", 512)
		require.NoError(t, err)
	}

	if opts.repoMetadata {
		for _, key := range []string{"alice/tools", "bob/scripts"} {
			_, err = database.ExecContext(ctx,
				`INSERT INTO repo_metadata (repo_key, stars, forks, watchers, language, topics, description, license)
				 VALUES (?, 42, 7, 3, 'Go', '["automation","ci"]', 'demo repo', 'MIT')`, key)
			require.NoError(t, err)
		}
	}
	if opts.history {
		commits := `[{"sha":"c1","author":"alice","date":"2025-01-01","message":"add skill"},
		             {"sha":"c2","author":"alice","date":"2025-02-01","message":"tweak"}]`
		for _, url := range urls[:2] {
			_, err = database.ExecContext(ctx,
				"INSERT INTO file_history (url, commits) VALUES (?, ?)", url, commits)
			require.NoError(t, err)
		}
	}
	require.NoError(t, database.Close())

	candidates, err := dataset.OpenCandidateStore(ctx, candidatePath)
	require.NoError(t, err)
	t.Cleanup(func() { candidates.Close() })

	results, err := dataset.OpenResultStore(ctx, filepath.Join(dir, "validation.db"))
	require.NoError(t, err)
	t.Cleanup(func() { results.Close() })

	require.NoError(t, results.Save(ctx, dataset.NewRecord(urls[0], dataset.StatusAccepted, "")))
	require.NoError(t, results.Save(ctx, dataset.NewRecord(urls[1], dataset.StatusAccepted, "")))
	require.NoError(t, results.Save(ctx, dataset.NewRecord(urls[2], dataset.StatusSemanticallyRejected, "not a skill")))

	return candidates, results, filepath.Join(dir, "out")
}

func TestExportFullDataset(t *testing.T) {
	ctx := context.Background()
	candidates, results, outDir := newStores(t, fixtureOpts{repoMetadata: true, history: true})

	summary, err := New(candidates, results, Options{OutputDir: outDir}).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Files)
	assert.Equal(t, 2, summary.Repos)
	assert.Equal(t, 4, summary.History)

	files, err := parquet.ReadFile[FileRow](filepath.Join(outDir, "files.parquet"))
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "alice/tools", files[0].RepoKey)
	assert.Equal(t, "SKILL.md", files[0].Filename)
	assert.Equal(t, "skills/deploy/SKILL.md", files[0].Path)
	require.NotNil(t, files[0].SizeBytes)
	assert.Equal(t, int64(512), *files[0].SizeBytes)

	repos, err := parquet.ReadFile[RepoRow](filepath.Join(outDir, "repos.parquet"))
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "alice", repos[0].RepoOwner)
	assert.Equal(t, "tools", repos[0].RepoName)
	assert.Equal(t, []string{"automation", "ci"}, repos[0].Topics)

	history, err := parquet.ReadFile[HistoryRow](filepath.Join(outDir, "history.parquet"))
	require.NoError(t, err)
	require.Len(t, history, 4)
	require.NotNil(t, history[0].CommitSHA)
	assert.Equal(t, "c1", *history[0].CommitSHA)
}

func TestExportMissingRepoMetadata(t *testing.T) {
	ctx := context.Background()
	candidates, results, outDir := newStores(t, fixtureOpts{history: true})

	_, err := New(candidates, results, Options{OutputDir: outDir}).Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingData)

	summary, err := New(candidates, results, Options{OutputDir: outDir, AllowNoRepo: true}).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Repos)
	assert.Equal(t, 2, summary.Files)
}

func TestExportMissingHistory(t *testing.T) {
	ctx := context.Background()
	candidates, results, outDir := newStores(t, fixtureOpts{repoMetadata: true})

	_, err := New(candidates, results, Options{OutputDir: outDir}).Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingData)

	summary, err := New(candidates, results, Options{OutputDir: outDir, AllowNoHistory: true}).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.History)
}

func TestExportKaggleMetadata(t *testing.T) {
	ctx := context.Background()
	candidates, results, outDir := newStores(t, fixtureOpts{repoMetadata: true, history: true})

	_, err := New(candidates, results, Options{OutputDir: outDir, KaggleUsername: "demo-user"}).Run(ctx)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(outDir, "dataset-metadata.json"))
	require.NoError(t, err)

	var metadata map[string]any
	require.NoError(t, json.Unmarshal(raw, &metadata))
	assert.Equal(t, "demo-user/github-skill-files", metadata["id"])

	readme, err := os.ReadFile(filepath.Join(outDir, "README.md"))
	require.NoError(t, err)
	assert.Contains(t, string(readme), "files.parquet")
}

func TestSplitRepoKey(t *testing.T) {
	owner, name := splitRepoKey("alice/tools")
	assert.Equal(t, "alice", owner)
	assert.Equal(t, "tools", name)

	owner, name = splitRepoKey("bare")
	assert.Equal(t, "bare", owner)
	assert.Equal(t, "", name)
}
