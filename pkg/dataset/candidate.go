package dataset

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillharvest/pkg/db"
)

// CandidateFile is a row of the fetcher's files table. Immutable from this
// tool's point of view.
type CandidateFile struct {
	URL          string         `db:"url"`
	SHA          sql.NullString `db:"sha"`
	SizeBytes    sql.NullInt64  `db:"size_bytes"`
	DiscoveredAt sql.NullString `db:"discovered_at"`
}

// RepoMetadata is a row of the fetcher's repo_metadata table.
type RepoMetadata struct {
	RepoKey     string         `db:"repo_key"`
	Stars       sql.NullInt64  `db:"stars"`
	Forks       sql.NullInt64  `db:"forks"`
	Watchers    sql.NullInt64  `db:"watchers"`
	Language    sql.NullString `db:"language"`
	Topics      sql.NullString `db:"topics"` // JSON array of strings
	Description sql.NullString `db:"description"`
	License     sql.NullString `db:"license"`
	CreatedAt   sql.NullString `db:"created_at"`
	UpdatedAt   sql.NullString `db:"updated_at"`
}

// FileHistory is a row of the fetcher's file_history table. Commits is a JSON
// array of {sha, author, date, message}.
type FileHistory struct {
	URL     string         `db:"url"`
	Commits sql.NullString `db:"commits"`
}

// CandidateStore reads the fetcher's database. Opened read-only: the upstream
// database is an input, never modified by this tool.
type CandidateStore struct {
	db *sqlx.DB
}

// OpenCandidateStore opens the fetcher database at path.
func OpenCandidateStore(ctx context.Context, path string) (*CandidateStore, error) {
	database, err := db.OpenReadOnly(ctx, path)
	if err != nil {
		return nil, err
	}
	return &CandidateStore{db: database}, nil
}

// Close releases the database handle.
func (s *CandidateStore) Close() error {
	return s.db.Close()
}

// ListFiles returns every candidate file record.
func (s *CandidateStore) ListFiles(ctx context.Context) ([]CandidateFile, error) {
	var files []CandidateFile
	err := s.db.SelectContext(ctx, &files,
		"SELECT url, sha, size_bytes, discovered_at FROM files ORDER BY url")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list candidate files")
	}
	return files, nil
}

// ListRepoMetadata returns every repository metadata record.
func (s *CandidateStore) ListRepoMetadata(ctx context.Context) ([]RepoMetadata, error) {
	var repos []RepoMetadata
	err := s.db.SelectContext(ctx, &repos, `
		SELECT repo_key, stars, forks, watchers, language, topics,
		       description, license, created_at, updated_at
		FROM repo_metadata ORDER BY repo_key`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list repo metadata")
	}
	return repos, nil
}

// ListFileHistory returns every file history record.
func (s *CandidateStore) ListFileHistory(ctx context.Context) ([]FileHistory, error) {
	var history []FileHistory
	err := s.db.SelectContext(ctx, &history, "SELECT url, commits FROM file_history ORDER BY url")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list file history")
	}
	return history, nil
}
