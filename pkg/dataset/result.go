package dataset

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillharvest/pkg/db"
)

// ResultStore owns the output database. Records are durable as soon as Save
// returns, so an interrupted run leaves every already-resolved file intact.
type ResultStore struct {
	db *sqlx.DB
}

// OpenResultStore opens (creating if needed) the output database at path and
// applies pending migrations.
func OpenResultStore(ctx context.Context, path string) (*ResultStore, error) {
	database, err := db.Open(ctx, path)
	if err != nil {
		return nil, err
	}

	runner := db.NewMigrationRunner(database)
	if err := runner.Run(ctx, Migrations()); err != nil {
		database.Close()
		return nil, errors.Wrap(err, "failed to migrate output database")
	}

	return &ResultStore{db: database}, nil
}

// Close releases the database handle.
func (s *ResultStore) Close() error {
	return s.db.Close()
}

// Save upserts a validation record. Re-running the pipeline overwrites the
// previous decision for the same URL, which is how Skipped files get resolved
// once their content is fetched.
func (s *ResultStore) Save(ctx context.Context, rec ValidationRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO validation_results (url, status, is_skill, reason, validated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		rec.URL, rec.Status, rec.IsSkill, rec.Reason)
	return errors.Wrapf(err, "failed to save validation record for %s", rec.URL)
}

// Get returns the record for url, if present.
func (s *ResultStore) Get(ctx context.Context, url string) (ValidationRecord, bool, error) {
	var rec ValidationRecord
	err := s.db.GetContext(ctx, &rec,
		"SELECT url, status, is_skill, reason, validated_at FROM validation_results WHERE url = ?", url)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ValidationRecord{}, false, nil
		}
		return ValidationRecord{}, false, errors.Wrapf(err, "failed to get validation record for %s", url)
	}
	return rec, true, nil
}

// AcceptedURLs returns every URL with an accepted verdict.
func (s *ResultStore) AcceptedURLs(ctx context.Context) ([]string, error) {
	var urls []string
	err := s.db.SelectContext(ctx, &urls,
		"SELECT url FROM validation_results WHERE status = ? ORDER BY url", StatusAccepted)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list accepted urls")
	}
	return urls, nil
}

// StatusCounts returns the number of records per terminal status.
func (s *ResultStore) StatusCounts(ctx context.Context) (map[Status]int, error) {
	rows := []struct {
		Status Status `db:"status"`
		N      int    `db:"n"`
	}{}
	err := s.db.SelectContext(ctx, &rows,
		"SELECT status, COUNT(*) AS n FROM validation_results GROUP BY status")
	if err != nil {
		return nil, errors.Wrap(err, "failed to count validation records")
	}

	counts := make(map[Status]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.N
	}
	return counts, nil
}

// RebuildFiles repopulates the files mirror with the accepted subset of the
// given candidates. Returns the number of rows inserted.
func (s *ResultStore) RebuildFiles(ctx context.Context, candidates []CandidateFile) (int, error) {
	accepted, err := s.AcceptedURLs(ctx)
	if err != nil {
		return 0, err
	}
	acceptedSet := make(map[string]bool, len(accepted))
	for _, url := range accepted {
		acceptedSet[url] = true
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM files"); err != nil {
		return 0, errors.Wrap(err, "failed to clear files table")
	}

	inserted := 0
	for _, c := range candidates {
		if !acceptedSet[c.URL] {
			continue
		}
		_, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO files (url, sha, size_bytes, discovered_at) VALUES (?, ?, ?, ?)",
			c.URL, c.SHA, c.SizeBytes, c.DiscoveredAt)
		if err != nil {
			return 0, errors.Wrapf(err, "failed to insert file row for %s", c.URL)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "failed to commit files rebuild")
	}
	return inserted, nil
}

// AppliedMigrations returns the migration versions applied to this database.
func (s *ResultStore) AppliedMigrations(ctx context.Context) ([]int64, error) {
	return db.NewMigrationRunner(s.db).AppliedVersions(ctx)
}
