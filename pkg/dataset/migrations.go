package dataset

import (
	"database/sql"

	"github.com/pkg/errors"

	"github.com/jingkaihe/skillharvest/pkg/db"
)

// Migrations returns the output database schema migrations.
func Migrations() []db.Migration {
	return []db.Migration{
		{
			Version:     20251104090000,
			Description: "Create validation_results and files tables",
			Up: func(tx *sql.Tx) error {
				if _, err := tx.Exec(`
					CREATE TABLE IF NOT EXISTS validation_results (
						url TEXT PRIMARY KEY,
						status TEXT NOT NULL,
						is_skill BOOLEAN NOT NULL DEFAULT 0,
						reason TEXT,
						validated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
					)
				`); err != nil {
					return errors.Wrap(err, "failed to create validation_results table")
				}

				if _, err := tx.Exec(`
					CREATE INDEX IF NOT EXISTS idx_validation_results_status
					ON validation_results(status)
				`); err != nil {
					return errors.Wrap(err, "failed to create status index")
				}

				if _, err := tx.Exec(`
					CREATE TABLE IF NOT EXISTS files (
						url TEXT PRIMARY KEY,
						sha TEXT,
						size_bytes INTEGER,
						discovered_at TIMESTAMP
					)
				`); err != nil {
					return errors.Wrap(err, "failed to create files table")
				}

				return nil
			},
			Down: func(tx *sql.Tx) error {
				if _, err := tx.Exec("DROP TABLE IF EXISTS validation_results"); err != nil {
					return errors.Wrap(err, "failed to drop validation_results table")
				}
				_, err := tx.Exec("DROP TABLE IF EXISTS files")
				return errors.Wrap(err, "failed to drop files table")
			},
		},
	}
}
