package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// schema holds the DDL of the ledger. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id              TEXT PRIMARY KEY,
		hyperparameters TEXT NOT NULL,
		created_at      TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS progress (
		run_id        TEXT NOT NULL REFERENCES runs(id),
		ann_index     INTEGER NOT NULL,
		epoch         INTEGER NOT NULL,
		error         REAL,
		learning_rate REAL NOT NULL,
		created_at    TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS completions (
		run_id     TEXT NOT NULL REFERENCES runs(id),
		ann_index  INTEGER NOT NULL,
		epoch      INTEGER NOT NULL,
		error      REAL,
		created_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_progress_ann_index ON progress(ann_index)`,
	`CREATE INDEX IF NOT EXISTS idx_completions_ann_index ON completions(ann_index)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "migrate")
		}
	}
	return nil
}
