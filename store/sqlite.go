// Package store keeps a SQLite ledger of training runs: every progress snapshot
// and every completed instance, so an interrupted run can be resumed.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/neurlang/epochtrainer/learning"
	"github.com/neurlang/epochtrainer/log"
	"github.com/neurlang/epochtrainer/trainer"

	_ "modernc.org/sqlite"
)

// timeFormat sorts lexically in time order.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore is the run ledger.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// Run is one invocation of the trainer recorded in the ledger.
type Run struct {
	ID              string
	HyperParameters learning.HyperParameters
	CreatedAt       time.Time
	Completed       int // instances completed by this run
}

// NewSQLiteStore opens (or creates) the database at dbPath.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite %s", dbPath)
	}
	if dbPath == ":memory:" {
		// every connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "pragma wal")
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "pragma fk")
	}

	return &SQLiteStore{
		db:     db,
		logger: log.Or(logger).With(zap.String("component", "store")),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", zap.String("op", "migrate"))
	return migrate(ctx, s.db)
}

// NewRun records the start of a run trained with hp.
func (s *SQLiteStore) NewRun(ctx context.Context, hp learning.HyperParameters) (*Run, error) {
	run := &Run{
		ID:              uuid.NewString(),
		HyperParameters: hp,
		CreatedAt:       time.Now().UTC(),
	}
	s.logger.Debug("sql", zap.String("op", "insert"), zap.String("table", "runs"), zap.String("id", run.ID))

	hpJSON, err := json.Marshal(hp)
	if err != nil {
		return nil, errors.Wrap(err, "marshal hyperparameters")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, hyperparameters, created_at) VALUES (?, ?, ?)`,
		run.ID, string(hpJSON), run.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		return nil, errors.Wrap(err, "insert run")
	}
	return run, nil
}

// ListRuns returns all runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]*Run, error) {
	s.logger.Debug("sql", zap.String("op", "list"), zap.String("table", "runs"))

	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.hyperparameters, r.created_at,
			(SELECT COUNT(*) FROM completions c WHERE c.run_id = r.id)
		 FROM runs r ORDER BY r.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		var hpJSON, createdAt string
		if err := rows.Scan(&run.ID, &hpJSON, &createdAt, &run.Completed); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(hpJSON), &run.HyperParameters); err != nil {
			return nil, errors.Wrapf(err, "unmarshal hyperparameters of run %s", run.ID)
		}
		run.CreatedAt, _ = time.Parse(timeFormat, createdAt)
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// RecordProgress stores the latest step of a task snapshot.
func (s *SQLiteStore) RecordProgress(ctx context.Context, runID string, t *trainer.Task) error {
	last, ok := t.Last()
	if !ok {
		return errors.Errorf("task %d has not trained yet", t.Index)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO progress (run_id, ann_index, epoch, error, learning_rate, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, t.Index, t.CurrentEpoch, finite(last.Error), last.LearningRate, now(),
	)
	return err
}

// RecordCompletion stores a task that used up its epoch budget.
func (s *SQLiteStore) RecordCompletion(ctx context.Context, runID string, t *trainer.Task) error {
	var errValue any
	if last, ok := t.Last(); ok {
		errValue = finite(last.Error)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO completions (run_id, ann_index, epoch, error, created_at) VALUES (?, ?, ?, ?, ?)`,
		runID, t.Index, t.CurrentEpoch, errValue, now(),
	)
	return err
}

// Completed returns the indexes completed by any run.
func (s *SQLiteStore) Completed(ctx context.Context) (map[int]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT ann_index FROM completions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	done := make(map[int]bool)
	for rows.Next() {
		var index int
		if err := rows.Scan(&index); err != nil {
			return nil, err
		}
		done[index] = true
	}
	return done, rows.Err()
}

// Epochs returns the furthest epoch recorded for each index by any run.
func (s *SQLiteStore) Epochs(ctx context.Context) (map[int]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ann_index, MAX(epoch) FROM progress GROUP BY ann_index`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	epochs := make(map[int]int)
	for rows.Next() {
		var index, epoch int
		if err := rows.Scan(&index, &epoch); err != nil {
			return nil, err
		}
		epochs[index] = epoch
	}
	return epochs, rows.Err()
}

// ProgressPusher records every snapshot it receives under run.
// Failures are logged; training goes on.
func (s *SQLiteStore) ProgressPusher(run *Run) trainer.Pusher {
	return trainer.PusherFunc(func(ctx context.Context, t *trainer.Task) {
		if err := s.RecordProgress(ctx, run.ID, t); err != nil {
			s.logger.Warn("failed to record progress", zap.String("run", run.ID), zap.Int("index", t.Index), zap.Error(err))
		}
	})
}

// CompletionPusher records every completed task it receives under run.
func (s *SQLiteStore) CompletionPusher(run *Run) trainer.Pusher {
	return trainer.PusherFunc(func(ctx context.Context, t *trainer.Task) {
		if err := s.RecordCompletion(ctx, run.ID, t); err != nil {
			s.logger.Warn("failed to record completion", zap.String("run", run.ID), zap.Int("index", t.Index), zap.Error(err))
		}
	})
}

// finite maps NaN and infinities to NULL.
func finite(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func now() string {
	return time.Now().UTC().Format(timeFormat)
}
