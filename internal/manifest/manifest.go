// Package manifest keeps a sqlite ledger of cache runs and their flushed
// buckets. The ledger is observability only: the gateway's path existence
// check remains the sole protection against overwrite.
package manifest

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the run ledger, backed by one sqlite database file.
type Store struct {
	db *sql.DB
}

// Run is one recorded cache run.
type Run struct {
	ID             int64
	StartedAt      time.Time
	FinishedAt     time.Time // zero until FinishRun
	Mode           string
	OutputDir      string
	TotalSteps     int64
	SampleRate     int64
	FlushInterval  int64
	StepsCompleted int64
	DroppedModel   int64
	DroppedAgent   int64
}

// BucketInfo describes one flushed bucket.
type BucketInfo struct {
	Bucket      int64
	WindowStart int64
	WindowEnd   int64
	ModelRows   int64
	AgentRows   int64
	ModelFile   string
	AgentFile   string
	FlushedAt   time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at      INTEGER NOT NULL,
	finished_at     INTEGER,
	mode            TEXT NOT NULL,
	output_dir      TEXT NOT NULL,
	total_steps     INTEGER NOT NULL,
	sample_rate     INTEGER NOT NULL,
	flush_interval  INTEGER NOT NULL,
	steps_completed INTEGER NOT NULL DEFAULT 0,
	dropped_model   INTEGER NOT NULL DEFAULT 0,
	dropped_agent   INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS buckets (
	run_id       INTEGER NOT NULL REFERENCES runs(id),
	bucket       INTEGER NOT NULL,
	window_start INTEGER NOT NULL,
	window_end   INTEGER NOT NULL,
	model_rows   INTEGER NOT NULL,
	agent_rows   INTEGER NOT NULL,
	model_file   TEXT NOT NULL,
	agent_file   TEXT NOT NULL,
	flushed_at   INTEGER NOT NULL,
	PRIMARY KEY (run_id, bucket)
);
`

// Open opens (creating if needed) the ledger at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping manifest: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create manifest schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the ledger.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun inserts a new run row and returns its id.
func (s *Store) CreateRun(ctx context.Context, r Run) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (started_at, mode, output_dir, total_steps, sample_rate, flush_interval)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.StartedAt.UnixMilli(), r.Mode, r.OutputDir, r.TotalSteps, r.SampleRate, r.FlushInterval)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return res.LastInsertId()
}

// RecordBucket inserts one flushed bucket row.
func (s *Store) RecordBucket(ctx context.Context, runID int64, b BucketInfo) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO buckets (run_id, bucket, window_start, window_end,
			model_rows, agent_rows, model_file, agent_file, flushed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, b.Bucket, b.WindowStart, b.WindowEnd,
		b.ModelRows, b.AgentRows, b.ModelFile, b.AgentFile, b.FlushedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert bucket: %w", err)
	}
	return nil
}

// FinishRun marks a run finished and records its final counters.
func (s *Store) FinishRun(ctx context.Context, runID, stepsCompleted, droppedModel, droppedAgent int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE runs SET finished_at = ?, steps_completed = ?, dropped_model = ?, dropped_agent = ?
		WHERE id = ?
	`, time.Now().UnixMilli(), stepsCompleted, droppedModel, droppedAgent, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, COALESCE(finished_at, 0), mode, output_dir,
			total_steps, sample_rate, flush_interval,
			steps_completed, dropped_model, dropped_agent
		FROM runs ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished int64
		if err := rows.Scan(&r.ID, &started, &finished, &r.Mode, &r.OutputDir,
			&r.TotalSteps, &r.SampleRate, &r.FlushInterval,
			&r.StepsCompleted, &r.DroppedModel, &r.DroppedAgent); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.UnixMilli(started)
		if finished > 0 {
			r.FinishedAt = time.UnixMilli(finished)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Buckets returns the flushed buckets of one run in bucket order.
func (s *Store) Buckets(ctx context.Context, runID int64) ([]BucketInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT bucket, window_start, window_end, model_rows, agent_rows,
			model_file, agent_file, flushed_at
		FROM buckets WHERE run_id = ? ORDER BY bucket
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}
	defer rows.Close()

	var buckets []BucketInfo
	for rows.Next() {
		var b BucketInfo
		var flushed int64
		if err := rows.Scan(&b.Bucket, &b.WindowStart, &b.WindowEnd,
			&b.ModelRows, &b.AgentRows, &b.ModelFile, &b.AgentFile, &flushed); err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}
		b.FlushedAt = time.UnixMilli(flushed)
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}
