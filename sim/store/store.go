// Package store persists benchmark episode outcomes in SQLite so runs of
// different policies can be compared after the fact.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/inference-sim/alloc-sim/sim/trace"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	policy      TEXT NOT NULL,
	seed        INTEGER NOT NULL,
	config_yaml TEXT,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS episodes (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	episode     INTEGER NOT NULL,
	trace_id    TEXT NOT NULL,
	reason      TEXT NOT NULL,
	steps       INTEGER NOT NULL,
	ep_return   REAL NOT NULL,
	value       REAL NOT NULL,
	total_value REAL NOT NULL,
	objective   REAL NOT NULL,
	optimum     REAL,
	stopped     INTEGER NOT NULL,
	created_at  TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id),
	UNIQUE (run_id, episode)
);
`

// Store is the results ledger.
type Store struct {
	db *sql.DB
}

// RunRecord describes one invocation of the episode driver.
type RunRecord struct {
	RunID      string
	Policy     string
	Seed       int64
	ConfigYAML string
	CreatedAt  time.Time
}

// EpisodeRow is one stored episode outcome.
type EpisodeRow struct {
	RunID     string
	Episode   int
	TraceID   string
	Outcome   trace.Outcome
	CreatedAt time.Time
}

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// PRAGMAs are per connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun registers a new run under a fresh UUID.
func (s *Store) CreateRun(policy string, seed int64, configYAML string) (RunRecord, error) {
	rec := RunRecord{
		RunID:      uuid.New().String(),
		Policy:     policy,
		Seed:       seed,
		ConfigYAML: configYAML,
		CreatedAt:  time.Now().UTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO runs (run_id, policy, seed, config_yaml, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.RunID, rec.Policy, rec.Seed, rec.ConfigYAML, rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("insert run: %w", err)
	}
	return rec, nil
}

// GetRun reads a run by ID.
func (s *Store) GetRun(runID string) (RunRecord, error) {
	var rec RunRecord
	var cfg sql.NullString
	var createdStr string
	err := s.db.QueryRow(
		`SELECT run_id, policy, seed, config_yaml, created_at FROM runs WHERE run_id = ?`, runID,
	).Scan(&rec.RunID, &rec.Policy, &rec.Seed, &cfg, &createdStr)
	if err != nil {
		return RunRecord{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	if cfg.Valid {
		rec.ConfigYAML = cfg.String
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return rec, nil
}

// RecordEpisode stores the outcome of et under runID. Recording the same
// episode number twice for a run is an error.
func (s *Store) RecordEpisode(runID string, et *trace.EpisodeTrace) error {
	o := et.Outcome
	var optimum interface{}
	if o.HasOptimum {
		optimum = o.Optimum
	}
	stopped := 0
	if o.Stopped {
		stopped = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO episodes (run_id, episode, trace_id, reason, steps, ep_return, value, total_value, objective, optimum, stopped, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, et.Episode, et.ID, o.Reason, o.StepCount, o.Return, o.Value, o.TotalValue,
		o.Objective, optimum, stopped, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert episode %d: %w", et.Episode, err)
	}
	return nil
}

// ListRun returns every stored episode of runID in episode order.
func (s *Store) ListRun(runID string) ([]EpisodeRow, error) {
	rows, err := s.db.Query(
		`SELECT run_id, episode, trace_id, reason, steps, ep_return, value, total_value, objective, optimum, stopped, created_at
		 FROM episodes WHERE run_id = ? ORDER BY episode`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []EpisodeRow
	for rows.Next() {
		var row EpisodeRow
		var optimum sql.NullFloat64
		var stopped int
		var createdStr string
		o := &row.Outcome
		if err := rows.Scan(&row.RunID, &row.Episode, &row.TraceID, &o.Reason, &o.StepCount, &o.Return,
			&o.Value, &o.TotalValue, &o.Objective, &optimum, &stopped, &createdStr); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		if optimum.Valid {
			o.Optimum = optimum.Float64
			o.HasOptimum = true
		}
		o.Stopped = stopped != 0
		row.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, row)
	}
	return out, rows.Err()
}
