// Package archive persists run reports and compliance summaries to a single
// SQLite file so results can be compared across runs.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/daylight-sim/daylight-sim/sim"
	"github.com/daylight-sim/daylight-sim/sim/daylight"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	project       TEXT NOT NULL,
	started_at    TEXT NOT NULL,
	failed        INTEGER NOT NULL,
	first_failure TEXT NOT NULL,
	failure_kind  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS tasks (
	run_id     TEXT NOT NULL REFERENCES runs(id),
	seq        INTEGER NOT NULL,
	name       TEXT NOT NULL,
	kind       TEXT NOT NULL,
	state      TEXT NOT NULL,
	executions INTEGER NOT NULL,
	error_kind TEXT NOT NULL,
	error      TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);
CREATE TABLE IF NOT EXISTS compliance (
	run_id        TEXT NOT NULL REFERENCES runs(id),
	task          TEXT NOT NULL,
	min_df        REAL NOT NULL,
	max_df        REAL NOT NULL,
	compliant     INTEGER NOT NULL,
	pass_fraction REAL NOT NULL,
	mean_df       REAL NOT NULL,
	pass          BLOB NOT NULL,
	PRIMARY KEY (run_id, task)
);`

// Store is a SQLite-backed run archive.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the archive at path.
func Open(path string) (*Store, error) {
	if path == "" {
		path = "daylight-sim.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Compliance is the archived summary of one compliance check.
type Compliance struct {
	Task         string
	Min, Max     float64
	Compliant    bool
	PassFraction float64
	MeanDF       float64
	Pass         []bool
}

// ComplianceOf summarizes a finished check for archiving.
func ComplianceOf(task string, r *daylight.ComplianceResult) Compliance {
	return Compliance{
		Task:         task,
		Min:          r.Min,
		Max:          r.Max,
		Compliant:    r.Compliant,
		PassFraction: r.PassFraction,
		MeanDF:       r.MeanDF,
		Pass:         append([]bool(nil), r.Pass...),
	}
}

// Run is an archived run.
type Run struct {
	ID           string
	Project      string
	StartedAt    time.Time
	Failed       bool
	FirstFailure string
	FailureKind  string
}

// Task is an archived task row.
type Task struct {
	Name       string
	Kind       string
	State      sim.State
	Executions int
	ErrorKind  string
	Error      string
}

// SaveRun stores a run report and its compliance summaries in one
// transaction.
func (s *Store) SaveRun(ctx context.Context, project string, startedAt time.Time, report *sim.Report, checks []Compliance) (retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	firstFailure := ""
	if report.FirstFailure != nil {
		firstFailure = report.FirstFailure.Task
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, project, started_at, failed, first_failure, failure_kind) VALUES (?, ?, ?, ?, ?, ?)`,
		report.RunID, project, startedAt.UTC().Format(time.RFC3339Nano), report.Failed(), firstFailure, report.FirstFailureKind(),
	); err != nil {
		return fmt.Errorf("insert run %s: %w", report.RunID, err)
	}

	for i, t := range report.Tasks {
		msg := ""
		if t.Err != nil {
			msg = t.Err.Error()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tasks (run_id, seq, name, kind, state, executions, error_kind, error) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			report.RunID, i, t.Name, t.Kind.String(), string(t.State), t.Executions, t.ErrorKind(), msg,
		); err != nil {
			return fmt.Errorf("insert task %s: %w", t.Name, err)
		}
	}

	for _, c := range checks {
		pass, err := json.Marshal(c.Pass)
		if err != nil {
			return fmt.Errorf("encode pass vector: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO compliance (run_id, task, min_df, max_df, compliant, pass_fraction, mean_df, pass) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			report.RunID, c.Task, c.Min, c.Max, c.Compliant, c.PassFraction, c.MeanDF, pass,
		); err != nil {
			return fmt.Errorf("insert compliance %s: %w", c.Task, err)
		}
	}
	return tx.Commit()
}

// Runs lists archived runs, oldest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project, started_at, failed, first_failure, failure_kind FROM runs ORDER BY started_at, id`)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Run
	for rows.Next() {
		var r Run
		var started string
		if err := rows.Scan(&r.ID, &r.Project, &started, &r.Failed, &r.FirstFailure, &r.FailureKind); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("run %s: bad start time %q: %w", r.ID, started, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Tasks lists the tasks of a run in arena order.
func (s *Store) Tasks(ctx context.Context, runID string) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, kind, state, executions, error_kind, error FROM tasks WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("select tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Task
	for rows.Next() {
		var t Task
		var state string
		if err := rows.Scan(&t.Name, &t.Kind, &state, &t.Executions, &t.ErrorKind, &t.Error); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.State = sim.State(state)
		out = append(out, t)
	}
	return out, rows.Err()
}

// Compliance lists the compliance summaries of a run by task name.
func (s *Store) Compliance(ctx context.Context, runID string) ([]Compliance, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT task, min_df, max_df, compliant, pass_fraction, mean_df, pass FROM compliance WHERE run_id = ? ORDER BY task`, runID)
	if err != nil {
		return nil, fmt.Errorf("select compliance: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Compliance
	for rows.Next() {
		var c Compliance
		var pass []byte
		if err := rows.Scan(&c.Task, &c.Min, &c.Max, &c.Compliant, &c.PassFraction, &c.MeanDF, &pass); err != nil {
			return nil, fmt.Errorf("scan compliance: %w", err)
		}
		if err := json.Unmarshal(pass, &c.Pass); err != nil {
			return nil, fmt.Errorf("decode pass vector for %s: %w", c.Task, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
