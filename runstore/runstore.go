// Package runstore records adaptivity runs and their convergence history in
// a SQLite database so runs of different settings can be compared later.
package runstore

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rwcarlsen/hpfem"
	_ "modernc.org/sqlite"
)

// ErrNoRun is returned when a run id is not in the store.
var ErrNoRun = errors.New("runstore: no such run")

// Run describes one adaptivity run.
type Run struct {
	ID      string
	Problem string
	// Config is the YAML encoded configuration of the run.
	Config    string
	Converged bool
	Created   time.Time
}

// Store is a SQLite backed run history.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the store at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		problem TEXT NOT NULL,
		config TEXT,
		converged INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS steps (
		run_id TEXT NOT NULL REFERENCES runs(id),
		step INTEGER NOT NULL,
		nactive INTEGER NOT NULL,
		ndof INTEGER NOT NULL,
		ndof_ref INTEGER NOT NULL,
		err_rel REAL NOT NULL,
		err_exact REAL,
		iters INTEGER NOT NULL,
		PRIMARY KEY (run_id, step)
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a run and its history in one transaction and returns the new
// run id.
func (s *Store) Record(problem, config string, converged bool, h hpfem.History) (string, error) {
	id := uuid.New().String()
	tx, err := s.db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO runs (id, problem, config, converged, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, problem, config, converged, time.Now().UnixNano()); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO steps (run_id, step, nactive, ndof, ndof_ref, err_rel, err_exact, iters) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()
	for _, st := range h {
		var exact sql.NullFloat64
		if !math.IsNaN(st.ErrExact) {
			exact = sql.NullFloat64{Float64: st.ErrExact, Valid: true}
		}
		if _, err := stmt.Exec(id, st.Step, st.NActive, st.NDof, st.NDofRef, st.ErrRel, exact, st.Iters); err != nil {
			return "", fmt.Errorf("failed to insert step %v: %w", st.Step, err)
		}
	}
	return id, tx.Commit()
}

// Runs lists the stored runs, newest first.
func (s *Store) Runs() ([]Run, error) {
	rows, err := s.db.Query(`SELECT id, problem, config, converged, created_at FROM runs ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var created int64
		if err := rows.Scan(&r.ID, &r.Problem, &r.Config, &r.Converged, &created); err != nil {
			return nil, err
		}
		r.Created = time.Unix(0, created)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// History returns the convergence history of run id.
func (s *Store) History(id string) (hpfem.History, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM runs WHERE id = ?`, id).Scan(&n); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %v", ErrNoRun, id)
	}

	rows, err := s.db.Query(`SELECT step, nactive, ndof, ndof_ref, err_rel, err_exact, iters FROM steps WHERE run_id = ? ORDER BY step`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var h hpfem.History
	for rows.Next() {
		var st hpfem.Step
		var exact sql.NullFloat64
		if err := rows.Scan(&st.Step, &st.NActive, &st.NDof, &st.NDofRef, &st.ErrRel, &exact, &st.Iters); err != nil {
			return nil, err
		}
		st.ErrExact = math.NaN()
		if exact.Valid {
			st.ErrExact = exact.Float64
		}
		h = append(h, st)
	}
	return h, rows.Err()
}
