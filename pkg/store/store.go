// Package store persists completed clustering runs to SQLite, adapted from
// the teacher's SQLiteStore (embeddings table, WAL pragmas, context-scoped
// queries) but storing cluster assignments instead of vector embeddings.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/leynos/chutoro-go/internal/encoding"
	"github.com/leynos/chutoro-go/pkg/types"
)

// ErrStoreClosed is returned by any operation after Close has been called.
var ErrStoreClosed = errors.New("store: closed")

// ErrRunNotFound is returned by LoadRun when no run with the given ID exists.
var ErrRunNotFound = errors.New("store: run not found")

// Run is one persisted clustering result: the item-to-cluster assignments
// produced by pkg/hierarchy.Extract, keyed by an opaque run ID.
type Run struct {
	RunID        string
	ClusterCount int
	Assignments  []types.ClusterID
	CreatedAt    time.Time
}

// Store is a SQLite-backed run history. The zero value is not usable; call
// Open.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

// Open opens (creating if necessary) a SQLite database at path and ensures
// its schema exists.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store: path cannot be empty")
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db}
	if err := s.createTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) createTables(ctx context.Context) error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS runs (
		run_id        TEXT PRIMARY KEY,
		cluster_count INTEGER NOT NULL,
		assignments   BLOB NOT NULL,
		created_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("store: create tables: %w", err)
	}
	return nil
}

// SaveRun persists a run, overwriting any prior run with the same RunID.
func (s *Store) SaveRun(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	encoded, err := encodeAssignments(run.Assignments)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, cluster_count, assignments) VALUES (?, ?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET cluster_count = excluded.cluster_count, assignments = excluded.assignments`,
		run.RunID, run.ClusterCount, encoded,
	)
	if err != nil {
		return fmt.Errorf("store: save run %q: %w", run.RunID, err)
	}
	return nil
}

// LoadRun retrieves a previously saved run by ID.
func (s *Store) LoadRun(ctx context.Context, runID string) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Run{}, ErrStoreClosed
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, cluster_count, assignments, created_at FROM runs WHERE run_id = ?`, runID)

	var (
		id        string
		count     int
		blob      []byte
		createdAt time.Time
	)
	if err := row.Scan(&id, &count, &blob, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, ErrRunNotFound
		}
		return Run{}, fmt.Errorf("store: load run %q: %w", runID, err)
	}

	assignments, err := decodeAssignments(blob)
	if err != nil {
		return Run{}, fmt.Errorf("store: decode assignments for %q: %w", runID, err)
	}
	return Run{RunID: id, ClusterCount: count, Assignments: assignments, CreatedAt: createdAt}, nil
}

// ListRuns returns every stored run ID, ordered by creation time.
func (s *Store) ListRuns(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `SELECT run_id FROM runs ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close releases the underlying database handle. Subsequent calls return
// ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// encodeAssignments packs a ClusterID slice via internal/encoding's
// length-prefixed little-endian int32 codec (EncodeInt32s), the same wire
// shape EncodeVector uses for float32 components, applied here to cluster
// labels instead.
func encodeAssignments(assignments []types.ClusterID) ([]byte, error) {
	values := make([]int32, len(assignments))
	for i, a := range assignments {
		values[i] = int32(a)
	}
	data, err := encoding.EncodeInt32s(values)
	if err != nil {
		return nil, fmt.Errorf("store: encode assignments: %w", err)
	}
	return data, nil
}

func decodeAssignments(data []byte) ([]types.ClusterID, error) {
	values, err := encoding.DecodeInt32s(data)
	if err != nil {
		return nil, fmt.Errorf("store: decode assignments: %w", err)
	}
	out := make([]types.ClusterID, len(values))
	for i, v := range values {
		out[i] = types.ClusterID(v)
	}
	return out, nil
}
