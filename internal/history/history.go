// Package history keeps a local log of past searches in SQLite.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite"

	"github.com/ethos-finder/ethos/internal/lookup"
	"github.com/ethos-finder/ethos/internal/provider"
)

// ErrNotFound is returned by Get for an unknown search ID.
var ErrNotFound = errors.New("search not found in history")

// DefaultPath returns the history database under the XDG state home.
func DefaultPath() string {
	return filepath.Join(xdg.StateHome, "ethos", "history.db")
}

// Entry summarises one recorded search.
type Entry struct {
	ID        string        `json:"id" yaml:"id"`
	Kind      provider.Kind `json:"kind" yaml:"kind"`
	Query     string        `json:"query" yaml:"query"`
	Method    string        `json:"method" yaml:"method"`
	Fields    int           `json:"fields" yaml:"fields"`
	Errors    int           `json:"errors" yaml:"errors"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}

// Store wraps the SQLite database connection.
type Store struct {
	conn *sql.DB
}

// Open opens (or creates) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// single writer
	conn.SetMaxOpenConns(1)

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS searches (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			query TEXT NOT NULL,
			method TEXT NOT NULL DEFAULT '',
			field_count INTEGER NOT NULL DEFAULT 0,
			error_count INTEGER NOT NULL DEFAULT 0,
			started_at INTEGER NOT NULL,
			duration_ns INTEGER NOT NULL DEFAULT 0,
			result_json TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_searches_started ON searches(started_at)`,
	}
	for _, m := range migrations {
		if _, err := s.conn.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// Record stores a finished search.
func (s *Store) Record(ctx context.Context, res lookup.Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = s.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO searches (id, kind, query, method, field_count, error_count, started_at, duration_ns, result_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID.String(), string(res.Kind), res.Query, res.Method,
		len(res.Fields), len(res.Errors), res.StartedAt.UnixNano(), int64(res.Duration), string(data),
	)
	if err != nil {
		return fmt.Errorf("record search: %w", err)
	}
	return nil
}

// List returns up to limit searches, newest first. A non-positive limit
// returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, kind, query, method, field_count, error_count, started_at, duration_ns
		 FROM searches ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list searches: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			kind    string
			started int64
			dur     int64
		)
		if err := rows.Scan(&e.ID, &kind, &e.Query, &e.Method, &e.Fields, &e.Errors, &started, &dur); err != nil {
			return nil, fmt.Errorf("scan search: %w", err)
		}
		e.Kind = provider.Kind(kind)
		e.StartedAt = time.Unix(0, started).UTC()
		e.Duration = time.Duration(dur)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Get returns the full result of a recorded search.
func (s *Store) Get(ctx context.Context, id string) (lookup.Result, error) {
	var data string
	err := s.conn.QueryRowContext(ctx, `SELECT result_json FROM searches WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return lookup.Result{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return lookup.Result{}, fmt.Errorf("get search: %w", err)
	}

	var res lookup.Result
	if err := json.Unmarshal([]byte(data), &res); err != nil {
		return lookup.Result{}, fmt.Errorf("decode result: %w", err)
	}
	return res, nil
}

// Clear deletes every recorded search and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	r, err := s.conn.ExecContext(ctx, `DELETE FROM searches`)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return r.RowsAffected()
}
