// Package store persists scan history in SQLite: one row per verification
// pass, the broken references each pass found, and the last known content
// fingerprint per document.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/mdincl/internal/document"
	"git.home.luguber.info/inful/mdincl/internal/verify"
)

// Store wraps a SQLite database. The mutex serializes writers; the modernc
// driver is safe for concurrent use but write transactions contend on the
// single database lock anyway.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the database at path and ensures the schema. Use
// ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create store directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scans (
		id TEXT PRIMARY KEY,
		root TEXT NOT NULL,
		cause TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		files INTEGER NOT NULL,
		refs INTEGER NOT NULL,
		broken INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_scans_started ON scans(started_at);
	CREATE TABLE IF NOT EXISTS problems (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scan_id TEXT NOT NULL,
		file TEXT NOT NULL,
		line INTEGER NOT NULL,
		kind TEXT NOT NULL,
		target TEXT NOT NULL,
		reason TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_problems_scan ON problems(scan_id);
	CREATE TABLE IF NOT EXISTS fingerprints (
		path TEXT PRIMARY KEY,
		fingerprint TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Scan is one recorded verification pass.
type Scan struct {
	ID   string
	Root string
	// Cause names what started the pass: "startup", "manual", "watch" or
	// "schedule".
	Cause      string
	StartedAt  time.Time
	FinishedAt time.Time
	Files      int
	Refs       int
	Broken     int
}

// RecordScan persists one pass and its problems atomically. A missing ID is
// filled with a fresh UUID; the used ID is returned.
func (s *Store) RecordScan(ctx context.Context, scan Scan, problems []verify.Problem) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if scan.ID == "" {
		scan.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin scan transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO scans (id, root, cause, started_at, finished_at, files, refs, broken) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		scan.ID, scan.Root, scan.Cause, scan.StartedAt.Unix(), scan.FinishedAt.Unix(), scan.Files, scan.Refs, scan.Broken,
	)
	if err != nil {
		return "", fmt.Errorf("insert scan: %w", err)
	}

	for _, p := range problems {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO problems (scan_id, file, line, kind, target, reason) VALUES (?, ?, ?, ?, ?, ?)",
			scan.ID, p.File, p.Line, string(p.Kind), p.Target, p.Reason,
		)
		if err != nil {
			return "", fmt.Errorf("insert problem: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit scan: %w", err)
	}
	return scan.ID, nil
}

// LastScan returns the most recent pass, or nil when none was recorded yet.
func (s *Store) LastScan(ctx context.Context) (*Scan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, root, cause, started_at, finished_at, files, refs, broken FROM scans ORDER BY started_at DESC, id DESC LIMIT 1",
	)
	scan, err := scanRow(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last scan: %w", err)
	}
	return scan, nil
}

// Scans returns up to limit passes, newest first.
func (s *Store) Scans(ctx context.Context, limit int) ([]Scan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, root, cause, started_at, finished_at, files, refs, broken FROM scans ORDER BY started_at DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query scans: %w", err)
	}
	defer rows.Close()

	var scans []Scan
	for rows.Next() {
		scan, err := scanRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		scans = append(scans, *scan)
	}
	return scans, rows.Err()
}

// Problems returns the broken references recorded for one pass.
func (s *Store) Problems(ctx context.Context, scanID string) ([]verify.Problem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT file, line, kind, target, reason FROM problems WHERE scan_id = ? ORDER BY id",
		scanID,
	)
	if err != nil {
		return nil, fmt.Errorf("query problems: %w", err)
	}
	defer rows.Close()

	var problems []verify.Problem
	for rows.Next() {
		var p verify.Problem
		var kind string
		if err := rows.Scan(&p.File, &p.Line, &kind, &p.Target, &p.Reason); err != nil {
			return nil, fmt.Errorf("scan problem row: %w", err)
		}
		p.Kind = document.RefKind(kind)
		problems = append(problems, p)
	}
	return problems, rows.Err()
}

// SetFingerprint upserts the last known fingerprint for a document path.
func (s *Store) SetFingerprint(ctx context.Context, path, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fingerprints (path, fingerprint, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET fingerprint = excluded.fingerprint, updated_at = excluded.updated_at`,
		path, fingerprint, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert fingerprint: %w", err)
	}
	return nil
}

// Fingerprint returns the stored fingerprint for a document path, or the
// empty string when none is known.
func (s *Store) Fingerprint(ctx context.Context, path string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var fp string
	err := s.db.QueryRowContext(ctx, "SELECT fingerprint FROM fingerprints WHERE path = ?", path).Scan(&fp)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query fingerprint: %w", err)
	}
	return fp, nil
}

func scanRow(scan func(dest ...any) error) (*Scan, error) {
	var s Scan
	var started, finished int64
	if err := scan(&s.ID, &s.Root, &s.Cause, &started, &finished, &s.Files, &s.Refs, &s.Broken); err != nil {
		return nil, err
	}
	s.StartedAt = time.Unix(started, 0).UTC()
	s.FinishedAt = time.Unix(finished, 0).UTC()
	return &s, nil
}
