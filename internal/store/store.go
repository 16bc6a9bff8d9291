// Package store is the session ledger of source attempts, kept in SQLite.
//
// cycleglobe keeps no state across runs, so the command opens it with
// ":memory:"; a file path works too and is what the tests of Open exercise.
package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Attempt is one request to one source during one poll.
type Attempt struct {
	PollID string
	Source string
	OK     bool
	Err    string
	IsDay  bool      // valid when OK
	Expiry time.Time // valid when OK
	Dur    time.Duration
	At     time.Time
}

// SourceStats aggregates a source's attempts over the session.
type SourceStats struct {
	Source  string
	OK      int
	Failed  int
	LastErr string
	LastAt  time.Time
}

// Open creates a Store at dbPath, creating tables if needed.
// File-based databases use WAL mode.
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// A private name per Open, shared across this Store's pooled
		// connections only.
		connStr = "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		poll_id TEXT NOT NULL,
		source TEXT NOT NULL,
		ok INTEGER NOT NULL,
		err TEXT,
		is_day INTEGER DEFAULT 0,
		expiry_ms INTEGER DEFAULT 0,
		dur_ms INTEGER DEFAULT 0,
		at_ms INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_attempts_source ON attempts(source);
	CREATE INDEX IF NOT EXISTS idx_attempts_poll ON attempts(poll_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// RecordAttempt appends one attempt to the ledger.
func (s *Store) RecordAttempt(a Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expiryMs int64
	if !a.Expiry.IsZero() {
		expiryMs = a.Expiry.UnixMilli()
	}

	_, err := s.db.Exec(`
		INSERT INTO attempts (poll_id, source, ok, err, is_day, expiry_ms, dur_ms, at_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.PollID,
		a.Source,
		boolToInt(a.OK),
		a.Err,
		boolToInt(a.IsDay),
		expiryMs,
		a.Dur.Milliseconds(),
		a.At.UnixMilli(),
	)
	return err
}

// SourceStats returns per-source counts, in the order sources were first seen.
func (s *Store) SourceStats() ([]SourceStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT a.source,
			SUM(a.ok),
			SUM(1 - a.ok),
			MAX(a.at_ms),
			COALESCE((
				SELECT e.err FROM attempts e
				WHERE e.source = a.source AND e.ok = 0
				ORDER BY e.id DESC LIMIT 1
			), '')
		FROM attempts a
		GROUP BY a.source
		ORDER BY MIN(a.id)
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []SourceStats
	for rows.Next() {
		var st SourceStats
		var lastMs int64
		if err := rows.Scan(&st.Source, &st.OK, &st.Failed, &lastMs, &st.LastErr); err != nil {
			return nil, err
		}
		st.LastAt = time.UnixMilli(lastMs)
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// RecentAttempts returns up to limit attempts, newest first.
func (s *Store) RecentAttempts(limit int) ([]Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT poll_id, source, ok, COALESCE(err, ''), is_day, expiry_ms, dur_ms, at_ms
		FROM attempts
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var a Attempt
		var okInt, dayInt int
		var expiryMs, durMs, atMs int64
		if err := rows.Scan(&a.PollID, &a.Source, &okInt, &a.Err, &dayInt, &expiryMs, &durMs, &atMs); err != nil {
			return nil, err
		}
		a.OK = okInt != 0
		a.IsDay = dayInt != 0
		if expiryMs != 0 {
			a.Expiry = time.UnixMilli(expiryMs)
		}
		a.Dur = time.Duration(durMs) * time.Millisecond
		a.At = time.UnixMilli(atMs)
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// Prune keeps only the newest keep attempts and returns how many were removed.
func (s *Store) Prune(keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		DELETE FROM attempts
		WHERE id NOT IN (SELECT id FROM attempts ORDER BY id DESC LIMIT ?)
	`, keep)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Ping reports whether the database is reachable.
func (s *Store) Ping() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db.Ping()
}

// boolToInt converts a bool to an int for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
