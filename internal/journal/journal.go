// Package journal keeps an append-only SQLite record of agent invocations.
// The journal is for auditing only; nothing reads it back to make decisions.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration

	"procagent/internal/logging"
)

// ErrNotFound is returned when no entry has the requested id.
var ErrNotFound = errors.New("journal entry not found")

// Entry is one recorded invocation.
type Entry struct {
	ID           string    `json:"id"`
	Mode         string    `json:"mode"`
	Mission      string    `json:"mission"`
	Stimulus     string    `json:"stimulus"`
	ProcessKey   string    `json:"process_key,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	Result       string    `json:"result"`
	Error        string    `json:"error,omitempty"`
	ThinkingMs   int64     `json:"thinking_ms"`
	ProcessingMs int64     `json:"processing_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// Recorder accepts journal entries.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Store is a SQLite backed journal.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open creates or opens the journal at path. ":memory:" opens a private
// in-memory journal.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, dbPath: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	logging.Get(logging.CategoryJournal).Info("journal opened: %s", path)
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS invocations (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		mission TEXT NOT NULL,
		stimulus TEXT NOT NULL,
		process_key TEXT,
		reason TEXT,
		result TEXT NOT NULL,
		error TEXT,
		thinking_ms INTEGER NOT NULL,
		processing_ms INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_invocations_created ON invocations(created_at);
	CREATE INDEX IF NOT EXISTS idx_invocations_result ON invocations(result);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores an entry. A zero CreatedAt is set to now.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		return fmt.Errorf("journal entry has no id")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invocations (id, mode, mission, stimulus, process_key, reason,
			result, error, thinking_ms, processing_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Mode, e.Mission, e.Stimulus, e.ProcessKey, e.Reason,
		e.Result, e.Error, e.ThinkingMs, e.ProcessingMs, e.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record invocation: %w", err)
	}
	logging.Get(logging.CategoryJournal).Debug("recorded invocation %s (%s)", e.ID, e.Result)
	return nil
}

const selectColumns = `SELECT id, mode, mission, stimulus, process_key, reason, result,
	error, thinking_ms, processing_ms, created_at FROM invocations`

// Get returns the entry with the given id.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load invocation: %w", err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query invocations: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invocation: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// CountByResult returns how many invocations ended with each result.
func (s *Store) CountByResult(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT result, COUNT(*) FROM invocations GROUP BY result`)
	if err != nil {
		return nil, fmt.Errorf("failed to count invocations: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var result string
		var n int
		if err := rows.Scan(&result, &n); err != nil {
			return nil, err
		}
		out[result] = n
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(sc scanner) (*Entry, error) {
	var e Entry
	var processKey, reason, errText sql.NullString
	var created int64
	if err := sc.Scan(&e.ID, &e.Mode, &e.Mission, &e.Stimulus, &processKey, &reason,
		&e.Result, &errText, &e.ThinkingMs, &e.ProcessingMs, &created); err != nil {
		return nil, err
	}
	e.ProcessKey = processKey.String
	e.Reason = reason.String
	e.Error = errText.String
	e.CreatedAt = time.UnixMilli(created)
	return &e, nil
}
