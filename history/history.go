// Package history keeps a local sqlite record of dispatched utterances and
// per-command usage counts.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const timeLayout = "2006-01-02T15:04:05.000000000Z"

type Entry struct {
	ID          string
	UtteranceID string
	UserInput   string
	// Command is the action name, empty when the text was typed.
	Command    string
	Response   string
	Success    bool
	ExecutedAt time.Time
}

type Stat struct {
	Command  string
	UseCount int
	LastUsed time.Time
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("cannot create history directory %q: %w", dir, err)
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, openError(path, err)
	}
	// sqlite serializes writers anyway
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, openError(path, err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating history: %w", err)
	}
	return s, nil
}

func openError(path string, err error) error {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CANTOPEN {
		return fmt.Errorf("cannot open history database %q: permission denied or not a file", path)
	}
	return fmt.Errorf("opening history database %q: %w", path, err)
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS command_history (
			id TEXT PRIMARY KEY,
			utterance_id TEXT,
			user_input TEXT NOT NULL,
			command TEXT,
			response TEXT,
			success INTEGER NOT NULL DEFAULT 1,
			executed_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_command_history_executed_at
			ON command_history (executed_at);

		CREATE TABLE IF NOT EXISTS command_stats (
			command TEXT PRIMARY KEY,
			use_count INTEGER NOT NULL DEFAULT 1,
			last_used TEXT NOT NULL
		);
	`)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores e and bumps the usage count of its command. ID and
// ExecutedAt are filled in when zero.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.ExecutedAt.IsZero() {
		e.ExecutedAt = s.now()
	}
	at := e.ExecutedAt.UTC().Format(timeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO command_history (id, utterance_id, user_input, command, response, success, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.UtteranceID, e.UserInput, e.Command, e.Response, e.Success, at); err != nil {
		return fmt.Errorf("recording history: %w", err)
	}

	if e.Command != "" {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO command_stats (command, use_count, last_used) VALUES (?, 1, ?)
			ON CONFLICT(command) DO UPDATE SET use_count = use_count + 1, last_used = excluded.last_used
		`, e.Command, at); err != nil {
			return fmt.Errorf("updating command stats: %w", err)
		}
	}
	return tx.Commit()
}

// Recent returns up to n entries, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(utterance_id, ''), user_input, COALESCE(command, ''),
		       COALESCE(response, ''), success, executed_at
		FROM command_history
		ORDER BY executed_at DESC, rowid DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var at string
		if err := rows.Scan(&e.ID, &e.UtteranceID, &e.UserInput, &e.Command, &e.Response, &e.Success, &at); err != nil {
			return nil, err
		}
		if e.ExecutedAt, err = time.Parse(timeLayout, at); err != nil {
			return nil, fmt.Errorf("bad executed_at %q: %w", at, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// TopCommands returns the n most used commands.
func (s *Store) TopCommands(ctx context.Context, n int) ([]Stat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT command, use_count, last_used
		FROM command_stats
		ORDER BY use_count DESC, last_used DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Stat
	for rows.Next() {
		var st Stat
		var at string
		if err := rows.Scan(&st.Command, &st.UseCount, &at); err != nil {
			return nil, err
		}
		if st.LastUsed, err = time.Parse(timeLayout, at); err != nil {
			return nil, fmt.Errorf("bad last_used %q: %w", at, err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
