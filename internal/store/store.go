// Package store persists the durable, strictly-ordered chat message log.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Message is one immutable row of the message log. IDs are assigned by the
// database at insert time and are strictly increasing; they are never reused
// or reordered.
type Message struct {
	ID       int64  `json:"id"`
	Content  string `json:"content"`
	Username string `json:"username"`
	Room     string `json:"room"`
}

const schema = `
CREATE TABLE IF NOT EXISTS messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    content TEXT NOT NULL,
    username TEXT NOT NULL,
    room TEXT
)`

// Store handles database operations for the message log.
type Store struct {
	db *sql.DB
}

// Open opens the SQLite message store at path and ensures the schema exists.
// The schema bootstrap is idempotent.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("store path is required")
	}

	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure messages table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append inserts a new message and returns its newly assigned id. The row is
// visible to queries as soon as Append returns.
func (s *Store) Append(ctx context.Context, content, username, room string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (content, username, room) VALUES (?, ?, ?)`,
		content, username, room,
	)
	if err != nil {
		return 0, &PersistenceError{Op: "append", Err: err}
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, &PersistenceError{Op: "append", Err: err}
	}
	return id, nil
}

// After returns all messages in room with an id greater than offset, ordered
// ascending by id. An empty slice (not an error) is returned when none exist.
func (s *Store) After(ctx context.Context, room string, offset int64) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, username, room FROM messages WHERE room = ? AND id > ? ORDER BY id ASC`,
		room, offset,
	)
	if err != nil {
		return nil, &PersistenceError{Op: "query", Err: err}
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Content, &m.Username, &m.Room); err != nil {
			return nil, &PersistenceError{Op: "scan", Err: err}
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "query", Err: err}
	}

	return messages, nil
}
