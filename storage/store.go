// Package storage persists the imported chat-log archive in SQLite and
// exposes the read-only queries the agent's data tools are built on.
package storage

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// ChatMessage is one imported chat-log entry.
type ChatMessage struct {
	ID      string
	Author  string
	Content string
	SentAt  int64 // epoch seconds
}

// TimeFilter is an inclusive [Start, End] window in epoch seconds.
// A zero bound leaves that side open.
type TimeFilter struct {
	Start int64
	End   int64
}

// Store wraps the chat-log database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the chat-log database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &Store{db: db}

	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		author TEXT NOT NULL,
		content TEXT NOT NULL,
		sent_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_sent_at ON messages(sent_at);
	CREATE INDEX IF NOT EXISTS idx_messages_author ON messages(author);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// timeClauses appends WHERE fragments and args for the given filter.
// A nil filter or zero bound adds nothing for that side.
func timeClauses(filter *TimeFilter, clauses []string, args []any) ([]string, []any) {
	if filter == nil {
		return clauses, args
	}
	if filter.Start > 0 {
		clauses = append(clauses, "sent_at >= ?")
		args = append(args, filter.Start)
	}
	if filter.End > 0 {
		clauses = append(clauses, "sent_at <= ?")
		args = append(args, filter.End)
	}
	return clauses, args
}
