package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// ExportedMessage is one entry of a chat-log JSON export. Timestamp accepts
// either epoch seconds or RFC 3339 text, since exports differ between chat
// platforms.
type ExportedMessage struct {
	ID        string          `json:"id,omitempty"`
	Author    string          `json:"author"`
	Text      string          `json:"text"`
	Timestamp json.RawMessage `json:"timestamp"`
}

// ImportJSON loads a chat-log export (a JSON array of messages) into the
// store in a single transaction. Entries without an id get a generated one.
// Returns the number of imported messages.
func (s *Store) ImportJSON(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read export file: %w", err)
	}

	var exported []ExportedMessage
	if err := json.Unmarshal(data, &exported); err != nil {
		return 0, fmt.Errorf("failed to parse export file: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO messages (id, author, content, sent_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	count := 0
	for i, msg := range exported {
		sentAt, err := parseTimestamp(msg.Timestamp)
		if err != nil {
			return 0, fmt.Errorf("entry %d: %w", i, err)
		}

		id := msg.ID
		if id == "" {
			id = uuid.New().String()
		}

		if _, err := stmt.Exec(id, msg.Author, msg.Text, sentAt); err != nil {
			return 0, fmt.Errorf("entry %d: failed to insert: %w", i, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}

	return count, nil
}

func parseTimestamp(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("missing timestamp")
	}

	var epoch int64
	if err := json.Unmarshal(raw, &epoch); err == nil {
		return epoch, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return 0, fmt.Errorf("unrecognized timestamp %s", string(raw))
	}

	t, err := time.Parse(time.RFC3339, text)
	if err != nil {
		return 0, fmt.Errorf("unrecognized timestamp %q", text)
	}
	return t.Unix(), nil
}
