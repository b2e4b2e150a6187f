package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func seedMessages(t *testing.T, store *Store, msgs []ChatMessage) {
	t.Helper()
	for _, m := range msgs {
		_, err := store.db.Exec(
			`INSERT INTO messages (id, author, content, sent_at) VALUES (?, ?, ?, ?)`,
			m.ID, m.Author, m.Content, m.SentAt)
		if err != nil {
			t.Fatalf("seed insert error = %v", err)
		}
	}
}

func ts(value string) int64 {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t.Unix()
}

func TestImportJSON(t *testing.T) {
	store := openTestStore(t)

	export := `[
		{"id": "m1", "author": "alice", "text": "hello world", "timestamp": 1700000000},
		{"author": "bob", "text": "good morning", "timestamp": "2023-11-15T08:30:00Z"},
		{"author": "alice", "text": "deploy went fine", "timestamp": 1700010000}
	]`
	path := filepath.Join(t.TempDir(), "export.json")
	if err := os.WriteFile(path, []byte(export), 0644); err != nil {
		t.Fatal(err)
	}

	count, err := store.ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON() error = %v", err)
	}
	if count != 3 {
		t.Errorf("ImportJSON() count = %d, want 3", count)
	}

	msgs, err := store.Recent(context.Background(), nil, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("Recent() returned %d messages, want 3", len(msgs))
	}
	for _, m := range msgs {
		if m.ID == "" {
			t.Errorf("imported message without id: %+v", m)
		}
	}
	if msgs[0].Content != "deploy went fine" {
		t.Errorf("Recent() first message = %q, want newest", msgs[0].Content)
	}
}

func TestImportJSONBadTimestamp(t *testing.T) {
	store := openTestStore(t)

	path := filepath.Join(t.TempDir(), "export.json")
	if err := os.WriteFile(path, []byte(`[{"author": "a", "text": "x", "timestamp": "soon"}]`), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := store.ImportJSON(path); err == nil {
		t.Error("ImportJSON() with bad timestamp: expected error, got nil")
	}
}

func TestSearch(t *testing.T) {
	store := openTestStore(t)
	seedMessages(t, store, []ChatMessage{
		{ID: "1", Author: "alice", Content: "the deploy failed again", SentAt: 100},
		{ID: "2", Author: "bob", Content: "Deploy is green now", SentAt: 200},
		{ID: "3", Author: "carol", Content: "lunch anyone?", SentAt: 300},
		{ID: "4", Author: "alice", Content: "redeploying tonight", SentAt: 400},
	})

	tests := []struct {
		name    string
		query   string
		filter  *TimeFilter
		limit   int
		offset  int
		wantIDs []string
	}{
		{"case insensitive newest first", "deploy", nil, 10, 0, []string{"4", "2", "1"}},
		{"time window", "deploy", &TimeFilter{Start: 150, End: 350}, 10, 0, []string{"2"}},
		{"pagination", "deploy", nil, 2, 1, []string{"2", "1"}},
		{"no match", "kubernetes", nil, 10, 0, nil},
		{"like metacharacters literal", "100%", nil, 10, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Search(context.Background(), tt.query, tt.filter, tt.limit, tt.offset)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("Search() returned %d messages, want %d", len(got), len(tt.wantIDs))
			}
			for i, m := range got {
				if m.ID != tt.wantIDs[i] {
					t.Errorf("Search()[%d].ID = %s, want %s", i, m.ID, tt.wantIDs[i])
				}
			}
		})
	}
}

func TestTopMembers(t *testing.T) {
	store := openTestStore(t)
	seedMessages(t, store, []ChatMessage{
		{ID: "1", Author: "alice", Content: "a", SentAt: 100},
		{ID: "2", Author: "alice", Content: "b", SentAt: 200},
		{ID: "3", Author: "bob", Content: "c", SentAt: 300},
		{ID: "4", Author: "bob", Content: "d", SentAt: 400},
		{ID: "5", Author: "alice", Content: "e", SentAt: 500},
		{ID: "6", Author: "carol", Content: "f", SentAt: 600},
	})

	members, err := store.TopMembers(context.Background(), nil, 2)
	if err != nil {
		t.Fatalf("TopMembers() error = %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("TopMembers() returned %d, want 2", len(members))
	}
	if members[0].Author != "alice" || members[0].Count != 3 {
		t.Errorf("TopMembers()[0] = %+v, want alice/3", members[0])
	}
	if members[1].Author != "bob" || members[1].Count != 2 {
		t.Errorf("TopMembers()[1] = %+v, want bob/2", members[1])
	}

	// The window excludes alice's early messages, flipping the ranking.
	windowed, err := store.TopMembers(context.Background(), &TimeFilter{Start: 250}, 10)
	if err != nil {
		t.Fatalf("TopMembers() error = %v", err)
	}
	if windowed[0].Author != "bob" {
		t.Errorf("TopMembers() windowed leader = %s, want bob", windowed[0].Author)
	}
}

func TestActivityBuckets(t *testing.T) {
	store := openTestStore(t)
	seedMessages(t, store, []ChatMessage{
		{ID: "1", Author: "a", Content: "x", SentAt: ts("2024-03-04T09:15:00Z")}, // Monday
		{ID: "2", Author: "a", Content: "x", SentAt: ts("2024-03-04T09:45:00Z")},
		{ID: "3", Author: "b", Content: "x", SentAt: ts("2024-03-05T14:00:00Z")}, // Tuesday
	})

	hours, err := store.ActivityByHour(context.Background(), nil)
	if err != nil {
		t.Fatalf("ActivityByHour() error = %v", err)
	}
	if len(hours) != 2 || hours[0].Bucket != "09" || hours[0].Count != 2 {
		t.Errorf("ActivityByHour() = %+v, want 09:2 then 14:1", hours)
	}

	days, err := store.ActivityByDay(context.Background(), nil)
	if err != nil {
		t.Fatalf("ActivityByDay() error = %v", err)
	}
	if len(days) != 2 || days[0].Bucket != "2024-03-04" || days[0].Count != 2 {
		t.Errorf("ActivityByDay() = %+v, want 2024-03-04:2 then 2024-03-05:1", days)
	}

	weekdays, err := store.ActivityByWeekday(context.Background(), nil)
	if err != nil {
		t.Fatalf("ActivityByWeekday() error = %v", err)
	}
	// 1 = Monday, 2 = Tuesday in strftime %w.
	if len(weekdays) != 2 || weekdays[0].Bucket != "1" || weekdays[0].Count != 2 {
		t.Errorf("ActivityByWeekday() = %+v, want 1:2 then 2:1", weekdays)
	}
}

func TestStats(t *testing.T) {
	store := openTestStore(t)

	empty, err := store.Stats(context.Background(), nil)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if empty.TotalMessages != 0 || empty.FirstSentAt != 0 || empty.LastSentAt != 0 {
		t.Errorf("Stats() on empty store = %+v, want zeros", empty)
	}

	seedMessages(t, store, []ChatMessage{
		{ID: "1", Author: "alice", Content: "a", SentAt: 100},
		{ID: "2", Author: "bob", Content: "b", SentAt: 300},
		{ID: "3", Author: "alice", Content: "c", SentAt: 200},
	})

	stats, err := store.Stats(context.Background(), nil)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalMessages != 3 || stats.DistinctAuthors != 2 {
		t.Errorf("Stats() = %+v, want 3 messages / 2 authors", stats)
	}
	if stats.FirstSentAt != 100 || stats.LastSentAt != 300 {
		t.Errorf("Stats() range = [%d, %d], want [100, 300]", stats.FirstSentAt, stats.LastSentAt)
	}

	windowed, err := store.Stats(context.Background(), &TimeFilter{Start: 150, End: 250})
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if windowed.TotalMessages != 1 || windowed.FirstSentAt != 200 {
		t.Errorf("Stats() windowed = %+v, want 1 message at 200", windowed)
	}
}
