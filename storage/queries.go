package storage

import (
	"context"
	"fmt"
	"strings"
)

// MemberCount ranks one author by message volume.
type MemberCount struct {
	Author string
	Count  int64
}

// BucketCount is one aggregation bucket (hour of day, weekday, or calendar
// day) with its message count.
type BucketCount struct {
	Bucket string
	Count  int64
}

// ArchiveStats summarizes the archive within a time window.
type ArchiveStats struct {
	TotalMessages   int64
	DistinctAuthors int64
	FirstSentAt     int64
	LastSentAt      int64
}

// Search returns messages whose content contains query (case-insensitive),
// newest first, restricted to the optional time window, paginated by
// limit/offset.
func (s *Store) Search(ctx context.Context, query string, filter *TimeFilter, limit, offset int) ([]ChatMessage, error) {
	clauses := []string{"content LIKE ? ESCAPE '\\'"}
	args := []any{"%" + escapeLike(query) + "%"}
	clauses, args = timeClauses(filter, clauses, args)

	q := fmt.Sprintf(`SELECT id, author, content, sent_at FROM messages
		WHERE %s ORDER BY sent_at DESC LIMIT ? OFFSET ?`, strings.Join(clauses, " AND "))
	args = append(args, limit, offset)

	return s.queryMessages(ctx, q, args...)
}

// Recent returns the newest messages in the optional time window.
func (s *Store) Recent(ctx context.Context, filter *TimeFilter, limit int) ([]ChatMessage, error) {
	clauses := []string{"1=1"}
	args := []any{}
	clauses, args = timeClauses(filter, clauses, args)

	q := fmt.Sprintf(`SELECT id, author, content, sent_at FROM messages
		WHERE %s ORDER BY sent_at DESC LIMIT ?`, strings.Join(clauses, " AND "))
	args = append(args, limit)

	return s.queryMessages(ctx, q, args...)
}

// TopMembers returns authors ranked by message count, descending. Ties break
// alphabetically so results are stable.
func (s *Store) TopMembers(ctx context.Context, filter *TimeFilter, limit int) ([]MemberCount, error) {
	clauses := []string{"1=1"}
	args := []any{}
	clauses, args = timeClauses(filter, clauses, args)

	q := fmt.Sprintf(`SELECT author, COUNT(*) AS n FROM messages
		WHERE %s GROUP BY author ORDER BY n DESC, author ASC LIMIT ?`, strings.Join(clauses, " AND "))
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query top members: %w", err)
	}
	defer rows.Close()

	var members []MemberCount
	for rows.Next() {
		var m MemberCount
		if err := rows.Scan(&m.Author, &m.Count); err != nil {
			return nil, fmt.Errorf("failed to scan member row: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// ActivityByHour returns message counts grouped by hour of day (00-23, UTC).
func (s *Store) ActivityByHour(ctx context.Context, filter *TimeFilter) ([]BucketCount, error) {
	return s.activity(ctx, "%H", filter)
}

// ActivityByWeekday returns message counts grouped by weekday (0=Sunday..6).
func (s *Store) ActivityByWeekday(ctx context.Context, filter *TimeFilter) ([]BucketCount, error) {
	return s.activity(ctx, "%w", filter)
}

// ActivityByDay returns message counts grouped by calendar day (YYYY-MM-DD).
func (s *Store) ActivityByDay(ctx context.Context, filter *TimeFilter) ([]BucketCount, error) {
	return s.activity(ctx, "%Y-%m-%d", filter)
}

func (s *Store) activity(ctx context.Context, format string, filter *TimeFilter) ([]BucketCount, error) {
	clauses := []string{"1=1"}
	args := []any{format}
	clauses, args = timeClauses(filter, clauses, args)

	q := fmt.Sprintf(`SELECT strftime(?, sent_at, 'unixepoch') AS bucket, COUNT(*) FROM messages
		WHERE %s GROUP BY bucket ORDER BY bucket ASC`, strings.Join(clauses, " AND "))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}
	defer rows.Close()

	var buckets []BucketCount
	for rows.Next() {
		var b BucketCount
		if err := rows.Scan(&b.Bucket, &b.Count); err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// Stats summarizes the archive within the optional time window. An empty
// window yields zero counts and zero timestamps.
func (s *Store) Stats(ctx context.Context, filter *TimeFilter) (*ArchiveStats, error) {
	clauses := []string{"1=1"}
	args := []any{}
	clauses, args = timeClauses(filter, clauses, args)

	q := fmt.Sprintf(`SELECT COUNT(*), COUNT(DISTINCT author),
		COALESCE(MIN(sent_at), 0), COALESCE(MAX(sent_at), 0)
		FROM messages WHERE %s`, strings.Join(clauses, " AND "))

	var stats ArchiveStats
	err := s.db.QueryRowContext(ctx, q, args...).Scan(
		&stats.TotalMessages, &stats.DistinctAuthors, &stats.FirstSentAt, &stats.LastSentAt)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	return &stats, nil
}

func (s *Store) queryMessages(ctx context.Context, q string, args ...any) ([]ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.Author, &m.Content, &m.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
