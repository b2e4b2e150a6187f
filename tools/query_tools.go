package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"chatlens/storage"
)

const (
	defaultSearchLimit = 20
	defaultRankLimit   = 10
	maxResultLimit     = 100
)

// RegisterQueryTools populates the registry with the read-only data-query
// tools the agent advertises to the model.
func RegisterQueryTools(r *Registry) error {
	register := []struct {
		def   mcptypes.Tool
		exec  Executor
		shape Shaper
	}{
		{searchMessagesDef(), execSearchMessages, shapeMessages},
		{recentMessagesDef(), execRecentMessages, shapeMessages},
		{topMembersDef(), execTopMembers, shapeMembers},
		{activityDef("activity_by_hour", "Count messages grouped by hour of day (00-23, UTC)."), execActivity(storageActivityByHour), shapeBuckets("hour")},
		{activityDef("activity_by_weekday", "Count messages grouped by weekday (0=Sunday through 6=Saturday)."), execActivity(storageActivityByWeekday), shapeBuckets("weekday")},
		{activityDef("activity_by_day", "Count messages grouped by calendar day (YYYY-MM-DD)."), execActivity(storageActivityByDay), shapeBuckets("day")},
		{messageStatsDef(), execMessageStats, shapeStats},
	}

	for _, t := range register {
		if err := r.Register(t.def, t.exec, t.shape); err != nil {
			return err
		}
	}
	return nil
}

func yearMonthProps() map[string]any {
	return map[string]any{
		"year": map[string]any{
			"type":        "integer",
			"description": "Restrict to this calendar year, e.g. 2024",
		},
		"month": map[string]any{
			"type":        "integer",
			"description": "Restrict to this month (1-12) of the given year",
		},
	}
}

func searchMessagesDef() mcptypes.Tool {
	props := yearMonthProps()
	props["query"] = map[string]any{
		"type":        "string",
		"description": "Text to search for in message content (case-insensitive)",
	}
	props["limit"] = map[string]any{
		"type":        "integer",
		"description": "Maximum number of results (default 20, max 100)",
	}
	props["offset"] = map[string]any{
		"type":        "integer",
		"description": "Number of results to skip, for pagination",
	}
	return mcptypes.Tool{
		Name:        "search_messages",
		Description: "Search chat messages by keyword, newest first, optionally restricted to a year or month.",
		InputSchema: mcptypes.ToolInputSchema{
			Type:       "object",
			Properties: props,
			Required:   []string{"query"},
		},
	}
}

func recentMessagesDef() mcptypes.Tool {
	props := yearMonthProps()
	props["limit"] = map[string]any{
		"type":        "integer",
		"description": "Maximum number of results (default 20, max 100)",
	}
	return mcptypes.Tool{
		Name:        "recent_messages",
		Description: "Return the most recent chat messages, optionally restricted to a year or month.",
		InputSchema: mcptypes.ToolInputSchema{
			Type:       "object",
			Properties: props,
		},
	}
}

func topMembersDef() mcptypes.Tool {
	props := yearMonthProps()
	props["limit"] = map[string]any{
		"type":        "integer",
		"description": "Number of members to return (default 10, max 100)",
	}
	return mcptypes.Tool{
		Name:        "top_members",
		Description: "Rank chat members by message count, optionally restricted to a year or month.",
		InputSchema: mcptypes.ToolInputSchema{
			Type:       "object",
			Properties: props,
		},
	}
}

func activityDef(name, description string) mcptypes.Tool {
	return mcptypes.Tool{
		Name:        name,
		Description: description + " Optionally restricted to a year or month.",
		InputSchema: mcptypes.ToolInputSchema{
			Type:       "object",
			Properties: yearMonthProps(),
		},
	}
}

func messageStatsDef() mcptypes.Tool {
	return mcptypes.Tool{
		Name:        "message_stats",
		Description: "Summarize the archive: total messages, distinct authors, first and last message time. Optionally restricted to a year or month.",
		InputSchema: mcptypes.ToolInputSchema{
			Type:       "object",
			Properties: yearMonthProps(),
		},
	}
}

func callFilter(args map[string]any, tc *Context) *storage.TimeFilter {
	return ResolveTimeRange(intArg(args, "year", 0), intArg(args, "month", 0), tc.Filter)
}

func clampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > maxResultLimit {
		return maxResultLimit
	}
	return limit
}

func execSearchMessages(ctx context.Context, args map[string]any, tc *Context) (any, error) {
	query := stringArg(args, "query")
	if query == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	limit := clampLimit(intArg(args, "limit", defaultSearchLimit))
	offset := intArg(args, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	return tc.Store.Search(ctx, query, callFilter(args, tc), limit, offset)
}

func execRecentMessages(ctx context.Context, args map[string]any, tc *Context) (any, error) {
	limit := clampLimit(intArg(args, "limit", defaultSearchLimit))
	return tc.Store.Recent(ctx, callFilter(args, tc), limit)
}

func execTopMembers(ctx context.Context, args map[string]any, tc *Context) (any, error) {
	limit := clampLimit(intArg(args, "limit", defaultRankLimit))
	return tc.Store.TopMembers(ctx, callFilter(args, tc), limit)
}

type activityQuery func(ctx context.Context, store *storage.Store, filter *storage.TimeFilter) ([]storage.BucketCount, error)

func storageActivityByHour(ctx context.Context, s *storage.Store, f *storage.TimeFilter) ([]storage.BucketCount, error) {
	return s.ActivityByHour(ctx, f)
}

func storageActivityByWeekday(ctx context.Context, s *storage.Store, f *storage.TimeFilter) ([]storage.BucketCount, error) {
	return s.ActivityByWeekday(ctx, f)
}

func storageActivityByDay(ctx context.Context, s *storage.Store, f *storage.TimeFilter) ([]storage.BucketCount, error) {
	return s.ActivityByDay(ctx, f)
}

func execActivity(query activityQuery) Executor {
	return func(ctx context.Context, args map[string]any, tc *Context) (any, error) {
		return query(ctx, tc.Store, callFilter(args, tc))
	}
}

func execMessageStats(ctx context.Context, args map[string]any, tc *Context) (any, error) {
	return tc.Store.Stats(ctx, callFilter(args, tc))
}

// Result shapers render payloads into compact text the model can quote from.

func shapeMessages(payload any) (string, error) {
	msgs, ok := payload.([]storage.ChatMessage)
	if !ok {
		return "", fmt.Errorf("unexpected payload type %T", payload)
	}
	if len(msgs) == 0 {
		return "No messages found.", nil
	}
	var b strings.Builder
	for _, m := range msgs {
		ts := time.Unix(m.SentAt, 0).UTC().Format("2006-01-02 15:04")
		fmt.Fprintf(&b, "[%s] %s: %s\n", ts, m.Author, m.Content)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func shapeMembers(payload any) (string, error) {
	members, ok := payload.([]storage.MemberCount)
	if !ok {
		return "", fmt.Errorf("unexpected payload type %T", payload)
	}
	if len(members) == 0 {
		return "No messages found.", nil
	}
	var b strings.Builder
	for i, m := range members {
		fmt.Fprintf(&b, "%d. %s: %d messages\n", i+1, m.Author, m.Count)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func shapeBuckets(label string) Shaper {
	return func(payload any) (string, error) {
		buckets, ok := payload.([]storage.BucketCount)
		if !ok {
			return "", fmt.Errorf("unexpected payload type %T", payload)
		}
		if len(buckets) == 0 {
			return "No messages found.", nil
		}
		var b strings.Builder
		for _, bucket := range buckets {
			fmt.Fprintf(&b, "%s %s: %d\n", label, bucket.Bucket, bucket.Count)
		}
		return strings.TrimRight(b.String(), "\n"), nil
	}
}

func shapeStats(payload any) (string, error) {
	stats, ok := payload.(*storage.ArchiveStats)
	if !ok {
		return "", fmt.Errorf("unexpected payload type %T", payload)
	}
	if stats.TotalMessages == 0 {
		return "No messages found.", nil
	}
	first := time.Unix(stats.FirstSentAt, 0).UTC().Format("2006-01-02 15:04")
	last := time.Unix(stats.LastSentAt, 0).UTC().Format("2006-01-02 15:04")
	return fmt.Sprintf("%d messages from %d distinct authors between %s and %s.",
		stats.TotalMessages, stats.DistinctAuthors, first, last), nil
}
