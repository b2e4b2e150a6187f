package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatlens/model"
	"chatlens/storage"
)

func seededContext(t *testing.T) *Context {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	sent := func(value string) int64 {
		ts, err := time.Parse(time.RFC3339, value)
		require.NoError(t, err)
		return ts.Unix()
	}

	path := filepath.Join(t.TempDir(), "export.json")
	writeExport(t, path, []map[string]any{
		{"author": "alice", "text": "deploy finished", "timestamp": sent("2024-02-10T09:00:00Z")},
		{"author": "bob", "text": "deploy broke prod", "timestamp": sent("2024-02-29T14:00:00Z")},
		{"author": "alice", "text": "rollback done", "timestamp": sent("2024-03-01T08:00:00Z")},
		{"author": "carol", "text": "retro scheduled", "timestamp": sent("2024-03-02T10:00:00Z")},
		{"author": "alice", "text": "deploy v2 out", "timestamp": sent("2024-03-03T11:00:00Z")},
	})
	_, err = store.ImportJSON(path)
	require.NoError(t, err)

	return &Context{Dataset: "test", Store: store}
}

func writeExport(t *testing.T, path string, entries []map[string]any) {
	t.Helper()
	data, err := json.Marshal(entries)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func TestQueryToolsThroughDispatcher(t *testing.T) {
	tc := seededContext(t)
	r := NewRegistry()
	require.NoError(t, RegisterQueryTools(r))
	d := NewDispatcher(r)

	t.Run("search scoped to leap month", func(t *testing.T) {
		results := d.ExecuteAll(context.Background(), []model.ToolCall{
			call("s1", "search_messages", `{"query": "deploy", "year": 2024, "month": 2}`),
		}, tc)
		require.Len(t, results, 1)
		require.False(t, results[0].Failed(), results[0].Err)
		// Feb 29 message is inside the leap-month window; March ones are not.
		assert.Contains(t, results[0].Text, "deploy broke prod")
		assert.Contains(t, results[0].Text, "deploy finished")
		assert.NotContains(t, results[0].Text, "deploy v2 out")
	})

	t.Run("top members", func(t *testing.T) {
		results := d.ExecuteAll(context.Background(), []model.ToolCall{
			call("t1", "top_members", `{"limit": 2}`),
		}, tc)
		require.Len(t, results, 1)
		require.False(t, results[0].Failed(), results[0].Err)
		assert.Contains(t, results[0].Text, "1. alice: 3 messages")
		assert.Contains(t, results[0].Text, "2. bob: 1 messages")
	})

	t.Run("message stats", func(t *testing.T) {
		results := d.ExecuteAll(context.Background(), []model.ToolCall{
			call("m1", "message_stats", `{"year": 2024, "month": 3}`),
		}, tc)
		require.Len(t, results, 1)
		require.False(t, results[0].Failed(), results[0].Err)
		assert.Contains(t, results[0].Text, "3 messages from 2 distinct authors")
	})

	t.Run("activity by day", func(t *testing.T) {
		results := d.ExecuteAll(context.Background(), []model.ToolCall{
			call("a1", "activity_by_day", `{"year": 2024, "month": 3}`),
		}, tc)
		require.Len(t, results, 1)
		require.False(t, results[0].Failed(), results[0].Err)
		assert.Contains(t, results[0].Text, "day 2024-03-01: 1")
	})

	t.Run("empty window", func(t *testing.T) {
		results := d.ExecuteAll(context.Background(), []model.ToolCall{
			call("e1", "recent_messages", `{"year": 2019}`),
		}, tc)
		require.Len(t, results, 1)
		require.False(t, results[0].Failed(), results[0].Err)
		assert.Equal(t, "No messages found.", results[0].Text)
	})
}

func TestAmbientFilterFallback(t *testing.T) {
	tc := seededContext(t)
	// Ambient filter restricts to March 2024; calls without year/month use it.
	tc.Filter = ResolveTimeRange(2024, 3, nil)

	r := NewRegistry()
	require.NoError(t, RegisterQueryTools(r))
	d := NewDispatcher(r)

	results := d.ExecuteAll(context.Background(), []model.ToolCall{
		call("f1", "search_messages", `{"query": "deploy"}`),
	}, tc)
	require.Len(t, results, 1)
	require.False(t, results[0].Failed(), results[0].Err)
	assert.Contains(t, results[0].Text, "deploy v2 out")
	assert.NotContains(t, results[0].Text, "deploy broke prod")
}
