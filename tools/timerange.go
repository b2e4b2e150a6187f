package tools

import (
	"time"

	"chatlens/storage"
)

// ResolveTimeRange merges per-call year/month arguments with the ambient
// filter. A zero year falls back to the ambient filter (which may be nil).
// Year alone selects the full calendar year; year plus month selects the
// full calendar month. Month end is computed as day 0 of the following
// month, which handles 28/29/30/31-day months uniformly.
func ResolveTimeRange(year, month int, ambient *storage.TimeFilter) *storage.TimeFilter {
	if year == 0 {
		return ambient
	}

	var start, end time.Time
	if month == 0 {
		start = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		end = time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)
	} else {
		start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		end = time.Date(year, time.Month(month)+1, 0, 23, 59, 59, 0, time.UTC)
	}

	return &storage.TimeFilter{Start: start.Unix(), End: end.Unix()}
}

// intArg reads an optional integer argument from parsed JSON, where numbers
// arrive as float64. Missing or non-numeric values yield the fallback.
func intArg(args map[string]any, key string, fallback int) int {
	v, ok := args[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return fallback
	}
}

// stringArg reads an optional string argument from parsed JSON.
func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}
