// Package tools provides the registry of data-query tools advertised to the
// model, the dispatcher that validates and executes requested calls, and the
// shared time-range policy the query tools apply.
package tools

import (
	"chatlens/storage"
)

// Context is the read-only environment handed to every executor for the
// duration of one agent run. It is never mutated during the run; tools that
// accept their own year/month arguments derive a local filter instead of
// touching the ambient one.
type Context struct {
	Dataset string
	Filter  *storage.TimeFilter
	Store   *storage.Store
}
