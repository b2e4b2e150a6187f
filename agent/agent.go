// Package agent drives the round-bounded tool-calling loop that answers a
// question against the chat archive: ask the model, dispatch any requested
// tools, fold results back into the conversation, and repeat until the model
// answers directly or the round budget forces a final summary.
package agent

import (
	"chatlens/model"
	"chatlens/tools"
)

const (
	// DefaultMaxToolRounds bounds how many tool-dispatch rounds a run may
	// consume before the forced finish. This exists so a model that never
	// stops requesting tools still terminates.
	DefaultMaxToolRounds = 5

	defaultSystemPrompt = "You are an assistant that answers questions about an imported chat-log archive. " +
		"Use the available tools to look up messages, member activity, and statistics before answering. " +
		"Ground every claim in tool results; if the data does not support an answer, say so."

	forcedFinishPrompt = "You have used all available tool calls. " +
		"Answer the question now using only the information already gathered, without requesting more tools."
)

// Result is the final outcome of one run.
type Result struct {
	Content    string
	ToolsUsed  []string
	ToolRounds int
}

// EventType identifies a streaming event.
type EventType string

const (
	EventContent    EventType = "content"
	EventToolStart  EventType = "tool_start"
	EventToolResult EventType = "tool_result"
	EventDone       EventType = "done"
	EventError      EventType = "error"
)

// Event is one item of the streaming event sequence consumed by the caller.
// Content events carry text fragments; tool events carry the call id, tool
// name, and either the parsed arguments (tool_start) or the result text
// (tool_result). The sequence always ends with exactly one done or error
// event.
type Event struct {
	Type    EventType
	Content string
	ID      string
	Name    string
	Args    map[string]any
	Err     string
}

// Agent runs the orchestration loop. The struct itself holds only
// configuration; per-run state (history, counters) lives inside
// Execute/ExecuteStream, so one Agent may serve concurrent runs.
type Agent struct {
	provider      model.Provider
	registry      *tools.Registry
	dispatcher    *tools.Dispatcher
	toolCtx       *tools.Context
	systemPrompt  string
	maxToolRounds int
	temperature   float64
	maxTokens     int64
}

// Option configures an Agent.
type Option func(*Agent)

// WithSystemPrompt overrides the default system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) { a.systemPrompt = prompt }
}

// WithMaxToolRounds sets the tool-round budget. Values below 1 keep the
// default.
func WithMaxToolRounds(rounds int) Option {
	return func(a *Agent) {
		if rounds > 0 {
			a.maxToolRounds = rounds
		}
	}
}

// WithTemperature sets the sampling temperature for model calls.
func WithTemperature(temperature float64) Option {
	return func(a *Agent) { a.temperature = temperature }
}

// WithMaxTokens sets the per-call output token cap.
func WithMaxTokens(maxTokens int64) Option {
	return func(a *Agent) { a.maxTokens = maxTokens }
}

// WithToolContext sets the per-run tool environment (store, dataset,
// ambient time filter).
func WithToolContext(tc *tools.Context) Option {
	return func(a *Agent) { a.toolCtx = tc }
}

// New creates an Agent over the given provider and tool registry.
func New(provider model.Provider, registry *tools.Registry, opts ...Option) *Agent {
	a := &Agent{
		provider:      provider,
		registry:      registry,
		dispatcher:    tools.NewDispatcher(registry),
		toolCtx:       &tools.Context{},
		systemPrompt:  defaultSystemPrompt,
		maxToolRounds: DefaultMaxToolRounds,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// chatOptions builds the model-call options for one round. Tool advertisement
// is what makes a round tool-eligible; the forced-finish round passes
// withTools=false so a further tool decision is structurally impossible.
func (a *Agent) chatOptions(withTools bool) model.ChatOptions {
	opts := model.ChatOptions{
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	}
	if withTools {
		opts.Tools = a.registry.Definitions()
	}
	return opts
}

func (a *Agent) initialHistory(question string) []model.Message {
	return []model.Message{
		model.SystemMessage(a.systemPrompt),
		model.UserMessage(question),
	}
}

// recordTools appends newly used tool names, keeping each name once.
func recordTools(used []string, results []tools.ExecutionResult) []string {
	for _, r := range results {
		seen := false
		for _, name := range used {
			if name == r.Name {
				seen = true
				break
			}
		}
		if !seen {
			used = append(used, r.Name)
		}
	}
	return used
}
