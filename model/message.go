package model

import (
	"encoding/json"
	"time"
)

// Message roles. Tool messages answer a specific ToolCall from the
// immediately preceding assistant message.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents one turn in the conversation history sent to the model.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall // set only on assistant messages that request tools
	ToolCallID string     // set only on tool messages, back-references the request
	Timestamp  time.Time
}

// ToolCall is a single tool invocation requested by the model. Arguments is
// the raw JSON payload as emitted by the provider; it is not validated until
// dispatch.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// SystemMessage builds a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content, Timestamp: time.Now()}
}

// UserMessage builds a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, Timestamp: time.Now()}
}

// AssistantMessage builds an assistant-role message carrying tool requests.
// Content may be empty when the turn only requests tools.
func AssistantMessage(content string, toolCalls []ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: toolCalls, Timestamp: time.Now()}
}

// ToolResultMessage builds a tool-role message answering the request with
// the given call ID.
func ToolResultMessage(callID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID, Timestamp: time.Now()}
}
