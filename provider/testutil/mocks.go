// Package testutil provides a scriptable mock provider for agent and
// provider tests.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"chatlens/model"
)

// ScriptedResponse is what the mock returns for one model call (one round).
type ScriptedResponse struct {
	Content      string
	ToolCalls    []model.ToolCall
	FinishReason string
	Err          error
}

// MockProvider implements model.Provider for testing. Responses are consumed
// in order, one per call; Complete and Stream draw from the same script so a
// test can exercise either entry point.
type MockProvider struct {
	// CompleteFunc and StreamFunc override the scripted behavior entirely
	// when set.
	CompleteFunc func(ctx context.Context, messages []model.Message, opts model.ChatOptions) (*model.Completion, error)
	StreamFunc   func(ctx context.Context, messages []model.Message, opts model.ChatOptions, callback model.StreamCallback) error

	mu           sync.Mutex
	script       []ScriptedResponse
	calls        int
	currentModel string

	// SeenOptions records the ChatOptions of every call, in order, so tests
	// can assert on advertised tools.
	SeenOptions []model.ChatOptions
}

// NewMockProvider creates a mock provider that plays back the given script.
func NewMockProvider(modelName string, script ...ScriptedResponse) *MockProvider {
	return &MockProvider{
		currentModel: modelName,
		script:       script,
	}
}

func (m *MockProvider) next(opts model.ChatOptions) (ScriptedResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SeenOptions = append(m.SeenOptions, opts)
	if m.calls >= len(m.script) {
		return ScriptedResponse{}, fmt.Errorf("mock provider: unexpected call %d, script has %d responses", m.calls+1, len(m.script))
	}
	resp := m.script[m.calls]
	m.calls++
	return resp, nil
}

// Calls returns how many model calls the mock has served.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Complete implements model.Provider.Complete.
func (m *MockProvider) Complete(ctx context.Context, messages []model.Message, opts model.ChatOptions) (*model.Completion, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, messages, opts)
	}

	resp, err := m.next(opts)
	if err != nil {
		return nil, err
	}
	if resp.Err != nil {
		return nil, resp.Err
	}
	return &model.Completion{
		Content:      resp.Content,
		FinishReason: resp.FinishReason,
		ToolCalls:    resp.ToolCalls,
	}, nil
}

// Stream implements model.Provider.Stream. Content is delivered as a single
// text chunk followed by a final chunk, matching the minimal shape real
// providers produce.
func (m *MockProvider) Stream(ctx context.Context, messages []model.Message, opts model.ChatOptions, callback model.StreamCallback) error {
	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, messages, opts, callback)
	}

	resp, err := m.next(opts)
	if err != nil {
		return err
	}
	if resp.Err != nil {
		return resp.Err
	}

	if resp.Content != "" {
		if err := callback(model.StreamChunk{Text: resp.Content}); err != nil {
			return err
		}
	}
	return callback(model.StreamChunk{
		ToolCalls:    resp.ToolCalls,
		Final:        true,
		FinishReason: resp.FinishReason,
	})
}

// GetModel implements model.Provider.GetModel.
func (m *MockProvider) GetModel() string {
	return m.currentModel
}

// SetModel implements model.Provider.SetModel.
func (m *MockProvider) SetModel(model string) {
	m.currentModel = model
}
