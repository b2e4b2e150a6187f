package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"chatlens/config"
	"chatlens/model"
)

// ExecutionResult is the outcome of one dispatched call. Exactly one of
// Payload/Err is meaningful; Text is the model-facing rendering of a
// successful payload.
type ExecutionResult struct {
	ID      string
	Name    string
	Payload any
	Text    string
	Err     string
}

// Failed reports whether the call produced an error instead of a payload.
func (r ExecutionResult) Failed() bool {
	return r.Err != ""
}

// Content returns the text to fold into the conversation as the tool-role
// message for this result.
func (r ExecutionResult) Content() string {
	if r.Failed() {
		return "Error: " + r.Err
	}
	return r.Text
}

// Dispatcher validates and executes batches of tool calls against a registry.
type Dispatcher struct {
	registry *Registry
}

func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// ExecuteAll runs every requested call concurrently and returns results in
// the same order as the input, regardless of completion order. Failures
// (unknown tool, malformed or invalid arguments, executor errors, panics)
// are materialized per call and never abort sibling requests.
func (d *Dispatcher) ExecuteAll(ctx context.Context, calls []model.ToolCall, tc *Context) []ExecutionResult {
	results := make([]ExecutionResult, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call model.ToolCall) {
			defer wg.Done()
			results[i] = d.executeOne(ctx, call, tc)
		}(i, call)
	}
	wg.Wait()

	return results
}

func (d *Dispatcher) executeOne(ctx context.Context, call model.ToolCall, tc *Context) (result ExecutionResult) {
	result = ExecutionResult{ID: call.ID, Name: call.Name}

	defer func() {
		if r := recover(); r != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[TOOLS] %s panicked: %v", call.Name, r)
			}
			result.Payload = nil
			result.Text = ""
			result.Err = fmt.Sprintf("tool %s panicked: %v", call.Name, r)
		}
	}()

	e, ok := d.registry.lookup(call.Name)
	if !ok {
		result.Err = fmt.Sprintf("unknown tool %q", call.Name)
		return result
	}

	args := map[string]any{}
	if len(call.Arguments) > 0 {
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			result.Err = fmt.Sprintf("invalid arguments for %s: %v", call.Name, err)
			return result
		}
	}

	if err := e.validator.Validate(args); err != nil {
		result.Err = fmt.Sprintf("invalid arguments for %s: %v", call.Name, err)
		return result
	}

	payload, err := e.exec(ctx, args, tc)
	if err != nil {
		result.Err = err.Error()
		return result
	}

	text, err := shapePayload(e.shape, payload)
	if err != nil {
		result.Err = fmt.Sprintf("failed to render %s result: %v", call.Name, err)
		return result
	}

	result.Payload = payload
	result.Text = text
	return result
}

// shapePayload renders a payload with the tool's shaper, defaulting to JSON.
func shapePayload(shape Shaper, payload any) (string, error) {
	if shape != nil {
		return shape(payload)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
