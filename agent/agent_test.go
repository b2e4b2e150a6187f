package agent

import (
	"context"
	"encoding/json"
	"testing"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"chatlens/model"
	"chatlens/provider/testutil"
	"chatlens/tools"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func lookupRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	r := tools.NewRegistry()
	def := mcptypes.Tool{
		Name:        "lookup",
		Description: "looks up a value",
		InputSchema: mcptypes.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"key": map[string]any{"type": "string"},
			},
			Required: []string{"key"},
		},
	}
	exec := func(ctx context.Context, args map[string]any, tc *tools.Context) (any, error) {
		return "value for " + args["key"].(string), nil
	}
	require.NoError(t, r.Register(def, exec, nil))
	return r
}

func lookupCall(id string) model.ToolCall {
	return model.ToolCall{ID: id, Name: "lookup", Arguments: json.RawMessage(`{"key": "k"}`)}
}

func TestExecuteDirectAnswer(t *testing.T) {
	mock := testutil.NewMockProvider("test-model", testutil.ScriptedResponse{
		Content:      "The busiest member was alice.",
		FinishReason: "stop",
	})
	a := New(mock, lookupRegistry(t))

	result, err := a.Execute(context.Background(), "who talked the most?")
	require.NoError(t, err)
	assert.Equal(t, "The busiest member was alice.", result.Content)
	assert.Equal(t, 0, result.ToolRounds)
	assert.Empty(t, result.ToolsUsed)
	assert.Equal(t, 1, mock.Calls())
}

func TestExecuteWithToolRound(t *testing.T) {
	mock := testutil.NewMockProvider("test-model",
		testutil.ScriptedResponse{ToolCalls: []model.ToolCall{lookupCall("c1")}, FinishReason: "tool_calls"},
		testutil.ScriptedResponse{Content: "Found it.", FinishReason: "stop"},
	)
	a := New(mock, lookupRegistry(t))

	result, err := a.Execute(context.Background(), "question")
	require.NoError(t, err)
	assert.Equal(t, "Found it.", result.Content)
	assert.Equal(t, 1, result.ToolRounds)
	assert.Equal(t, []string{"lookup"}, result.ToolsUsed)
}

func TestExecuteForcedFinish(t *testing.T) {
	// A model that always requests a tool must be cut off after the
	// configured number of rounds, then answer once with tools disabled.
	mock := testutil.NewMockProvider("test-model",
		testutil.ScriptedResponse{ToolCalls: []model.ToolCall{lookupCall("c1")}},
		testutil.ScriptedResponse{ToolCalls: []model.ToolCall{lookupCall("c2")}},
		testutil.ScriptedResponse{Content: "Summary from gathered data.", FinishReason: "stop"},
	)
	a := New(mock, lookupRegistry(t), WithMaxToolRounds(2))

	result, err := a.Execute(context.Background(), "question")
	require.NoError(t, err)
	assert.Equal(t, "Summary from gathered data.", result.Content)
	assert.Equal(t, 2, result.ToolRounds)
	assert.Equal(t, 3, mock.Calls())

	// The first two calls advertise tools; the forced-finish call must not.
	require.Len(t, mock.SeenOptions, 3)
	assert.NotEmpty(t, mock.SeenOptions[0].Tools)
	assert.NotEmpty(t, mock.SeenOptions[1].Tools)
	assert.Empty(t, mock.SeenOptions[2].Tools)
}

func TestExecuteToolFailureDoesNotAbortRun(t *testing.T) {
	badCall := model.ToolCall{ID: "c1", Name: "lookup", Arguments: json.RawMessage(`{"key":`)}
	mock := testutil.NewMockProvider("test-model",
		testutil.ScriptedResponse{ToolCalls: []model.ToolCall{badCall, lookupCall("c2")}},
		testutil.ScriptedResponse{Content: "Recovered.", FinishReason: "stop"},
	)
	a := New(mock, lookupRegistry(t))

	result, err := a.Execute(context.Background(), "question")
	require.NoError(t, err)
	assert.Equal(t, "Recovered.", result.Content)
	assert.Equal(t, 1, result.ToolRounds)
}

func TestExecuteStreamPlainText(t *testing.T) {
	mock := testutil.NewMockProvider("test-model", testutil.ScriptedResponse{
		Content:      "Hi",
		FinishReason: "stop",
	})
	a := New(mock, lookupRegistry(t))

	events := make(chan Event, 16)
	result, err := a.ExecuteStream(context.Background(), "hello", events)
	require.NoError(t, err)
	assert.Equal(t, "Hi", result.Content)

	var collected []Event
	for ev := range events {
		collected = append(collected, ev)
	}
	require.Len(t, collected, 2)
	assert.Equal(t, EventContent, collected[0].Type)
	assert.Equal(t, "Hi", collected[0].Content)
	assert.Equal(t, EventDone, collected[1].Type)
}

func TestExecuteStreamToolScenario(t *testing.T) {
	mock := testutil.NewMockProvider("test-model",
		testutil.ScriptedResponse{ToolCalls: []model.ToolCall{lookupCall("c1")}, FinishReason: "tool_calls"},
		testutil.ScriptedResponse{Content: "Here is the answer.", FinishReason: "stop"},
	)
	a := New(mock, lookupRegistry(t))

	events := make(chan Event, 16)
	result, err := a.ExecuteStream(context.Background(), "question", events)
	require.NoError(t, err)
	assert.Equal(t, "Here is the answer.", result.Content)
	assert.Equal(t, []string{"lookup"}, result.ToolsUsed)
	assert.Equal(t, 1, result.ToolRounds)

	var types []EventType
	for ev := range events {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []EventType{EventToolStart, EventToolResult, EventContent, EventDone}, types)
}

func TestExecuteStreamToolEventsCarryDetails(t *testing.T) {
	mock := testutil.NewMockProvider("test-model",
		testutil.ScriptedResponse{ToolCalls: []model.ToolCall{lookupCall("c1")}},
		testutil.ScriptedResponse{Content: "done", FinishReason: "stop"},
	)
	a := New(mock, lookupRegistry(t))

	events := make(chan Event, 16)
	_, err := a.ExecuteStream(context.Background(), "question", events)
	require.NoError(t, err)

	var start, resultEv *Event
	for ev := range events {
		ev := ev
		switch ev.Type {
		case EventToolStart:
			start = &ev
		case EventToolResult:
			resultEv = &ev
		}
	}

	require.NotNil(t, start)
	assert.Equal(t, "c1", start.ID)
	assert.Equal(t, "lookup", start.Name)
	assert.Equal(t, "k", start.Args["key"])

	require.NotNil(t, resultEv)
	assert.Equal(t, "c1", resultEv.ID)
	assert.Equal(t, "value for k", resultEv.Content)
	assert.Empty(t, resultEv.Err)
}

func TestExecuteStreamModelError(t *testing.T) {
	mock := testutil.NewMockProvider("test-model") // empty script: first call errors
	a := New(mock, lookupRegistry(t))

	events := make(chan Event, 16)
	_, err := a.ExecuteStream(context.Background(), "question", events)
	require.Error(t, err)

	var last Event
	for ev := range events {
		last = ev
	}
	assert.Equal(t, EventError, last.Type)
	assert.NotEmpty(t, last.Err)
}

func TestExecuteStreamCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	mock := testutil.NewMockProvider("test-model")
	mock.StreamFunc = func(ctx context.Context, messages []model.Message, opts model.ChatOptions, callback model.StreamCallback) error {
		if err := callback(model.StreamChunk{Text: "partial"}); err != nil {
			return err
		}
		cancel()
		// The next chunk must be refused at the boundary.
		return callback(model.StreamChunk{Text: "never delivered"})
	}
	a := New(mock, lookupRegistry(t))

	events := make(chan Event, 16)
	_, err := a.ExecuteStream(ctx, "question", events)
	require.Error(t, err)

	for range events {
	} // channel must still be closed
}

func TestExecuteRoundsNeverExceedBudget(t *testing.T) {
	script := make([]testutil.ScriptedResponse, 0, DefaultMaxToolRounds+1)
	for i := 0; i < DefaultMaxToolRounds; i++ {
		script = append(script, testutil.ScriptedResponse{ToolCalls: []model.ToolCall{lookupCall("c")}})
	}
	script = append(script, testutil.ScriptedResponse{Content: "final", FinishReason: "stop"})

	mock := testutil.NewMockProvider("test-model", script...)
	a := New(mock, lookupRegistry(t))

	result, err := a.Execute(context.Background(), "question")
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxToolRounds, result.ToolRounds)
	assert.Equal(t, "final", result.Content)
}
