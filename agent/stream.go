package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"chatlens/model"
)

// ExecuteStream runs the same loop as Execute but delivers progress as
// events: content fragments as the model produces them, a tool_start per
// requested call before dispatch begins, a tool_result per call in request
// order, and a terminal done (or error) event. The channel is closed exactly
// once on every exit path.
//
// Cancellation is honored at chunk and batch boundaries: once ctx is done,
// no further model calls or tool batches are started, and already-dispatched
// calls still get their tool_result events before the loop returns.
func (a *Agent) ExecuteStream(ctx context.Context, question string, events chan<- Event) (*Result, error) {
	var closeOnce sync.Once
	closeEvents := func() {
		closeOnce.Do(func() { close(events) })
	}

	emit := func(ev Event) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	// The error event is sent best-effort: after cancellation the caller may
	// already have stopped consuming, and a blocking send would leak the run.
	fail := func(err error) (*Result, error) {
		select {
		case events <- Event{Type: EventError, Err: err.Error()}:
		default:
		}
		closeEvents()
		return nil, err
	}

	history := a.initialHistory(question)
	result := &Result{}

	for round := 0; round < a.maxToolRounds; round++ {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		text, toolCalls, err := a.streamRound(ctx, history, a.chatOptions(true), emit)
		if err != nil {
			return fail(err)
		}

		if len(toolCalls) == 0 {
			result.Content = text
			emit(Event{Type: EventDone, Content: text})
			closeEvents()
			return result, nil
		}

		history = append(history, model.AssistantMessage("", toolCalls))

		// Announce every call before dispatch so the caller can show progress.
		for _, call := range toolCalls {
			emit(Event{
				Type: EventToolStart,
				ID:   call.ID,
				Name: call.Name,
				Args: a.describeArgs(call),
			})
		}

		results := a.dispatcher.ExecuteAll(ctx, toolCalls, a.toolCtx)
		for _, r := range results {
			ev := Event{Type: EventToolResult, ID: r.ID, Name: r.Name, Content: r.Content()}
			if r.Failed() {
				ev.Err = r.Err
			}
			emit(ev)
			history = append(history, model.ToolResultMessage(r.ID, r.Content()))
		}
		result.ToolsUsed = recordTools(result.ToolsUsed, results)
		result.ToolRounds++
	}

	// Round budget exhausted: stream one final round with tools disabled.
	history = append(history, model.UserMessage(forcedFinishPrompt))

	text, _, err := a.streamRound(ctx, history, a.chatOptions(false), emit)
	if err != nil {
		return fail(err)
	}
	result.Content = text
	emit(Event{Type: EventDone, Content: text})
	closeEvents()
	return result, nil
}

// streamRound issues one streaming model call. Text fragments are forwarded
// as content events and accumulated; a tool decision seen in any chunk is
// retained (last seen wins) and acted on only after the terminal chunk.
func (a *Agent) streamRound(ctx context.Context, history []model.Message, opts model.ChatOptions, emit func(Event) bool) (string, []model.ToolCall, error) {
	var text strings.Builder
	var retained []model.ToolCall

	err := a.provider.Stream(ctx, history, opts, func(chunk model.StreamChunk) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if chunk.Text != "" {
			text.WriteString(chunk.Text)
			if !emit(Event{Type: EventContent, Content: chunk.Text}) {
				return ctx.Err()
			}
		}
		if len(chunk.ToolCalls) > 0 {
			retained = chunk.ToolCalls
		}
		return nil
	})
	if err != nil {
		return "", nil, fmt.Errorf("model call failed: %w", err)
	}

	return text.String(), retained, nil
}

// describeArgs parses a call's raw arguments for the tool_start event,
// annotating them with the ambient time window when the call does not carry
// its own. Parse failures yield an empty map; the dispatcher reports the
// real error in the tool_result.
func (a *Agent) describeArgs(call model.ToolCall) map[string]any {
	args := map[string]any{}
	if len(call.Arguments) > 0 {
		_ = json.Unmarshal(call.Arguments, &args)
	}

	if a.toolCtx != nil && a.toolCtx.Filter != nil {
		if _, hasYear := args["year"]; !hasYear {
			args["effective_start"] = a.toolCtx.Filter.Start
			args["effective_end"] = a.toolCtx.Filter.End
		}
	}
	return args
}
