package agent

import (
	"context"
	"fmt"

	"chatlens/config"
	"chatlens/model"
)

// Execute runs the buffered loop: one model call per round, dispatching any
// requested tools and folding their results into the history, until the model
// answers directly or the round budget runs out. Exceeding the budget is not
// an error; the forced-finish call produces the answer from what was
// gathered.
func (a *Agent) Execute(ctx context.Context, question string) (*Result, error) {
	history := a.initialHistory(question)
	result := &Result{}

	for round := 0; round < a.maxToolRounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		completion, err := a.provider.Complete(ctx, history, a.chatOptions(true))
		if err != nil {
			return nil, fmt.Errorf("model call failed: %w", err)
		}

		if len(completion.ToolCalls) == 0 {
			result.Content = completion.Content
			return result, nil
		}

		if config.DebugLog != nil {
			config.DebugLog.Printf("[AGENT] round %d: %d tool calls", round, len(completion.ToolCalls))
		}

		history = append(history, model.AssistantMessage("", completion.ToolCalls))

		results := a.dispatcher.ExecuteAll(ctx, completion.ToolCalls, a.toolCtx)
		for _, r := range results {
			history = append(history, model.ToolResultMessage(r.ID, r.Content()))
		}
		result.ToolsUsed = recordTools(result.ToolsUsed, results)
		result.ToolRounds++
	}

	// Round budget exhausted: one final call with tools disabled.
	history = append(history, model.UserMessage(forcedFinishPrompt))

	completion, err := a.provider.Complete(ctx, history, a.chatOptions(false))
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}
	result.Content = completion.Content
	return result, nil
}
