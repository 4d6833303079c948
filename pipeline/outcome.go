package pipeline

import (
	"github.com/tmc/langchaingo/llms"
)

// Outcome is the model's reply for one reasoning step: either final text or
// a set of tool invocation requests. Exactly one concrete type applies per
// step, so callers switch on the variant instead of probing optional fields.
type Outcome interface {
	outcome()
}

// FinalText is the terminal variant: the model produced the stage's answer.
type FinalText struct {
	Text string
}

// ToolRequests is the intermediate variant: the model asked for one or more
// tool invocations before it can answer.
type ToolRequests struct {
	Calls []ToolCall
}

// ToolCall is a single tool invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

func (FinalText) outcome()    {}
func (ToolRequests) outcome() {}

// interpretChoice converts a model content choice into an Outcome variant.
// A choice carrying tool calls is a ToolRequests regardless of any partial
// text content; otherwise the text is the stage's final answer.
func interpretChoice(choice *llms.ContentChoice) Outcome {
	if len(choice.ToolCalls) > 0 {
		calls := make([]ToolCall, 0, len(choice.ToolCalls))
		for _, tc := range choice.ToolCalls {
			call := ToolCall{ID: tc.ID}
			if tc.FunctionCall != nil {
				call.Name = tc.FunctionCall.Name
				call.Arguments = tc.FunctionCall.Arguments
			}
			calls = append(calls, call)
		}
		return ToolRequests{Calls: calls}
	}
	return FinalText{Text: choice.Content}
}

// toLLMToolCall reconstructs the llms representation for appending the
// assistant's tool request back into the conversation.
func (c ToolCall) toLLMToolCall() llms.ToolCall {
	return llms.ToolCall{
		ID:   c.ID,
		Type: "function",
		FunctionCall: &llms.FunctionCall{
			Name:      c.Name,
			Arguments: c.Arguments,
		},
	}
}
