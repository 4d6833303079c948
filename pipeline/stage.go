package pipeline

import (
	"context"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"
)

// StageInfo describes the stage about to execute; guards receive it before
// the model call.
type StageInfo struct {
	// Stage is the name of the stage about to run
	Stage string

	// Input is the user message that started the run
	Input string

	// State holds the outputs of earlier stages
	State *State
}

// Guard runs before a stage invokes the model. Returning vetoed=true
// substitutes replacement for the stage's output verbatim; the model is not
// called for that stage and later stages proceed normally.
type Guard func(ctx context.Context, info StageInfo) (replacement string, vetoed bool)

// Stage is one step of the pipeline. It renders Instruction against the run
// state, invokes the model with Tools available, and writes its final answer
// under OutputKey.
type Stage struct {
	// Name is the unique identifier for the stage
	Name string

	// Description describes what the stage does
	Description string

	// Instruction is the prompt template; {output_key} placeholders are
	// substituted with outputs of earlier stages
	Instruction string

	// Tools the model may invoke during this stage
	Tools []tools.Tool

	// OutputKey is the state key the stage's final answer is stored under
	OutputKey string

	// Guards run before the model call and may veto it
	Guards []Guard
}

// ArgumentSchemaProvider lets a tool declare the JSON schema of its
// arguments. Tools without it fall back to a single free-form input string.
type ArgumentSchemaProvider interface {
	ArgumentSchema() map[string]any
}

// toolDefinitions converts the stage's tools into model tool declarations.
func toolDefinitions(ts []tools.Tool) []llms.Tool {
	defs := make([]llms.Tool, 0, len(ts))
	for _, t := range ts {
		params := map[string]any{
			"type": "object",
			"properties": map[string]any{
				"input": map[string]any{
					"type":        "string",
					"description": "The input query for the tool",
				},
			},
			"required": []string{"input"},
		}
		if sp, ok := t.(ArgumentSchemaProvider); ok {
			params = sp.ArgumentSchema()
		}
		defs = append(defs, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  params,
			},
		})
	}
	return defs
}
