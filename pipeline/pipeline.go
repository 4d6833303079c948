package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"

	"github.com/smallnest/research-assistant/log"
)

var (
	// ErrNoStages is returned when a pipeline is built without stages.
	ErrNoStages = errors.New("pipeline has no stages")

	// ErrEmptyResponse is returned when the model returns no choices.
	ErrEmptyResponse = errors.New("model returned empty response")

	// ErrToolLoopLimit is returned when a stage exceeds the tool iteration cap
	// without the model producing a final answer.
	ErrToolLoopLimit = errors.New("tool iteration limit reached")
)

const defaultMaxToolIterations = 10

// Pipeline executes an ordered list of stages against a shared run state.
// Build one with New; a Pipeline is immutable after construction and safe
// for concurrent runs (each run owns its own State).
type Pipeline struct {
	name              string
	model             llms.Model
	stages            []Stage
	maxToolIterations int
	streamBuffer      int
	logger            log.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMaxToolIterations caps how many tool round-trips a single stage may
// make before the run is aborted.
func WithMaxToolIterations(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxToolIterations = n
		}
	}
}

// WithStreamBuffer sets the event channel buffer used by Stream.
func WithStreamBuffer(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.streamBuffer = n
		}
	}
}

// WithLogger sets the pipeline's logger.
func WithLogger(l log.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// New builds a pipeline from an ordered stage list. Stage names and output
// keys must be non-empty and output keys unique; a stage's instruction may
// reference only output keys of earlier stages, which is checked at render
// time rather than construction time.
func New(name string, model llms.Model, stages []Stage, opts ...Option) (*Pipeline, error) {
	if len(stages) == 0 {
		return nil, ErrNoStages
	}

	seen := make(map[string]bool, len(stages))
	for i, s := range stages {
		if s.Name == "" {
			return nil, fmt.Errorf("stage %d has no name", i)
		}
		if s.OutputKey == "" {
			return nil, fmt.Errorf("stage %s has no output key", s.Name)
		}
		if seen[s.OutputKey] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateOutputKey, s.OutputKey)
		}
		seen[s.OutputKey] = true
	}

	p := &Pipeline{
		name:              name,
		model:             model,
		stages:            stages,
		maxToolIterations: defaultMaxToolIterations,
		streamBuffer:      64,
		logger:            log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name returns the pipeline's name.
func (p *Pipeline) Name() string {
	return p.name
}

// Stages returns a copy of the pipeline's stage list.
func (p *Pipeline) Stages() []Stage {
	stages := make([]Stage, len(p.stages))
	copy(stages, p.stages)
	return stages
}

type runOptions struct {
	history []llms.MessageContent
}

// RunOption configures a single run.
type RunOption func(*runOptions)

// WithHistory supplies prior conversation messages; they are placed between
// each stage's instruction and the user message.
func WithHistory(msgs []llms.MessageContent) RunOption {
	return func(o *runOptions) {
		o.history = msgs
	}
}

// Invoke executes all stages in order and returns the accumulated state.
// A model failure aborts the run and propagates; there are no retries.
func (p *Pipeline) Invoke(ctx context.Context, input string, opts ...RunOption) (*State, error) {
	return p.run(ctx, input, opts, nil)
}

func (p *Pipeline) run(ctx context.Context, input string, opts []RunOption, emit func(Event)) (*State, error) {
	options := &runOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if emit == nil {
		emit = func(Event) {}
	}

	st := NewState()
	p.logger.Info("pipeline %s: starting run with %d stages", p.name, len(p.stages))

	for _, stage := range p.stages {
		started := time.Now()
		emit(StageStartEvent{Stage: stage.Name})
		p.logger.Debug("pipeline %s: entering stage %s", p.name, stage.Name)

		output, err := p.runStage(ctx, stage, input, options.history, st, emit)
		if err != nil {
			p.logger.Error("pipeline %s: stage %s failed: %v", p.name, stage.Name, err)
			return nil, fmt.Errorf("stage %s: %w", stage.Name, err)
		}

		if err := st.Set(stage.OutputKey, output); err != nil {
			return nil, err
		}
		emit(StageEndEvent{Stage: stage.Name, OutputKey: stage.OutputKey, Duration: time.Since(started)})
	}

	p.logger.Info("pipeline %s: run complete, %d outputs", p.name, st.Len())
	return st, nil
}

// runStage executes one stage: guards, template rendering, then the model
// call with its tool loop. It returns the stage's final textual answer.
func (p *Pipeline) runStage(ctx context.Context, stage Stage, input string, history []llms.MessageContent, st *State, emit func(Event)) (string, error) {
	for _, guard := range stage.Guards {
		if replacement, vetoed := guard(ctx, StageInfo{Stage: stage.Name, Input: input, State: st}); vetoed {
			p.logger.Warn("pipeline %s: stage %s vetoed by guard", p.name, stage.Name)
			emit(ContentEvent{Stage: stage.Name, Text: replacement, Final: true})
			return replacement, nil
		}
	}

	instruction, err := RenderInstruction(stage.Instruction, st)
	if err != nil {
		return "", err
	}

	msgs := make([]llms.MessageContent, 0, len(history)+2)
	msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, instruction))
	msgs = append(msgs, history...)
	msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeHuman, input))

	var callOpts []llms.CallOption
	if len(stage.Tools) > 0 {
		callOpts = append(callOpts, llms.WithTools(toolDefinitions(stage.Tools)))
	}

	for iteration := 0; iteration < p.maxToolIterations; iteration++ {
		resp, err := p.model.GenerateContent(ctx, msgs, callOpts...)
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", ErrEmptyResponse
		}

		switch outcome := interpretChoice(resp.Choices[0]).(type) {
		case FinalText:
			emit(ContentEvent{Stage: stage.Name, Text: outcome.Text, Final: true})
			return outcome.Text, nil

		case ToolRequests:
			aiMsg := llms.MessageContent{Role: llms.ChatMessageTypeAI}
			if resp.Choices[0].Content != "" {
				aiMsg.Parts = append(aiMsg.Parts, llms.TextPart(resp.Choices[0].Content))
			}
			for _, call := range outcome.Calls {
				aiMsg.Parts = append(aiMsg.Parts, call.toLLMToolCall())
			}
			msgs = append(msgs, aiMsg)

			for _, call := range outcome.Calls {
				emit(ToolCallEvent{Stage: stage.Name, Tool: call.Name})
				result := p.executeTool(ctx, stage.Tools, call)
				msgs = append(msgs, llms.MessageContent{
					Role: llms.ChatMessageTypeTool,
					Parts: []llms.ContentPart{
						llms.ToolCallResponse{
							ToolCallID: call.ID,
							Name:       call.Name,
							Content:    result,
						},
					},
				})
			}
		}
	}

	return "", fmt.Errorf("%w (%d)", ErrToolLoopLimit, p.maxToolIterations)
}

// executeTool runs a requested tool and returns its textual result. Tool
// failures are reported back to the model rather than aborting the run.
func (p *Pipeline) executeTool(ctx context.Context, available []tools.Tool, call ToolCall) string {
	for _, t := range available {
		if t.Name() != call.Name {
			continue
		}
		result, err := t.Call(ctx, call.Arguments)
		if err != nil {
			p.logger.Warn("pipeline %s: tool %s failed: %v", p.name, call.Name, err)
			return fmt.Sprintf("Error: %v", err)
		}
		return result
	}
	p.logger.Warn("pipeline %s: model requested unknown tool %s", p.name, call.Name)
	return fmt.Sprintf("Error: tool %s is not available", call.Name)
}
