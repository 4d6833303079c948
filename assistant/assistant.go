// Package assistant assembles the research assistant pipeline:
// a researcher gathers articles and statistics, a writer drafts a report
// from the findings, and a reviewer scores the draft.
package assistant

import (
	"context"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"

	"github.com/smallnest/research-assistant/log"
	"github.com/smallnest/research-assistant/pipeline"
	"github.com/smallnest/research-assistant/tool"
)

// PipelineName is the name of the assembled pipeline.
const PipelineName = "research_pipeline"

// Output keys produced by the three stages, in order.
const (
	KeyResearchFindings = "research_findings"
	KeyDraftReport      = "draft_report"
	KeyReviewResult     = "review_result"
)

// BlockedResponse is substituted for the researcher's output when the safety
// guard vetoes a request.
const BlockedResponse = "Request blocked by safety guardrail."

const researcherInstruction = `You are a research specialist. When given a topic:
1. Use search_articles to find relevant papers
2. Use get_topic_stats to get publication statistics
3. Summarize your findings concisely

Always include specific data from the tools in your summary.`

const writerInstruction = `You are a technical writer. Based on the research findings below,
write a concise research summary report (3-4 paragraphs).

Research findings:
{research_findings}

Include:
- Overview of the topic and its significance
- Key findings from the articles
- Publication trends and statistics
- Recommended areas for further study

Use format_citation for any article references.`

const reviewerInstruction = `You are a quality reviewer. Review this draft report:

{draft_report}

Evaluate on:
1. Accuracy - Are the facts and citations correct?
2. Clarity - Is it easy to understand?
3. Completeness - Does it cover key aspects?

Provide a quality score (1-10) and brief feedback.
If the score is 8 or above, approve with "APPROVED".
Otherwise provide specific improvements needed.`

// Option configures the assistant pipeline.
type Option func(*options)

type options struct {
	logger       log.Logger
	pipelineOpts []pipeline.Option
}

// WithLogger sets the logger used by guards and the pipeline.
func WithLogger(l log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithPipelineOptions passes additional options through to pipeline.New.
func WithPipelineOptions(opts ...pipeline.Option) Option {
	return func(o *options) {
		o.pipelineOpts = append(o.pipelineOpts, opts...)
	}
}

// New builds the three-stage research pipeline. Construction is explicit:
// callers own the returned pipeline and may build as many independent
// configurations per process as they need.
func New(model llms.Model, opts ...Option) (*pipeline.Pipeline, error) {
	o := &options{logger: log.GetDefaultLogger()}
	for _, opt := range opts {
		opt(o)
	}

	entry := EntryLogGuard(o.logger)
	stages := []pipeline.Stage{
		{
			Name:        "researcher",
			Description: "Gathers research articles and statistics on a topic",
			Instruction: researcherInstruction,
			Tools:       []tools.Tool{&tool.SearchArticlesTool{}, &tool.TopicStatsTool{}},
			OutputKey:   KeyResearchFindings,
			Guards:      []pipeline.Guard{entry, SafetyGuard()},
		},
		{
			Name:        "writer",
			Description: "Writes a structured research summary from findings",
			Instruction: writerInstruction,
			Tools:       []tools.Tool{&tool.FormatCitationTool{}},
			OutputKey:   KeyDraftReport,
			Guards:      []pipeline.Guard{entry},
		},
		{
			Name:        "reviewer",
			Description: "Reviews and scores the draft report",
			Instruction: reviewerInstruction,
			OutputKey:   KeyReviewResult,
			Guards:      []pipeline.Guard{entry},
		},
	}

	pipelineOpts := append([]pipeline.Option{pipeline.WithLogger(o.logger)}, o.pipelineOpts...)
	return pipeline.New(PipelineName, model, stages, pipelineOpts...)
}

// EntryLogGuard logs stage entry and never vetoes.
func EntryLogGuard(logger log.Logger) pipeline.Guard {
	return func(ctx context.Context, info pipeline.StageInfo) (string, bool) {
		logger.Info("entering stage: %s", info.Stage)
		return "", false
	}
}

// SafetyGuard vetoes the model call when the incoming message carries the
// blocked-content marker, substituting a fixed refusal.
func SafetyGuard() pipeline.Guard {
	return func(ctx context.Context, info pipeline.StageInfo) (string, bool) {
		if strings.Contains(strings.ToUpper(info.Input), "BLOCKED") {
			return BlockedResponse, true
		}
		return "", false
	}
}
