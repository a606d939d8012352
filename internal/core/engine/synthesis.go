package engine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/askp-cli/askp/internal/core"
	apperrors "github.com/askp-cli/askp/internal/errors"
)

// maxSectionRunes caps how much of each section body is quoted back to the model.
const maxSectionRunes = 6000

const overviewPrompt = `You are writing the opening of a research report on:

"%s"

The report consists of the following sections:

%s

Write an overview that introduces the topic, states the scope of the research and
summarizes the key findings across all sections. Do not repeat section headings.`

const conclusionPrompt = `You are writing the conclusion of a research report on:

"%s"

The report consists of the following sections:

%s

Write a conclusion that connects the findings, highlights open questions and lists
practical takeaways. Do not repeat section headings.`

// Synthesize asks for a deep-research overview and conclusion built from the
// successful sections of report. The two calls run sequentially.
//
// Synthesis is best effort: a failed call is logged and left nil, and the
// result is nil when both calls fail or nothing succeeded.
func (d *Dispatcher) Synthesize(ctx context.Context, topic string, report *core.BatchReport, opts core.Options) *core.Synthesis {
	sections := report.Succeeded()
	if len(sections) == 0 || d == nil || d.Executor == nil {
		return nil
	}
	material := synthesisMaterial(sections)

	syn := &core.Synthesis{
		Overview:   d.synthesisCall(ctx, "Overview", fmt.Sprintf(overviewPrompt, topic, material), opts),
		Conclusion: d.synthesisCall(ctx, "Conclusion", fmt.Sprintf(conclusionPrompt, topic, material), opts),
	}
	if syn.Overview == nil && syn.Conclusion == nil {
		return nil
	}
	return syn
}

func (d *Dispatcher) synthesisCall(ctx context.Context, label, prompt string, opts core.Options) *core.QueryResult {
	callOpts := opts
	callOpts.Prompt = core.PromptRaw

	result, err := d.Executor.Execute(ctx, prompt, callOpts)
	if err != nil {
		d.logger().Warn("Skipping research synthesis", zap.String("part", label), zap.Error(err))
		return nil
	}
	if !result.OK() {
		d.logger().Warn("Research synthesis failed", zap.String("part", label), zap.String("error", failureMessage(result)))
		return nil
	}
	result.Query = label
	return result
}

func synthesisMaterial(sections []*core.QueryResult) string {
	var sb strings.Builder
	for i, s := range sections {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(fmt.Sprintf("### %s\n\n", s.Query))
		sb.WriteString(apperrors.QueryPrefix(s.Content, maxSectionRunes))
	}
	return sb.String()
}
