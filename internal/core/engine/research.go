package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/askp-cli/askp/internal/core"
)

// planTokenMax bounds the plan reply; it only carries a short JSON object.
const planTokenMax = 1024

const planPrompt = `The user would like to perform deep research on the following topic:

"%s"

Create a research plan that breaks this topic down into specific research queries which,
answered together, form a complete research paper.

1. Define the overall research project with a clear overview
2. Break the research into 5-10 specific, focused queries covering distinct aspects
3. Order the queries so that knowledge builds progressively
4. Consider recent developments and time-sensitive information

Return your response as a JSON object with the following structure:
{
  "overview": "A concise description of the overall research project",
  "research_queries": [
    "First specific research query",
    "Second specific research query"
  ]
}`

type planReply struct {
	Overview        string   `json:"overview"`
	ResearchQueries []string `json:"research_queries"`
}

// PlanResearch asks the model to split topic into focused section queries.
//
// Any failure, including a reply without a usable JSON object, falls back to a
// single-section plan for the topic itself.
func (d *Dispatcher) PlanResearch(ctx context.Context, topic string, opts core.Options) *core.ResearchPlan {
	topic = strings.TrimSpace(topic)
	fallback := basicPlan(topic)
	if d == nil || d.Executor == nil {
		return fallback
	}

	callOpts := opts
	callOpts.Prompt = core.PromptRaw
	callOpts.TokenMax = planTokenMax

	result, err := d.Executor.Execute(ctx, fmt.Sprintf(planPrompt, topic), callOpts)
	if err != nil {
		d.logger().Warn("Failed to generate research plan", zap.Error(err))
		return fallback
	}
	if !result.OK() {
		d.logger().Warn("Failed to generate research plan", zap.String("error", failureMessage(result)))
		return fallback
	}

	plan, err := parsePlan(topic, result.Content)
	if err != nil {
		d.logger().Warn("Could not parse research plan, using basic plan", zap.Error(err))
		return fallback
	}
	d.logger().Info("Generated research plan", zap.Int("sections", len(plan.Sections)))
	return plan
}

// parsePlan decodes the JSON object between the first '{' and the last '}' of content.
func parsePlan(topic, content string) (*core.ResearchPlan, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in reply")
	}

	var reply planReply
	if err := json.Unmarshal([]byte(content[start:end+1]), &reply); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}

	plan := &core.ResearchPlan{Topic: topic, Overview: strings.TrimSpace(reply.Overview)}
	if plan.Overview == "" {
		plan.Overview = topic
	}
	seen := make(map[string]bool)
	for _, q := range reply.ResearchQueries {
		q = strings.TrimSpace(q)
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		plan.Sections = append(plan.Sections, core.PlanSection{
			Title: fmt.Sprintf("Section %d: %s", len(plan.Sections)+1, q),
			Query: q,
		})
	}
	if len(plan.Sections) == 0 {
		return nil, fmt.Errorf("plan has no research queries")
	}
	return plan, nil
}

func basicPlan(topic string) *core.ResearchPlan {
	return &core.ResearchPlan{
		Topic:    topic,
		Overview: topic,
		Sections: []core.PlanSection{{Title: topic, Query: topic}},
	}
}
