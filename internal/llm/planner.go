package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hal9000y/gmail-digest/internal/agent"
)

// Planner asks the language model which pipeline tool to run next. A
// response that cannot be parsed is a contract violation surfaced to the
// controller, never silently replaced by a default decision.
type Planner struct {
	gen    Generator
	logger *log.Logger
}

// NewPlanner wraps gen into the pipeline's planner.
func NewPlanner(gen Generator) *Planner {
	return &Planner{
		gen:    gen,
		logger: log.New(log.Writer(), "[PLANNER] ", log.LstdFlags),
	}
}

// Decide implements agent.Planner.
func (p *Planner) Decide(ctx context.Context, snap agent.Snapshot, manifests []agent.Manifest) (agent.Decision, error) {
	prompt, err := planPrompt(snap, manifests)
	if err != nil {
		return agent.Decision{}, err
	}

	text, err := p.gen.Generate(ctx, prompt)
	if err != nil {
		return agent.Decision{}, fmt.Errorf("planning call failed: %w", err)
	}

	var d agent.Decision
	if err := decodeJSON(text, &d); err != nil {
		return agent.Decision{}, fmt.Errorf("%w: planner response not parseable: %w", agent.ErrPlannerContract, err)
	}
	p.logger.Printf("decision: tool=%q complete=%t reason=%q", d.Tool, d.Complete, d.Reason)
	return d, nil
}

func planPrompt(snap agent.Snapshot, manifests []agent.Manifest) (string, error) {
	stateBlob, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("json.MarshalIndent failed: %w", err)
	}
	toolsBlob, err := json.MarshalIndent(manifests, "", "  ")
	if err != nil {
		return "", fmt.Errorf("json.MarshalIndent failed: %w", err)
	}

	return fmt.Sprintf(`You are the planning agent of a Gmail newsletter digest system. Your goal is to process emails and produce a newsletter digest.

Current pipeline state:
%s

Available tools:
%s

Analyze the current state and the available tools to determine:
1. Which tool should be invoked next
2. Why this tool is the best choice
3. Whether the overall goal has been achieved

You MUST return a valid JSON object with exactly these fields:
{
    "tool": "name_of_tool_to_invoke",
    "reason": "explanation_of_choice",
    "is_complete": true_or_false
}

IMPORTANT:
1. Return ONLY the JSON object, no other text
2. The tool field must be one of the available tools listed above
3. When is_complete is true, the tool field may be an empty string
4. Respond with raw JSON only, no markdown or code blocks`, stateBlob, toolsBlob), nil
}
