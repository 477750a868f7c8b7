package llm

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal9000y/gmail-digest/internal/agent"
)

func plannerManifests(t *testing.T) []agent.Manifest {
	t.Helper()

	reg, err := agent.NewRegistry(stubSource{}, stubModel{})
	require.NoError(t, err)
	return reg.Manifests()
}

type stubSource struct{}

func (stubSource) Fetch(context.Context, int) ([]agent.RawEmail, error) {
	return nil, nil
}

type stubModel struct{}

func (stubModel) Classify(context.Context, []agent.RawEmail) ([]agent.ClassifiedEmail, error) {
	return nil, nil
}

func (stubModel) Summarize(context.Context, []agent.ClassifiedEmail) ([]agent.SummarizedNewsletter, error) {
	return nil, nil
}

func (stubModel) FormatDigest(context.Context, []agent.SummarizedNewsletter) (string, error) {
	return "", nil
}

func TestPlannerDecide(t *testing.T) {
	gen := &generatorMock{GenerateFunc: func(_ context.Context, _ string) (string, error) {
		return "```json\n{\"tool\": \"fetch_emails\", \"reason\": \"nothing fetched yet\", \"is_complete\": false}\n```", nil
	}}
	planner := NewPlanner(gen)

	d, err := planner.Decide(context.Background(), agent.Snapshot{EmailCount: 5}, plannerManifests(t))
	require.NoError(t, err)

	assert.Equal(t, agent.Decision{
		Tool:   "fetch_emails",
		Reason: "nothing fetched yet",
	}, d)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], `"email_count": 5`)
	assert.Contains(t, gen.prompts[0], `"fetch_emails"`)
	assert.Contains(t, gen.prompts[0], `"format_digest"`)
	assert.Contains(t, gen.prompts[0], "is_complete")
}

func TestPlannerDecideCompletion(t *testing.T) {
	gen := &generatorMock{GenerateFunc: func(_ context.Context, _ string) (string, error) {
		return `{"tool": "", "reason": "digest is ready", "is_complete": true}`, nil
	}}
	planner := NewPlanner(gen)

	d, err := planner.Decide(context.Background(), agent.Snapshot{HasDigest: true}, plannerManifests(t))
	require.NoError(t, err)
	assert.True(t, d.Complete)
	assert.Empty(t, d.Tool)
}

func TestPlannerDecideUnparseable(t *testing.T) {
	gen := &generatorMock{GenerateFunc: func(_ context.Context, _ string) (string, error) {
		return "I think we should fetch the emails first.", nil
	}}
	planner := NewPlanner(gen)

	_, err := planner.Decide(context.Background(), agent.Snapshot{}, plannerManifests(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, agent.ErrPlannerContract)
}

func TestPlannerDecideGeneratorFailure(t *testing.T) {
	gen := &generatorMock{GenerateFunc: func(_ context.Context, _ string) (string, error) {
		return "", fmt.Errorf("%w: quota exhausted", agent.ErrModel)
	}}
	planner := NewPlanner(gen)

	_, err := planner.Decide(context.Background(), agent.Snapshot{}, plannerManifests(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, agent.ErrModel)
}
