package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/hal9000y/gmail-digest/internal/agent"
)

// openAIMaxOutputTokens bounds a single completion; digests are the longest
// output and stay well under this.
const openAIMaxOutputTokens = 4096

// OpenAI generates completions through the OpenAI Responses API.
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI creates an OpenAI generator for the given model.
func NewOpenAI(apiKey, model string) *OpenAI {
	return &OpenAI{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Generate implements Generator.
func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.Responses.New(ctx, responses.ResponseNewParams{
		Model:           o.model,
		MaxOutputTokens: openai.Int(openAIMaxOutputTokens),
		Input:           responses.ResponseNewParamsInputUnion{OfString: openai.String(prompt)},
	})
	if err != nil {
		return "", fmt.Errorf("%w: openai Responses.New failed: %w", agent.ErrModel, err)
	}
	if resp == nil || strings.TrimSpace(resp.OutputText()) == "" {
		return "", fmt.Errorf("%w: openai returned an empty response", agent.ErrModel)
	}
	return resp.OutputText(), nil
}
