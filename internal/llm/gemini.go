package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/hal9000y/gmail-digest/internal/agent"
)

// Gemini generates completions through the Google Gemini API. The underlying
// client needs a context to be built, so it is created lazily on first use.
type Gemini struct {
	apiKey string
	model  string

	mu     sync.Mutex
	client *genai.Client
}

// NewGemini creates a Gemini generator for the given model.
func NewGemini(apiKey, model string) *Gemini {
	return &Gemini{apiKey: apiKey, model: model}
}

// Generate implements Generator.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	client, err := g.ensureClient(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", agent.ErrModel, err)
	}

	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}}
	result, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("%w: gemini GenerateContent failed: %w", agent.ErrModel, err)
	}
	if result == nil || strings.TrimSpace(result.Text()) == "" {
		return "", fmt.Errorf("%w: gemini returned an empty response", agent.ErrModel)
	}
	return result.Text(), nil
}

func (g *Gemini) ensureClient(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		return g.client, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient failed: %w", err)
	}
	g.client = client
	return client, nil
}
