// Package llm binds the digest pipeline to a language model provider and
// implements its prompt work: newsletter classification, summarization,
// digest formatting and run planning.
package llm

import (
	"context"
	"fmt"

	"github.com/hal9000y/gmail-digest/internal/agent"
)

// Provider selects the language model backend.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// Default models per provider.
const (
	DefaultGeminiModel = "gemini-2.0-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// Generator produces one completion for one prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Options selects and configures a provider. An empty Provider means Gemini,
// an empty Model the provider's default.
type Options struct {
	Provider Provider
	Model    string
	APIKey   string
}

// NewGenerator builds the Generator for the configured provider.
func NewGenerator(opts Options) (Generator, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: missing API key for llm provider", agent.ErrConfiguration)
	}

	switch opts.Provider {
	case "", ProviderGemini:
		model := opts.Model
		if model == "" {
			model = DefaultGeminiModel
		}
		return NewGemini(opts.APIKey, model), nil
	case ProviderOpenAI:
		model := opts.Model
		if model == "" {
			model = DefaultOpenAIModel
		}
		return NewOpenAI(opts.APIKey, model), nil
	default:
		return nil, fmt.Errorf("%w: unknown llm provider %q", agent.ErrConfiguration, opts.Provider)
	}
}
