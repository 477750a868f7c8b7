package agent

import (
	"context"
	"fmt"
)

// EmailSource fetches raw messages from the mailbox.
type EmailSource interface {
	Fetch(ctx context.Context, count int) ([]RawEmail, error)
}

// TextModel performs the language model transformations behind the pipeline
// tools. Implementations keep the per-entry pairing intact: Classify returns
// one entry per input email and Summarize one entry per input newsletter, in
// input order.
type TextModel interface {
	Classify(ctx context.Context, emails []RawEmail) ([]ClassifiedEmail, error)
	Summarize(ctx context.Context, newsletters []ClassifiedEmail) ([]SummarizedNewsletter, error)
	FormatDigest(ctx context.Context, summaries []SummarizedNewsletter) (string, error)
}

// NewRegistry builds the pipeline registry: fetch, analyze, summarize and
// format, bound to the given source and model.
func NewRegistry(source EmailSource, model TextModel) (*Registry, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: nil email source", ErrConfiguration)
	}
	if model == nil {
		return nil, fmt.Errorf("%w: nil text model", ErrConfiguration)
	}

	return newRegistry([]Tool{
		{Manifest: fetchEmailsManifest(), Run: fetchRunner(source)},
		{Manifest: analyzeNewslettersManifest(), Run: analyzeRunner(model)},
		{Manifest: summarizeNewslettersManifest(), Run: summarizeRunner(model)},
		{Manifest: formatDigestManifest(), Run: formatRunner(model)},
	})
}

func fetchRunner(source EmailSource) Runner {
	return func(ctx context.Context, args Args) (any, error) {
		count, err := intArg(args, "num_emails")
		if err != nil {
			return nil, err
		}
		emails, err := source.Fetch(ctx, count)
		if err != nil {
			return nil, fmt.Errorf("source.Fetch failed: %w", err)
		}
		return emails, nil
	}
}

func analyzeRunner(model TextModel) Runner {
	return func(ctx context.Context, args Args) (any, error) {
		emails, err := sliceArg[RawEmail](args, "emails")
		if err != nil {
			return nil, err
		}
		classified, err := model.Classify(ctx, emails)
		if err != nil {
			return nil, fmt.Errorf("model.Classify failed: %w", err)
		}
		return classified, nil
	}
}

func summarizeRunner(model TextModel) Runner {
	return func(ctx context.Context, args Args) (any, error) {
		newsletters, err := sliceArg[ClassifiedEmail](args, "newsletters")
		if err != nil {
			return nil, err
		}
		summaries, err := model.Summarize(ctx, newsletters)
		if err != nil {
			return nil, fmt.Errorf("model.Summarize failed: %w", err)
		}
		return summaries, nil
	}
}

func formatRunner(model TextModel) Runner {
	return func(ctx context.Context, args Args) (any, error) {
		summaries, err := sliceArg[SummarizedNewsletter](args, "summarized_newsletters")
		if err != nil {
			return nil, err
		}
		digest, err := model.FormatDigest(ctx, summaries)
		if err != nil {
			return nil, fmt.Errorf("model.FormatDigest failed: %w", err)
		}
		return digest, nil
	}
}

func intArg(args Args, name string) (int, error) {
	v, ok := args[name]
	if !ok {
		return 0, fmt.Errorf("%w: arg %q missing", ErrMissingStateField, name)
	}
	n, ok := v.(int)
	if !ok {
		return 0, fmt.Errorf("%w: arg %q is %T, want int", ErrMissingStateField, name, v)
	}
	return n, nil
}

func sliceArg[T any](args Args, name string) ([]T, error) {
	v, ok := args[name]
	if !ok {
		return nil, fmt.Errorf("%w: arg %q missing", ErrMissingStateField, name)
	}
	s, ok := v.([]T)
	if !ok {
		return nil, fmt.Errorf("%w: arg %q is %T, want []%T", ErrMissingStateField, name, v, *new(T))
	}
	return s, nil
}
