package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/hal9000y/gmail-digest/internal/agent"
)

// classifyContentLimit caps how much of each email body is quoted in the
// classification prompt.
const classifyContentLimit = 1000

// Model implements agent.TextModel on top of a Generator.
type Model struct {
	gen    Generator
	logger *log.Logger
}

// NewModel wraps gen into the pipeline's text model.
func NewModel(gen Generator) *Model {
	return &Model{
		gen:    gen,
		logger: log.New(log.Writer(), "[MODEL] ", log.LstdFlags),
	}
}

type classifyVerdict struct {
	Subject      string `json:"subject"`
	From         string `json:"from"`
	IsNewsletter bool   `json:"is_newsletter"`
}

type emailKey struct {
	subject string
	from    string
}

// Classify asks the model which emails are newsletters in a single call and
// matches the verdicts back by subject and sender. Emails the model failed
// to echo back count as not newsletters, so the result always pairs one to
// one with the input.
func (m *Model) Classify(ctx context.Context, emails []agent.RawEmail) ([]agent.ClassifiedEmail, error) {
	if len(emails) == 0 {
		return []agent.ClassifiedEmail{}, nil
	}

	prompt, err := classifyPrompt(emails)
	if err != nil {
		return nil, err
	}
	m.logger.Printf("classifying %d emails", len(emails))
	text, err := m.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("classification call failed: %w", err)
	}

	var verdicts []classifyVerdict
	if err := decodeJSON(text, &verdicts); err != nil {
		return nil, fmt.Errorf("%w: classification response not parseable: %w", agent.ErrModel, err)
	}
	verdictFor := make(map[emailKey]bool, len(verdicts))
	for _, v := range verdicts {
		verdictFor[emailKey{subject: v.Subject, from: v.From}] = v.IsNewsletter
	}

	out := make([]agent.ClassifiedEmail, len(emails))
	found := 0
	for i, e := range emails {
		is := verdictFor[emailKey{subject: e.Subject, from: e.From}]
		out[i] = agent.ClassifiedEmail{RawEmail: e, IsNewsletter: is}
		if is {
			found++
		}
	}
	m.logger.Printf("identified %d newsletters out of %d emails", found, len(emails))
	return out, nil
}

// Summarize generates one summary per newsletter, in input order.
func (m *Model) Summarize(ctx context.Context, newsletters []agent.ClassifiedEmail) ([]agent.SummarizedNewsletter, error) {
	out := make([]agent.SummarizedNewsletter, 0, len(newsletters))
	for i, n := range newsletters {
		m.logger.Printf("summarizing newsletter %d/%d: %s", i+1, len(newsletters), n.Subject)
		text, err := m.gen.Generate(ctx, summarizePrompt(n))
		if err != nil {
			return nil, fmt.Errorf("summarize %q failed: %w", n.Subject, err)
		}
		out = append(out, agent.SummarizedNewsletter{
			ClassifiedEmail: n,
			Summary:         strings.TrimSpace(text),
		})
	}
	return out, nil
}

// FormatDigest renders the summaries into a markdown digest. It runs even
// for zero summaries, producing a digest without newsletter sections.
func (m *Model) FormatDigest(ctx context.Context, summaries []agent.SummarizedNewsletter) (string, error) {
	blob, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("json.MarshalIndent failed: %w", err)
	}

	prompt := fmt.Sprintf(`Create a well-formatted markdown digest of these newsletter summaries:

%s

Format it as:
# Newsletter Digest

## [Newsletter Name/Subject]
[Summary content]

Include a brief introduction and conclusion.`, blob)

	m.logger.Printf("formatting digest from %d summaries", len(summaries))
	text, err := m.gen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("digest formatting failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func classifyPrompt(emails []agent.RawEmail) (string, error) {
	safe := make([]agent.RawEmail, len(emails))
	for i, e := range emails {
		safe[i] = agent.RawEmail{
			Subject: e.Subject,
			From:    e.From,
			Content: truncate(e.Content, classifyContentLimit),
		}
	}
	blob, err := json.MarshalIndent(safe, "", "  ")
	if err != nil {
		return "", fmt.Errorf("json.MarshalIndent failed: %w", err)
	}

	return fmt.Sprintf(`Analyze these emails and identify which ones are newsletters.
A newsletter is a regularly distributed publication about a particular topic or set of topics.

Emails to analyze:
%s

For each email, determine if it's a newsletter based on:
1. Regular distribution pattern
2. Topic-focused content
3. Mass distribution characteristics
4. Newsletter-like formatting

Return a JSON array where each object has:
{
    "subject": "email subject",
    "from": "sender email",
    "is_newsletter": true/false
}

IMPORTANT:
1. Return ONLY the JSON array, no other text
2. Include ALL emails from the input, not just newsletters
3. Set is_newsletter to false for non-newsletter emails
4. Match the subject and from fields exactly with the input emails
5. Respond with raw JSON only, no markdown or code blocks`, blob), nil
}

func summarizePrompt(n agent.ClassifiedEmail) string {
	return fmt.Sprintf(`Generate a concise summary of this newsletter:

Subject: %s
From: %s
Content: %s

Focus on:
1. Main topics or themes
2. Key points or highlights
3. Any calls to action

Return the summary in a clear, structured format.`, n.Subject, n.From, n.Content)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
