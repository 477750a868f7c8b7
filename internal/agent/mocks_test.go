package agent

import "context"

type plannerMock struct {
	DecideFunc func(ctx context.Context, snap Snapshot, manifests []Manifest) (Decision, error)

	calls int
}

func (m *plannerMock) Decide(ctx context.Context, snap Snapshot, manifests []Manifest) (Decision, error) {
	m.calls++
	return m.DecideFunc(ctx, snap, manifests)
}

type sourceMock struct {
	FetchFunc func(ctx context.Context, count int) ([]RawEmail, error)

	calls int
}

func (m *sourceMock) Fetch(ctx context.Context, count int) ([]RawEmail, error) {
	m.calls++
	return m.FetchFunc(ctx, count)
}

type modelMock struct {
	ClassifyFunc     func(ctx context.Context, emails []RawEmail) ([]ClassifiedEmail, error)
	SummarizeFunc    func(ctx context.Context, newsletters []ClassifiedEmail) ([]SummarizedNewsletter, error)
	FormatDigestFunc func(ctx context.Context, summaries []SummarizedNewsletter) (string, error)

	classifyCalls  int
	summarizeCalls int
	formatCalls    int
}

func (m *modelMock) Classify(ctx context.Context, emails []RawEmail) ([]ClassifiedEmail, error) {
	m.classifyCalls++
	return m.ClassifyFunc(ctx, emails)
}

func (m *modelMock) Summarize(ctx context.Context, newsletters []ClassifiedEmail) ([]SummarizedNewsletter, error) {
	m.summarizeCalls++
	return m.SummarizeFunc(ctx, newsletters)
}

func (m *modelMock) FormatDigest(ctx context.Context, summaries []SummarizedNewsletter) (string, error) {
	m.formatCalls++
	return m.FormatDigestFunc(ctx, summaries)
}

// orderPlanner follows the natural pipeline order from the snapshot and
// claims completion once the digest exists.
func orderPlanner() *plannerMock {
	return &plannerMock{DecideFunc: func(_ context.Context, snap Snapshot, _ []Manifest) (Decision, error) {
		switch {
		case !snap.HasEmails:
			return Decision{Tool: ToolFetchEmails, Reason: "no emails fetched yet"}, nil
		case !snap.HasNewsletters:
			return Decision{Tool: ToolAnalyzeNewsletters, Reason: "emails not classified"}, nil
		case !snap.HasSummaries:
			return Decision{Tool: ToolSummarizeNewsletters, Reason: "newsletters not summarized"}, nil
		case !snap.HasDigest:
			return Decision{Tool: ToolFormatDigest, Reason: "digest not formatted"}, nil
		default:
			return Decision{Complete: true, Reason: "digest ready"}, nil
		}
	}}
}

// happyModel classifies by sender, summarizes with a fixed prefix and
// renders a one-line-per-newsletter digest.
func happyModel() *modelMock {
	return &modelMock{
		ClassifyFunc: func(_ context.Context, emails []RawEmail) ([]ClassifiedEmail, error) {
			out := make([]ClassifiedEmail, len(emails))
			for i, e := range emails {
				out[i] = ClassifiedEmail{RawEmail: e, IsNewsletter: e.From == "news@weekly.dev"}
			}
			return out, nil
		},
		SummarizeFunc: func(_ context.Context, newsletters []ClassifiedEmail) ([]SummarizedNewsletter, error) {
			out := make([]SummarizedNewsletter, len(newsletters))
			for i, n := range newsletters {
				out[i] = SummarizedNewsletter{ClassifiedEmail: n, Summary: "summary of " + n.Subject}
			}
			return out, nil
		},
		FormatDigestFunc: func(_ context.Context, summaries []SummarizedNewsletter) (string, error) {
			digest := "# Newsletter Digest\n"
			for _, s := range summaries {
				digest += "## " + s.Subject + "\n" + s.Summary + "\n"
			}
			return digest, nil
		},
	}
}

func fixedSource(emails []RawEmail) *sourceMock {
	return &sourceMock{FetchFunc: func(_ context.Context, count int) ([]RawEmail, error) {
		if count < len(emails) {
			return emails[:count], nil
		}
		return emails, nil
	}}
}
