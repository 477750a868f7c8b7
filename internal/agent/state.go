// Package agent implements the newsletter digest pipeline: a planner-driven
// controller that fetches mailbox messages, classifies newsletters, summarizes
// them and renders a markdown digest through a fixed set of tools.
package agent

import (
	"fmt"
)

// RawEmail is one fetched mailbox message. Its fields are preserved verbatim
// through every later pipeline stage.
type RawEmail struct {
	Subject string `json:"subject"`
	From    string `json:"from"`
	Content string `json:"content"`
}

// ClassifiedEmail is a RawEmail plus the newsletter verdict.
type ClassifiedEmail struct {
	RawEmail
	IsNewsletter bool `json:"is_newsletter"`
}

// SummarizedNewsletter is a ClassifiedEmail plus its generated summary.
type SummarizedNewsletter struct {
	ClassifiedEmail
	Summary string `json:"summary"`
}

// Field names one slot of the pipeline state. Manifests declare their reads
// and writes in terms of these.
type Field string

const (
	FieldEmails      Field = "emails"
	FieldNewsletters Field = "newsletters"
	FieldSummaries   Field = "summarized_newsletters"
	FieldDigest      Field = "digest"
)

// Stage is the controller's position in the run.
type Stage string

const (
	StagePending    Stage = "PENDING"
	StageFetched    Stage = "FETCHED"
	StageAnalyzed   Stage = "ANALYZED"
	StageSummarized Stage = "SUMMARIZED"
	StageFormatted  Stage = "FORMATTED"
	StageFailed     Stage = "FAILED"
	StageAborted    Stage = "ABORTED"
)

// stageTransitions is the canonical transition map. FORMATTED, FAILED and
// ABORTED are terminal.
var stageTransitions = map[Stage][]Stage{
	StagePending:    {StageFetched, StageFailed, StageAborted},
	StageFetched:    {StageAnalyzed, StageFailed, StageAborted},
	StageAnalyzed:   {StageSummarized, StageFailed, StageAborted},
	StageSummarized: {StageFormatted, StageFailed, StageAborted},
	StageFormatted:  {},
	StageFailed:     {},
	StageAborted:    {},
}

// Terminal reports whether no further transition is allowed out of s.
func (s Stage) Terminal() bool {
	return len(stageTransitions[s]) == 0
}

// State is the single mutable record of one digest run. Every field is
// written exactly once, by exactly one tool; the controller is the only
// writer. A zero-length write still marks its field as populated, so an
// empty mailbox does not stall the run.
type State struct {
	EmailCount  int
	Emails      []RawEmail
	Newsletters []ClassifiedEmail
	Summaries   []SummarizedNewsletter
	Digest      *string

	stage     Stage
	populated map[Field]bool
}

// NewState creates the state for a fresh run requesting emailCount messages.
func NewState(emailCount int) *State {
	return &State{
		EmailCount: emailCount,
		stage:      StagePending,
		populated:  make(map[Field]bool),
	}
}

// Stage returns the current run stage.
func (s *State) Stage() Stage {
	return s.stage
}

// Populated reports whether f has been written.
func (s *State) Populated(f Field) bool {
	return s.populated[f]
}

func (s *State) advance(to Stage) error {
	for _, allowed := range stageTransitions[s.stage] {
		if allowed == to {
			s.stage = to
			return nil
		}
	}
	return fmt.Errorf("illegal stage transition %s -> %s", s.stage, to)
}

// newslettersOnly returns the classified entries flagged as newsletters,
// preserving order.
func (s *State) newslettersOnly() []ClassifiedEmail {
	kept := make([]ClassifiedEmail, 0, len(s.Newsletters))
	for _, n := range s.Newsletters {
		if n.IsNewsletter {
			kept = append(kept, n)
		}
	}
	return kept
}

// Snapshot is the read-only view of a run handed to the planner. It carries
// counts and populated flags, never the mutable state itself.
type Snapshot struct {
	EmailCount       int  `json:"email_count"`
	EmailsFetched    int  `json:"emails_fetched"`
	NewslettersFound int  `json:"newsletters_found"`
	Summarized       int  `json:"summarized"`
	HasEmails        bool `json:"has_emails"`
	HasNewsletters   bool `json:"has_newsletters"`
	HasSummaries     bool `json:"has_summaries"`
	HasDigest        bool `json:"has_digest"`
}

// Snapshot captures the planner-facing view of the current state.
func (s *State) Snapshot() Snapshot {
	found := 0
	for _, n := range s.Newsletters {
		if n.IsNewsletter {
			found++
		}
	}

	return Snapshot{
		EmailCount:       s.EmailCount,
		EmailsFetched:    len(s.Emails),
		NewslettersFound: found,
		Summarized:       len(s.Summaries),
		HasEmails:        s.populated[FieldEmails],
		HasNewsletters:   s.populated[FieldNewsletters],
		HasSummaries:     s.populated[FieldSummaries],
		HasDigest:        s.populated[FieldDigest],
	}
}
