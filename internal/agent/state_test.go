package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateAdvance(t *testing.T) {
	for _, tc := range []struct {
		name  string
		from  Stage
		to    Stage
		legal bool
	}{
		{name: "pending to fetched", from: StagePending, to: StageFetched, legal: true},
		{name: "fetched to analyzed", from: StageFetched, to: StageAnalyzed, legal: true},
		{name: "analyzed to summarized", from: StageAnalyzed, to: StageSummarized, legal: true},
		{name: "summarized to formatted", from: StageSummarized, to: StageFormatted, legal: true},
		{name: "any live stage may fail", from: StageAnalyzed, to: StageFailed, legal: true},
		{name: "any live stage may abort", from: StagePending, to: StageAborted, legal: true},
		{name: "no stage skipping", from: StagePending, to: StageAnalyzed, legal: false},
		{name: "no going back", from: StageAnalyzed, to: StageFetched, legal: false},
		{name: "formatted is terminal", from: StageFormatted, to: StageFailed, legal: false},
		{name: "failed is terminal", from: StageFailed, to: StageFetched, legal: false},
		{name: "aborted is terminal", from: StageAborted, to: StageFormatted, legal: false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			st := NewState(5)
			st.stage = tc.from

			err := st.advance(tc.to)
			if tc.legal {
				require.NoError(t, err)
				assert.Equal(t, tc.to, st.Stage())
			} else {
				require.Error(t, err)
				assert.Equal(t, tc.from, st.Stage())
			}
		})
	}
}

func TestStageTerminal(t *testing.T) {
	assert.True(t, StageFormatted.Terminal())
	assert.True(t, StageFailed.Terminal())
	assert.True(t, StageAborted.Terminal())
	assert.False(t, StagePending.Terminal())
	assert.False(t, StageSummarized.Terminal())
}

func TestStateSnapshot(t *testing.T) {
	st := NewState(4)
	assert.Equal(t, Snapshot{EmailCount: 4}, st.Snapshot())

	st.Emails = testEmails
	st.populated[FieldEmails] = true
	st.Newsletters = []ClassifiedEmail{
		{RawEmail: testEmails[0], IsNewsletter: true},
		{RawEmail: testEmails[1]},
		{RawEmail: testEmails[2], IsNewsletter: true},
	}
	st.populated[FieldNewsletters] = true

	snap := st.Snapshot()
	assert.Equal(t, Snapshot{
		EmailCount:       4,
		EmailsFetched:    3,
		NewslettersFound: 2,
		HasEmails:        true,
		HasNewsletters:   true,
	}, snap)
}

func TestStateNewslettersOnly(t *testing.T) {
	st := NewState(3)
	st.Newsletters = []ClassifiedEmail{
		{RawEmail: testEmails[0], IsNewsletter: true},
		{RawEmail: testEmails[1]},
		{RawEmail: testEmails[2], IsNewsletter: true},
	}

	kept := st.newslettersOnly()
	require.Len(t, kept, 2)
	assert.Equal(t, "Weekly Go News #42", kept[0].Subject)
	assert.Equal(t, "Weekly Go News #43", kept[1].Subject)
}
