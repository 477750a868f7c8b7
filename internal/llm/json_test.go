package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	type plan struct {
		Tool     string `json:"tool"`
		Complete bool   `json:"is_complete"`
	}

	for _, tc := range []struct {
		name string
		text string
		want plan
	}{
		{
			name: "plain object",
			text: `{"tool": "fetch_emails", "is_complete": false}`,
			want: plan{Tool: "fetch_emails"},
		},
		{
			name: "markdown fences",
			text: "```json\n{\"tool\": \"format_digest\", \"is_complete\": false}\n```",
			want: plan{Tool: "format_digest"},
		},
		{
			name: "surrounding prose",
			text: "Here is my decision:\n{\"tool\": \"analyze_newsletters\", \"is_complete\": false}\nLet me know.",
			want: plan{Tool: "analyze_newsletters"},
		},
		{
			name: "trailing comma",
			text: `{"tool": "fetch_emails", "is_complete": false,}`,
			want: plan{Tool: "fetch_emails"},
		},
		{
			name: "hidden control characters",
			text: "{\"tool\": \"fetch_emails\",\x00 \"is_complete\": false}",
			want: plan{Tool: "fetch_emails"},
		},
		{
			name: "braces inside strings",
			text: `{"tool": "fetch_emails", "reason": "state is {empty}", "is_complete": false}`,
			want: plan{Tool: "fetch_emails"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var got plan
			require.NoError(t, decodeJSON(tc.text, &got))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeJSONArray(t *testing.T) {
	var got []classifyVerdict
	text := "```json\n[\n  {\"subject\": \"A\", \"from\": \"a@x\", \"is_newsletter\": true},\n  {\"subject\": \"B\", \"from\": \"b@x\", \"is_newsletter\": false},\n]\n```"
	require.NoError(t, decodeJSON(text, &got))
	require.Len(t, got, 2)
	assert.True(t, got[0].IsNewsletter)
	assert.False(t, got[1].IsNewsletter)
}

func TestDecodeJSONErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		text string
	}{
		{name: "no JSON at all", text: "I could not decide."},
		{name: "unbalanced braces", text: `{"tool": "fetch_emails"`},
		{name: "garbage inside", text: `{tool: fetch_emails}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var got map[string]any
			assert.Error(t, decodeJSON(tc.text, &got))
		})
	}
}

func TestExtractJSONPicksFirstValue(t *testing.T) {
	raw, err := extractJSON(`prefix {"a": 1} suffix {"b": 2}`)
	require.NoError(t, err)
	assert.Equal(t, `{"a": 1}`, raw)
}
