package agent

// Tool names registered by the pipeline.
const (
	ToolFetchEmails          = "fetch_emails"
	ToolAnalyzeNewsletters   = "analyze_newsletters"
	ToolSummarizeNewsletters = "summarize_newsletters"
	ToolFormatDigest         = "format_digest"
)

// FilterFieldNewsletter is the only filter field the pipeline declares.
const FilterFieldNewsletter = "is_newsletter"

// Filter narrows a sequence-valued input to the entries whose named flag
// matches Value.
type Filter struct {
	Field string `json:"field"`
	Value bool   `json:"value"`
}

// ParamSpec declares one tool input. Source names the state field the value
// is read from; the empty Source marks the single config-sourced parameter
// of the pipeline's entry tool.
type ParamSpec struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Source      Field   `json:"source,omitempty"`
	Filter      *Filter `json:"filter,omitempty"`
}

// Manifest is the static declaration of one tool: its inputs and the state
// fields it reads and writes. Every tool writes exactly one field.
type Manifest struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Params      []ParamSpec `json:"input"`
	Reads       []Field     `json:"reads"`
	Writes      []Field     `json:"writes"`
}

func fetchEmailsManifest() Manifest {
	return Manifest{
		Name:        ToolFetchEmails,
		Description: "Fetch recent emails from the mailbox",
		Params: []ParamSpec{{
			Name:        "num_emails",
			Description: "Number of emails to fetch",
		}},
		Reads:  []Field{},
		Writes: []Field{FieldEmails},
	}
}

func analyzeNewslettersManifest() Manifest {
	return Manifest{
		Name:        ToolAnalyzeNewsletters,
		Description: "Analyze fetched emails to identify newsletters",
		Params: []ParamSpec{{
			Name:        "emails",
			Description: "Fetched emails to classify",
			Source:      FieldEmails,
		}},
		Reads:  []Field{FieldEmails},
		Writes: []Field{FieldNewsletters},
	}
}

func summarizeNewslettersManifest() Manifest {
	return Manifest{
		Name:        ToolSummarizeNewsletters,
		Description: "Summarize the emails identified as newsletters",
		Params: []ParamSpec{{
			Name:        "newsletters",
			Description: "Newsletter emails to summarize",
			Source:      FieldNewsletters,
			Filter:      &Filter{Field: FilterFieldNewsletter, Value: true},
		}},
		Reads:  []Field{FieldNewsletters},
		Writes: []Field{FieldSummaries},
	}
}

func formatDigestManifest() Manifest {
	return Manifest{
		Name:        ToolFormatDigest,
		Description: "Format the summarized newsletters into a markdown digest",
		Params: []ParamSpec{{
			Name:        "summarized_newsletters",
			Description: "Summarized newsletters to include in the digest",
			Source:      FieldSummaries,
			Filter:      &Filter{Field: FilterFieldNewsletter, Value: true},
		}},
		Reads:  []Field{FieldSummaries},
		Writes: []Field{FieldDigest},
	}
}
