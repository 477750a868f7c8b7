package agent

import "fmt"

// BuildArgs assembles the arguments of one tool invocation from state. Every
// parameter resolves from its declared Source field; the single parameter
// with no Source is the entry tool's email count, which comes from the run
// configuration instead. Declared filters apply before the value is handed
// over.
func BuildArgs(m Manifest, st *State) (Args, error) {
	args := make(Args, len(m.Params))
	for _, p := range m.Params {
		v, err := resolveParam(p, st)
		if err != nil {
			return nil, fmt.Errorf("tool %q param %q: %w", m.Name, p.Name, err)
		}
		args[p.Name] = v
	}
	return args, nil
}

func resolveParam(p ParamSpec, st *State) (any, error) {
	if p.Source == "" {
		// Config-sourced: the only parameter not fed by an earlier tool.
		return st.EmailCount, nil
	}
	if !st.Populated(p.Source) {
		return nil, fmt.Errorf("%w: %q not populated", ErrMissingStateField, p.Source)
	}

	switch p.Source {
	case FieldEmails:
		if p.Filter != nil {
			return nil, fmt.Errorf("%w: %q is not filterable", ErrMissingStateField, p.Source)
		}
		return st.Emails, nil
	case FieldNewsletters:
		if p.Filter == nil {
			return st.Newsletters, nil
		}
		return filterClassified(st.Newsletters, *p.Filter)
	case FieldSummaries:
		if p.Filter == nil {
			return st.Summaries, nil
		}
		return filterSummarized(st.Summaries, *p.Filter)
	case FieldDigest:
		if p.Filter != nil {
			return nil, fmt.Errorf("%w: %q is not filterable", ErrMissingStateField, p.Source)
		}
		if st.Digest == nil {
			return nil, fmt.Errorf("%w: %q populated without value", ErrMissingStateField, p.Source)
		}
		return *st.Digest, nil
	default:
		return nil, fmt.Errorf("%w: unknown source %q", ErrMissingStateField, p.Source)
	}
}

func filterClassified(in []ClassifiedEmail, f Filter) ([]ClassifiedEmail, error) {
	if f.Field != FilterFieldNewsletter {
		return nil, fmt.Errorf("%w: unknown filter field %q", ErrMissingStateField, f.Field)
	}
	kept := make([]ClassifiedEmail, 0, len(in))
	for _, e := range in {
		if e.IsNewsletter == f.Value {
			kept = append(kept, e)
		}
	}
	return kept, nil
}

func filterSummarized(in []SummarizedNewsletter, f Filter) ([]SummarizedNewsletter, error) {
	if f.Field != FilterFieldNewsletter {
		return nil, fmt.Errorf("%w: unknown filter field %q", ErrMissingStateField, f.Field)
	}
	kept := make([]SummarizedNewsletter, 0, len(in))
	for _, e := range in {
		if e.IsNewsletter == f.Value {
			kept = append(kept, e)
		}
	}
	return kept, nil
}
