package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)

// sanitize strips the decoration models like to wrap around JSON: markdown
// code fences, non-printable characters and trailing commas.
func sanitize(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			b.WriteRune(r)
		}
	}
	return trailingCommaRe.ReplaceAllString(b.String(), "$1")
}

// extractJSON returns the first balanced JSON object or array embedded in
// text, skipping any prose around it.
func extractJSON(text string) (string, error) {
	start := strings.IndexAny(text, "[{")
	if start < 0 {
		return "", errors.New("no JSON value found")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", errors.New("unbalanced JSON value")
}

// decodeJSON unmarshals the first JSON value embedded in a model response
// into v.
func decodeJSON(text string, v any) error {
	raw, err := extractJSON(sanitize(text))
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %w", err)
	}
	return nil
}
