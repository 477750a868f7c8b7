// Package format turns raw newsletter HTML into plain text fit for model
// prompts.
package format

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// skippedElements contribute no text at all.
var skippedElements = map[string]struct{}{
	"script":   {},
	"style":    {},
	"head":     {},
	"title":    {},
	"noscript": {},
	"iframe":   {},
	"svg":      {},
}

// blockElements end the current line once their content is written. Rows and
// cells are included because newsletter markup leans on layout tables; each
// row becomes its own line.
var blockElements = map[string]struct{}{
	"p":          {},
	"div":        {},
	"section":    {},
	"article":    {},
	"header":     {},
	"footer":     {},
	"table":      {},
	"tr":         {},
	"ul":         {},
	"ol":         {},
	"li":         {},
	"blockquote": {},
	"pre":        {},
	"h1":         {},
	"h2":         {},
	"h3":         {},
	"h4":         {},
	"h5":         {},
	"h6":         {},
}

var (
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
	spaceRunsRe  = regexp.MustCompile(`[ \t]+`)
)

// HTMLText extracts the readable text of an HTML document.
func HTMLText(raw []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("html.Parse failed: %w", err)
	}

	var b strings.Builder
	writeNodeText(doc, &b)
	return tidy(b.String()), nil
}

func writeNodeText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
			b.WriteString(text)
			b.WriteByte(' ')
		}
		return
	case html.ElementNode:
		if _, skip := skippedElements[n.Data]; skip {
			return
		}
		if n.Data == "br" {
			b.WriteByte('\n')
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeNodeText(c, b)
	}

	if n.Type == html.ElementNode {
		if _, block := blockElements[n.Data]; block {
			b.WriteByte('\n')
		}
	}
}

func tidy(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRunsRe.ReplaceAllString(line, " "))
	}

	joined := strings.Join(lines, "\n")
	joined = blankLinesRe.ReplaceAllString(joined, "\n\n")
	return strings.TrimSpace(joined)
}
