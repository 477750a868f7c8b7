// Package source feeds the digest pipeline with mailbox messages.
package source

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"

	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/gmail-digest/internal/agent"
	"github.com/hal9000y/gmail-digest/internal/format"
)

// noContent marks messages whose body could not be extracted. They still
// flow through the pipeline so counts stay honest.
const noContent = "No content"

type gmailSvc interface {
	ListMessages(ctx context.Context, q, pageToken string, maxResults int64) (*gmail.ListMessagesResponse, error)
	GetMessage(ctx context.Context, msgID string) (*gmail.Message, error)
}

// Gmail implements agent.EmailSource over the Gmail API.
type Gmail struct {
	svc    gmailSvc
	logger *log.Logger
}

// NewGmail wraps svc into the pipeline's email source.
func NewGmail(svc gmailSvc) *Gmail {
	return &Gmail{
		svc:    svc,
		logger: log.New(log.Writer(), "[SOURCE] ", log.LstdFlags),
	}
}

// Fetch returns up to count recent messages. A failed list is a source
// outage; a single message that fails to load is skipped and the rest of
// the batch still goes through.
func (g *Gmail) Fetch(ctx context.Context, count int) ([]agent.RawEmail, error) {
	list, err := g.svc.ListMessages(ctx, "", "", int64(count))
	if err != nil {
		return nil, fmt.Errorf("%w: svc.ListMessages failed: %w", agent.ErrSourceUnavailable, err)
	}

	emails := make([]agent.RawEmail, 0, len(list.Messages))
	for _, m := range list.Messages {
		msg, err := g.svc.GetMessage(ctx, m.Id)
		if err != nil {
			g.logger.Printf("skipping message %s: %v", m.Id, err)
			continue
		}
		emails = append(emails, rawEmail(msg))
	}

	g.logger.Printf("fetched %d of %d listed messages", len(emails), len(list.Messages))
	return emails, nil
}

func rawEmail(msg *gmail.Message) agent.RawEmail {
	email := agent.RawEmail{Content: noContent}
	if msg.Payload == nil {
		return email
	}

	for _, header := range msg.Payload.Headers {
		switch header.Name {
		case "Subject":
			email.Subject = header.Value
		case "From":
			email.From = header.Value
		}
	}

	if content := extractContent(msg.Payload); content != "" {
		email.Content = content
	}
	return email
}

// extractContent prefers the text/plain body and falls back to stripped
// text/html.
func extractContent(payload *gmail.MessagePart) string {
	textBody, htmlBody := extractBodies(payload)
	if trimmed := strings.TrimSpace(textBody); trimmed != "" {
		return trimmed
	}
	if htmlBody == "" {
		return ""
	}

	text, err := format.HTMLText([]byte(htmlBody))
	if err != nil {
		return ""
	}
	return text
}

func extractBodies(payload *gmail.MessagePart) (textBody, htmlBody string) {
	textBody, htmlBody = bodyFromPart(payload)

	for _, part := range payload.Parts {
		partText, partHTML := bodyFromPart(part)

		if textBody == "" {
			textBody = partText
		}
		if htmlBody == "" {
			htmlBody = partHTML
		}

		if len(part.Parts) > 0 {
			nestedText, nestedHTML := extractBodies(part)
			if textBody == "" {
				textBody = nestedText
			}
			if htmlBody == "" {
				htmlBody = nestedHTML
			}
		}
	}

	return textBody, htmlBody
}

func bodyFromPart(part *gmail.MessagePart) (textBody, htmlBody string) {
	if part.Body == nil || part.Body.Data == "" {
		return "", ""
	}

	switch part.MimeType {
	case "text/plain":
		return decodeBase64URL(part.Body.Data), ""
	case "text/html":
		return "", decodeBase64URL(part.Body.Data)
	default:
		return "", ""
	}
}

func decodeBase64URL(data string) string {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.RawURLEncoding.DecodeString(data)
		if err != nil {
			return data
		}
	}
	return string(decoded)
}
