package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/gmail-digest/internal/digest"
)

type GenerateDigestRequest struct {
	EmailCount int `json:"email_count,omitempty" jsonschema:"how many recent emails to scan, defaults to the server setting"`
}

type GenerateDigestResponse struct {
	Status      string `json:"status" jsonschema:"success when a digest was produced"`
	Digest      string `json:"digest" jsonschema:"markdown digest of the newsletters found"`
	RunID       string `json:"run_id" jsonschema:"identifier of the pipeline run"`
	Emails      int    `json:"emails" jsonschema:"number of emails scanned"`
	Newsletters int    `json:"newsletters" jsonschema:"number of newsletters detected"`
}

type digestSvc interface {
	Generate(ctx context.Context, emailCount int) (*digest.Result, error)
}

func NewGenerateDigest(svc digestSvc) *GenerateDigest {
	return &GenerateDigest{
		svc: svc,
	}
}

type GenerateDigest struct {
	svc digestSvc
}

func (t *GenerateDigest) GenerateDigest(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input GenerateDigestRequest,
) (*mcp.CallToolResult, GenerateDigestResponse, error) {
	res, err := t.svc.Generate(ctx, input.EmailCount)
	if err != nil {
		return nil, GenerateDigestResponse{}, fmt.Errorf("svc.Generate failed: %w", err)
	}

	return nil, GenerateDigestResponse{
		Status:      "success",
		Digest:      res.Digest,
		RunID:       res.RunID,
		Emails:      res.Emails,
		Newsletters: res.Newsletters,
	}, nil
}
