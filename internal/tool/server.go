// Package tool exposes the digest pipeline as MCP tools.
package tool

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer creates an MCP server with the digest tool.
func NewServer(svc digestSvc) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "gmail-digest", Version: "v1.0.0"}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_digest",
		Description: "Scan recent Gmail messages and produce a markdown digest of the newsletters among them",
	}, NewGenerateDigest(svc).GenerateDigest)

	return server
}
