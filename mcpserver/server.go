// Package mcpserver exposes the converter as Model Context Protocol tools:
// detect_footer, extract_listing, convert_flyer and get_profile.
package mcpserver

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tsawler/mysouku"
	"github.com/tsawler/mysouku/profile"
)

// Name is the implementation name announced to clients.
const Name = "mysouku"

// Server holds the collaborators shared by the tool handlers.
type Server struct {
	conv     *mysouku.Converter
	store    profile.Store
	maxBytes int64
}

// New returns a tool server. store may be nil, in which case convert_flyer
// requires an inline profile and get_profile fails. Files read by path are
// limited to maxBytes when it is positive.
func New(conv *mysouku.Converter, store profile.Store, maxBytes int64) *Server {
	return &Server{conv: conv, store: store, maxBytes: maxBytes}
}

// MCPServer returns an MCP server with every tool registered.
func (s *Server) MCPServer(version string) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: Name, Version: version}, nil)
	mcp.AddTool(srv, MetadataDetectFooter, s.DetectFooter)
	mcp.AddTool(srv, MetadataExtractListing, s.ExtractListing)
	mcp.AddTool(srv, MetadataConvertFlyer, s.ConvertFlyer)
	mcp.AddTool(srv, MetadataGetProfile, s.GetProfile)
	return srv
}

// Run serves the tools over stdin and stdout until ctx is done or the
// client disconnects.
func (s *Server) Run(ctx context.Context, version string) error {
	return s.MCPServer(version).Run(ctx, &mcp.StdioTransport{})
}

// Document is the PDF argument shared by every tool: inline base64 or a
// path on the server's file system.
type Document struct {
	PDFBase64 string `json:"pdf_base64"`
	Path      string `json:"path"`
}

var documentProperties = map[string]interface{}{
	"pdf_base64": map[string]interface{}{
		"type":        "string",
		"description": "The flyer PDF, base64 encoded. Either pdf_base64 or path is required.",
	},
	"path": map[string]interface{}{
		"type":        "string",
		"description": "Path to a .pdf file readable by the server.",
	},
}

var errNoDocument = errors.New("pdf_base64 or path is required")

func (s *Server) load(d Document) ([]byte, error) {
	switch {
	case d.PDFBase64 != "" && d.Path != "":
		return nil, errors.New("pass either pdf_base64 or path, not both")
	case d.PDFBase64 != "":
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(d.PDFBase64))
		if err != nil {
			return nil, fmt.Errorf("pdf_base64: %w", err)
		}
		return data, nil
	case d.Path != "":
		return mysouku.ReadFile(d.Path, s.maxBytes)
	default:
		return nil, errNoDocument
	}
}

func properties(extra map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(documentProperties)+len(extra))
	for k, v := range documentProperties {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
