package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jcdickinson/ferrisdoc/internal/docs"
	"github.com/jcdickinson/ferrisdoc/internal/extract"
	"github.com/jcdickinson/ferrisdoc/internal/output"
	"github.com/jcdickinson/ferrisdoc/internal/rpc"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

//go:embed instructions.md
var instructions string

type Server struct {
	mcpServer  *server.MCPServer
	runner     *extract.Runner
	publicOnly bool
}

// NewServer exposes runner over MCP. publicOnly is the default visibility
// filter for calls that do not set one.
func NewServer(runner *extract.Runner, version string, publicOnly bool) *Server {
	s := &Server{runner: runner, publicOnly: publicOnly}

	mcpServer := server.NewMCPServer(
		"ferrisdoc",
		version,
		server.WithInstructions(instructions),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("extract_docs",
			mcp.WithDescription("Extract the doc comments of the items under a Rust module path from a crate's rustdoc JSON. The first path segment is the crate name (underscores, e.g. \"datafusion_expr::expr_fn\"). Returns entries of {name, path, kind, doc} with the comment text verbatim."),
			mcp.WithString("path",
				mcp.Description("Module path, e.g. \"serde::de\""),
				mcp.Required(),
			),
			mcp.WithString("crate",
				mcp.Description("Crate whose stored index to use; defaults to the first path segment"),
			),
			mcp.WithString("version",
				mcp.Description("Crate version (default: the most recently stored)"),
			),
			mcp.WithString("index",
				mcp.Description("Path to a rustdoc JSON file; overrides crate and version"),
			),
			mcp.WithString("kind",
				mcp.Description("Item kind filter (default: any)"),
				mcp.Enum(docs.KindNames()...),
			),
			mcp.WithBoolean("recursive",
				mcp.Description("Also include items of nested modules"),
			),
			mcp.WithBoolean("public_only",
				mcp.Description("Only include public items"),
			),
			mcp.WithBoolean("fetch",
				mcp.Description("Download the index from docs.rs if it is not stored locally"),
			),
		),
		s.handleExtractDocs,
	)

	mcpServer.AddTool(
		mcp.NewTool("fetch_index",
			mcp.WithDescription("Download a crate's rustdoc JSON from docs.rs and store it for extract_docs. Version defaults to \"latest\"."),
			mcp.WithString("crate",
				mcp.Description("Crate name as published (e.g. \"datafusion-expr\")"),
				mcp.Required(),
			),
			mcp.WithString("version",
				mcp.Description("Version (default: \"latest\")"),
			),
		),
		s.handleFetchIndex,
	)
}

func (s *Server) registerResources(mcpServer *server.MCPServer) {
	mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"rustdoc://{crate}/{version}/{path}",
			"Rust doc comments under a module path",
			mcp.WithTemplateDescription("Doc comments of every documented item at or directly under a module path, as plain text."),
			mcp.WithTemplateMIMEType("text/plain"),
		),
		s.handleReadResource,
	)
}

func (s *Server) handleExtractDocs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	argsJSON, err := json.Marshal(req.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	var extractReq rpc.ExtractRequest
	if err := json.Unmarshal(argsJSON, &extractReq); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if strings.TrimSpace(extractReq.Path) == "" {
		return mcp.NewToolResultError("missing required parameter: path"), nil
	}
	if extractReq.Crate == "" && extractReq.Index == "" {
		extractReq.Crate, _, _ = strings.Cut(extractReq.Path, docs.PathSeparator)
	}

	job, err := extractReq.Job(s.publicOnly)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res := s.runner.Extract(ctx, job)
	if res.Err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("extract failed: %v", res.Err)), nil
	}

	resultJSON, _ := json.MarshalIndent(rpc.NewExtractResponse(res), "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleFetchIndex(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	argsJSON, err := json.Marshal(req.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	var fetchReq rpc.FetchRequest
	if err := json.Unmarshal(argsJSON, &fetchReq); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if fetchReq.Crate == "" {
		return mcp.NewToolResultError("missing required parameter: crate"), nil
	}

	path, err := s.runner.Fetch(ctx, fetchReq.Crate, fetchReq.Version)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("fetch failed: %v", err)), nil
	}
	g, err := s.runner.Load(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("fetch failed: %v", err)), nil
	}

	resultJSON, _ := json.MarshalIndent(rpc.FetchResponse{
		Crate:   g.CrateName,
		Version: g.CrateVersion,
		Path:    path,
	}, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleReadResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	trimmed := strings.TrimPrefix(uri, "rustdoc://")
	parts := strings.SplitN(trimmed, "/", 3)
	if len(parts) < 3 {
		return nil, fmt.Errorf("invalid resource URI: %s", uri)
	}

	res := s.runner.Extract(ctx, extract.Job{
		Crate:   parts[0],
		Version: parts[1],
		Query:   docs.Query{Path: parts[2], PublicOnly: s.publicOnly},
	})
	if res.Err != nil {
		return nil, fmt.Errorf("reading %s: %w", uri, res.Err)
	}

	var b strings.Builder
	if err := output.NewPrinter(&b, "").Entries(res.Entries); err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     b.String(),
		},
	}, nil
}

func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}
