package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rustnav/rustnav/internal/daemon"
	"github.com/rustnav/rustnav/internal/rpc"
)

//go:embed instructions.md
var instructions string

type Server struct {
	mcpServer *server.MCPServer
	client    *daemon.Client
}

func NewServer(socketPath string) (*Server, error) {
	client, err := daemon.ConnectOrSpawn(socketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting to daemon: %w", err)
	}

	s := &Server{client: client}

	mcpServer := server.NewMCPServer(
		"rustnav",
		"0.1.0",
		server.WithInstructions(instructions),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.mcpServer = mcpServer
	return s, nil
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("add_crates",
			mcp.WithDescription("Fetch, parse, validate, and index the navigation metadata (sidebar items and trait implementors) of Rust crates from docs.rs. Version defaults to \"latest\"."),
			addCratesSchema,
		),
		s.handleAddCrates,
	)

	mcpServer.AddTool(
		mcp.NewTool("search_crates",
			mcp.WithDescription("Search crates.io for Rust crates by name or keyword. Results indicate which crates are already indexed locally."),
			mcp.WithString("query",
				mcp.Description("Search query (crate name or keyword)"),
				mcp.Required(),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of results (default 20)"),
			),
		),
		s.handleSearchCrates,
	)

	mcpServer.AddTool(
		mcp.NewTool("search_items",
			mcp.WithDescription("Keyword search across indexed sidebar items (names and one-line summaries). Returns URIs that can be read as resources. Use `crates` or `kinds` to narrow the search."),
			mcp.WithString("query",
				mcp.Description("Search query (item name or summary keyword)"),
				mcp.Required(),
			),
			mcp.WithArray("crates",
				mcp.Description("Optional list of crate names to search within"),
				mcp.Items(map[string]interface{}{"type": "string"}),
			),
			mcp.WithArray("kinds",
				mcp.Description("Optional list of item kinds to include (struct, enum, trait, fn, ...)"),
				mcp.Items(map[string]interface{}{"type": "string"}),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of results (default 20)"),
			),
		),
		s.handleSearchItems,
	)

	mcpServer.AddTool(
		mcp.NewTool("sidebar",
			mcp.WithDescription("List one module's public API surface (its sidebar groups) as markdown. Omit `module` for the crate root."),
			mcp.WithString("crate",
				mcp.Description("Crate name (e.g., \"cosmic-text\")"),
				mcp.Required(),
			),
			mcp.WithString("version",
				mcp.Description("Version (default: \"latest\")"),
			),
			mcp.WithString("module",
				mcp.Description("Module path relative to the crate root (e.g., \"fontdb\")"),
			),
		),
		s.handleSidebar,
	)

	mcpServer.AddTool(
		mcp.NewTool("implementors",
			mcp.WithDescription("List the types implementing a trait, grouped by the library each impl lives in."),
			mcp.WithString("crate",
				mcp.Description("Crate name whose docs carry the trait-impl table"),
				mcp.Required(),
			),
			mcp.WithString("trait",
				mcp.Description("Full trait path (e.g., \"core::fmt::Debug\")"),
				mcp.Required(),
			),
			mcp.WithString("version",
				mcp.Description("Version (default: \"latest\")"),
			),
		),
		s.handleImplementors,
	)

	mcpServer.AddTool(
		mcp.NewTool("validate_crate",
			mcp.WithDescription("Run structural consistency checks over an indexed crate: unique names per kind group, entries only under declared libraries, well-formed implementor markup."),
			mcp.WithString("crate",
				mcp.Description("Crate name"),
				mcp.Required(),
			),
			mcp.WithString("version",
				mcp.Description("Version (default: \"latest\")"),
			),
			mcp.WithBoolean("strict",
				mcp.Description("Promote warnings to errors"),
			),
		),
		s.handleValidate,
	)
}

func addCratesSchema(t *mcp.Tool) {
	t.InputSchema.Required = append(t.InputSchema.Required, "crates")
	t.InputSchema.Properties["crates"] = map[string]any{
		"type":        "array",
		"description": "List of crates to index",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{
					"type":        "string",
					"description": "Crate name (e.g., \"cosmic-text\")",
				},
				"version": map[string]any{
					"type":        "string",
					"description": "Version (default: \"latest\")",
				},
				"dir": map[string]any{
					"type":        "string",
					"description": "Local doc tree to ingest instead of docs.rs (cargo doc's target/doc)",
				},
			},
			"required": []string{"name"},
		},
	}
}

func (s *Server) registerResources(mcpServer *server.MCPServer) {
	mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"rsnav://{crate}/{version}/{path}",
			"Rust navigation-index entry",
			mcp.WithTemplateDescription("Read a sidebar or implementor listing. Search results return these URIs; impl/<trait-path> reads an implementor table, mod/<module> a module sidebar."),
			mcp.WithTemplateMIMEType("text/markdown"),
		),
		s.handleReadResource,
	)
}

func (s *Server) handleAddCrates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	cratesRaw, ok := args["crates"]
	if !ok {
		return mcp.NewToolResultError("missing required parameter: crates"), nil
	}

	cratesJSON, err := json.Marshal(cratesRaw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid crates parameter: %v", err)), nil
	}

	var specs []rpc.CrateSpec
	if err := json.Unmarshal(cratesJSON, &specs); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid crates format: %v", err)), nil
	}

	resp, err := s.client.AddCrates(ctx, specs, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add crates: %v", err)), nil
	}

	resultJSON, _ := json.MarshalIndent(resp.Results, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleSearchItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	query, _ := args["query"].(string)
	if query == "" {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	var searchReq rpc.SearchRequest
	searchReq.Query = query

	if cratesRaw, ok := args["crates"]; ok {
		cratesJSON, _ := json.Marshal(cratesRaw)
		json.Unmarshal(cratesJSON, &searchReq.Crates)
	}
	if kindsRaw, ok := args["kinds"]; ok {
		kindsJSON, _ := json.Marshal(kindsRaw)
		json.Unmarshal(kindsJSON, &searchReq.Kinds)
	}
	if limit, ok := args["limit"].(float64); ok {
		searchReq.Limit = int(limit)
	}

	resp, err := s.client.Search(ctx, searchReq)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	resultJSON, _ := json.MarshalIndent(resp.Results, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleSearchCrates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	query, _ := args["query"].(string)
	if query == "" {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	var searchReq rpc.SearchCratesRequest
	searchReq.Query = query
	if limit, ok := args["limit"].(float64); ok {
		searchReq.Limit = int(limit)
	}

	resp, err := s.client.SearchCrates(ctx, searchReq)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	resultJSON, _ := json.MarshalIndent(resp.Results, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleSidebar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	crate, _ := args["crate"].(string)
	if crate == "" {
		return mcp.NewToolResultError("missing required parameter: crate"), nil
	}
	version, _ := args["version"].(string)
	module, _ := args["module"].(string)

	resp, err := s.client.Sidebar(ctx, rpc.SidebarRequest{Crate: crate, Version: version, Module: module})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("sidebar failed: %v", err)), nil
	}
	return mcp.NewToolResultText(resp.Markdown), nil
}

func (s *Server) handleImplementors(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	crate, _ := args["crate"].(string)
	traitPath, _ := args["trait"].(string)
	if crate == "" || traitPath == "" {
		return mcp.NewToolResultError("missing required parameters: crate, trait"), nil
	}
	version, _ := args["version"].(string)

	resp, err := s.client.Implementors(ctx, rpc.ImplementorsRequest{Crate: crate, Version: version, Trait: traitPath})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("implementors failed: %v", err)), nil
	}
	return mcp.NewToolResultText(resp.Markdown), nil
}

func (s *Server) handleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	crate, _ := args["crate"].(string)
	if crate == "" {
		return mcp.NewToolResultError("missing required parameter: crate"), nil
	}
	version, _ := args["version"].(string)
	strict, _ := args["strict"].(bool)

	resp, err := s.client.Validate(ctx, rpc.ValidateRequest{Crate: crate, Version: version, Strict: strict})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("validate failed: %v", err)), nil
	}

	resultJSON, _ := json.MarshalIndent(resp, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

// handleReadResource serves rsnav:// URIs. Three forms:
//
//	rsnav://crate/version/mod/<module>      module sidebar
//	rsnav://crate/version/impl/<trait-path> implementor table
//	rsnav://crate/version/<kind>/<name>     the item's home module sidebar
func (s *Server) handleReadResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	trimmed := strings.TrimPrefix(uri, "rsnav://")
	parts := strings.SplitN(trimmed, "/", 4)
	if len(parts) < 3 {
		return nil, fmt.Errorf("invalid resource URI: %s", uri)
	}
	crate, version, selector := parts[0], parts[1], parts[2]
	var rest string
	if len(parts) == 4 {
		rest = parts[3]
	}

	var markdown string
	switch selector {
	case "impl":
		if rest == "" {
			return nil, fmt.Errorf("invalid resource URI: %s: missing trait path", uri)
		}
		resp, err := s.client.Implementors(ctx, rpc.ImplementorsRequest{Crate: crate, Version: version, Trait: rest})
		if err != nil {
			return nil, fmt.Errorf("getting implementors: %w", err)
		}
		markdown = resp.Markdown
	case "mod":
		resp, err := s.client.Sidebar(ctx, rpc.SidebarRequest{Crate: crate, Version: version, Module: rest})
		if err != nil {
			return nil, fmt.Errorf("getting sidebar: %w", err)
		}
		markdown = resp.Markdown
	default:
		// kind/name: serve the sidebar of the item's home module.
		resp, err := s.client.Sidebar(ctx, rpc.SidebarRequest{Crate: crate, Version: version, Kind: selector, Item: rest})
		if err != nil {
			return nil, fmt.Errorf("getting sidebar: %w", err)
		}
		markdown = resp.Markdown
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/markdown",
			Text:     markdown,
		},
	}, nil
}

func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) Shutdown(_ context.Context) error {
	return nil
}
