package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type scanArgs struct {
	Hours float64 `json:"hours,omitempty" jsonschema:"Window in hours from now (0 = default)"`
	EVMin float64 `json:"ev_min,omitempty" jsonschema:"Minimum EV as a fraction, e.g. 0.03 (0 = default)"`
}

type limitArgs struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum rows to return (0 = default)"`
}

type noArgs struct{}

// NewMCPServer registra las herramientas MCP sobre los mismos servicios que la API HTTP.
func (s *Server) NewMCPServer() *mcp.Server {
	version := s.cfg.Version
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(&mcp.Implementation{Name: "evscanner", Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_scan",
		Description: "Scan tracked leagues for positive-EV picks and persist the new ones",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args scanArgs) (*mcp.CallToolResult, any, error) {
		var hours, evMin *float64
		if args.Hours > 0 {
			hours = &args.Hours
		}
		if args.EVMin > 0 {
			evMin = &args.EVMin
		}
		p, err := scanParams(s.scan.Defaults(), hours, evMin)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(s.scan.RunOnce(ctx, p))
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_settlement",
		Description: "Grade upcoming picks whose events have finished",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ noArgs) (*mcp.CallToolResult, any, error) {
		return toolJSON(s.settle.RunOnce(ctx))
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "upcoming_picks",
		Description: "Picks still waiting for their event, soonest first",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args limitArgs) (*mcp.CallToolResult, any, error) {
		limit := upcomingLimit
		if args.Limit > 0 {
			limit = min(args.Limit, upcomingLimit)
		}
		return toolJSON(s.store.ListUpcoming(ctx, limit))
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "pick_log",
		Description: "Graded picks, most recently resolved first",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args limitArgs) (*mcp.CallToolResult, any, error) {
		limit := logsDefault
		if args.Limit > 0 {
			limit = min(args.Limit, logsMax)
		}
		return toolJSON(s.store.ListResolved(ctx, limit))
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "pick_stats",
		Description: "Totals, success rate and average odds over all picks",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ noArgs) (*mcp.CallToolResult, any, error) {
		return toolJSON(s.store.Stats(ctx))
	})

	return server
}

func (s *Server) mcpHandler() http.Handler {
	server := s.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
}

func toolJSON[T any](v T, err error) (*mcp.CallToolResult, any, error) {
	if err != nil {
		return toolError(err), nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
	}, nil, nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)}},
	}
}
