package server

import (
	"context"
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/emojify/kit"
	"github.com/hazyhaar/emojify/shield"
)

// RegisterMCP registers the emojify tools on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerEmojifyURL(srv)
	s.registerEmojifyHTML(srv)
}

// toolMiddleware gives each tool call what shield.TraceID gives an HTTP
// request: a trace ID and a logger carrying it.
func (s *Service) toolMiddleware(tool string) kit.Middleware {
	return kit.Chain(s.traceCall(tool), logCall)
}

func (s *Service) traceCall(tool string) kit.Middleware {
	return func(next kit.Endpoint) kit.Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			ctx = kit.WithTraceID(ctx, s.callIDs())
			logger := s.logger.With("trace_id", kit.GetTraceID(ctx), "tool", tool)
			return next(shield.WithLogger(ctx, logger), req)
		}
	}
}

func logCall(next kit.Endpoint) kit.Endpoint {
	return func(ctx context.Context, req any) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		log := shield.GetLogger(ctx)
		if err != nil {
			log.Warn("mcp call failed", "duration", time.Since(start), "error", err)
		} else {
			log.Info("mcp call", "duration", time.Since(start))
		}
		return resp, err
	}
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	m := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		m["required"] = required
	}
	return m
}

type urlReq struct {
	URL string `json:"url"`
}

func (s *Service) registerEmojifyURL(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "emojify_url",
		Description: "Fetch an HTML page and append an emoji after every six-letter word of its visible text.",
		InputSchema: inputSchema(map[string]any{
			"url": map[string]any{"type": "string", "description": "Page URL (http or https)"},
		}, []string{"url"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		return s.EmojifyURL(ctx, req.(*urlReq).URL)
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r urlReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, s.toolMiddleware(tool.Name)(endpoint), decode)
}

type htmlReq struct {
	HTML string `json:"html"`
}

func (s *Service) registerEmojifyHTML(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "emojify_html",
		Description: "Append an emoji after every six-letter word of the visible text of an HTML document.",
		InputSchema: inputSchema(map[string]any{
			"html": map[string]any{"type": "string", "description": "HTML document"},
		}, []string{"html"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		return s.EmojifyHTML(ctx, req.(*htmlReq).HTML)
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r htmlReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, s.toolMiddleware(tool.Name)(endpoint), decode)
}
