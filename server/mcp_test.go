package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/hazyhaar/emojify/emojify"
	"github.com/hazyhaar/emojify/observability"
)

var testMCPImpl = &mcp.Implementation{Name: "emojify-test", Version: "0.1.0"}

func mcpSession(t *testing.T, svc *Service) *mcp.ClientSession {
	t.Helper()
	srv := mcp.NewServer(testMCPImpl, nil)
	svc.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args any) *mcp.CallToolResult {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	return result
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatal("expected TextContent")
	}
	return tc.Text
}

func TestMCP_EmojifyHTML(t *testing.T) {
	svc, m := newTestService(t, nil)
	session := mcpSession(t, svc)

	result := callTool(t, session, "emojify_html", map[string]any{"html": "<p>banana orange apple</p>"})
	if err := result.GetError(); err != nil {
		t.Fatalf("tool error: %v", err)
	}

	var resp emojify.Result
	if err := json.Unmarshal([]byte(toolText(t, result)), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Replaced != 2 {
		t.Fatalf("replaced: got %d, want 2", resp.Replaced)
	}
	if !strings.Contains(resp.HTML, "banana"+emojify.Emoji[0]+" orange"+emojify.Emoji[1]+" apple") {
		t.Fatalf("html: got %q", resp.HTML)
	}
	if got := testutil.ToFloat64(m.Requests.WithLabelValues("mcp", observability.OutcomeOK)); got != 1 {
		t.Fatalf("mcp ok counter: got %v", got)
	}
}

func TestMCP_EmojifyURL(t *testing.T) {
	upstream := pageServer(t, page, http.StatusOK)
	svc, _ := newTestService(t, nil)
	session := mcpSession(t, svc)

	result := callTool(t, session, "emojify_url", map[string]any{"url": upstream.URL})
	if err := result.GetError(); err != nil {
		t.Fatalf("tool error: %v", err)
	}
	var resp emojify.Result
	if err := json.Unmarshal([]byte(toolText(t, result)), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Replaced != 2 {
		t.Fatalf("replaced: got %d, want 2", resp.Replaced)
	}
}

func TestMCP_EmojifyURL_Missing(t *testing.T) {
	svc, _ := newTestService(t, nil)
	session := mcpSession(t, svc)

	result := callTool(t, session, "emojify_url", map[string]any{"url": ""})
	if !result.IsError {
		t.Fatal("expected tool error for empty url")
	}
}

func TestMCP_CallIsTraced(t *testing.T) {
	// WHAT: each tool call gets an mcp_ trace ID on its log lines.
	var buf bytes.Buffer
	svc, err := New(nil, slog.New(slog.NewJSONHandler(&buf, nil)))
	if err != nil {
		t.Fatal(err)
	}
	session := mcpSession(t, svc)

	result := callTool(t, session, "emojify_html", map[string]any{"html": "<p>banana</p>"})
	if err := result.GetError(); err != nil {
		t.Fatalf("tool error: %v", err)
	}
	logs := buf.String()
	if !strings.Contains(logs, `"trace_id":"mcp_`) {
		t.Fatalf("no mcp trace id in logs:\n%s", logs)
	}
	if !strings.Contains(logs, `"tool":"emojify_html"`) || !strings.Contains(logs, `"msg":"mcp call"`) {
		t.Fatalf("call not logged:\n%s", logs)
	}
}
