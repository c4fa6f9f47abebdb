package server_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capcea/bet-backend/internal/application/scanner"
	"github.com/capcea/bet-backend/internal/domain"
)

func connectMCP(t *testing.T, srv interface{ NewMCPServer() *mcp.Server }) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	serverT, clientT := mcp.NewInMemoryTransports()

	ss, err := srv.NewMCPServer().Connect(ctx, serverT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })
	return cs
}

func toolText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestMCP_ListTools(t *testing.T) {
	srv, _ := newServer(t, &mockScan{}, &mockSettle{}, nil)
	cs := connectMCP(t, srv)

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"run_scan", "run_settlement", "upcoming_picks", "pick_log", "pick_stats"}, names)
}

func TestMCP_PickStats(t *testing.T) {
	srv, store := newServer(t, &mockScan{}, &mockSettle{}, nil)
	seed(t, store)
	cs := connectMCP(t, srv)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: "pick_stats", Arguments: map[string]any{}})
	require.NoError(t, err)
	require.False(t, res.IsError)

	var stats domain.PickStats
	require.NoError(t, json.Unmarshal([]byte(toolText(t, res)), &stats))
	assert.Equal(t, 2, stats.TotalPicks)
	assert.Equal(t, 1, stats.Won)
}

func TestMCP_RunScan(t *testing.T) {
	scan := &mockScan{res: scanner.Result{Inserted: 1}}
	srv, _ := newServer(t, scan, &mockSettle{}, nil)
	cs := connectMCP(t, srv)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "run_scan",
		Arguments: map[string]any{"hours": 6, "ev_min": 0.05},
	})
	require.NoError(t, err)
	require.False(t, res.IsError, toolText(t, res))
	require.Len(t, scan.got, 1)
	assert.Equal(t, 0.05, scan.got[0].EVMin)

	res, err = cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "run_scan",
		Arguments: map[string]any{"ev_min": 2},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, toolText(t, res), "evMin")
}

func TestMCP_RunScanLockHeld(t *testing.T) {
	srv, _ := newServer(t, &mockScan{err: domain.ErrLockHeld}, &mockSettle{}, nil)
	cs := connectMCP(t, srv)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: "run_scan", Arguments: map[string]any{}})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
