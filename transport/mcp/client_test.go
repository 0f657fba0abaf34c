package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/gridpath/api"
	"github.com/wricardo/gridpath/game/config"
	"github.com/wricardo/gridpath/game/service"
	"github.com/wricardo/gridpath/game/session"
)

const walledScenario = `{
  "name": "Walled",
  "description": "goal sealed off",
  "layout": ["S.x", ".x.", "x.E"]
}`

const stripScenario = `{"name": "Strip", "width": 5, "height": 1}`

// newTestClient runs the real REST API behind an httptest server
func newTestClient(t *testing.T) *Client {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "walled.json"), []byte(walledScenario), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "strip.json"), []byte(stripScenario), 0644))

	scenarios, err := config.NewManager(dir)
	require.NoError(t, err)

	svc := service.NewSearchService(session.NewManager(), scenarios)
	server := api.NewServer(svc, nil)
	ts := httptest.NewServer(server)
	t.Cleanup(func() {
		ts.Close()
		server.Close()
	})

	return NewClient(ts.URL)
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) (string, bool) {
	t.Helper()
	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}

	result, err := handler(context.Background(), request)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text, result.IsError
}

var sessionIDPattern = regexp.MustCompile(`Created session: (\S+)`)

func createSession(t *testing.T, c *Client, scenario string) string {
	t.Helper()
	text, isErr := call(t, c.handleCreateSession, map[string]interface{}{"scenario": scenario})
	require.False(t, isErr, text)

	m := sessionIDPattern.FindStringSubmatch(text)
	require.Len(t, m, 2, text)
	return m[1]
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/")

	require.NotNil(t, client)
	assert.Equal(t, "http://localhost:8080", client.baseURL)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.GetMCPServer())
}

func TestClient_InstructionsMatchTools(t *testing.T) {
	client := NewClient("http://localhost:8080")

	msg := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1.0.0"}}}`
	response := client.GetMCPServer().HandleMessage(context.Background(), []byte(msg))
	require.NotNil(t, response)

	data, err := json.Marshal(response)
	require.NoError(t, err)
	assert.Contains(t, string(data), "describe_cell: Tile, role and goal distance of one cell")
	assert.NotContains(t, string(data), "Scores")
}

func TestClient_apiCall_Errors(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	assert.Error(t, client.apiCall(context.Background(), "GET", "/api/sessions", nil, nil))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
	}))
	defer server.Close()

	err := NewClient(server.URL).apiCall(context.Background(), "GET", "/api", nil, nil)
	assert.EqualError(t, err, "API error: 500")
}

func TestClient_SearchWorkflow(t *testing.T) {
	c := newTestClient(t)
	id := createSession(t, c, "strip")

	text, isErr := call(t, c.handleInitialize, map[string]interface{}{
		"session_id": id,
		"start_x":    float64(0), "start_y": float64(0),
		"end_x": float64(4), "end_y": float64(0),
	})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Search initialized from (0,0) to (4,0)")

	text, isErr = call(t, c.handleStep, map[string]interface{}{
		"session_id": id,
		"steps":      float64(2),
		"show_frame": true,
	})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Steps this call: 2")
	assert.Contains(t, text, "╭───┬")

	text, isErr = call(t, c.handleRun, map[string]interface{}{"session_id": id})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Path found: 4 moves")
	assert.Contains(t, text, "(0,0) → (1,0) → (2,0) → (3,0) → (4,0)")

	text, isErr = call(t, c.handleGetPath, map[string]interface{}{"session_id": id})
	require.False(t, isErr, text)
	assert.Contains(t, text, "4 moves")

	text, isErr = call(t, c.handleGetFrame, map[string]interface{}{"session_id": id})
	require.False(t, isErr, text)
	assert.Contains(t, text, "status: succeeded")
	assert.Contains(t, text, "│ S███████████████E │")

	text, isErr = call(t, c.handleDescribeCell, map[string]interface{}{
		"session_id": id, "x": float64(2), "y": float64(0),
	})
	require.False(t, isErr, text)
	assert.Contains(t, text, "On the shortest path")
	assert.Contains(t, text, "Path position: 2 of 4")
	assert.Contains(t, text, "Manhattan distance to goal: 2")
}

func TestClient_NoPath(t *testing.T) {
	c := newTestClient(t)
	id := createSession(t, c, "walled")

	text, isErr := call(t, c.handleInitialize, map[string]interface{}{"session_id": id})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Start: (0,0)  Goal: (2,2)")

	text, isErr = call(t, c.handleRun, map[string]interface{}{"session_id": id, "budget": float64(100)})
	require.False(t, isErr, text)
	assert.Contains(t, text, "No path exists from (0,0) to (2,2)")

	text, isErr = call(t, c.handleGetPath, map[string]interface{}{"session_id": id})
	assert.True(t, isErr)
	assert.Contains(t, text, "no path exists")

	text, isErr = call(t, c.handleDescribeCell, map[string]interface{}{
		"session_id": id, "x": float64(1), "y": float64(1),
	})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Passable: false")
}

func TestClient_Errors(t *testing.T) {
	c := newTestClient(t)

	text, isErr := call(t, c.handleCreateSession, map[string]interface{}{"scenario": "missing"})
	assert.True(t, isErr)
	assert.Contains(t, text, "scenario not found")

	text, isErr = call(t, c.handleGetSession, map[string]interface{}{"session_id": "nobody"})
	assert.True(t, isErr)
	assert.Contains(t, text, "session not found")

	id := createSession(t, c, "strip")

	text, isErr = call(t, c.handleStep, map[string]interface{}{"session_id": id})
	assert.True(t, isErr)
	assert.Contains(t, text, "not initialized")

	text, isErr = call(t, c.handleInitialize, map[string]interface{}{"session_id": id, "start_x": float64(1)})
	assert.True(t, isErr)
	assert.Contains(t, text, "start_x and start_y must be given together")

	text, isErr = call(t, c.handleInitialize, map[string]interface{}{
		"session_id": id, "start_x": float64(9), "start_y": float64(9),
	})
	assert.True(t, isErr)
	assert.Contains(t, text, "out of bounds")

	text, isErr = call(t, c.handleDescribeCell, map[string]interface{}{"session_id": id})
	assert.True(t, isErr)
	assert.Equal(t, "x and y are required", text)

	text, isErr = call(t, c.handleDescribeCell, map[string]interface{}{
		"session_id": id, "x": float64(7), "y": float64(0),
	})
	assert.True(t, isErr)
	assert.Contains(t, text, "out of bounds")
}

func TestClient_ListingTools(t *testing.T) {
	c := newTestClient(t)
	id := createSession(t, c, "")

	text, isErr := call(t, c.handleListSessions, nil)
	require.False(t, isErr, text)
	assert.Contains(t, text, "Active Sessions (1)")
	assert.Contains(t, text, id)

	text, isErr = call(t, c.handleGetSession, map[string]interface{}{"session_id": id})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Grid: 20x20")
	assert.Contains(t, text, "Status: uninitialized")

	text, isErr = call(t, c.handleListScenarios, nil)
	require.False(t, isErr, text)
	assert.Contains(t, text, "• classic")
	assert.Contains(t, text, "• strip (Strip)")
	assert.Contains(t, text, "goal sealed off")

	text, isErr = call(t, c.handleInstructions, nil)
	require.False(t, isErr)
	assert.Contains(t, text, "Manhattan distance")
}
