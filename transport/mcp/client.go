package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/gridpath/game/engine"
	"github.com/wricardo/gridpath/game/render"
	"github.com/wricardo/gridpath/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
	term       *render.Terminal
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		term: render.NewTerminal(false),
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"gridpath",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`gridpath - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Each session holds a grid with obstacles and one A* search between a start
and a goal cell. The search runs incrementally: every step expands one cell,
so you can watch the frontier grow and the path appear.

AVAILABLE TOOLS:
- create_session: Create a session from a scenario
- list_sessions / get_session: Inspect sessions
- initialize_search: Pick start and goal (explicit or random)
- step_search: Advance a few expansions
- run_search: Advance until the search finishes
- get_frame: Draw the grid with the search state
- get_path: The found path, start first
- list_scenarios: Available grids
- describe_cell: Tile, role and goal distance of one cell
- search_instructions: How the search works and how to read frames`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func intProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new search session with optional scenario selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"scenario": map[string]interface{}{
					"type":        "string",
					"description": "Scenario ID to use (optional, defaults to classic)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active search sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Search operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "initialize_search",
		Description: "Start a new search. Endpoints not given come from the scenario or are drawn at random.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"start_x":    intProperty("Start column"),
				"start_y":    intProperty("Start row"),
				"end_x":      intProperty("Goal column"),
				"end_y":      intProperty("Goal row"),
				"random": map[string]interface{}{
					"type":        "boolean",
					"description": "Ignore the scenario's fixed endpoints and draw new ones",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleInitialize)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "step_search",
		Description: "Advance the search by a number of expansions (default 1)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"steps":      intProperty(fmt.Sprintf("Expansions to perform, at most %d", engine.MaxStepsPerCall)),
				"show_frame": map[string]interface{}{
					"type":        "boolean",
					"description": "Include the drawn grid in the response",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleStep)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "run_search",
		Description: "Advance the search until it finds a path, proves none exists, or spends the budget",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"budget":     intProperty("Maximum expansions (optional, unlimited when omitted)"),
			},
			Required: []string{"session_id"},
		},
	}, c.handleRun)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_frame",
		Description: "Draw the grid with obstacles, visited cells, frontier and path",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetFrame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_path",
		Description: "Get the path of a finished search, start first",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetPath)

	// Scenarios
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_scenarios",
		Description: "List available scenarios",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListScenarios)

	// Help
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Describe one grid cell: its tile and its role in the current search",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"x":          intProperty("Column, 0 at the left"),
				"y":          intProperty("Row, 0 at the top"),
			},
			Required: []string{"session_id", "x", "y"},
		},
	}, c.handleDescribeCell)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "search_instructions",
		Description: "Explain how the search works and how to read frames",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleInstructions)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Argument helpers; JSON numbers arrive as float64

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	}
	return 0, false
}

func coordinateArg(args map[string]interface{}, xKey, yKey string) (*engine.Coordinate, error) {
	x, okX := intArg(args, xKey)
	y, okY := intArg(args, yKey)
	if okX != okY {
		return nil, fmt.Errorf("%s and %s must be given together", xKey, yKey)
	}
	if !okX {
		return nil, nil
	}
	return &engine.Coordinate{X: x, Y: y}, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	scenario, _ := args["scenario"].(string)

	body := map[string]string{}
	if scenario != "" {
		body["scenario"] = scenario
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nScenario: %s\nGrid: %dx%d\n\nNext: initialize_search to pick start and goal.",
		session.ID, session.ScenarioID, session.Width, session.Height)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		fmt.Fprintf(&b, "- %s (Scenario: %s, Status: %s, Created: %s)\n",
			s.ID, s.ScenarioID, s.Status, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/sessions/%s", sessionID), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleInitialize(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	random, _ := args["random"].(bool)

	start, err := coordinateArg(args, "start_x", "start_y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	end, err := coordinateArg(args, "end_x", "end_y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := service.InitializeRequest{Start: start, End: end, Random: random}

	var result service.StepResult
	if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/initialize", sessionID), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatStepResult(&result)), nil
}

func (c *Client) handleStep(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	showFrame, _ := args["show_frame"].(bool)

	steps, ok := intArg(args, "steps")
	if !ok {
		steps = 1
	}

	var result service.StepResult
	if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/step", sessionID),
		map[string]int{"steps": steps}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := formatStepResult(&result)
	if showFrame {
		var frame engine.Frame
		if err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/sessions/%s/frame", sessionID), nil, &frame); err == nil {
			text += "\n\n" + c.term.Render(frame)
		}
	}
	return mcp.NewToolResultText(text), nil
}

func (c *Client) handleRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	budget, _ := intArg(args, "budget")

	var result service.StepResult
	if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/run", sessionID),
		map[string]int{"budget": budget}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatStepResult(&result)), nil
}

func (c *Client) handleGetFrame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var frame engine.Frame
	if err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/sessions/%s/frame", sessionID), nil, &frame); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := c.term.Render(frame) + c.term.Summary(frame) + "\n" + c.term.Legend()
	return mcp.NewToolResultText(text), nil
}

func (c *Client) handleGetPath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var path service.PathResult
	if err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/sessions/%s/path", sessionID), nil, &path); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatPath(&path)), nil
}

func (c *Client) handleListScenarios(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var scenarios []service.ScenarioInfo
	if err := c.apiCall(ctx, "GET", "/api/scenarios", nil, &scenarios); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Scenarios:\n\n")
	for _, sc := range scenarios {
		fmt.Fprintf(&b, "• %s (%s)\n", sc.ScenarioID, sc.Name)
		if sc.Description != "" {
			fmt.Fprintf(&b, "  %s\n", sc.Description)
		}
		fmt.Fprintf(&b, "  Grid: %dx%d, Obstacles: %d\n\n", sc.Width, sc.Height, sc.Obstacles)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	x, okX := intArg(args, "x")
	y, okY := intArg(args, "y")
	if !okX || !okY {
		return mcp.NewToolResultError("x and y are required"), nil
	}

	var frame engine.Frame
	if err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/sessions/%s/frame", sessionID), nil, &frame); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if x < 0 || x >= frame.Width || y < 0 || y >= frame.Height {
		return mcp.NewToolResultError(fmt.Sprintf("Coordinates (%d, %d) are out of bounds. Grid is %dx%d (x 0-%d, y 0-%d)",
			x, y, frame.Width, frame.Height, frame.Width-1, frame.Height-1)), nil
	}

	return mcp.NewToolResultText(describeCell(&frame, engine.Coordinate{X: x, Y: y})), nil
}

func (c *Client) handleInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := fmt.Sprintf(`gridpath - How the search works

GRID:
• Cells are addressed (x, y) with (0, 0) at the top left; x grows right, y grows down
• Moves go up, down, left or right, one cell at a time, each costing 1
• Obstacles (x) can never be entered

SEARCH (A*):
• Every cell gets g (moves from the start) and f = g + h, where h is the
  Manhattan distance to the goal
• Each step takes the open cell with the lowest f (ties: larger g, then
  earliest discovered), closes it, and updates its neighbours
• The search succeeds when the goal is taken from the open set and fails
  when the open set runs dry; because h never overestimates, a found path
  is always a shortest one

READING FRAMES:
• S start, E goal, x obstacle
• o frontier: discovered, waiting in the open set
• 0 visited: closed, its distance from the start is final
• █ path, drawn once the search succeeds

WORKFLOW:
1. create_session (optionally with a scenario from list_scenarios)
2. initialize_search (explicit start/goal, or random)
3. step_search a few times with show_frame to watch the frontier grow,
   or run_search to finish at once
4. get_path for the route, get_frame to see it drawn

LIMITS:
• step_search performs at most %d expansions per call
• initialize_search fails for coordinates outside the grid or on obstacles`, engine.MaxStepsPerCall)

	return mcp.NewToolResultText(instructions), nil
}

// Formatting

func formatSessionInfo(session *service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\nScenario: %s\nGrid: %dx%d\nStatus: %s\n",
		session.ID, session.ScenarioID, session.Width, session.Height, session.Status)
	if session.Start != nil && session.End != nil {
		fmt.Fprintf(&b, "Start: %s\nGoal: %s\n", *session.Start, *session.End)
	}
	fmt.Fprintf(&b, "Steps: %d, Expansions: %d\nCreated: %s\nLast Accessed: %s",
		session.Stats.Steps, session.Stats.Expansions,
		session.CreatedAt.Format(time.RFC3339), session.LastAccessedAt.Format(time.RFC3339))
	return b.String()
}

func formatStepResult(result *service.StepResult) string {
	var b strings.Builder
	b.WriteString(result.Message)
	fmt.Fprintf(&b, "\n\nStatus: %s\nStart: %s  Goal: %s\n", result.Status, result.Start, result.End)
	if result.Current != nil {
		fmt.Fprintf(&b, "Last expanded: %s\n", *result.Current)
	}
	fmt.Fprintf(&b, "Steps this call: %d  Open: %d  Closed: %d  Total expansions: %d",
		result.StepsTaken, result.OpenCount, result.ClosedCount, result.Stats.Expansions)
	if result.Truncated {
		fmt.Fprintf(&b, "\n⚠️  Request truncated to %d steps per call", engine.MaxStepsPerCall)
	}
	if len(result.Path) > 0 {
		fmt.Fprintf(&b, "\nPath (%d moves): %s", result.PathLength, joinCoordinates(result.Path))
	}
	return b.String()
}

func formatPath(path *service.PathResult) string {
	return fmt.Sprintf("Path from %s to %s: %d moves\n%s",
		path.Start, path.End, path.Length, joinCoordinates(path.Path))
}

func joinCoordinates(path []engine.Coordinate) string {
	parts := make([]string, len(path))
	for i, c := range path {
		parts[i] = c.String()
	}
	return strings.Join(parts, " → ")
}

func describeCell(frame *engine.Frame, c engine.Coordinate) string {
	tile := frame.Tile(c)

	var role string
	switch tile {
	case engine.TileObstacle:
		role = "Obstacle - never entered by the search"
	case engine.TileStart:
		role = "Start of the search"
	case engine.TileEnd:
		role = "Goal of the search"
	case engine.TileVisited:
		role = "Visited - closed, its shortest distance from the start is final"
	case engine.TileFrontier:
		role = "Frontier - discovered and waiting in the open set"
	case engine.TilePath:
		role = "On the shortest path"
	default:
		role = "Not reached by the search yet"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Cell %s\nTile: %s (%c)\nPassable: %t\n%s",
		c, tile, tile.Symbol(), tile != engine.TileObstacle, role)

	if frame.Current != nil && *frame.Current == c {
		b.WriteString("\nThis is the most recently expanded cell.")
	}
	for i, p := range frame.Path {
		if p == c {
			fmt.Fprintf(&b, "\nPath position: %d of %d", i, len(frame.Path)-1)
			break
		}
	}
	fmt.Fprintf(&b, "\nManhattan distance to goal: %d", engine.ManhattanDistance(c, frame.End))
	return b.String()
}
