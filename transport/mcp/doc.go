// Package mcp exposes search sessions to agents over the Model Context
// Protocol.
//
// The Client is a thin proxy: every tool calls the REST API, so agents and
// browsers share the same sessions and websocket viewers see agent moves
// live.
//
// MCP Tools:
//   - create_session, list_sessions, get_session: Session management
//   - initialize_search: Pick explicit or random endpoints
//   - step_search: Advance a few expansions, optionally drawing the grid
//   - run_search: Advance until the search finishes or the budget is spent
//   - get_frame, get_path: Inspect progress and results
//   - list_scenarios: Available grids
//   - describe_cell: Tile, role and goal distance of one cell
//   - search_instructions: How to read frames
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: POST /mcp handled by GetMCPServer().HandleMessage
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
//
// Tool failures are reported as tool results with IsError set, never as Go
// errors, so the agent sees the API's message.
package mcp
