// Package api exposes search sessions over HTTP.
//
// Endpoints:
//
// Sessions:
//   - POST /api/sessions {"scenario": "maze"} - Create a session
//   - GET /api/sessions?sort=created|accessed&order=asc|desc&limit=N - List sessions
//   - GET /api/sessions/{id} - Session details
//   - DELETE /api/sessions/{id} - Delete a session
//
// Search:
//   - POST /api/sessions/{id}/initialize {"start"?, "end"?, "random"?} - Start a new search
//   - POST /api/sessions/{id}/step {"steps": N} - Advance up to N expansions
//   - POST /api/sessions/{id}/run {"budget": N} - Advance until finished or N steps
//   - POST /api/sessions/{id}/play {"interval_ms": N, "budget": N} - Server-side playback
//   - DELETE /api/sessions/{id}/play - Stop playback
//   - GET /api/sessions/{id}/frame[?format=text] - Current frame
//   - GET /api/sessions/{id}/path - Path of a succeeded search, start first
//
// Scenarios:
//   - GET /api/scenarios - List scenarios
//   - POST /api/scenarios - Save a scenario (JSON body, optional "id")
//   - GET /api/scenarios/{name} - Load a scenario
//
// Other:
//   - GET /ws?session={id} - Frame stream, see package websocket
//   - GET /metrics - Prometheus metrics
//   - GET /healthz - Liveness
//   - GET / - Browser viewer
//
// Every state-changing search call pushes the new frame to websocket
// viewers of the session. Playback advances one step per tick of a rate
// limiter and streams each frame; starting playback again replaces the
// running one.
//
// Error Handling:
//
// Errors are returned as JSON with a status derived from the wrapped
// sentinel: unknown sessions, scenarios and unreachable goals are 404,
// calls out of order are 409, bad coordinates and scenarios are 400.
//
//	{
//	  "error": "session ab12cd34: session not found",
//	  "code": 404
//	}
package api
