package service

import (
	"time"

	"github.com/wricardo/gridpath/game/engine"
)

// SessionInfo provides information about a search session
type SessionInfo struct {
	ID             string             `json:"id"`
	ScenarioID     string             `json:"scenario_id"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	Width          int                `json:"width"`
	Height         int                `json:"height"`
	Status         engine.Status      `json:"status"`
	Start          *engine.Coordinate `json:"start,omitempty"` // set once initialized
	End            *engine.Coordinate `json:"end,omitempty"`
	Stats          engine.Stats       `json:"stats"`
	Scenario       *engine.Scenario   `json:"scenario,omitempty"`
}

// InitializeRequest selects the endpoints for a new search. Missing
// endpoints are taken from the scenario or drawn at random. Random ignores
// the scenario's fixed endpoints.
type InitializeRequest struct {
	Start  *engine.Coordinate `json:"start,omitempty"`
	End    *engine.Coordinate `json:"end,omitempty"`
	Random bool               `json:"random,omitempty"`
}

// StepResult contains the outcome of Initialize, Step or Run
type StepResult struct {
	SessionID   string              `json:"session_id"`
	Status      engine.Status       `json:"status"`
	StepsTaken  int                 `json:"steps_taken"`
	Requested   int                 `json:"requested"`
	Truncated   bool                `json:"truncated,omitempty"` // request exceeded the per-call cap
	Start       engine.Coordinate   `json:"start"`
	End         engine.Coordinate   `json:"end"`
	Current     *engine.Coordinate  `json:"current,omitempty"`
	OpenCount   int                 `json:"open_count"`
	ClosedCount int                 `json:"closed_count"`
	Stats       engine.Stats        `json:"stats"`
	Path        []engine.Coordinate `json:"path,omitempty"`
	PathLength  int                 `json:"path_length,omitempty"` // moves, not cells
	Message     string              `json:"message"`
}

// PathResult is a reconstructed path in travel order
type PathResult struct {
	SessionID string              `json:"session_id"`
	Start     engine.Coordinate   `json:"start"`
	End       engine.Coordinate   `json:"end"`
	Path      []engine.Coordinate `json:"path"`
	Length    int                 `json:"length"` // moves, not cells
}

// ScenarioInfo provides information about a scenario
type ScenarioInfo struct {
	Filename    string `json:"filename,omitempty"`
	ScenarioID  string `json:"scenario_id"` // The identifier to use for session creation
	Name        string `json:"name"`        // Display name
	Description string `json:"description"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Obstacles   int    `json:"obstacles"`
	Builtin     bool   `json:"builtin,omitempty"`
}
