package service

import (
	"context"
	"time"

	"github.com/wricardo/gridpath/game/engine"
)

// SearchService defines all search-related operations
type SearchService interface {
	// Session Management
	CreateSession(ctx context.Context, scenarioID string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Search Operations
	Initialize(ctx context.Context, sessionID string, req InitializeRequest) (*StepResult, error)
	Step(ctx context.Context, sessionID string, steps int) (*StepResult, error)
	Run(ctx context.Context, sessionID string, budget int) (*StepResult, error)

	// Search State
	GetFrame(ctx context.Context, sessionID string) (*engine.Frame, error)
	GetPath(ctx context.Context, sessionID string) (*PathResult, error)

	// Scenarios
	ListScenarios(ctx context.Context) ([]*ScenarioInfo, error)
	LoadScenario(ctx context.Context, scenarioID string) (*engine.Scenario, error)
	SaveScenario(ctx context.Context, scenarioID string, scenario *engine.Scenario) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, scenarioID string, scenario *engine.Scenario) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Count() int
}

// ScenarioManager handles scenario loading
type ScenarioManager interface {
	LoadScenario(id string) (*engine.Scenario, error)
	ListScenarios() ([]*ScenarioInfo, error)
	GetDefault() *engine.Scenario
	SaveScenario(id string, scenario *engine.Scenario) error
}

// Session represents one search session with its own engine instance
type Session struct {
	ID             string
	ScenarioID     string
	Engine         *engine.Engine
	Scenario       *engine.Scenario
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
