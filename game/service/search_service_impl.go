package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/wricardo/gridpath/game/engine"
	"github.com/wricardo/gridpath/internal/metrics"
)

// searchServiceImpl implements the SearchService interface
type searchServiceImpl struct {
	sessions  SessionManager
	scenarios ScenarioManager
	rng       *rand.Rand
	mu        sync.Mutex
}

// Option customizes a SearchService
type Option func(*searchServiceImpl)

// WithRand sets the random source used to draw endpoints
func WithRand(rng *rand.Rand) Option {
	return func(s *searchServiceImpl) {
		s.rng = rng
	}
}

// NewSearchService creates a new search service instance
func NewSearchService(sessions SessionManager, scenarios ScenarioManager, opts ...Option) SearchService {
	seed := uint64(time.Now().UnixNano())
	s := &searchServiceImpl{
		sessions:  sessions,
		scenarios: scenarios,
		rng:       rand.New(rand.NewPCG(seed, seed>>32)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession creates a new search session for a scenario. An empty
// scenario ID selects the default scenario.
func (s *searchServiceImpl) CreateSession(ctx context.Context, scenarioID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var scenario *engine.Scenario
	if scenarioID != "" {
		var err error
		scenario, err = s.scenarios.LoadScenario(scenarioID)
		if err != nil {
			return nil, fmt.Errorf("failed to load scenario %s: %w", scenarioID, err)
		}
	} else {
		scenario = s.scenarios.GetDefault()
		scenarioID = scenario.Name
	}

	sess, err := s.sessions.Create("", scenarioID, scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	metrics.SessionsActive.Set(float64(s.sessions.Count()))

	slog.Info("session created", "session", sess.ID, "scenario", scenarioID,
		"width", scenario.Width, "height", scenario.Height)

	return sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *searchServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *searchServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *searchServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	metrics.SessionsActive.Set(float64(s.sessions.Count()))
	return nil
}

// Initialize starts a new search in the session, discarding any previous one
func (s *searchServiceImpl) Initialize(ctx context.Context, sessionID string, req InitializeRequest) (*StepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	// explicit endpoints go into the scenario copy so a drawn goal avoids them
	var picked engine.Scenario
	if sess.Scenario != nil {
		picked = *sess.Scenario
	}
	if req.Random {
		picked.Start, picked.End = nil, nil
	}
	if req.Start != nil {
		picked.Start = req.Start
	}
	if req.End != nil {
		picked.End = req.End
	}

	start, end, err := engine.PickEndpoints(s.rng, sess.Engine, &picked)
	if err != nil {
		return nil, fmt.Errorf("failed to pick endpoints: %w", err)
	}

	if err := sess.Engine.Initialize(start, end); err != nil {
		return nil, fmt.Errorf("failed to initialize search: %w", err)
	}

	slog.Debug("search initialized", "session", sess.ID, "start", start.String(), "end", end.String())

	result := stepResult(sess, 0, 0)
	result.Message = fmt.Sprintf("Search initialized from %s to %s", start, end)
	return result, nil
}

// Step advances the search by up to steps expansions, stopping early on a
// terminal status. Requests above MaxStepsPerCall are truncated.
func (s *searchServiceImpl) Step(ctx context.Context, sessionID string, steps int) (*StepResult, error) {
	if steps <= 0 {
		steps = 1
	}
	requested := steps
	if steps > engine.MaxStepsPerCall {
		steps = engine.MaxStepsPerCall
	}

	result, err := s.advance(ctx, sessionID, steps)
	if err != nil {
		return nil, err
	}
	result.Requested = requested
	result.Truncated = requested > steps && !result.Status.Terminal()
	return result, nil
}

// Run advances the search until it finishes, the budget is spent or ctx is
// done. A budget of zero or less allows enough steps to always finish.
func (s *searchServiceImpl) Run(ctx context.Context, sessionID string, budget int) (*StepResult, error) {
	result, err := s.advance(ctx, sessionID, budget)
	if err != nil {
		return nil, err
	}
	result.Requested = budget
	return result, nil
}

// advance performs up to limit Advance calls. limit <= 0 means one more
// than the number of cells, which always reaches a terminal status.
func (s *searchServiceImpl) advance(ctx context.Context, sessionID string, limit int) (*StepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	eng := sess.Engine
	if limit <= 0 {
		limit = eng.Width()*eng.Height() + 1
	}

	wasTerminal := eng.Status().Terminal()
	before := eng.Stats().Steps
	status := eng.Status()

	for i := 0; i < limit; i++ {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				break
			}
		}
		status, err = eng.Advance()
		if err != nil {
			return nil, fmt.Errorf("failed to advance search: %w", err)
		}
		if status.Terminal() {
			break
		}
	}

	taken := eng.Stats().Steps - before
	metrics.AdvanceSteps.Add(float64(taken))

	if status.Terminal() && !wasTerminal {
		s.finish(sess)
	}

	result := stepResult(sess, taken, limit)
	if err := ctx.Err(); err != nil && !status.Terminal() {
		result.Message = fmt.Sprintf("Search interrupted after %d steps: %v", taken, err)
	}
	return result, nil
}

// finish draws the path and records metrics once a search becomes terminal
func (s *searchServiceImpl) finish(sess *Session) {
	eng := sess.Engine
	stats := eng.Stats()

	if eng.Status() == engine.StatusSucceeded {
		path, err := eng.MarkPath()
		if err != nil {
			slog.Error("failed to mark path", "session", sess.ID, "error", err)
			return
		}
		metrics.ObserveSearch(string(engine.StatusSucceeded), stats.Expansions, len(path)-1)
		slog.Info("path found", "session", sess.ID, "moves", len(path)-1,
			"expansions", stats.Expansions, "steps", stats.Steps)
		return
	}

	metrics.ObserveSearch(string(engine.StatusFailed), stats.Expansions, 0)
	slog.Info("no path exists", "session", sess.ID, "start", eng.Start().String(),
		"end", eng.End().String(), "expansions", stats.Expansions)
}

// GetFrame returns a snapshot of the session's grid and search progress
func (s *searchServiceImpl) GetFrame(ctx context.Context, sessionID string) (*engine.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	frame := sess.Engine.Frame()
	return &frame, nil
}

// GetPath returns the path of a succeeded search in travel order
func (s *searchServiceImpl) GetPath(ctx context.Context, sessionID string) (*PathResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	eng := sess.Engine
	if eng.Status() == engine.StatusFailed {
		return nil, fmt.Errorf("%w between %s and %s", engine.ErrNoPathExists, eng.Start(), eng.End())
	}

	path, err := eng.Path()
	if err != nil {
		return nil, err
	}

	return &PathResult{
		SessionID: sess.ID,
		Start:     eng.Start(),
		End:       eng.End(),
		Path:      path,
		Length:    len(path) - 1,
	}, nil
}

// ListScenarios returns the available scenarios
func (s *searchServiceImpl) ListScenarios(ctx context.Context) ([]*ScenarioInfo, error) {
	return s.scenarios.ListScenarios()
}

// LoadScenario loads a scenario by ID
func (s *searchServiceImpl) LoadScenario(ctx context.Context, scenarioID string) (*engine.Scenario, error) {
	return s.scenarios.LoadScenario(scenarioID)
}

// SaveScenario validates and stores a scenario under the given ID
func (s *searchServiceImpl) SaveScenario(ctx context.Context, scenarioID string, scenario *engine.Scenario) error {
	if scenarioID == "" {
		return errors.New("scenario ID is required")
	}
	return s.scenarios.SaveScenario(scenarioID, scenario)
}

// session looks up a session and marks it accessed. Callers hold s.mu.
func (s *searchServiceImpl) session(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	if err := s.sessions.UpdateLastAccessed(sessionID); err != nil {
		slog.Warn("failed to update session access time", "session", sessionID, "error", err)
	}
	return sess, nil
}

func sessionInfo(sess *Session) *SessionInfo {
	eng := sess.Engine
	info := &SessionInfo{
		ID:             sess.ID,
		ScenarioID:     sess.ScenarioID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		Width:          eng.Width(),
		Height:         eng.Height(),
		Status:         eng.Status(),
		Stats:          eng.Stats(),
		Scenario:       sess.Scenario,
	}
	if eng.Status() != engine.StatusUninitialized {
		start, end := eng.Start(), eng.End()
		info.Start = &start
		info.End = &end
	}
	return info
}

func stepResult(sess *Session, taken, requested int) *StepResult {
	eng := sess.Engine
	frame := eng.Frame()

	result := &StepResult{
		SessionID:   sess.ID,
		Status:      eng.Status(),
		StepsTaken:  taken,
		Requested:   requested,
		Start:       eng.Start(),
		End:         eng.End(),
		Current:     frame.Current,
		OpenCount:   frame.OpenCount,
		ClosedCount: frame.ClosedCount,
		Stats:       frame.Stats,
	}

	switch eng.Status() {
	case engine.StatusSucceeded:
		result.Path = frame.Path
		result.PathLength = len(frame.Path) - 1
		result.Message = fmt.Sprintf("Path found: %d moves after %d expansions", result.PathLength, frame.Stats.Expansions)
	case engine.StatusFailed:
		result.Message = fmt.Sprintf("No path exists from %s to %s", eng.Start(), eng.End())
	default:
		result.Message = fmt.Sprintf("Search in progress: %d open, %d closed", frame.OpenCount, frame.ClosedCount)
	}
	return result
}
