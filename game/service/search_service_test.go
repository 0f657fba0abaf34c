package service_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/gridpath/game/engine"
	"github.com/wricardo/gridpath/game/service"
)

var errMockNotFound = errors.New("not found")

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions map[string]*service.Session
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
	}
}

func (m *MockSessionManager) Create(id, scenarioID string, scenario *engine.Scenario) (*service.Session, error) {
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}

	eng, err := scenario.NewEngine()
	if err != nil {
		return nil, err
	}

	sess := &service.Session{
		ID:             id,
		ScenarioID:     scenarioID,
		Engine:         eng,
		Scenario:       scenario,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}
	m.sessions[id] = sess
	return sess, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	sess, ok := m.sessions[id]
	if !ok {
		return nil, errMockNotFound
	}
	return sess, nil
}

func (m *MockSessionManager) List() []*service.Session {
	out := make([]*service.Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		out = append(out, sess)
	}
	return out
}

func (m *MockSessionManager) Delete(id string) error {
	if _, ok := m.sessions[id]; !ok {
		return errMockNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	sess, ok := m.sessions[id]
	if !ok {
		return errMockNotFound
	}
	sess.LastAccessedAt = time.Now()
	return nil
}

func (m *MockSessionManager) Count() int {
	return len(m.sessions)
}

// MockScenarioManager implements service.ScenarioManager for testing
type MockScenarioManager struct {
	scenarios map[string]*engine.Scenario
}

func NewMockScenarioManager() *MockScenarioManager {
	return &MockScenarioManager{
		scenarios: map[string]*engine.Scenario{
			"open": {Name: "open", Width: 5, Height: 5},
			"pair": {Name: "pair", Width: 2, Height: 1},
			"walled": {
				Name:      "walled",
				Width:     3,
				Height:    3,
				Obstacles: []engine.Coordinate{{X: 2, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 2}},
				Start:     &engine.Coordinate{X: 0, Y: 0},
				End:       &engine.Coordinate{X: 2, Y: 2},
			},
		},
	}
}

func (m *MockScenarioManager) LoadScenario(id string) (*engine.Scenario, error) {
	sc, ok := m.scenarios[id]
	if !ok {
		return nil, errMockNotFound
	}
	return sc, nil
}

func (m *MockScenarioManager) ListScenarios() ([]*service.ScenarioInfo, error) {
	var out []*service.ScenarioInfo
	for id, sc := range m.scenarios {
		out = append(out, &service.ScenarioInfo{ScenarioID: id, Name: sc.Name, Width: sc.Width, Height: sc.Height})
	}
	return out, nil
}

func (m *MockScenarioManager) GetDefault() *engine.Scenario {
	return engine.DefaultScenario()
}

func (m *MockScenarioManager) SaveScenario(id string, sc *engine.Scenario) error {
	if err := engine.ValidateScenario(sc); err != nil {
		return err
	}
	m.scenarios[id] = sc
	return nil
}

func newTestService() (service.SearchService, *MockSessionManager) {
	sessions := NewMockSessionManager()
	svc := service.NewSearchService(sessions, NewMockScenarioManager(),
		service.WithRand(rand.New(rand.NewPCG(42, 42))))
	return svc, sessions
}

func TestSearchService_CreateSession(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "open")
	require.NoError(t, err)
	assert.NotEmpty(t, info.ID)
	assert.Equal(t, "open", info.ScenarioID)
	assert.Equal(t, 5, info.Width)
	assert.Equal(t, engine.StatusUninitialized, info.Status)
	assert.Nil(t, info.Start)

	def, err := svc.CreateSession(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "classic", def.ScenarioID)
	assert.Equal(t, 20, def.Width)

	_, err = svc.CreateSession(ctx, "missing")
	assert.ErrorIs(t, err, errMockNotFound)

	sessions, err := svc.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestSearchService_StepToCompletion(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "open")
	require.NoError(t, err)

	init, err := svc.Initialize(ctx, info.ID, service.InitializeRequest{
		Start: &engine.Coordinate{X: 0, Y: 0},
		End:   &engine.Coordinate{X: 4, Y: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, engine.StatusInProgress, init.Status)
	assert.Equal(t, 1, init.OpenCount)

	result, err := svc.Step(ctx, info.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, result.StepsTaken)
	assert.Equal(t, engine.StatusInProgress, result.Status)
	assert.Equal(t, 1, result.ClosedCount)

	result, err = svc.Step(ctx, info.ID, 1000)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusSucceeded, result.Status)
	assert.Less(t, result.StepsTaken, 1000, "stops at the goal")
	assert.Equal(t, 8, result.PathLength)
	assert.Len(t, result.Path, 9)
	assert.False(t, result.Truncated)

	path, err := svc.GetPath(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, path.Length)
	assert.Equal(t, engine.Coordinate{X: 0, Y: 0}, path.Path[0])
	assert.Equal(t, engine.Coordinate{X: 4, Y: 4}, path.Path[8])

	frame, err := svc.GetFrame(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, countTiles(frame, engine.TilePath), "path drawn between the markers")

	again, err := svc.Step(ctx, info.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, again.StepsTaken)
	assert.Equal(t, engine.StatusSucceeded, again.Status)
}

func TestSearchService_RunFailsWhenWalled(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "walled")
	require.NoError(t, err)

	init, err := svc.Initialize(ctx, info.ID, service.InitializeRequest{})
	require.NoError(t, err)
	assert.Equal(t, engine.Coordinate{X: 0, Y: 0}, init.Start, "scenario endpoints are used")
	assert.Equal(t, engine.Coordinate{X: 2, Y: 2}, init.End)

	result, err := svc.Run(ctx, info.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusFailed, result.Status)
	assert.Empty(t, result.Path)
	assert.Contains(t, result.Message, "No path exists")

	_, err = svc.GetPath(ctx, info.ID)
	assert.ErrorIs(t, err, engine.ErrNoPathExists)
}

func TestSearchService_RunBudget(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "")
	require.NoError(t, err)
	_, err = svc.Initialize(ctx, info.ID, service.InitializeRequest{
		End: &engine.Coordinate{X: 18, Y: 1},
	})
	require.NoError(t, err)

	result, err := svc.Run(ctx, info.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, result.StepsTaken)
	assert.Equal(t, engine.StatusInProgress, result.Status)
	assert.Equal(t, engine.Coordinate{X: 1, Y: 18}, result.Start)

	result, err = svc.Run(ctx, info.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusSucceeded, result.Status)
}

func TestSearchService_RunHonoursCancellation(t *testing.T) {
	svc, _ := newTestService()

	info, err := svc.CreateSession(context.Background(), "open")
	require.NoError(t, err)
	_, err = svc.Initialize(context.Background(), info.ID, service.InitializeRequest{
		Start: &engine.Coordinate{X: 0, Y: 0},
		End:   &engine.Coordinate{X: 4, Y: 4},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := svc.Run(ctx, info.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, result.StepsTaken)
	assert.Equal(t, engine.StatusInProgress, result.Status)
	assert.Contains(t, result.Message, "interrupted")
}

func TestSearchService_StepTruncation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "open")
	require.NoError(t, err)
	_, err = svc.Initialize(ctx, info.ID, service.InitializeRequest{})
	require.NoError(t, err)

	result, err := svc.Step(ctx, info.ID, engine.MaxStepsPerCall+5)
	require.NoError(t, err)
	assert.Equal(t, engine.MaxStepsPerCall+5, result.Requested)
	assert.True(t, result.Status.Terminal(), "a 5x5 search finishes well inside the cap")
	assert.False(t, result.Truncated)
}

func TestSearchService_Errors(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Step(ctx, "nope", 1)
	assert.ErrorIs(t, err, errMockNotFound)

	info, err := svc.CreateSession(ctx, "open")
	require.NoError(t, err)

	_, err = svc.Step(ctx, info.ID, 1)
	assert.ErrorIs(t, err, engine.ErrNotInitialized)

	_, err = svc.GetPath(ctx, info.ID)
	assert.ErrorIs(t, err, engine.ErrNotInitialized)

	_, err = svc.Initialize(ctx, info.ID, service.InitializeRequest{
		Start: &engine.Coordinate{X: 9, Y: 9},
		End:   &engine.Coordinate{X: 0, Y: 0},
	})
	assert.ErrorIs(t, err, engine.ErrOutOfBounds)

	require.NoError(t, svc.DeleteSession(ctx, info.ID))
	assert.ErrorIs(t, svc.DeleteSession(ctx, info.ID), errMockNotFound)
}

func TestSearchService_RandomEndpointsAreFree(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "")
	require.NoError(t, err)

	region := engine.DefaultScenario().EndRegion
	for i := 0; i < 10; i++ {
		result, err := svc.Initialize(ctx, info.ID, service.InitializeRequest{})
		require.NoError(t, err)
		assert.True(t, region.Contains(result.End), "goal %s outside region", result.End)

		result, err = svc.Run(ctx, info.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, engine.StatusSucceeded, result.Status)
	}
}

func TestSearchService_RandomOverridesFixedEndpoints(t *testing.T) {
	svc, sessions := newTestService()
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "walled")
	require.NoError(t, err)

	fixed, err := svc.Initialize(ctx, info.ID, service.InitializeRequest{})
	require.NoError(t, err)
	assert.Equal(t, engine.Coordinate{X: 0, Y: 0}, fixed.Start)
	assert.Equal(t, engine.Coordinate{X: 2, Y: 2}, fixed.End)

	eng := sessions.sessions[info.ID].Engine
	for i := 0; i < 10; i++ {
		result, err := svc.Initialize(ctx, info.ID, service.InitializeRequest{Random: true})
		require.NoError(t, err)
		assert.True(t, eng.Passable(result.Start))
		assert.True(t, eng.Passable(result.End))
		assert.NotEqual(t, result.Start, result.End)
	}
}

func TestSearchService_ExplicitStartRandomGoal(t *testing.T) {
	ctx := context.Background()
	start := engine.Coordinate{X: 0, Y: 0}

	for seed := uint64(0); seed < 50; seed++ {
		svc := service.NewSearchService(NewMockSessionManager(), NewMockScenarioManager(),
			service.WithRand(rand.New(rand.NewPCG(seed, seed))))
		info, err := svc.CreateSession(ctx, "pair")
		require.NoError(t, err)

		result, err := svc.Initialize(ctx, info.ID, service.InitializeRequest{Start: &start})
		require.NoError(t, err, "seed %d", seed)
		assert.Equal(t, start, result.Start, "seed %d", seed)
		assert.Equal(t, engine.Coordinate{X: 1, Y: 0}, result.End, "seed %d", seed)
	}

	svc, _ := newTestService()
	info, err := svc.CreateSession(ctx, "pair")
	require.NoError(t, err)
	end := engine.Coordinate{X: 1, Y: 0}
	result, err := svc.Initialize(ctx, info.ID, service.InitializeRequest{End: &end})
	require.NoError(t, err)
	assert.Equal(t, engine.Coordinate{X: 0, Y: 0}, result.Start)
}

func TestSearchService_Scenarios(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	list, err := svc.ListScenarios(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	err = svc.SaveScenario(ctx, "tiny", &engine.Scenario{Name: "tiny", Layout: []string{"S.E"}})
	require.NoError(t, err)

	sc, err := svc.LoadScenario(ctx, "tiny")
	require.NoError(t, err)
	assert.Equal(t, 3, sc.Width)

	assert.Error(t, svc.SaveScenario(ctx, "", sc))
}

func countTiles(f *engine.Frame, tile engine.Tile) int {
	n := 0
	for _, row := range f.Cells {
		for _, t := range row {
			if t == tile {
				n++
			}
		}
	}
	return n
}
