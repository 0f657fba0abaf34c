package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/wricardo/gridpath/game/engine"
	"github.com/wricardo/gridpath/game/service"
)

var (
	ErrScenarioNotFound = errors.New("scenario not found")
	ErrInvalidScenario  = errors.New("invalid scenario")
)

// DefaultScenarioID names the scenario used when none is requested
const DefaultScenarioID = "classic"

// scenarioExtensions are tried in order when resolving an ID to a file
var scenarioExtensions = []string{".json", ".yaml", ".yml"}

// Manager handles scenario loading and caching
type Manager struct {
	scenarioDir     string
	defaultScenario *engine.Scenario
	scenarios       map[string]*engine.Scenario
	mu              sync.RWMutex
}

// NewManager creates a new scenario manager over an existing directory
func NewManager(scenarioDir string) (*Manager, error) {
	info, err := os.Stat(scenarioDir)
	if err != nil {
		return nil, fmt.Errorf("scenario directory does not exist: %s", scenarioDir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scenario path is not a directory: %s", scenarioDir)
	}

	m := &Manager{
		scenarioDir: scenarioDir,
		scenarios:   make(map[string]*engine.Scenario),
	}
	m.loadDefaultScenario()

	return m, nil
}

// Dir returns the directory scenarios are read from
func (m *Manager) Dir() string {
	return m.scenarioDir
}

// LoadScenario loads a scenario by ID. The ID is a file name in the
// scenario directory with or without its extension; the built-in classic
// scenario answers to DefaultScenarioID when no such file exists.
func (m *Manager) LoadScenario(id string) (*engine.Scenario, error) {
	id = scenarioID(id)

	m.mu.RLock()
	if scenario, exists := m.scenarios[id]; exists {
		m.mu.RUnlock()
		return scenario, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if scenario, exists := m.scenarios[id]; exists {
		return scenario, nil
	}

	path, err := m.resolve(id)
	if err != nil {
		if errors.Is(err, ErrScenarioNotFound) && id == DefaultScenarioID {
			return engine.DefaultScenario(), nil
		}
		return nil, err
	}

	scenario, err := engine.LoadScenario(path)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidScenario) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
		}
		return nil, fmt.Errorf("failed to load scenario %s: %w", id, err)
	}

	m.scenarios[id] = scenario
	return scenario, nil
}

// ListScenarios returns information about all available scenarios. Files
// that fail validation are skipped with a warning.
func (m *Manager) ListScenarios() ([]*service.ScenarioInfo, error) {
	entries, err := os.ReadDir(m.scenarioDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	var scenarios []*service.ScenarioInfo
	seen := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsDir() || !isScenarioFile(entry.Name()) {
			continue
		}

		id := scenarioID(entry.Name())
		if seen[id] {
			continue
		}

		scenario, err := m.LoadScenario(id)
		if err != nil {
			slog.Warn("skipping scenario", "file", entry.Name(), "error", err)
			continue
		}
		seen[id] = true

		scenarios = append(scenarios, scenarioInfo(id, entry.Name(), scenario))
	}

	if !seen[DefaultScenarioID] {
		info := scenarioInfo(DefaultScenarioID, "", engine.DefaultScenario())
		info.Builtin = true
		scenarios = append(scenarios, info)
	}

	sort.Slice(scenarios, func(i, j int) bool {
		return scenarios[i].ScenarioID < scenarios[j].ScenarioID
	})

	return scenarios, nil
}

// GetDefault returns the default scenario
func (m *Manager) GetDefault() *engine.Scenario {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultScenario
}

// SetDefault sets the default scenario by ID
func (m *Manager) SetDefault(id string) error {
	scenario, err := m.LoadScenario(id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultScenario = scenario
	return nil
}

// RefreshCache drops all cached scenarios and reloads the default
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.scenarios = make(map[string]*engine.Scenario)
	m.mu.Unlock()

	m.loadDefaultScenario()
}

// Invalidate drops one cached scenario so the next load rereads its file
func (m *Manager) Invalidate(id string) {
	id = scenarioID(id)

	m.mu.Lock()
	delete(m.scenarios, id)
	m.mu.Unlock()

	if id == DefaultScenarioID {
		m.loadDefaultScenario()
	}
}

// SaveScenario validates a scenario and writes it to disk as JSON
func (m *Manager) SaveScenario(id string, scenario *engine.Scenario) error {
	if err := engine.ValidateScenario(scenario); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}

	id = scenarioID(id)
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("%w: bad scenario id %q", ErrInvalidScenario, id)
	}

	data, err := json.MarshalIndent(scenario, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scenario: %w", err)
	}

	path := filepath.Join(m.scenarioDir, id+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write scenario file: %w", err)
	}

	m.mu.Lock()
	m.scenarios[id] = scenario
	m.mu.Unlock()

	return nil
}

// Watch invalidates cached scenarios when their files change until ctx is
// done. onChange, if set, is called with the affected scenario ID.
func (m *Manager) Watch(ctx context.Context, onChange func(id string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating scenario watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(m.scenarioDir); err != nil {
		return fmt.Errorf("watching %s: %w", m.scenarioDir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isScenarioFile(event.Name) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}

			id := scenarioID(filepath.Base(event.Name))
			m.Invalidate(id)
			slog.Info("scenario changed", "scenario", id, "op", event.Op.String())
			if onChange != nil {
				onChange(id)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("scenario watcher error", "error", err)
		}
	}
}

// loadDefaultScenario prefers classic from disk, then the built-in demo
func (m *Manager) loadDefaultScenario() {
	scenario, err := m.LoadScenario(DefaultScenarioID)
	if err != nil {
		slog.Warn("falling back to built-in default scenario", "error", err)
		scenario = engine.DefaultScenario()
	}

	m.mu.Lock()
	m.defaultScenario = scenario
	m.mu.Unlock()
}

// resolve finds the file for a scenario ID. Callers hold m.mu.
func (m *Manager) resolve(id string) (string, error) {
	for _, ext := range scenarioExtensions {
		path := filepath.Join(m.scenarioDir, id+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrScenarioNotFound, id)
}

// scenarioID strips a scenario file extension
func scenarioID(name string) string {
	for _, ext := range scenarioExtensions {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}

func isScenarioFile(name string) bool {
	ext := filepath.Ext(name)
	for _, e := range scenarioExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func scenarioInfo(id, filename string, scenario *engine.Scenario) *service.ScenarioInfo {
	return &service.ScenarioInfo{
		Filename:    filename,
		ScenarioID:  id,
		Name:        scenario.Name,
		Description: scenario.Description,
		Width:       scenario.Width,
		Height:      scenario.Height,
		Obstacles:   len(scenario.ObstacleCoordinates()),
	}
}
