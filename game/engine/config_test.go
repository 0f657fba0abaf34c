package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultScenario(t *testing.T) {
	sc := DefaultScenario()
	require.NoError(t, ValidateScenario(sc))

	assert.Equal(t, 20, sc.Width)
	assert.Equal(t, 20, sc.Height)
	assert.Len(t, sc.ObstacleCoordinates(), 36)

	e, err := sc.NewEngine()
	require.NoError(t, err)
	assert.Equal(t, 36, e.Grid().Count(TileObstacle))
}

func TestValidateScenario_Layout(t *testing.T) {
	sc := &Scenario{
		Name: "maze",
		Layout: []string{
			"S..x",
			".#.x",
			"...E",
		},
	}
	require.NoError(t, ValidateScenario(sc))

	assert.Equal(t, 4, sc.Width)
	assert.Equal(t, 3, sc.Height)
	require.NotNil(t, sc.Start)
	require.NotNil(t, sc.End)
	assert.Equal(t, Coordinate{0, 0}, *sc.Start)
	assert.Equal(t, Coordinate{3, 2}, *sc.End)
	assert.ElementsMatch(t, []Coordinate{{3, 0}, {1, 1}, {3, 1}}, sc.ObstacleCoordinates())
}

func TestValidateScenario_Errors(t *testing.T) {
	tests := []struct {
		name string
		sc   *Scenario
	}{
		{"nil", nil},
		{"missing name", &Scenario{Width: 3, Height: 3}},
		{"zero size", &Scenario{Name: "a"}},
		{"too wide", &Scenario{Name: "a", Width: MaxGridSize + 1, Height: 3}},
		{"bad layout char", &Scenario{Name: "a", Layout: []string{"..?"}}},
		{"ragged layout", &Scenario{Name: "a", Layout: []string{"...", ".."}}},
		{"layout height mismatch", &Scenario{Name: "a", Width: 2, Height: 3, Layout: []string{"..", ".."}}},
		{"two starts", &Scenario{Name: "a", Layout: []string{"S.S"}}},
		{"obstacle outside", &Scenario{Name: "a", Width: 2, Height: 2, Obstacles: []Coordinate{{2, 0}}}},
		{"start outside", &Scenario{Name: "a", Width: 2, Height: 2, Start: &Coordinate{0, 5}}},
		{"end on obstacle", &Scenario{Name: "a", Width: 2, Height: 2, Obstacles: []Coordinate{{1, 1}}, End: &Coordinate{1, 1}}},
		{"inverted region", &Scenario{Name: "a", Width: 4, Height: 4, EndRegion: &Region{Min: Coordinate{3, 3}, Max: Coordinate{1, 1}}}},
		{"region outside", &Scenario{Name: "a", Width: 4, Height: 4, EndRegion: &Region{Max: Coordinate{4, 0}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, ValidateScenario(tt.sc), ErrInvalidScenario)
		})
	}
}

func TestLoadScenario(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "corridor.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{
		"name": "corridor",
		"width": 5,
		"height": 1,
		"start": {"x": 0, "y": 0},
		"end": {"x": 4, "y": 0}
	}`), 0644))

	yamlPath := filepath.Join(dir, "box.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`name: box
description: goal boxed in
layout:
  - "S...."
  - "...x."
  - "..xEx"
  - "...x."
end_region:
  min: {x: 0, y: 0}
  max: {x: 4, y: 0}
`), 0644))

	sc, err := LoadScenario(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "corridor", sc.Name)
	assert.Equal(t, Coordinate{4, 0}, *sc.End)

	sc, err = LoadScenario(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "box", sc.Name)
	assert.Equal(t, 5, sc.Width)
	assert.Equal(t, 4, sc.Height)
	assert.Len(t, sc.ObstacleCoordinates(), 4)
	require.NotNil(t, sc.EndRegion)
	assert.Equal(t, Coordinate{4, 0}, sc.EndRegion.Max)

	e, err := sc.NewEngine()
	require.NoError(t, err)
	require.NoError(t, e.Initialize(*sc.Start, *sc.End))
	assert.Equal(t, StatusFailed, runSearch(t, e))
}

func TestLoadScenario_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadScenario(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"name": "bad", "width": 0, "height": 3}`), 0644))
	_, err = LoadScenario(bad)
	assert.ErrorIs(t, err, ErrInvalidScenario)

	_, err = ParseScenario([]byte(`name: x`), "toml")
	assert.Error(t, err)
}
