package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconstructPath_Misuse(t *testing.T) {
	e, err := NewEngine(4, 4, nil)
	require.NoError(t, err)

	_, err = e.ReconstructPath()
	assert.ErrorIs(t, err, ErrNotInitialized)

	require.NoError(t, e.Initialize(Coordinate{0, 0}, Coordinate{3, 3}))
	_, err = e.ReconstructPath()
	assert.ErrorIs(t, err, ErrSearchNotSucceeded)

	_, err = e.MarkPath()
	assert.ErrorIs(t, err, ErrSearchNotSucceeded)
}

func TestReconstructPath_Order(t *testing.T) {
	sc := DefaultScenario()
	e, err := sc.NewEngine()
	require.NoError(t, err)

	start, end := *sc.Start, Coordinate{X: 17, Y: 2}
	require.NoError(t, e.Initialize(start, end))
	require.Equal(t, StatusSucceeded, runSearch(t, e))

	path, err := e.ReconstructPath()
	require.NoError(t, err)
	require.NotEmpty(t, path)

	assert.Equal(t, end, path[0], "goal first")
	assert.Equal(t, start, path[len(path)-1], "start last")
	for i := 1; i < len(path); i++ {
		assert.True(t, Adjacent(path[i-1], path[i]), "%s and %s not adjacent", path[i-1], path[i])
		assert.False(t, e.IsObstacle(path[i]), "path crosses obstacle at %s", path[i])
	}

	forward, err := e.Path()
	require.NoError(t, err)
	assert.Equal(t, Reversed(path), forward)
}

func TestReconstructPath_BrokenChain(t *testing.T) {
	e, err := NewEngine(4, 1, nil)
	require.NoError(t, err)
	require.NoError(t, e.Initialize(Coordinate{0, 0}, Coordinate{3, 0}))
	require.Equal(t, StatusSucceeded, runSearch(t, e))

	// a cycle that never reaches the start
	e.state.cameFrom[Coordinate{3, 0}] = Coordinate{2, 0}
	e.state.cameFrom[Coordinate{2, 0}] = Coordinate{3, 0}
	_, err = e.ReconstructPath()
	assert.ErrorIs(t, err, ErrBrokenParentChain)

	// a chain that stops short of the start
	delete(e.state.cameFrom, Coordinate{2, 0})
	_, err = e.ReconstructPath()
	assert.ErrorIs(t, err, ErrBrokenParentChain)
}

func TestMarkPath(t *testing.T) {
	e, err := NewEngine(5, 3, []Coordinate{{2, 0}, {2, 1}})
	require.NoError(t, err)
	require.NoError(t, e.Initialize(Coordinate{0, 0}, Coordinate{4, 0}))
	require.Equal(t, StatusSucceeded, runSearch(t, e))

	path, err := e.MarkPath()
	require.NoError(t, err)
	assert.Len(t, path, 9)

	grid := e.Grid()
	assert.Equal(t, len(path)-2, grid.Count(TilePath), "endpoints keep their markers")

	tile, _ := grid.Get(Coordinate{0, 0})
	assert.Equal(t, TileStart, tile)
	tile, _ = grid.Get(Coordinate{4, 0})
	assert.Equal(t, TileEnd, tile)
	tile, _ = grid.Get(Coordinate{2, 2})
	assert.Equal(t, TilePath, tile, "only way past the wall")
}

func TestReversed(t *testing.T) {
	assert.Equal(t, []Coordinate{{2, 0}, {1, 0}, {0, 0}}, Reversed([]Coordinate{{0, 0}, {1, 0}, {2, 0}}))
	assert.Empty(t, Reversed(nil))
}
