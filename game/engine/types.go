package engine

import "fmt"

// Tile is the display classification of a single grid cell
type Tile string

const (
	TileEmpty    Tile = "empty"
	TileObstacle Tile = "obstacle"
	TileVisited  Tile = "visited"
	TileFrontier Tile = "frontier"
	TileStart    Tile = "start"
	TileEnd      Tile = "end"
	TilePath     Tile = "path"

	// Validation constants
	MinGridSize     = 1
	MaxGridSize     = 200
	MaxStepsPerCall = 10000
)

// Symbol returns the single glyph renderers draw for the tile
func (t Tile) Symbol() rune {
	switch t {
	case TileObstacle:
		return 'x'
	case TileVisited:
		return '0'
	case TileFrontier:
		return 'o'
	case TileStart:
		return 'S'
	case TileEnd:
		return 'E'
	case TilePath:
		return '█'
	default:
		return ' '
	}
}

// Status is the lifecycle state of a search
type Status string

const (
	StatusUninitialized Status = "uninitialized"
	StatusInProgress    Status = "in_progress"
	StatusSucceeded     Status = "succeeded"
	StatusFailed        Status = "failed"
)

// Terminal reports whether no further Advance call can change the status
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Coordinate identifies a grid cell. It is a comparable value type and is
// used directly as a map key.
type Coordinate struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// String renders the coordinate as "(x,y)"
func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Add returns the coordinate offset by d
func (c Coordinate) Add(d Coordinate) Coordinate {
	return Coordinate{X: c.X + d.X, Y: c.Y + d.Y}
}

// Stats counts the work done since the last Initialize
type Stats struct {
	Steps        int `json:"steps"`
	Expansions   int `json:"expansions"`
	StalePops    int `json:"stale_pops"`
	PeakFrontier int `json:"peak_frontier"`
}
