package engine

import "fmt"

// Grid is a fixed-size, row-major array of tiles. It is purely the display
// model; search correctness never depends on its contents.
type Grid struct {
	width  int
	height int
	tiles  []Tile
}

// NewGrid creates a grid of the given size with every tile empty
func NewGrid(width, height int) (*Grid, error) {
	if width < MinGridSize || width > MaxGridSize || height < MinGridSize || height > MaxGridSize {
		return nil, fmt.Errorf("%w: %dx%d (each side must be between %d and %d)",
			ErrInvalidGridSize, width, height, MinGridSize, MaxGridSize)
	}

	g := &Grid{
		width:  width,
		height: height,
		tiles:  make([]Tile, width*height),
	}
	g.Clear()
	return g, nil
}

// Width returns the number of columns
func (g *Grid) Width() int {
	return g.width
}

// Height returns the number of rows
func (g *Grid) Height() int {
	return g.height
}

// InBounds reports whether c lies inside [0,width) x [0,height)
func (g *Grid) InBounds(c Coordinate) bool {
	return c.X >= 0 && c.X < g.width && c.Y >= 0 && c.Y < g.height
}

// Get returns the tile at c
func (g *Grid) Get(c Coordinate) (Tile, error) {
	if err := g.check(c); err != nil {
		return "", err
	}
	return g.tiles[c.Y*g.width+c.X], nil
}

// Set stores tile at c
func (g *Grid) Set(c Coordinate, tile Tile) error {
	if err := g.check(c); err != nil {
		return err
	}
	g.tiles[c.Y*g.width+c.X] = tile
	return nil
}

// Clear resets every tile to empty. Obstacles are reapplied by the owner.
func (g *Grid) Clear() {
	for i := range g.tiles {
		g.tiles[i] = TileEmpty
	}
}

// Rows returns a deep copy of the tiles, one slice per row
func (g *Grid) Rows() [][]Tile {
	rows := make([][]Tile, g.height)
	for y := 0; y < g.height; y++ {
		row := make([]Tile, g.width)
		copy(row, g.tiles[y*g.width:(y+1)*g.width])
		rows[y] = row
	}
	return rows
}

// Count returns how many tiles currently hold the given classification
func (g *Grid) Count(tile Tile) int {
	n := 0
	for _, t := range g.tiles {
		if t == tile {
			n++
		}
	}
	return n
}

func (g *Grid) check(c Coordinate) error {
	if !g.InBounds(c) {
		return &OutOfBoundsError{Coord: c, Width: g.width, Height: g.height}
	}
	return nil
}

// set is Set for coordinates the engine has already bounds-checked
func (g *Grid) set(c Coordinate, tile Tile) {
	g.tiles[c.Y*g.width+c.X] = tile
}
