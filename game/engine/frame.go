package engine

// Frame is an immutable snapshot of the grid and search progress handed to
// renderers. Mutating a Frame never affects the engine.
type Frame struct {
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	Cells       [][]Tile     `json:"cells"`
	Status      Status       `json:"status"`
	Start       Coordinate   `json:"start"`
	End         Coordinate   `json:"end"`
	Current     *Coordinate  `json:"current,omitempty"`
	OpenCount   int          `json:"open_count"`
	ClosedCount int          `json:"closed_count"`
	Stats       Stats        `json:"stats"`
	Path        []Coordinate `json:"path,omitempty"` // travel order, set once succeeded
}

// Frame captures the current state for rendering
func (e *Engine) Frame() Frame {
	f := Frame{
		Width:       e.grid.Width(),
		Height:      e.grid.Height(),
		Cells:       e.grid.Rows(),
		Status:      e.status,
		Start:       e.start,
		End:         e.end,
		OpenCount:   e.OpenCount(),
		ClosedCount: e.ClosedCount(),
		Stats:       e.stats,
	}

	if e.current != nil {
		c := *e.current
		f.Current = &c
	}

	if e.status == StatusSucceeded {
		if path, err := e.Path(); err == nil {
			f.Path = path
		}
	}

	return f
}

// Tile returns the tile at c, or empty when c is outside the frame
func (f Frame) Tile(c Coordinate) Tile {
	if c.Y < 0 || c.Y >= len(f.Cells) || c.X < 0 || c.X >= len(f.Cells[c.Y]) {
		return TileEmpty
	}
	return f.Cells[c.Y][c.X]
}

// Rows renders each row as a string of tile symbols
func (f Frame) Rows() []string {
	rows := make([]string, len(f.Cells))
	for y, row := range f.Cells {
		runes := make([]rune, len(row))
		for x, t := range row {
			runes[x] = t.Symbol()
		}
		rows[y] = string(runes)
	}
	return rows
}
