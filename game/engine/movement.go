package engine

// Directions lists the four cardinal moves in expansion order: left, right,
// up, down.
var Directions = []Coordinate{
	{X: -1, Y: 0},
	{X: 1, Y: 0},
	{X: 0, Y: -1},
	{X: 0, Y: 1},
}

// Passable reports whether c is inside the grid and not an obstacle
func (e *Engine) Passable(c Coordinate) bool {
	if !e.grid.InBounds(c) {
		return false
	}
	_, blocked := e.obstacles[c]
	return !blocked
}

// Neighbors returns the passable cardinal neighbours of c in Directions order
func (e *Engine) Neighbors(c Coordinate) []Coordinate {
	out := make([]Coordinate, 0, len(Directions))
	for _, d := range Directions {
		n := c.Add(d)
		if e.Passable(n) {
			out = append(out, n)
		}
	}
	return out
}

// Adjacent reports whether a and b differ by exactly one cardinal step
func Adjacent(a, b Coordinate) bool {
	return ManhattanDistance(a, b) == 1
}
