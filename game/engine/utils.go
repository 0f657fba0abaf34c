package engine

// ManhattanDistance calculates the Manhattan distance between two coordinates
func ManhattanDistance(from, to Coordinate) int {
	return abs(from.X-to.X) + abs(from.Y-to.Y)
}

// Heuristic estimates the remaining cost from c to the goal
func Heuristic(c, goal Coordinate) float64 {
	return float64(ManhattanDistance(c, goal))
}

// Reversed returns a copy of path in the opposite order
func Reversed(path []Coordinate) []Coordinate {
	out := make([]Coordinate, len(path))
	for i, c := range path {
		out[len(path)-1-i] = c
	}
	return out
}

// abs returns the absolute value of x
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
