package engine

import "fmt"

// ReconstructPath walks parent links from the goal back to the start and
// returns the cells in that order: goal first, start last. The walk stops at
// the first cell without a parent, which by construction is the start.
func (e *Engine) ReconstructPath() ([]Coordinate, error) {
	switch e.status {
	case StatusUninitialized:
		return nil, ErrNotInitialized
	case StatusSucceeded:
	default:
		return nil, fmt.Errorf("%w: status is %s", ErrSearchNotSucceeded, e.status)
	}

	limit := e.grid.Width() * e.grid.Height()
	path := []Coordinate{e.end}
	current := e.end

	for {
		parent, ok := e.state.cameFrom[current]
		if !ok {
			break
		}
		if len(path) >= limit {
			return nil, fmt.Errorf("%w: walk exceeded %d cells", ErrBrokenParentChain, limit)
		}
		path = append(path, parent)
		current = parent
	}

	if current != e.start {
		return nil, fmt.Errorf("%w: walk ended at %s, start is %s", ErrBrokenParentChain, current, e.start)
	}

	return path, nil
}

// Path returns the reconstructed path in travel order: start first
func (e *Engine) Path() ([]Coordinate, error) {
	path, err := e.ReconstructPath()
	if err != nil {
		return nil, err
	}
	return Reversed(path), nil
}

// MarkPath paints the path tiles between the start and end markers and
// returns the path in travel order.
func (e *Engine) MarkPath() ([]Coordinate, error) {
	path, err := e.Path()
	if err != nil {
		return nil, err
	}
	for _, c := range path {
		e.paint(c, TilePath)
	}
	return path, nil
}
