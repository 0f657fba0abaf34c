package engine

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds        = errors.New("coordinate out of bounds")
	ErrEndpointBlocked    = errors.New("endpoint is an obstacle")
	ErrNotInitialized     = errors.New("search not initialized")
	ErrSearchNotSucceeded = errors.New("search has not succeeded")
	ErrNoPathExists       = errors.New("no path exists")
	ErrBrokenParentChain  = errors.New("parent chain does not lead back to start")
	ErrNoFreeCell         = errors.New("no free cell available")
	ErrInvalidGridSize    = errors.New("invalid grid size")
)

// OutOfBoundsError reports the offending coordinate together with the grid
// extents. It matches ErrOutOfBounds under errors.Is.
type OutOfBoundsError struct {
	Coord  Coordinate
	Width  int
	Height int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("coordinate %s out of bounds for %dx%d grid", e.Coord, e.Width, e.Height)
}

func (e *OutOfBoundsError) Unwrap() error {
	return ErrOutOfBounds
}
