package engine

import (
	"container/heap"
	"fmt"
	"math"
)

// Searcher provides the main interface for driving a search
type Searcher interface {
	// Lifecycle
	Initialize(start, end Coordinate) error
	Advance() (Status, error)
	Status() Status

	// Results
	ReconstructPath() ([]Coordinate, error)
	Path() ([]Coordinate, error)
	MarkPath() ([]Coordinate, error)

	// Presentation
	Frame() Frame
	Stats() Stats
}

var _ Searcher = (*Engine)(nil)

// searchState is everything Initialize throws away and rebuilds
type searchState struct {
	gScore         map[Coordinate]float64
	fScore         map[Coordinate]float64
	cameFrom       map[Coordinate]Coordinate // absent key: no parent
	open           frontier
	openMembership map[Coordinate]struct{}
	closed         map[Coordinate]struct{}
	seq            uint64
}

func newSearchState(capacity int) *searchState {
	return &searchState{
		gScore:         make(map[Coordinate]float64, capacity),
		fScore:         make(map[Coordinate]float64, capacity),
		cameFrom:       make(map[Coordinate]Coordinate, capacity),
		open:           make(frontier, 0, capacity),
		openMembership: make(map[Coordinate]struct{}, capacity),
		closed:         make(map[Coordinate]struct{}, capacity),
	}
}

// Engine implements Searcher over a bounded 4-connected grid
type Engine struct {
	grid      *Grid
	obstacles map[Coordinate]struct{}
	layout    []Coordinate

	start   Coordinate
	end     Coordinate
	current *Coordinate
	status  Status
	state   *searchState
	stats   Stats
}

// NewEngine creates an engine over a width x height grid with the given
// obstacles. Obstacles are applied now and reapplied on every Initialize.
func NewEngine(width, height int, obstacles []Coordinate) (*Engine, error) {
	grid, err := NewGrid(width, height)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		grid:      grid,
		obstacles: make(map[Coordinate]struct{}, len(obstacles)),
		layout:    make([]Coordinate, 0, len(obstacles)),
		status:    StatusUninitialized,
	}

	for _, o := range obstacles {
		if !grid.InBounds(o) {
			return nil, fmt.Errorf("obstacle: %w", &OutOfBoundsError{Coord: o, Width: width, Height: height})
		}
		if _, dup := e.obstacles[o]; dup {
			continue
		}
		e.obstacles[o] = struct{}{}
		e.layout = append(e.layout, o)
	}
	e.applyObstacles()

	return e, nil
}

// Grid returns the display grid. Callers must treat it as read-only.
func (e *Engine) Grid() *Grid {
	return e.grid
}

// Width returns the grid width
func (e *Engine) Width() int {
	return e.grid.Width()
}

// Height returns the grid height
func (e *Engine) Height() int {
	return e.grid.Height()
}

// Obstacles returns a copy of the obstacle layout in insertion order
func (e *Engine) Obstacles() []Coordinate {
	out := make([]Coordinate, len(e.layout))
	copy(out, e.layout)
	return out
}

// IsObstacle reports whether c is blocked
func (e *Engine) IsObstacle(c Coordinate) bool {
	_, ok := e.obstacles[c]
	return ok
}

// Start returns the start of the current search
func (e *Engine) Start() Coordinate {
	return e.start
}

// End returns the goal of the current search
func (e *Engine) End() Coordinate {
	return e.end
}

// Status returns the current lifecycle state
func (e *Engine) Status() Status {
	return e.status
}

// Stats returns the counters accumulated since the last Initialize
func (e *Engine) Stats() Stats {
	return e.stats
}

// Initialize discards any previous search and prepares a new one from start
// to end. On error the previous search is left untouched.
func (e *Engine) Initialize(start, end Coordinate) error {
	for _, c := range []Coordinate{start, end} {
		if err := e.grid.check(c); err != nil {
			return err
		}
		if e.IsObstacle(c) {
			return fmt.Errorf("%w: %s", ErrEndpointBlocked, c)
		}
	}

	e.grid.Clear()
	e.applyObstacles()
	e.grid.set(start, TileStart)
	e.grid.set(end, TileEnd)

	e.start = start
	e.end = end
	e.current = nil
	e.state = newSearchState(e.grid.Width() * e.grid.Height())
	e.stats = Stats{}

	e.state.gScore[start] = 0
	e.state.fScore[start] = Heuristic(start, end)
	e.push(start, 0, e.state.fScore[start])
	e.state.openMembership[start] = struct{}{}
	e.stats.PeakFrontier = 1

	e.status = StatusInProgress
	return nil
}

// Advance performs exactly one expansion step and returns the resulting
// status. Once the search is terminal it keeps returning that status.
func (e *Engine) Advance() (Status, error) {
	if e.status == StatusUninitialized {
		return e.status, ErrNotInitialized
	}
	if e.status.Terminal() {
		return e.status, nil
	}

	e.stats.Steps++
	s := e.state

	for {
		if s.open.Len() == 0 {
			e.status = StatusFailed
			return e.status, nil
		}

		entry := heap.Pop(&s.open).(*frontierEntry)
		if _, closed := s.closed[entry.coord]; closed || entry.g > e.GScore(entry.coord) {
			e.stats.StalePops++
			continue
		}

		current := entry.coord
		delete(s.openMembership, current)
		e.current = &current

		if current == e.end {
			e.status = StatusSucceeded
			return e.status, nil
		}

		s.closed[current] = struct{}{}
		e.stats.Expansions++
		e.paint(current, TileVisited)

		tentative := s.gScore[current] + 1
		for _, n := range e.Neighbors(current) {
			if _, closed := s.closed[n]; closed {
				continue
			}
			if tentative >= e.GScore(n) {
				continue
			}

			f := tentative + Heuristic(n, e.end)
			s.gScore[n] = tentative
			s.fScore[n] = f
			s.cameFrom[n] = current
			e.push(n, tentative, f)

			if _, resident := s.openMembership[n]; !resident {
				s.openMembership[n] = struct{}{}
				e.paint(n, TileFrontier)
			}
		}

		if len(s.openMembership) > e.stats.PeakFrontier {
			e.stats.PeakFrontier = len(s.openMembership)
		}
		return StatusInProgress, nil
	}
}

// GScore returns the best known cost from start to c, +Inf when unknown
func (e *Engine) GScore(c Coordinate) float64 {
	if e.state != nil {
		if g, ok := e.state.gScore[c]; ok {
			return g
		}
	}
	return math.Inf(1)
}

// FScore returns g plus the heuristic for c, +Inf when unknown
func (e *Engine) FScore(c Coordinate) float64 {
	if e.state != nil {
		if f, ok := e.state.fScore[c]; ok {
			return f
		}
	}
	return math.Inf(1)
}

// Parent returns the cell c was reached from on its best known path. The
// second result is false for the start cell and for undiscovered cells.
func (e *Engine) Parent(c Coordinate) (Coordinate, bool) {
	if e.state == nil {
		return Coordinate{}, false
	}
	p, ok := e.state.cameFrom[c]
	return p, ok
}

// IsClosed reports whether c has been expanded
func (e *Engine) IsClosed(c Coordinate) bool {
	if e.state == nil {
		return false
	}
	_, ok := e.state.closed[c]
	return ok
}

// InOpenSet reports whether c has a live pending frontier entry
func (e *Engine) InOpenSet(c Coordinate) bool {
	if e.state == nil {
		return false
	}
	_, ok := e.state.openMembership[c]
	return ok
}

// OpenCount returns the number of cells waiting in the frontier
func (e *Engine) OpenCount() int {
	if e.state == nil {
		return 0
	}
	return len(e.state.openMembership)
}

// ClosedCount returns the number of expanded cells
func (e *Engine) ClosedCount() int {
	if e.state == nil {
		return 0
	}
	return len(e.state.closed)
}

func (e *Engine) push(c Coordinate, g, f float64) {
	e.state.seq++
	heap.Push(&e.state.open, &frontierEntry{coord: c, f: f, g: g, seq: e.state.seq})
}

// paint updates a tile without overwriting the start and end markers
func (e *Engine) paint(c Coordinate, tile Tile) {
	if c == e.start || c == e.end {
		return
	}
	e.grid.set(c, tile)
}

func (e *Engine) applyObstacles() {
	for _, o := range e.layout {
		e.grid.set(o, TileObstacle)
	}
}
