// Package engine provides the resumable A* grid search at the heart of gridpath.
//
// The engine package implements:
//   - A bounds-checked tile grid used as the display model
//   - An incremental A* search that performs one expansion per Advance call
//   - Path reconstruction from parent links
//   - Immutable frames for renderers
//   - Scenario loading and validation (JSON or YAML)
//
// Core Types:
//
// Grid holds the per-cell Tile classification that renderers draw. Engine owns
// a Grid, the obstacle layout and the search state; it is rebuilt on every
// Initialize call. Frame is a read-only snapshot taken after any step.
//
// Usage:
//
//	eng, err := engine.NewEngine(5, 5, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := eng.Initialize(engine.Coordinate{X: 0, Y: 0}, engine.Coordinate{X: 4, Y: 4}); err != nil {
//		log.Fatal(err)
//	}
//
//	status := engine.StatusInProgress
//	for status == engine.StatusInProgress {
//		status, _ = eng.Advance()
//	}
//
//	path, err := eng.Path() // start first
//
// Search Rules:
//
// Movement is 4-connected with unit cost and the heuristic is the Manhattan
// distance, so the first expansion of the goal yields a shortest path. Ties on
// f-score are broken by preferring larger g-scores, then insertion order, so
// a given grid and endpoint pair always produces the same path.
//
// Concurrency:
//
// An Engine is not safe for concurrent use. Callers sharing one must
// serialize access.
package engine
