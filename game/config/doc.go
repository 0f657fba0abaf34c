// Package config manages the scenario files gridpath searches over.
//
// The config package handles:
//   - Loading scenarios from JSON or YAML files
//   - Caching loaded scenarios and invalidating them when files change
//   - Default scenario selection with a built-in fallback
//   - Scenario discovery, listing and saving
//
// Scenario Format:
//
// A scenario file is named <id>.json, <id>.yaml or <id>.yml. Obstacles come
// from an ASCII layout ('.' free, 'x' or '#' blocked, 'S' start, 'E' end), a
// coordinate list, or both:
//
//	name: Maze
//	layout:
//	  - "S.x.."
//	  - ".xx.x"
//	  - "....E"
//
// Missing endpoints are drawn at random when a search starts; end_region
// restricts where the goal may land.
//
// Usage:
//
//	manager, err := config.NewManager("scenarios")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	scenario, err := manager.LoadScenario("maze")
//	scenarios, err := manager.ListScenarios()
//
//	// Reload scenarios edited on disk
//	go manager.Watch(ctx, nil)
//
// When the directory holds no classic scenario, "classic" refers to the
// built-in 20x20 demo.
package config
