// Package service provides the business logic layer for gridpath.
//
// The service package implements:
//   - Multi-session search management
//   - Scenario listing, loading and saving
//   - Stepping, budgeted runs and endpoint selection
//   - Path and frame retrieval
//
// Core Interfaces:
//
// SearchService is the main service interface providing high-level search
// operations. SessionManager handles session creation, retrieval, and
// lifecycle. ScenarioManager loads and validates scenarios.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the search engine. Each session owns its own engine; engines are not safe
// for concurrent use, so every operation runs under the service lock.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	scenarioMgr, _ := config.NewManager("scenarios")
//	searchService := service.NewSearchService(sessionMgr, scenarioMgr)
//
//	info, err := searchService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Random endpoints within the scenario's rules
//	_, err = searchService.Initialize(ctx, info.ID, service.InitializeRequest{})
//
//	// Ten expansions at a time, or everything at once
//	result, err := searchService.Step(ctx, info.ID, 10)
//	result, err = searchService.Run(ctx, info.ID, 0)
//
// When a search succeeds the path is drawn onto the session grid, so
// subsequent frames show it.
package service
