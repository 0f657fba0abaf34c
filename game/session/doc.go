// Package session provides in-memory session management for gridpath.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Short unique session ID generation
//   - Session expiration for idle sessions
//
// Core Types:
//
// Manager is the session store. Each service.Session owns its own search
// engine built from the scenario it was created with, plus creation and
// last access times.
//
// Session Identifiers:
//
// Generated IDs are the first eight hex digits of a random UUID. Lookups are
// case-insensitive.
//
// Usage:
//
//	manager := session.NewManager()
//
//	sess, err := manager.Create("", "classic", engine.DefaultScenario())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sess.ID)
//
// Sessions are not persisted; they disappear with the process or when
// CleanupExpiredSessions removes them.
package session
