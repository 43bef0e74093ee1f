// Package bay provides bay management for the garage server.
//
// The bay package implements:
//   - Thread-safe bay storage and retrieval
//   - Unique bay ID generation
//   - Bay lifecycle management
//   - Concurrent access control
//   - Bay cleanup and expiration
//   - Pluggable persistence (JSON files or SQLite)
//
// Core Types:
//
// Manager is the main bay manager that handles all bay operations.
// A Bay holds an individual car with its own engine and metadata like
// creation time and last access time.
// BayPersistence abstracts storage; FilePersistence keeps one JSON file per
// bay, SQLiteStore keeps bays and journals in a SQLite database with
// embedded migrations.
//
// Bay Identifiers:
//
// Bays use 4-character hexadecimal IDs for easy reference. The manager
// ensures IDs are unique and provides collision-resistant generation using
// cryptographic randomness. Caller-supplied IDs are restricted to letters,
// digits, '-' and '_'.
//
// Concurrency:
//
// The bay manager is thread-safe and supports concurrent operations.
// Multiple goroutines can safely create, retrieve, and modify different
// bays simultaneously. Internal locking ensures data consistency.
//
// Usage:
//
//	manager := bay.NewManager()
//
//	// Create a new bay
//	b, err := manager.Create("", engine.KindPetrol, eng)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Retrieve existing bay
//	b, err = manager.Get(bayID)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// List all active bays
//	bays := manager.List()
//
// Cleanup:
//
// Bays can be explicitly deleted or may expire based on inactivity.
// The manager provides cleanup methods for removing stale bays and
// freeing resources.
package bay
