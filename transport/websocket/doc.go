// Package websocket provides real-time event broadcasting for the garage.
//
// The websocket package implements:
//   - Per-bay subscription and fan-out
//   - Broadcasting of car starts, stops, and engine swaps as they happen
//   - Connection lifecycle management with ping/pong keepalive
//   - Automatic eviction of clients that cannot keep up
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub tracks all
// WebSocket connections grouped by bay ID. Each client connection is
// handled by dedicated read and write goroutines that manage delivery,
// keepalive, and cleanup.
//
// Message Protocol:
//
// Messages are JSON-encoded and flow one way, from server to client:
//
//	{
//	  "bay_id": "ab12",
//	  "event": "car_started",
//	  "lines": ["Car is starting with Petrol Engine", "Petrol engine is starting..."],
//	  "engine_type": "Petrol Engine"
//	}
//
// Events include "connected" (sent on join), "car_started", "car_stopped",
// "engine_swapped", and "bay_deleted". The lines array preserves emission
// order: the car line always precedes the engine line.
//
// Bay Subscription:
//
// Clients subscribe to a single bay by connecting to /ws/{bayID}. Events
// are broadcast only to clients watching that bay; an engine swap in one
// bay is invisible to subscribers of another.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//
//	// From an HTTP handler
//	hub.ServeWS(w, r, bayID)
//
//	// From the API layer after a car operation
//	hub.BroadcastToBay(bayID, "car_started", result.Lines, result.EngineType)
//
// Connection Lifecycle:
//
// 1. Client connects to /ws/{bayID}
// 2. The hub queues a "connected" welcome message and registers the client
// 3. Car events for that bay are pushed as they occur
// 4. Slow clients with a full send buffer are dropped
// 5. Disconnection triggers cleanup and unregistration
//
// Concurrency:
//
// The hub serializes registration through its Run loop while broadcasts
// from request handlers synchronize on an internal lock, so multiple
// clients can connect, disconnect, and receive messages simultaneously
// without blocking each other.
package websocket
