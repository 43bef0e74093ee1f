// Package api provides HTTP REST API handlers for the garage service.
//
// The api package implements:
//   - RESTful endpoints for bay and car operations
//   - Engine catalog listing and creation
//   - Trip journal retrieval with pagination
//   - WebSocket upgrade handling
//   - Prometheus metrics exposition
//   - Static file serving
//
// Endpoints:
//
// Bay Management:
//   - POST /api/bays - Create a new bay (optional bay_id, engine_kind)
//   - GET /api/bays - List bays (sort, order, limit query parameters)
//   - GET /api/bays/{id} - Get a specific bay
//   - DELETE /api/bays/{id} - Delete a bay
//
// Car Operations:
//   - POST /api/bays/{id}/start - Start the car in a bay
//   - POST /api/bays/{id}/stop - Stop the car in a bay
//   - POST /api/bays/{id}/engine - Replace the engine (engine_kind in body)
//   - GET /api/bays/{id}/journal - Get the trip journal with pagination
//
// Engine Catalog:
//   - GET /api/engines - List available engine configurations
//   - POST /api/engines - Save a new engine configuration
//   - GET /api/engines/{name} - Get a specific engine configuration
//
// Operational:
//   - GET /api/health - Health check
//   - GET /ws/{id} - WebSocket subscription to a bay's events
//   - GET /metrics - Prometheus metrics (when telemetry is enabled)
//
// Request/Response Format:
//
// All endpoints accept and return JSON. Car operations are sent as POST
// with an optional JSON body:
//
//	{
//	  "engine_kind": "electric"  // for engine replacement
//	}
//
// Usage:
//
//	server := api.NewServer(garageService, hub, metrics)
//	http.ListenAndServe(":8080", server)
//
// Error Handling:
//
// Errors are returned as JSON with appropriate HTTP status codes. Unknown
// bays map to 404, duplicate bay IDs to 409, invalid input (bad bay IDs,
// unknown engine kinds, nil engines) to 400, everything else to 500:
//
//	{
//	  "error": "error message"
//	}
package api

//
// Enriched Responses (Start, Stop and Engine Swap)
//
// Start / Stop (POST /api/bays/{id}/start, POST /api/bays/{id}/stop)
//   Response:
//     - bay_id, action ("start"|"stop"), engine_type
//     - lines: emitted text in emission order, car line first then engine line
//     - events: [{ type, message, timestamp, engine_type }]
//
// Engine Swap (POST /api/bays/{id}/engine)
//   Response:
//     - bay_id, old_engine, new_engine, engine_kind
//     - line: "Engine replaced with: <Type>"
//     - swaps: total replacements performed in this bay
//     - events: [{ type, message, timestamp, engine_type }]
