// Package service provides the business logic layer for the garage server.
//
// The service package implements:
//   - Multi-bay garage management
//   - Engine resolution from built-in variants and the catalog
//   - Car start/stop orchestration and engine swaps
//   - Trip journal retrieval with pagination
//   - Bay lifecycle management
//
// Core Interfaces:
//
// GarageService is the main service interface providing high-level garage operations.
// BayManager handles bay creation, retrieval, and lifecycle.
// CatalogManager manages engine definition loading and validation.
// MetricsRecorder receives fleet counters; a nil recorder disables metrics.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the car model, providing bay isolation, engine resolution, and business
// logic orchestration. Each bay holds its own car with an independently
// swappable engine.
//
// Usage:
//
//	bayMgr := bay.NewManager()
//	catalogMgr := config.NewManager("engines")
//	garageService := service.NewGarageService(bayMgr, catalogMgr)
//
//	// Create a new bay with a petrol car
//	bayInfo, err := garageService.CreateBay(ctx, "", "petrol")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Drive the car
//	result, err := garageService.StartCar(ctx, bayInfo.ID)
//
// Bay Management:
//
// Bays are identified by unique 4-character IDs and maintain independent
// car state. Multiple bays can run concurrently with different engines.
// Bays track creation time, last access time, and a trip journal for
// analytics and debugging.
package service
