// Package mcp provides a Model Context Protocol interface for the garage service.
//
// The mcp package implements:
//   - MCP server for AI agent integration
//   - Tool definitions for bay and car operations
//   - A thin HTTP client that proxies every tool call to the REST API
//
// MCP Tools:
//
// The package exposes the following tools for AI agents:
//   - garage_create_bay: Create a new bay with optional engine selection
//   - garage_list_bays: List all bays
//   - garage_bay_status: Get details of a specific bay
//   - garage_start_car: Start the car in a bay
//   - garage_stop_car: Stop the car in a bay
//   - garage_swap_engine: Replace the engine in a bay
//   - garage_journal: Retrieve the trip journal with pagination
//   - garage_list_engines: List available engine kinds and catalog definitions
//   - garage_delete_bay: Delete a bay
//
// Architecture:
//
// The client holds no garage state of its own. Every tool call becomes an
// HTTP request against the REST API, so MCP agents and REST or WebSocket
// clients always observe the same bays. Engine swaps made through any
// surface are visible to the next MCP tool call.
//
// Usage:
//
//	// Stdio mode
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
//
// AI Integration:
//
// The MCP interface enables AI agents to:
//   - Create and manage garage bays
//   - Start and stop cars and observe the emitted lines
//   - Swap engines at runtime and verify the delegation change
//   - Read trip journals to audit past operations
package mcp
