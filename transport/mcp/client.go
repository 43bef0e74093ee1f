package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/enginebay/garage/garage/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Garage Bay Service",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Garage Bay Service - MCP Interface

This is a thin client that proxies all requests to the REST API server.

WHAT THIS DOES:
Each garage bay holds one car built around a swappable engine. Start and
stop the car, replace its engine at runtime, and read the trip journal of
every line the car emitted.

AVAILABLE TOOLS:
- garage_create_bay: Create a new bay (optional ID and engine kind)
- garage_list_bays: List all bays
- garage_bay_status: Get details of a specific bay
- garage_start_car: Start the car in a bay
- garage_stop_car: Stop the car in a bay
- garage_swap_engine: Replace the engine in a bay
- garage_journal: View the trip journal for a bay
- garage_list_engines: List available engine kinds and catalog definitions
- garage_delete_bay: Delete a bay

NOTE: Engine swaps take effect immediately - the next start or stop delegates to the new engine.`),
	)

	// Register all tools
	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Bay management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "garage_create_bay",
		Description: "Create a new garage bay with optional engine selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"bay_id": map[string]interface{}{
					"type":        "string",
					"description": "ID for the new bay (optional, generated when omitted)",
				},
				"engine_kind": map[string]interface{}{
					"type":        "string",
					"description": "Engine kind to install: petrol, electric, hybrid or a catalog entry (optional, defaults to the catalog default)",
				},
			},
		},
	}, c.handleCreateBay)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "garage_list_bays",
		Description: "List all garage bays",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListBays)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "garage_bay_status",
		Description: "Get details of a specific bay",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"bay_id": map[string]interface{}{
					"type":        "string",
					"description": "Bay ID to retrieve",
				},
			},
			Required: []string{"bay_id"},
		},
	}, c.handleBayStatus)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "garage_delete_bay",
		Description: "Delete a garage bay",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"bay_id": map[string]interface{}{
					"type":        "string",
					"description": "Bay ID to delete",
				},
			},
			Required: []string{"bay_id"},
		},
	}, c.handleDeleteBay)

	// Car operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "garage_start_car",
		Description: "Start the car in a bay. The car delegates to its current engine and both emitted lines are returned.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"bay_id": map[string]interface{}{
					"type":        "string",
					"description": "Bay ID",
				},
			},
			Required: []string{"bay_id"},
		},
	}, c.handleStartCar)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "garage_stop_car",
		Description: "Stop the car in a bay. The car delegates to its current engine and both emitted lines are returned.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"bay_id": map[string]interface{}{
					"type":        "string",
					"description": "Bay ID",
				},
			},
			Required: []string{"bay_id"},
		},
	}, c.handleStopCar)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "garage_swap_engine",
		Description: "Replace the engine in a bay. Subsequent starts and stops delegate to the new engine.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"bay_id": map[string]interface{}{
					"type":        "string",
					"description": "Bay ID",
				},
				"engine_kind": map[string]interface{}{
					"type":        "string",
					"description": "Engine kind to install: petrol, electric, hybrid or a catalog entry",
				},
			},
			Required: []string{"bay_id", "engine_kind"},
		},
	}, c.handleSwapEngine)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "garage_journal",
		Description: "Get the trip journal for a bay",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"bay_id": map[string]interface{}{
					"type":        "string",
					"description": "Bay ID",
				},
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
			},
			Required: []string{"bay_id"},
		},
	}, c.handleJournal)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "garage_list_engines",
		Description: "List available engine kinds and catalog definitions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListEngines)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Tool handlers

func (c *Client) handleCreateBay(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	bayID, _ := args["bay_id"].(string)
	engineKind, _ := args["engine_kind"].(string)

	body := map[string]string{}
	if bayID != "" {
		body["bay_id"] = bayID
	}
	if engineKind != "" {
		body["engine_kind"] = engineKind
	}

	var bayInfo service.BayInfo
	err := c.apiCall("POST", "/api/bays", body, &bayInfo)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created bay: %s\nEngine: %s (%s)\n", bayInfo.ID, bayInfo.EngineType, bayInfo.EngineKind)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListBays(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count int               `json:"count"`
		Total int               `json:"total"`
		Bays  []service.BayInfo `json:"bays"`
	}

	err := c.apiCall("GET", "/api/bays", nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Garage Bays (%d):\n\n", response.Count)
	for _, b := range response.Bays {
		result += fmt.Sprintf("- %s (Engine: %s, Swaps: %d, Created: %s)\n",
			b.ID, b.EngineType, b.Swaps, b.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleBayStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	bayID, _ := args["bay_id"].(string)

	var bayInfo service.BayInfo
	err := c.apiCall("GET", fmt.Sprintf("/api/bays/%s", bayID), nil, &bayInfo)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := formatBayInfo(&bayInfo)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleDeleteBay(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	bayID, _ := args["bay_id"].(string)

	var response struct {
		Message string `json:"message"`
	}

	err := c.apiCall("DELETE", fmt.Sprintf("/api/bays/%s", bayID), nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(response.Message), nil
}

func (c *Client) handleStartCar(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	bayID, _ := args["bay_id"].(string)

	var result service.DriveResult
	err := c.apiCall("POST", fmt.Sprintf("/api/bays/%s/start", bayID), nil, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	response := formatDriveResult(&result)
	return mcp.NewToolResultText(response), nil
}

func (c *Client) handleStopCar(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	bayID, _ := args["bay_id"].(string)

	var result service.DriveResult
	err := c.apiCall("POST", fmt.Sprintf("/api/bays/%s/stop", bayID), nil, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	response := formatDriveResult(&result)
	return mcp.NewToolResultText(response), nil
}

func (c *Client) handleSwapEngine(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	bayID, _ := args["bay_id"].(string)
	engineKind, _ := args["engine_kind"].(string)

	body := map[string]string{
		"engine_kind": engineKind,
	}

	var result service.SwapResult
	err := c.apiCall("POST", fmt.Sprintf("/api/bays/%s/engine", bayID), body, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	response := formatSwapResult(&result)
	return mcp.NewToolResultText(response), nil
}

func (c *Client) handleJournal(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	bayID, _ := args["bay_id"].(string)

	params := "?"
	if page, ok := args["page"].(float64); ok {
		params += fmt.Sprintf("page=%d&", int(page))
	}
	if limit, ok := args["limit"].(float64); ok {
		params += fmt.Sprintf("limit=%d&", int(limit))
	}

	var journal service.JournalResponse
	err := c.apiCall("GET", fmt.Sprintf("/api/bays/%s/journal%s", bayID, params), nil, &journal)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := formatJournal(&journal)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListEngines(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var engines []service.EngineInfo
	err := c.apiCall("GET", "/api/engines", nil, &engines)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := "Available Engines:\n\n"
	for _, e := range engines {
		marker := ""
		if e.Builtin {
			marker = " (builtin)"
		}
		result += fmt.Sprintf("• %s%s - %s\n  %s\n  Fuel: %s\n\n",
			e.EngineID, marker, e.Label, e.Description, e.FuelType)
	}

	return mcp.NewToolResultText(result), nil
}

// Formatting helpers

func formatBayInfo(bay *service.BayInfo) string {
	return fmt.Sprintf("Bay: %s\nEngine: %s (%s)\nSwaps: %d\nJournal entries: %d\nCreated: %s\nLast accessed: %s",
		bay.ID, bay.EngineType, bay.EngineKind,
		bay.Swaps, bay.JournalEntries,
		bay.CreatedAt.Format("2006-01-02 15:04:05"),
		bay.LastAccessedAt.Format("2006-01-02 15:04:05"))
}

func formatDriveResult(result *service.DriveResult) string {
	var b strings.Builder

	for _, line := range result.Lines {
		b.WriteString(line)
		b.WriteString("\n")
	}

	if len(result.Events) > 0 {
		b.WriteString("\nEvents:\n")
		for _, event := range result.Events {
			b.WriteString(fmt.Sprintf("- %s: %s\n", event.Type, event.Message))
		}
	}

	return b.String()
}

func formatSwapResult(result *service.SwapResult) string {
	var b strings.Builder

	b.WriteString(result.Line)
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Bay: %s\n", result.BayID))
	b.WriteString(fmt.Sprintf("Previous engine: %s\n", result.OldEngine))
	b.WriteString(fmt.Sprintf("Swaps so far: %d\n", result.Swaps))

	if len(result.Events) > 0 {
		b.WriteString("\nEvents:\n")
		for _, event := range result.Events {
			b.WriteString(fmt.Sprintf("- %s: %s\n", event.Type, event.Message))
		}
	}

	return b.String()
}

func formatJournal(journal *service.JournalResponse) string {
	result := fmt.Sprintf("Trip Journal (Page %d/%d) - Total entries: %d\n\n",
		journal.Page, journal.TotalPages, journal.TotalEntries)

	if len(journal.Entries) == 0 {
		return result + "(no journal entries on this page)"
	}

	for i, entry := range journal.Entries {
		num := (journal.Page-1)*journal.PageSize + i + 1
		result += fmt.Sprintf("%d. [%s] %s\n", num, entry.Kind, entry.Line)
	}

	return result
}
