package service

import (
	"time"

	"github.com/enginebay/garage/garage/car"
)

// BayInfo provides information about a garage bay
type BayInfo struct {
	ID             string    `json:"id"`
	EngineKind     string    `json:"engine_kind"`
	EngineType     string    `json:"engine_type"`
	Swaps          int       `json:"swaps"`
	JournalEntries int       `json:"journal_entries"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
}

// DriveResult contains the result of a start or stop operation. Lines are
// the emitted text in emission order: the car line first, then the engine
// line.
type DriveResult struct {
	BayID      string        `json:"bay_id"`
	Action     string        `json:"action"` // "start" or "stop"
	EngineType string        `json:"engine_type"`
	Lines      []string      `json:"lines"`
	Events     []GarageEvent `json:"events,omitempty"`
}

// SwapResult contains the result of an engine replacement
type SwapResult struct {
	BayID      string        `json:"bay_id"`
	OldEngine  string        `json:"old_engine"`
	NewEngine  string        `json:"new_engine"`
	EngineKind string        `json:"engine_kind"`
	Line       string        `json:"line"`
	Swaps      int           `json:"swaps"`
	Events     []GarageEvent `json:"events,omitempty"`
}

// GarageEvent represents an event that occurred in a bay
type GarageEvent struct {
	Type       string    `json:"type"` // "bay_created", "car_started", "car_stopped", "engine_swapped"
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	EngineType string    `json:"engine_type,omitempty"`
}

// JournalOptions configures trip journal retrieval
type JournalOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// JournalResponse contains a paginated trip journal
type JournalResponse struct {
	Entries      []car.JournalEntry `json:"entries"`
	TotalEntries int                `json:"total_entries"`
	Page         int                `json:"page"`
	PageSize     int                `json:"page_size"`
	TotalPages   int                `json:"total_pages"`
	HasNext      bool               `json:"has_next"`
	HasPrevious  bool               `json:"has_previous"`
}

// EngineInfo provides information about an available engine
type EngineInfo struct {
	Filename    string `json:"filename,omitempty"`
	EngineID    string `json:"engine_id"` // The identifier to use for bay creation and swaps
	Name        string `json:"name"`      // Display name
	Kind        string `json:"kind"`
	Label       string `json:"label"`
	Description string `json:"description"`
	FuelType    string `json:"fuel_type,omitempty"`
	Builtin     bool   `json:"builtin"`
}
