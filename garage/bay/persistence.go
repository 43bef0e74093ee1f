package bay

import (
	"time"

	"github.com/enginebay/garage/garage/car"
	"github.com/enginebay/garage/garage/engine"
	"github.com/enginebay/garage/garage/service"
)

// BayPersistence defines the interface for persisting bays
type BayPersistence interface {
	// Save persists a bay to storage
	Save(bay *service.Bay) error

	// Load retrieves a bay from storage by ID
	Load(id string) (*service.Bay, error)

	// Delete removes a bay from storage
	Delete(id string) error

	// ListAll returns all persisted bay IDs
	ListAll() ([]string, error)

	// Exists checks if a bay exists in storage
	Exists(id string) bool
}

// EngineResolver rebuilds an engine from its stored identifier when a bay is
// loaded back from storage.
type EngineResolver func(engineKind string) (engine.Engine, error)

// PersistedBayData represents the JSON structure for persisted bays
type PersistedBayData struct {
	ID             string             `json:"id"`
	EngineKind     string             `json:"engine_kind"`
	EngineType     string             `json:"engine_type"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	Journal        []car.JournalEntry `json:"journal"`
}
