package service

import (
	"context"
	"time"

	"github.com/enginebay/garage/garage/car"
	"github.com/enginebay/garage/garage/engine"
)

// GarageService defines all garage operations
type GarageService interface {
	// Bay Management
	CreateBay(ctx context.Context, bayID, engineKind string) (*BayInfo, error)
	GetBay(ctx context.Context, bayID string) (*BayInfo, error)
	ListBays(ctx context.Context) ([]*BayInfo, error)
	DeleteBay(ctx context.Context, bayID string) error

	// Car Operations
	StartCar(ctx context.Context, bayID string) (*DriveResult, error)
	StopCar(ctx context.Context, bayID string) (*DriveResult, error)
	SwapEngine(ctx context.Context, bayID, engineKind string) (*SwapResult, error)

	// Journal
	GetJournal(ctx context.Context, bayID string, opts JournalOptions) (*JournalResponse, error)

	// Catalog
	ListEngines(ctx context.Context) ([]*EngineInfo, error)
	LoadEngineConfig(ctx context.Context, name string) (*engine.EngineConfig, error)
	SaveEngineConfig(ctx context.Context, name string, config *engine.EngineConfig) error
}

// BayManager defines bay storage operations
type BayManager interface {
	Create(id, engineKind string, e engine.Engine) (*Bay, error)
	Get(id string) (*Bay, error)
	GetOrCreate(id, engineKind string, e engine.Engine) (*Bay, error)
	List() []*Bay
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
	Count() int
}

// CatalogManager handles engine catalog loading
type CatalogManager interface {
	LoadConfig(name string) (*engine.EngineConfig, error)
	ListConfigs() ([]*EngineInfo, error)
	GetDefault() *engine.EngineConfig
	SaveConfig(name string, config *engine.EngineConfig) error
}

// MetricsRecorder receives fleet counters. Implementations must tolerate
// concurrent calls; a nil recorder disables recording.
type MetricsRecorder interface {
	RecordBayCreated()
	RecordCarStart(engineType string)
	RecordCarStop(engineType string)
	RecordEngineSwap(oldType, newType string)
	SetActiveBays(count float64)
}

// Bay represents a garage bay holding one car
type Bay struct {
	ID             string
	EngineKind     string
	Car            *car.Car
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
