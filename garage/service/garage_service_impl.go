package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/enginebay/garage/garage/car"
	"github.com/enginebay/garage/garage/engine"
)

// garageServiceImpl implements the GarageService interface
type garageServiceImpl struct {
	bays    BayManager
	catalog CatalogManager
	metrics MetricsRecorder
	mu      sync.RWMutex
}

// NewGarageService creates a new garage service instance
func NewGarageService(bays BayManager, catalog CatalogManager) GarageService {
	return &garageServiceImpl{
		bays:    bays,
		catalog: catalog,
	}
}

// NewGarageServiceWithMetrics creates a garage service that records fleet
// counters through the provided recorder.
func NewGarageServiceWithMetrics(bays BayManager, catalog CatalogManager, metrics MetricsRecorder) GarageService {
	return &garageServiceImpl{
		bays:    bays,
		catalog: catalog,
		metrics: metrics,
	}
}

// resolveEngine turns an engine identifier into an engine instance. Empty
// identifiers use the catalog default; registered kinds build the built-in
// variant; anything else is looked up in the catalog. The returned string is
// the identifier to store on the bay so the engine can be rebuilt later.
func (s *garageServiceImpl) resolveEngine(engineKind string) (engine.Engine, string, error) {
	if engineKind == "" {
		config := s.catalog.GetDefault()
		eng, err := engine.FromConfig(config)
		if err != nil {
			return nil, "", fmt.Errorf("failed to build default engine: %w", err)
		}
		if engine.Registered(config.Kind) {
			return eng, config.Kind, nil
		}
		return eng, s.getEngineID(config.Name), nil
	}

	if engine.Registered(engineKind) {
		eng, err := engine.Build(engineKind)
		if err != nil {
			return nil, "", err
		}
		return eng, engineKind, nil
	}

	config, err := s.catalog.LoadConfig(engineKind)
	if err != nil {
		available, listErr := s.catalog.ListConfigs()
		if listErr == nil && len(available) > 0 {
			var engineIDs []string
			for _, info := range available {
				engineIDs = append(engineIDs, info.EngineID)
			}
			return nil, "", fmt.Errorf("%w '%s'. Available engines: %v (builtins: %v)", engine.ErrUnknownEngine, engineKind, engineIDs, engine.Kinds())
		}
		return nil, "", fmt.Errorf("%w '%s'. Use /api/engines to list available engines", engine.ErrUnknownEngine, engineKind)
	}

	eng, err := engine.FromConfig(config)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build engine %s: %w", engineKind, err)
	}
	return eng, engineKind, nil
}

// getEngineID returns the engine_id for a given display name, used for
// consistent API responses
func (s *garageServiceImpl) getEngineID(name string) string {
	available, err := s.catalog.ListConfigs()
	if err == nil {
		for _, info := range available {
			if info.Name == name {
				return info.EngineID
			}
		}
	}
	if name == "" {
		return "default"
	}
	return name
}

// CreateBay creates a new garage bay with a car running the requested engine
func (s *garageServiceImpl) CreateBay(ctx context.Context, bayID, engineKind string) (*BayInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	eng, kindID, err := s.resolveEngine(engineKind)
	if err != nil {
		return nil, err
	}

	bay, err := s.bays.Create(bayID, kindID, eng)
	if err != nil {
		return nil, fmt.Errorf("failed to create bay: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordBayCreated()
		s.metrics.SetActiveBays(float64(s.bays.Count()))
	}

	return bayInfo(bay), nil
}

// GetBay retrieves bay information
func (s *garageServiceImpl) GetBay(ctx context.Context, bayID string) (*BayInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bay, err := s.bays.Get(bayID)
	if err != nil {
		return nil, fmt.Errorf("bay not found: %w", err)
	}

	s.bays.UpdateLastAccessed(bayID)

	return bayInfo(bay), nil
}

// ListBays returns all active bays
func (s *garageServiceImpl) ListBays(ctx context.Context) ([]*BayInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bays := s.bays.List()
	result := make([]*BayInfo, 0, len(bays))
	for _, bay := range bays {
		result = append(result, bayInfo(bay))
	}

	return result, nil
}

// DeleteBay removes a bay
func (s *garageServiceImpl) DeleteBay(ctx context.Context, bayID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.bays.Delete(bayID); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.SetActiveBays(float64(s.bays.Count()))
	}
	return nil
}

// StartCar starts the car in a bay. The car line precedes the engine line.
func (s *garageServiceImpl) StartCar(ctx context.Context, bayID string) (*DriveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bay, err := s.bays.Get(bayID)
	if err != nil {
		return nil, fmt.Errorf("bay not found: %w", err)
	}

	s.bays.UpdateLastAccessed(bayID)

	lines := bay.Car.Start()
	engineType := bay.Car.EngineType()

	if s.metrics != nil {
		s.metrics.RecordCarStart(engineType)
	}

	if err := s.bays.Save(bayID); err != nil {
		fmt.Printf("Warning: Failed to persist bay %s after start: %v\n", bayID, err)
	}

	return &DriveResult{
		BayID:      bay.ID,
		Action:     "start",
		EngineType: engineType,
		Lines:      lines,
		Events: []GarageEvent{{
			Type:       "car_started",
			Message:    lines[0],
			Timestamp:  time.Now(),
			EngineType: engineType,
		}},
	}, nil
}

// StopCar stops the car in a bay
func (s *garageServiceImpl) StopCar(ctx context.Context, bayID string) (*DriveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bay, err := s.bays.Get(bayID)
	if err != nil {
		return nil, fmt.Errorf("bay not found: %w", err)
	}

	s.bays.UpdateLastAccessed(bayID)

	lines := bay.Car.Stop()
	engineType := bay.Car.EngineType()

	if s.metrics != nil {
		s.metrics.RecordCarStop(engineType)
	}

	if err := s.bays.Save(bayID); err != nil {
		fmt.Printf("Warning: Failed to persist bay %s after stop: %v\n", bayID, err)
	}

	return &DriveResult{
		BayID:      bay.ID,
		Action:     "stop",
		EngineType: engineType,
		Lines:      lines,
		Events: []GarageEvent{{
			Type:       "car_stopped",
			Message:    lines[0],
			Timestamp:  time.Now(),
			EngineType: engineType,
		}},
	}, nil
}

// SwapEngine replaces the engine of the car in a bay. The replacement takes
// effect immediately for all subsequent starts and stops.
func (s *garageServiceImpl) SwapEngine(ctx context.Context, bayID, engineKind string) (*SwapResult, error) {
	if engineKind == "" {
		return nil, fmt.Errorf("engine kind is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bay, err := s.bays.Get(bayID)
	if err != nil {
		return nil, fmt.Errorf("bay not found: %w", err)
	}

	s.bays.UpdateLastAccessed(bayID)

	eng, kindID, err := s.resolveEngine(engineKind)
	if err != nil {
		return nil, err
	}

	oldType := bay.Car.EngineType()
	line, err := bay.Car.SetEngine(eng)
	if err != nil {
		return nil, fmt.Errorf("failed to swap engine: %w", err)
	}
	bay.EngineKind = kindID
	newType := bay.Car.EngineType()

	if s.metrics != nil {
		s.metrics.RecordEngineSwap(oldType, newType)
	}

	if err := s.bays.Save(bayID); err != nil {
		fmt.Printf("Warning: Failed to persist bay %s after swap: %v\n", bayID, err)
	}

	return &SwapResult{
		BayID:      bay.ID,
		OldEngine:  oldType,
		NewEngine:  newType,
		EngineKind: kindID,
		Line:       line,
		Swaps:      bay.Car.Swaps(),
		Events: []GarageEvent{{
			Type:       "engine_swapped",
			Message:    line,
			Timestamp:  time.Now(),
			EngineType: newType,
		}},
	}, nil
}

// GetJournal returns the paginated trip journal of a bay
func (s *garageServiceImpl) GetJournal(ctx context.Context, bayID string, opts JournalOptions) (*JournalResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bay, err := s.bays.Get(bayID)
	if err != nil {
		return nil, fmt.Errorf("bay not found: %w", err)
	}

	journal := bay.Car.Journal()
	total := len(journal)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var entries []car.JournalEntry
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			entries = append(entries, journal[i])
		}
	} else {
		if start < total {
			entries = journal[start:end]
		}
	}

	if entries == nil {
		entries = []car.JournalEntry{}
	}

	return &JournalResponse{
		Entries:      entries,
		TotalEntries: total,
		Page:         opts.Page,
		PageSize:     opts.Limit,
		TotalPages:   totalPages,
		HasNext:      opts.Page < totalPages,
		HasPrevious:  opts.Page > 1,
	}, nil
}

// ListEngines returns the built-in variants merged with catalog entries
func (s *garageServiceImpl) ListEngines(ctx context.Context) ([]*EngineInfo, error) {
	catalog, err := s.catalog.ListConfigs()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	result := make([]*EngineInfo, 0, len(catalog)+3)
	for _, info := range catalog {
		info.Builtin = engine.Registered(info.Kind)
		seen[info.EngineID] = true
		result = append(result, info)
	}

	// Builtins not described by a catalog file are still available
	for _, kind := range engine.Kinds() {
		if seen[kind] {
			continue
		}
		variant, err := engine.Build(kind)
		if err != nil {
			continue
		}
		result = append(result, &EngineInfo{
			EngineID: kind,
			Name:     variant.Type(),
			Kind:     kind,
			Label:    variant.Type(),
			Builtin:  true,
		})
	}

	return result, nil
}

// LoadEngineConfig loads a specific catalog definition
func (s *garageServiceImpl) LoadEngineConfig(ctx context.Context, name string) (*engine.EngineConfig, error) {
	return s.catalog.LoadConfig(name)
}

// SaveEngineConfig saves a catalog definition to disk
func (s *garageServiceImpl) SaveEngineConfig(ctx context.Context, name string, config *engine.EngineConfig) error {
	return s.catalog.SaveConfig(name, config)
}

// bayInfo builds the API view of a bay
func bayInfo(bay *Bay) *BayInfo {
	return &BayInfo{
		ID:             bay.ID,
		EngineKind:     bay.EngineKind,
		EngineType:     bay.Car.EngineType(),
		Swaps:          bay.Car.Swaps(),
		JournalEntries: bay.Car.JournalLen(),
		CreatedAt:      bay.CreatedAt,
		LastAccessedAt: bay.LastAccessedAt,
	}
}
