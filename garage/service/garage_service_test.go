package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/enginebay/garage/garage/car"
	"github.com/enginebay/garage/garage/engine"
	"github.com/enginebay/garage/garage/service"
)

// MockBayManager implements service.BayManager for testing
type MockBayManager struct {
	bays map[string]*service.Bay
}

func NewMockBayManager() *MockBayManager {
	return &MockBayManager{
		bays: make(map[string]*service.Bay),
	}
}

func (m *MockBayManager) Create(id, engineKind string, e engine.Engine) (*service.Bay, error) {
	// Generate ID if empty (mimics real bay manager behavior)
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.bays)+1)
	}

	if _, exists := m.bays[id]; exists {
		return nil, errors.New("bay already exists")
	}

	c, err := car.NewCar(e)
	if err != nil {
		return nil, err
	}

	bay := &service.Bay{
		ID:             id,
		EngineKind:     engineKind,
		Car:            c,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}

	m.bays[id] = bay
	return bay, nil
}

func (m *MockBayManager) Get(id string) (*service.Bay, error) {
	bay, exists := m.bays[id]
	if !exists {
		return nil, errors.New("bay not found")
	}
	return bay, nil
}

func (m *MockBayManager) GetOrCreate(id, engineKind string, e engine.Engine) (*service.Bay, error) {
	if bay, exists := m.bays[id]; exists {
		return bay, nil
	}
	return m.Create(id, engineKind, e)
}

func (m *MockBayManager) List() []*service.Bay {
	result := make([]*service.Bay, 0, len(m.bays))
	for _, bay := range m.bays {
		result = append(result, bay)
	}
	return result
}

func (m *MockBayManager) Delete(id string) error {
	if _, exists := m.bays[id]; !exists {
		return errors.New("bay not found")
	}
	delete(m.bays, id)
	return nil
}

func (m *MockBayManager) UpdateLastAccessed(id string) error {
	if bay, exists := m.bays[id]; exists {
		bay.LastAccessedAt = time.Now()
		return nil
	}
	return errors.New("bay not found")
}

func (m *MockBayManager) Save(id string) error {
	if _, exists := m.bays[id]; !exists {
		return errors.New("bay not found")
	}
	// Mock save - in real implementation this would persist to disk
	return nil
}

func (m *MockBayManager) Count() int {
	return len(m.bays)
}

// MockCatalogManager implements service.CatalogManager for testing
type MockCatalogManager struct {
	configs map[string]*engine.EngineConfig
}

func NewMockCatalogManager() *MockCatalogManager {
	configs := make(map[string]*engine.EngineConfig)
	for _, config := range engine.BuiltinConfigs() {
		configs[config.Kind] = config
	}

	turbine := &engine.EngineConfig{
		Name:        "Turbine",
		Description: "Test turbine engine",
		Kind:        engine.KindCustom,
		Label:       "Turbine Engine",
		FuelType:    "kerosene",
	}
	turbine.Messages.Start = "Turbine engine is starting..."
	turbine.Messages.Stop = "Turbine engine is stopping..."
	configs["turbine"] = turbine

	return &MockCatalogManager{configs: configs}
}

func (m *MockCatalogManager) LoadConfig(name string) (*engine.EngineConfig, error) {
	config, exists := m.configs[name]
	if !exists {
		return nil, errors.New("engine config not found")
	}
	return config, nil
}

func (m *MockCatalogManager) ListConfigs() ([]*service.EngineInfo, error) {
	result := make([]*service.EngineInfo, 0, len(m.configs))
	for name, config := range m.configs {
		result = append(result, &service.EngineInfo{
			Filename:    name + ".json",
			EngineID:    name,
			Name:        config.Name,
			Kind:        config.Kind,
			Label:       config.Label,
			Description: config.Description,
			FuelType:    config.FuelType,
		})
	}
	return result, nil
}

func (m *MockCatalogManager) GetDefault() *engine.EngineConfig {
	return m.configs[engine.KindPetrol]
}

func (m *MockCatalogManager) SaveConfig(name string, config *engine.EngineConfig) error {
	if err := engine.ValidateEngineConfig(config); err != nil {
		return err
	}
	m.configs[name] = config
	return nil
}

// MockMetricsRecorder implements service.MetricsRecorder for testing
type MockMetricsRecorder struct {
	baysCreated int
	starts      int
	stops       int
	swaps       int
	activeBays  float64
}

func (m *MockMetricsRecorder) RecordBayCreated() { m.baysCreated++ }

func (m *MockMetricsRecorder) RecordCarStart(engineType string) { m.starts++ }

func (m *MockMetricsRecorder) RecordCarStop(engineType string) { m.stops++ }

func (m *MockMetricsRecorder) RecordEngineSwap(oldType, newType string) { m.swaps++ }

func (m *MockMetricsRecorder) SetActiveBays(count float64) { m.activeBays = count }

// Test cases
func TestGarageService_CreateBay(t *testing.T) {
	ctx := context.Background()
	bays := NewMockBayManager()
	catalog := NewMockCatalogManager()
	svc := service.NewGarageService(bays, catalog)

	tests := []struct {
		name       string
		engineKind string
		wantType   string
		wantErr    bool
	}{
		{
			name:       "create with default engine",
			engineKind: "",
			wantType:   "Petrol Engine",
			wantErr:    false,
		},
		{
			name:       "create with builtin kind",
			engineKind: "electric",
			wantType:   "Electric Engine",
			wantErr:    false,
		},
		{
			name:       "create with catalog engine",
			engineKind: "turbine",
			wantType:   "Turbine Engine",
			wantErr:    false,
		},
		{
			name:       "create with unknown engine",
			engineKind: "nonexistent",
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bayInfo, err := svc.CreateBay(ctx, "", tt.engineKind)
			if (err != nil) != tt.wantErr {
				t.Errorf("CreateBay() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if bayInfo == nil {
				t.Fatal("CreateBay() returned nil bay info")
			}
			if bayInfo.EngineType != tt.wantType {
				t.Errorf("CreateBay() engine type = %q, want %q", bayInfo.EngineType, tt.wantType)
			}
		})
	}
}

func TestGarageService_StartStopCar(t *testing.T) {
	ctx := context.Background()
	bays := NewMockBayManager()
	catalog := NewMockCatalogManager()
	svc := service.NewGarageService(bays, catalog)

	bayInfo, err := svc.CreateBay(ctx, "", "petrol")
	if err != nil {
		t.Fatalf("Failed to create bay: %v", err)
	}

	tests := []struct {
		name    string
		bayID   string
		wantErr bool
	}{
		{
			name:    "start valid bay",
			bayID:   bayInfo.ID,
			wantErr: false,
		},
		{
			name:    "start invalid bay",
			bayID:   "nonexistent",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.StartCar(ctx, tt.bayID)
			if (err != nil) != tt.wantErr {
				t.Errorf("StartCar() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && result == nil {
				t.Error("StartCar() returned nil result")
			}
		})
	}

	// The car line precedes the engine line on both start and stop
	startResult, err := svc.StartCar(ctx, bayInfo.ID)
	if err != nil {
		t.Fatalf("StartCar() error = %v", err)
	}
	wantStart := []string{"Car is starting with Petrol Engine", "Petrol engine is starting..."}
	if len(startResult.Lines) != 2 || startResult.Lines[0] != wantStart[0] || startResult.Lines[1] != wantStart[1] {
		t.Errorf("StartCar() lines = %v, want %v", startResult.Lines, wantStart)
	}
	if startResult.Action != "start" {
		t.Errorf("StartCar() action = %q, want %q", startResult.Action, "start")
	}
	if len(startResult.Events) != 1 || startResult.Events[0].Type != "car_started" {
		t.Errorf("StartCar() events = %+v, want one car_started event", startResult.Events)
	}

	stopResult, err := svc.StopCar(ctx, bayInfo.ID)
	if err != nil {
		t.Fatalf("StopCar() error = %v", err)
	}
	wantStop := []string{"Car is stopping with Petrol Engine", "Petrol engine is stopping..."}
	if len(stopResult.Lines) != 2 || stopResult.Lines[0] != wantStop[0] || stopResult.Lines[1] != wantStop[1] {
		t.Errorf("StopCar() lines = %v, want %v", stopResult.Lines, wantStop)
	}

	if _, err := svc.StopCar(ctx, "nonexistent"); err == nil {
		t.Error("StopCar() on unknown bay should fail")
	}
}

func TestGarageService_SwapEngine(t *testing.T) {
	ctx := context.Background()
	bays := NewMockBayManager()
	catalog := NewMockCatalogManager()
	svc := service.NewGarageService(bays, catalog)

	bayInfo, err := svc.CreateBay(ctx, "", "petrol")
	if err != nil {
		t.Fatalf("Failed to create bay: %v", err)
	}

	tests := []struct {
		name       string
		bayID      string
		engineKind string
		wantErr    bool
	}{
		{
			name:       "swap to builtin kind",
			bayID:      bayInfo.ID,
			engineKind: "electric",
			wantErr:    false,
		},
		{
			name:       "swap to catalog engine",
			bayID:      bayInfo.ID,
			engineKind: "turbine",
			wantErr:    false,
		},
		{
			name:       "swap with empty kind",
			bayID:      bayInfo.ID,
			engineKind: "",
			wantErr:    true,
		},
		{
			name:       "swap to unknown engine",
			bayID:      bayInfo.ID,
			engineKind: "nonexistent",
			wantErr:    true,
		},
		{
			name:       "swap on unknown bay",
			bayID:      "nonexistent",
			engineKind: "electric",
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.SwapEngine(ctx, tt.bayID, tt.engineKind)
			if (err != nil) != tt.wantErr {
				t.Errorf("SwapEngine() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && result == nil {
				t.Error("SwapEngine() returned nil result")
			}
		})
	}

	// The replacement governs every later start and stop
	fresh, err := svc.CreateBay(ctx, "", "petrol")
	if err != nil {
		t.Fatalf("Failed to create bay: %v", err)
	}

	swap, err := svc.SwapEngine(ctx, fresh.ID, "electric")
	if err != nil {
		t.Fatalf("SwapEngine() error = %v", err)
	}
	if swap.OldEngine != "Petrol Engine" || swap.NewEngine != "Electric Engine" {
		t.Errorf("SwapEngine() old=%q new=%q, want Petrol Engine -> Electric Engine", swap.OldEngine, swap.NewEngine)
	}
	if swap.Line != "Engine replaced with: Electric Engine" {
		t.Errorf("SwapEngine() line = %q, want %q", swap.Line, "Engine replaced with: Electric Engine")
	}
	if swap.Swaps != 1 {
		t.Errorf("SwapEngine() swaps = %d, want 1", swap.Swaps)
	}

	started, err := svc.StartCar(ctx, fresh.ID)
	if err != nil {
		t.Fatalf("StartCar() after swap error = %v", err)
	}
	if started.Lines[0] != "Car is starting with Electric Engine" {
		t.Errorf("StartCar() after swap line = %q, want electric car line", started.Lines[0])
	}
}

func TestGarageService_GetJournal(t *testing.T) {
	ctx := context.Background()
	bays := NewMockBayManager()
	catalog := NewMockCatalogManager()
	svc := service.NewGarageService(bays, catalog)

	bayInfo, err := svc.CreateBay(ctx, "", "petrol")
	if err != nil {
		t.Fatalf("Failed to create bay: %v", err)
	}

	// Build some journal entries: start (2), stop (2), swap (1), start (2)
	if _, err := svc.StartCar(ctx, bayInfo.ID); err != nil {
		t.Fatalf("StartCar() error = %v", err)
	}
	if _, err := svc.StopCar(ctx, bayInfo.ID); err != nil {
		t.Fatalf("StopCar() error = %v", err)
	}
	if _, err := svc.SwapEngine(ctx, bayInfo.ID, "electric"); err != nil {
		t.Fatalf("SwapEngine() error = %v", err)
	}
	if _, err := svc.StartCar(ctx, bayInfo.ID); err != nil {
		t.Fatalf("StartCar() error = %v", err)
	}

	tests := []struct {
		name    string
		bayID   string
		opts    service.JournalOptions
		wantErr bool
	}{
		{
			name:    "default options",
			bayID:   bayInfo.ID,
			opts:    service.JournalOptions{},
			wantErr: false,
		},
		{
			name:  "with pagination",
			bayID: bayInfo.ID,
			opts: service.JournalOptions{
				Page:  1,
				Limit: 3,
				Order: "asc",
			},
			wantErr: false,
		},
		{
			name:  "descending order",
			bayID: bayInfo.ID,
			opts: service.JournalOptions{
				Page:  1,
				Limit: 10,
				Order: "desc",
			},
			wantErr: false,
		},
		{
			name:    "invalid bay",
			bayID:   "nonexistent",
			opts:    service.JournalOptions{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.GetJournal(ctx, tt.bayID, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("GetJournal() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && result == nil {
				t.Error("GetJournal() returned nil result")
			}
			if !tt.wantErr && result != nil {
				if result.Entries == nil {
					t.Error("GetJournal() returned nil entries slice")
				}
				if result.TotalEntries != 7 {
					t.Errorf("GetJournal() total = %d, want 7", result.TotalEntries)
				}
			}
		})
	}

	// Ascending order is emission order
	asc, err := svc.GetJournal(ctx, bayInfo.ID, service.JournalOptions{Limit: 100, Order: "asc"})
	if err != nil {
		t.Fatalf("GetJournal() error = %v", err)
	}
	if asc.Entries[0].Line != "Car is starting with Petrol Engine" {
		t.Errorf("first entry = %q, want the initial car start line", asc.Entries[0].Line)
	}

	// Descending order puts the most recent entry first
	desc, err := svc.GetJournal(ctx, bayInfo.ID, service.JournalOptions{Limit: 100, Order: "desc"})
	if err != nil {
		t.Fatalf("GetJournal() error = %v", err)
	}
	if desc.Entries[0].Line != "Electric engine is starting..." {
		t.Errorf("first desc entry = %q, want the latest engine line", desc.Entries[0].Line)
	}
}

func TestGarageService_ListBays(t *testing.T) {
	ctx := context.Background()
	bays := NewMockBayManager()
	catalog := NewMockCatalogManager()
	svc := service.NewGarageService(bays, catalog)

	for i := 0; i < 3; i++ {
		_, err := svc.CreateBay(ctx, "", "petrol")
		if err != nil {
			t.Fatalf("Failed to create bay %d: %v", i, err)
		}
	}

	bayList, err := svc.ListBays(ctx)
	if err != nil {
		t.Fatalf("ListBays() error = %v", err)
	}

	if len(bayList) != 3 {
		t.Errorf("ListBays() returned %d bays, want 3", len(bayList))
	}
}

func TestGarageService_DeleteBay(t *testing.T) {
	ctx := context.Background()
	bays := NewMockBayManager()
	catalog := NewMockCatalogManager()
	svc := service.NewGarageService(bays, catalog)

	bayInfo, err := svc.CreateBay(ctx, "", "petrol")
	if err != nil {
		t.Fatalf("Failed to create bay: %v", err)
	}

	if err := svc.DeleteBay(ctx, bayInfo.ID); err != nil {
		t.Fatalf("DeleteBay() error = %v", err)
	}

	if _, err := svc.GetBay(ctx, bayInfo.ID); err == nil {
		t.Error("GetBay() after delete should fail")
	}
}

func TestGarageService_ListEngines(t *testing.T) {
	ctx := context.Background()
	bays := NewMockBayManager()
	catalog := NewMockCatalogManager()
	svc := service.NewGarageService(bays, catalog)

	engines, err := svc.ListEngines(ctx)
	if err != nil {
		t.Fatalf("ListEngines() error = %v", err)
	}

	byID := make(map[string]*service.EngineInfo)
	for _, info := range engines {
		byID[info.EngineID] = info
	}

	for _, kind := range []string{"petrol", "electric", "hybrid"} {
		info, ok := byID[kind]
		if !ok {
			t.Errorf("ListEngines() missing builtin %q", kind)
			continue
		}
		if !info.Builtin {
			t.Errorf("ListEngines() %q not marked builtin", kind)
		}
	}

	turbine, ok := byID["turbine"]
	if !ok {
		t.Fatal("ListEngines() missing catalog engine turbine")
	}
	if turbine.Builtin {
		t.Error("ListEngines() turbine should not be marked builtin")
	}
}

func TestGarageService_Metrics(t *testing.T) {
	ctx := context.Background()
	bays := NewMockBayManager()
	catalog := NewMockCatalogManager()
	metrics := &MockMetricsRecorder{}
	svc := service.NewGarageServiceWithMetrics(bays, catalog, metrics)

	bayInfo, err := svc.CreateBay(ctx, "", "petrol")
	if err != nil {
		t.Fatalf("Failed to create bay: %v", err)
	}

	if _, err := svc.StartCar(ctx, bayInfo.ID); err != nil {
		t.Fatalf("StartCar() error = %v", err)
	}
	if _, err := svc.StopCar(ctx, bayInfo.ID); err != nil {
		t.Fatalf("StopCar() error = %v", err)
	}
	if _, err := svc.SwapEngine(ctx, bayInfo.ID, "hybrid"); err != nil {
		t.Fatalf("SwapEngine() error = %v", err)
	}

	if metrics.baysCreated != 1 {
		t.Errorf("baysCreated = %d, want 1", metrics.baysCreated)
	}
	if metrics.starts != 1 || metrics.stops != 1 || metrics.swaps != 1 {
		t.Errorf("starts/stops/swaps = %d/%d/%d, want 1/1/1", metrics.starts, metrics.stops, metrics.swaps)
	}
	if metrics.activeBays != 1 {
		t.Errorf("activeBays = %v, want 1", metrics.activeBays)
	}
}
