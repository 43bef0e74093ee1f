package bay

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/enginebay/garage/garage/car"
	"github.com/enginebay/garage/garage/engine"
	"github.com/enginebay/garage/garage/service"
)

var (
	ErrBayNotFound      = errors.New("bay not found")
	ErrBayAlreadyExists = errors.New("bay already exists")
	ErrInvalidBayID     = errors.New("invalid bay ID")
)

// Manager handles garage bay lifecycle
type Manager struct {
	bays        map[string]*service.Bay
	persistence BayPersistence
	mu          sync.RWMutex
}

// NewManager creates a new bay manager
func NewManager() *Manager {
	return &Manager{
		bays: make(map[string]*service.Bay),
	}
}

// NewManagerWithPersistence creates a new bay manager with persistence
func NewManagerWithPersistence(persistence BayPersistence) *Manager {
	return &Manager{
		bays:        make(map[string]*service.Bay),
		persistence: persistence,
	}
}

// Create creates a new bay holding a car built around the given engine
func (m *Manager) Create(id, engineKind string, e engine.Engine) (*service.Bay, error) {
	if id != "" && !validBayID(id) {
		return nil, fmt.Errorf("%w: %q (use letters, digits, '-' or '_', max 32 chars)", ErrInvalidBayID, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = m.generateBayID()
	}

	// Check if bay already exists (case-insensitive)
	if m.bayExists(id) {
		return nil, ErrBayAlreadyExists
	}

	// Build the car around the injected engine
	c, err := car.NewCar(e)
	if err != nil {
		return nil, fmt.Errorf("failed to create car: %w", err)
	}

	// Create bay
	bay := &service.Bay{
		ID:             id,
		EngineKind:     engineKind,
		Car:            c,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}

	m.bays[strings.ToLower(id)] = bay

	// Auto-save if persistence is enabled
	if m.persistence != nil {
		if err := m.persistence.Save(bay); err != nil {
			// Log error but don't fail the creation
			fmt.Printf("Warning: Failed to persist bay %s: %v\n", id, err)
		}
	}

	return bay, nil
}

// Get retrieves a bay by ID (case-insensitive)
func (m *Manager) Get(id string) (*service.Bay, error) {
	m.mu.RLock()
	bay, exists := m.bays[strings.ToLower(id)]
	if !exists {
		// Try exact match for backward compatibility
		bay, exists = m.bays[id]
	}
	m.mu.RUnlock()

	if exists {
		return bay, nil
	}

	// Try loading from persistence if not in memory
	if m.persistence != nil && m.persistence.Exists(id) {
		bay, err := m.persistence.Load(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load persisted bay: %w", err)
		}

		// Add to memory cache
		m.mu.Lock()
		m.bays[strings.ToLower(id)] = bay
		m.mu.Unlock()

		return bay, nil
	}

	return nil, ErrBayNotFound
}

// GetOrCreate gets an existing bay or creates a new one
func (m *Manager) GetOrCreate(id, engineKind string, e engine.Engine) (*service.Bay, error) {
	// Try to get existing bay first
	bay, err := m.Get(id)
	if err == nil {
		return bay, nil
	}

	// Create new bay if not found
	if errors.Is(err, ErrBayNotFound) {
		return m.Create(id, engineKind, e)
	}

	return nil, err
}

// List returns all active bays
func (m *Manager) List() []*service.Bay {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Bay, 0, len(m.bays))
	for _, bay := range m.bays {
		result = append(result, bay)
	}

	return result
}

// Delete removes a bay
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lowerID := strings.ToLower(id)
	inMemory := false

	if _, exists := m.bays[lowerID]; exists {
		delete(m.bays, lowerID)
		inMemory = true
	} else if _, exists := m.bays[id]; exists {
		delete(m.bays, id)
		inMemory = true
	}

	// Delete from persistence if it exists
	if m.persistence != nil && m.persistence.Exists(id) {
		if err := m.persistence.Delete(id); err != nil {
			return fmt.Errorf("failed to delete persisted bay: %w", err)
		}
		return nil
	}

	// If not in persistence and not in memory, it doesn't exist
	if !inMemory {
		return ErrBayNotFound
	}

	return nil
}

// DeleteFromMemory removes a bay from memory only (not from persistence)
func (m *Manager) DeleteFromMemory(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lowerID := strings.ToLower(id)

	if _, exists := m.bays[lowerID]; exists {
		delete(m.bays, lowerID)
		return nil
	}

	if _, exists := m.bays[id]; exists {
		delete(m.bays, id)
		return nil
	}

	return ErrBayNotFound
}

// UpdateLastAccessed updates the last accessed time for a bay
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	bay, exists := m.bays[strings.ToLower(id)]
	if !exists {
		// Try exact match for backward compatibility
		bay, exists = m.bays[id]
		if !exists {
			return ErrBayNotFound
		}
	}

	bay.LastAccessedAt = time.Now()

	return nil
}

// Save saves a specific bay to persistence
func (m *Manager) Save(id string) error {
	if m.persistence == nil {
		return nil // No persistence configured
	}

	m.mu.RLock()
	bay, exists := m.bays[strings.ToLower(id)]
	if !exists {
		// Try exact match for backward compatibility
		bay, exists = m.bays[id]
		if !exists {
			m.mu.RUnlock()
			return ErrBayNotFound
		}
	}
	m.mu.RUnlock()

	return m.persistence.Save(bay)
}

// CleanupExpiredBays removes bays that haven't been accessed in the given duration
func (m *Manager) CleanupExpiredBays(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for id, bay := range m.bays {
		if bay.LastAccessedAt.Before(cutoff) {
			delete(m.bays, id)
			removed++
		}
	}

	return removed
}

// Count returns the number of active bays
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bays)
}

// generateBayID generates a random 4-character bay ID, retrying on the rare
// collision. Callers must hold the write lock.
func (m *Manager) generateBayID() string {
	for {
		// Generate 2 random bytes (4 hex characters)
		bytes := make([]byte, 2)
		rand.Read(bytes)
		id := hex.EncodeToString(bytes)
		if !m.bayExists(id) {
			return id
		}
	}
}

// bayExists checks if a bay exists (case-insensitive)
func (m *Manager) bayExists(id string) bool {
	lowerID := strings.ToLower(id)
	if _, exists := m.bays[lowerID]; exists {
		return true
	}
	// Also check exact match for backward compatibility
	_, exists := m.bays[id]
	return exists
}

// validBayID reports whether a caller-supplied bay ID is acceptable
func validBayID(id string) bool {
	if len(id) > 32 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}

// LoadPersistedBays loads all persisted bays into memory
func (m *Manager) LoadPersistedBays() error {
	if m.persistence == nil {
		return nil // No persistence configured
	}

	bayIDs, err := m.persistence.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list persisted bays: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	loadedCount := 0
	for _, id := range bayIDs {
		// Skip if already loaded in memory
		if _, exists := m.bays[strings.ToLower(id)]; exists {
			continue
		}

		bay, err := m.persistence.Load(id)
		if err != nil {
			fmt.Printf("Warning: Failed to load persisted bay %s: %v\n", id, err)
			continue
		}

		m.bays[strings.ToLower(id)] = bay
		loadedCount++
	}

	if loadedCount > 0 {
		fmt.Printf("Loaded %d persisted bays from storage\n", loadedCount)
	}

	return nil
}

// SaveAll saves all in-memory bays to persistence
func (m *Manager) SaveAll() error {
	if m.persistence == nil {
		return nil // No persistence configured
	}

	m.mu.RLock()
	bays := make([]*service.Bay, 0, len(m.bays))
	for _, bay := range m.bays {
		bays = append(bays, bay)
	}
	m.mu.RUnlock()

	errorCount := 0
	for _, bay := range bays {
		if err := m.persistence.Save(bay); err != nil {
			fmt.Printf("Warning: Failed to save bay %s: %v\n", bay.ID, err)
			errorCount++
		}
	}

	if errorCount > 0 {
		return fmt.Errorf("failed to save %d bays", errorCount)
	}

	return nil
}
