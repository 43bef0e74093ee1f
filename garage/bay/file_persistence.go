package bay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/enginebay/garage/garage/car"
	"github.com/enginebay/garage/garage/service"
)

// FilePersistence implements BayPersistence using file system storage
type FilePersistence struct {
	baysDir  string
	resolver EngineResolver
}

// NewFilePersistence creates a new file-based bay persistence layer
func NewFilePersistence(baysDir string, resolver EngineResolver) (*FilePersistence, error) {
	// Create bays directory if it doesn't exist
	if err := os.MkdirAll(baysDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create bays directory: %w", err)
	}
	if resolver == nil {
		return nil, fmt.Errorf("engine resolver is required")
	}

	return &FilePersistence{
		baysDir:  baysDir,
		resolver: resolver,
	}, nil
}

// Save persists a bay to a JSON file
func (fp *FilePersistence) Save(bay *service.Bay) error {
	if bay == nil {
		return fmt.Errorf("bay cannot be nil")
	}

	data := PersistedBayData{
		ID:             bay.ID,
		EngineKind:     bay.EngineKind,
		EngineType:     bay.Car.EngineType(),
		CreatedAt:      bay.CreatedAt,
		LastAccessedAt: bay.LastAccessedAt,
		Journal:        bay.Car.Journal(),
	}

	// Marshal to JSON with indentation for readability
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal bay data: %w", err)
	}

	// Write to file
	filePath := fp.getFilePath(bay.ID)
	if err := os.WriteFile(filePath, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write bay file: %w", err)
	}

	return nil
}

// Load retrieves a bay from a JSON file
func (fp *FilePersistence) Load(id string) (*service.Bay, error) {
	filePath := fp.getFilePath(id)

	// Check if file exists
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, ErrBayNotFound
	}

	// Read file
	jsonData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read bay file: %w", err)
	}

	// Unmarshal JSON
	var data PersistedBayData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bay data: %w", err)
	}

	// Rebuild the engine from its stored identifier
	eng, err := fp.resolver(data.EngineKind)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild engine '%s': %w", data.EngineKind, err)
	}

	// Restore the car with its journal
	c, err := car.Restore(eng, data.Journal)
	if err != nil {
		return nil, fmt.Errorf("failed to restore car: %w", err)
	}

	bay := &service.Bay{
		ID:             data.ID,
		EngineKind:     data.EngineKind,
		Car:            c,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
	}

	return bay, nil
}

// Delete removes a bay file
func (fp *FilePersistence) Delete(id string) error {
	filePath := fp.getFilePath(id)

	// Check if file exists
	if !fp.Exists(id) {
		return ErrBayNotFound
	}

	// Remove file
	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to remove bay file: %w", err)
	}

	return nil
}

// ListAll returns all persisted bay IDs
func (fp *FilePersistence) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fp.baysDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read bays directory: %w", err)
	}

	var bayIDs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasSuffix(name, ".json") {
			// Remove .json extension to get bay ID
			bayID := strings.TrimSuffix(name, ".json")
			bayIDs = append(bayIDs, bayID)
		}
	}

	return bayIDs, nil
}

// Exists checks if a bay file exists
func (fp *FilePersistence) Exists(id string) bool {
	filePath := fp.getFilePath(id)
	_, err := os.Stat(filePath)
	return err == nil
}

// getFilePath returns the full file path for a bay ID
func (fp *FilePersistence) getFilePath(id string) string {
	return filepath.Join(fp.baysDir, fmt.Sprintf("%s.json", id))
}
