package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/enginebay/garage/garage/engine"
	"github.com/enginebay/garage/garage/service"
)

var (
	ErrConfigNotFound = errors.New("engine definition not found")
	ErrInvalidConfig  = errors.New("invalid engine definition")
)

// configExtensions are the recognized catalog file extensions, in lookup
// order
var configExtensions = []string{".json", ".yaml", ".yml"}

// Manager handles engine definition loading and caching
type Manager struct {
	configDir     string
	defaultConfig *engine.EngineConfig
	configs       map[string]*engine.EngineConfig
	mu            sync.RWMutex
}

// NewManager creates a new catalog manager. The directory is created when
// missing and seeded with the built-in engine definitions on first run.
func NewManager(configDir string) (*Manager, error) {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.EngineConfig),
	}

	if err := m.seedBuiltinConfigs(); err != nil {
		return nil, fmt.Errorf("failed to seed built-in engine definitions: %w", err)
	}

	// Load default config
	if err := m.loadDefaultConfig(); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	return m, nil
}

// LoadConfig loads an engine definition by name. The name may carry a
// recognized extension; without one, .json, .yaml and .yml are probed in
// that order.
func (m *Manager) LoadConfig(name string) (*engine.EngineConfig, error) {
	key := configKey(name)

	m.mu.RLock()
	// Check cache first
	if config, exists := m.configs[key]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	// Load from file
	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if config, exists := m.configs[key]; exists {
		return config, nil
	}

	configPath, err := m.findConfigFile(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read engine definition: %w", err)
	}

	config, err := engine.ParseEngineConfig(data, filepath.Ext(configPath))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	// Cache the config
	m.configs[key] = config
	return config, nil
}

// ListConfigs returns information about all available engine definitions
func (m *Manager) ListConfigs() ([]*service.EngineInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var configs []*service.EngineInfo

	for _, entry := range entries {
		if entry.IsDir() || !hasConfigExtension(entry.Name()) {
			continue
		}

		// Remove the extension for the engine ID
		name := configKey(entry.Name())

		// Try to load the config to get details
		config, err := m.LoadConfig(name)
		if err != nil {
			// Skip invalid configs
			continue
		}

		configs = append(configs, &service.EngineInfo{
			Filename:    entry.Name(),
			EngineID:    name, // This is the identifier to use for bay creation and swaps
			Name:        config.Name,
			Kind:        config.Kind,
			Label:       config.Label,
			Description: config.Description,
			FuelType:    config.FuelType,
		})
	}

	return configs, nil
}

// GetDefault returns the default engine definition
func (m *Manager) GetDefault() *engine.EngineConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// SetDefault sets the default engine definition by name
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = config
	return nil
}

// RefreshCache drops all cached definitions and reloads the default
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.configs = make(map[string]*engine.EngineConfig)
	m.mu.Unlock()

	// Reload through the public path; holding the write lock across
	// loadDefaultConfig would deadlock against LoadConfig
	return m.loadDefaultConfig()
}

// loadDefaultConfig picks the default definition: petrol when available,
// otherwise the first definition on disk, otherwise a built-in fallback.
// Must be called without holding mu.
func (m *Manager) loadDefaultConfig() error {
	config, err := m.LoadConfig(engine.KindPetrol)
	if err != nil {
		configs, listErr := m.ListConfigs()
		if listErr != nil || len(configs) == 0 {
			m.storeDefault(m.builtinFallback())
			return nil
		}

		// Use the first available definition
		config, err = m.LoadConfig(configs[0].EngineID)
		if err != nil {
			m.storeDefault(m.builtinFallback())
			return nil
		}
	}

	m.storeDefault(config)
	return nil
}

func (m *Manager) storeDefault(config *engine.EngineConfig) {
	m.mu.Lock()
	m.defaultConfig = config
	m.mu.Unlock()
}

// SaveConfig saves an engine definition to disk. The extension picks the
// codec; names without one get .json.
func (m *Manager) SaveConfig(name string, config *engine.EngineConfig) error {
	// Validate config before saving
	if err := engine.ValidateEngineConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	filename := name
	if !hasConfigExtension(filename) {
		filename = name + ".json"
	}

	configPath := filepath.Join(m.configDir, filename)

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(config)
	default:
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal engine definition: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write engine definition: %w", err)
	}

	// Update cache
	m.mu.Lock()
	m.configs[configKey(name)] = config
	m.mu.Unlock()

	return nil
}

// seedBuiltinConfigs writes the built-in definitions into an empty catalog
// directory so a fresh install has petrol, electric and hybrid on disk
func (m *Manager) seedBuiltinConfigs() error {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return fmt.Errorf("failed to read config directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() && hasConfigExtension(entry.Name()) {
			// Catalog already populated
			return nil
		}
	}

	for _, config := range engine.BuiltinConfigs() {
		data, err := json.MarshalIndent(config, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal %s definition: %w", config.Kind, err)
		}

		configPath := filepath.Join(m.configDir, config.Kind+".json")
		if err := os.WriteFile(configPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s definition: %w", config.Kind, err)
		}
	}

	return nil
}

// builtinFallback returns the petrol definition without touching disk
func (m *Manager) builtinFallback() *engine.EngineConfig {
	for _, config := range engine.BuiltinConfigs() {
		if config.Kind == engine.KindPetrol {
			return config
		}
	}
	// BuiltinConfigs always includes petrol; this is unreachable
	return engine.BuiltinConfigs()[0]
}

// configKey normalizes a definition name to its cache key by dropping a
// recognized extension
func configKey(name string) string {
	if hasConfigExtension(name) {
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}

// hasConfigExtension reports whether the name ends in a recognized catalog
// extension
func hasConfigExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, known := range configExtensions {
		if ext == known {
			return true
		}
	}
	return false
}

// findConfigFile resolves a definition name to a file path
func (m *Manager) findConfigFile(name string) (string, error) {
	if hasConfigExtension(name) {
		path := filepath.Join(m.configDir, name)
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return "", ErrConfigNotFound
			}
			return "", fmt.Errorf("failed to stat engine definition: %w", err)
		}
		return path, nil
	}

	for _, ext := range configExtensions {
		path := filepath.Join(m.configDir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", ErrConfigNotFound
}
