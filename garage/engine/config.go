package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidateEngineConfig validates a catalog engine definition
func ValidateEngineConfig(config *EngineConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is required")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Kind == "" {
		return fmt.Errorf("config validation: kind is required")
	}
	if config.Kind != KindCustom && !Registered(config.Kind) {
		return fmt.Errorf("config validation: kind must be a registered kind or %q, got %q", KindCustom, config.Kind)
	}
	if config.Label == "" {
		return fmt.Errorf("config validation: label is required")
	}
	if config.Messages.Start == "" {
		return fmt.Errorf("config validation: messages.start is required")
	}
	if config.Messages.Stop == "" {
		return fmt.Errorf("config validation: messages.stop is required")
	}
	return nil
}

// ParseEngineConfig decodes an engine definition; the extension selects the
// codec (.yaml/.yml for YAML, anything else JSON). The result is validated.
func ParseEngineConfig(data []byte, ext string) (*EngineConfig, error) {
	var config EngineConfig
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse engine config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse engine config: %w", err)
		}
	}

	if err := ValidateEngineConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadEngineConfig loads an engine definition from a JSON or YAML file
func LoadEngineConfig(filename string) (*EngineConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseEngineConfig(data, filepath.Ext(filename))
}

// FromConfig resolves a catalog definition to an engine instance. Known
// kinds resolve to their built-in variant so their lines stay stable; only
// custom kinds take label and messages from the definition.
func FromConfig(config *EngineConfig) (Engine, error) {
	if err := ValidateEngineConfig(config); err != nil {
		return nil, err
	}
	if config.Kind != KindCustom {
		return Build(config.Kind)
	}
	return &customEngine{
		label: config.Label,
		start: config.Messages.Start,
		stop:  config.Messages.Stop,
	}, nil
}

// customEngine is a catalog-defined variant
type customEngine struct {
	label string
	start string
	stop  string
}

// Start returns the configured start line
func (e *customEngine) Start() string {
	return e.start
}

// Stop returns the configured stop line
func (e *customEngine) Stop() string {
	return e.stop
}

// Type returns the configured label
func (e *customEngine) Type() string {
	return e.label
}

// BuiltinConfigs returns catalog definitions describing the built-in
// variants, with labels and messages taken from the variants themselves.
func BuiltinConfigs() []*EngineConfig {
	entries := []struct {
		kind        string
		name        string
		description string
		fuelType    string
	}{
		{KindPetrol, "Petrol", "Combustion engine fed from the fuel tank", "gasoline"},
		{KindElectric, "Electric", "Battery-powered drive unit", "battery"},
		{KindHybrid, "Hybrid", "Combined combustion and battery drive", "gasoline+battery"},
	}

	configs := make([]*EngineConfig, 0, len(entries))
	for _, entry := range entries {
		variant, err := Build(entry.kind)
		if err != nil {
			continue
		}
		config := &EngineConfig{
			Name:        entry.name,
			Description: entry.description,
			Kind:        entry.kind,
			Label:       variant.Type(),
			FuelType:    entry.fuelType,
		}
		config.Messages.Start = variant.Start()
		config.Messages.Stop = variant.Stop()
		configs = append(configs, config)
	}
	return configs
}
