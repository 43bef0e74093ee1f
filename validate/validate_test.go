package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempDefinition(t *testing.T, pattern, content string) string {
	t.Helper()

	tmpfile, err := os.CreateTemp("", pattern)
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	t.Cleanup(func() { os.Remove(tmpfile.Name()) })

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatalf("Failed to write definition: %v", err)
	}
	tmpfile.Close()

	return tmpfile.Name()
}

func TestValidateDefinition_ValidJSON(t *testing.T) {
	validDefinition := `{
		"name": "Turbine",
		"description": "Experimental gas turbine",
		"kind": "custom",
		"label": "Turbine Engine",
		"fuel_type": "kerosene",
		"messages": {
			"start": "Turbine engine is starting...",
			"stop": "Turbine engine is stopping..."
		}
	}`

	path := writeTempDefinition(t, "engine_*.json", validDefinition)

	result, config := validateDefinition(path)
	if !result.Valid {
		t.Errorf("Expected valid definition, but got errors: %v", result.Errors)
	}

	if result.File != filepath.Base(path) {
		t.Errorf("Expected file name %s, got %s", filepath.Base(path), result.File)
	}

	if config == nil {
		t.Fatal("Expected parsed definition for valid file")
	}

	if config.Name != "Turbine" {
		t.Errorf("Expected name Turbine, got %s", config.Name)
	}
}

func TestValidateDefinition_ValidYAML(t *testing.T) {
	validDefinition := `name: Steam
description: Coal-fired boiler
kind: custom
label: Steam Engine
fuel_type: coal
messages:
  start: Steam engine is starting...
  stop: Steam engine is stopping...
`

	path := writeTempDefinition(t, "engine_*.yaml", validDefinition)

	result, config := validateDefinition(path)
	if !result.Valid {
		t.Errorf("Expected valid definition, but got errors: %v", result.Errors)
	}

	if config == nil || config.Label != "Steam Engine" {
		t.Errorf("Expected YAML definition to parse, got %+v", config)
	}
}

func TestValidateDefinition_InvalidJSON(t *testing.T) {
	invalidJSON := `{"name": "test", invalid json}`

	path := writeTempDefinition(t, "engine_*.json", invalidJSON)

	result, config := validateDefinition(path)
	if result.Valid {
		t.Error("Expected invalid definition due to bad JSON")
	}

	if config != nil {
		t.Error("Expected no parsed definition for bad JSON")
	}

	found := false
	for _, err := range result.Errors {
		if contains(err, "Invalid definition") {
			found = true
			break
		}
	}
	if !found {
		t.Error("Expected 'Invalid definition' error")
	}
}

func TestValidateDefinition_MissingFile(t *testing.T) {
	result, _ := validateDefinition("/non/existent/engine.json")
	if result.Valid {
		t.Error("Expected invalid result for missing file")
	}

	found := false
	for _, err := range result.Errors {
		if contains(err, "Failed to read file") {
			found = true
			break
		}
	}
	if !found {
		t.Error("Expected 'Failed to read file' error")
	}
}

func TestValidateDefinition_MissingLabel(t *testing.T) {
	definition := `{
		"name": "Turbine",
		"kind": "custom",
		"messages": {
			"start": "Turbine engine is starting...",
			"stop": "Turbine engine is stopping..."
		}
	}`

	path := writeTempDefinition(t, "engine_*.json", definition)

	result, _ := validateDefinition(path)
	if result.Valid {
		t.Error("Expected invalid definition due to missing label")
	}

	found := false
	for _, err := range result.Errors {
		if contains(err, "label is required") {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("Expected 'label is required' error, got: %v", result.Errors)
	}
}

func TestValidateDefinition_UnknownKind(t *testing.T) {
	definition := `{
		"name": "Steam",
		"kind": "steam",
		"label": "Steam Engine",
		"messages": {
			"start": "Steam engine is starting...",
			"stop": "Steam engine is stopping..."
		}
	}`

	path := writeTempDefinition(t, "engine_*.json", definition)

	result, _ := validateDefinition(path)
	if result.Valid {
		t.Error("Expected invalid definition due to unknown kind")
	}

	found := false
	for _, err := range result.Errors {
		if contains(err, "kind must be a registered kind") {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("Expected registered-kind error, got: %v", result.Errors)
	}
}

func TestValidateDefinition_LabelConvention(t *testing.T) {
	definition := `{
		"name": "Turbo",
		"kind": "custom",
		"label": "Turbo",
		"messages": {
			"start": "Turbo engine is starting...",
			"stop": "Turbo engine is stopping..."
		}
	}`

	path := writeTempDefinition(t, "engine_*.json", definition)

	result, _ := validateDefinition(path)
	if result.Valid {
		t.Error("Expected invalid definition due to label convention")
	}

	found := false
	for _, err := range result.Errors {
		if contains(err, "does not follow") {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("Expected label convention error, got: %v", result.Errors)
	}
}

func TestValidateDefinition_ShadowedBuiltin(t *testing.T) {
	definition := `{
		"name": "Petrol",
		"kind": "custom",
		"label": "Petrol Engine",
		"messages": {
			"start": "My petrol engine is starting...",
			"stop": "My petrol engine is stopping..."
		}
	}`

	path := writeTempDefinition(t, "engine_*.json", definition)

	result, _ := validateDefinition(path)
	if result.Valid {
		t.Error("Expected invalid definition due to shadowed built-in kind")
	}

	found := false
	for _, err := range result.Errors {
		if contains(err, "shadows a built-in kind") {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("Expected shadowing error, got: %v", result.Errors)
	}
}

func TestValidateDefinition_BuiltinKindPasses(t *testing.T) {
	// Seeded catalog files carry built-in kinds with matching names; those
	// resolve to the built-in variant and must validate clean.
	definition := `{
		"name": "Petrol",
		"description": "Combustion engine fed from the fuel tank",
		"kind": "petrol",
		"label": "Petrol Engine",
		"fuel_type": "gasoline",
		"messages": {
			"start": "Petrol engine is starting...",
			"stop": "Petrol engine is stopping..."
		}
	}`

	path := writeTempDefinition(t, "engine_*.json", definition)

	result, _ := validateDefinition(path)
	if !result.Valid {
		t.Errorf("Expected built-in kind definition to validate, got: %v", result.Errors)
	}
}

func TestCheckCollisions(t *testing.T) {
	names := map[string][]string{
		"turbine": {"turbine.json", "turbine.yaml"},
		"steam":   {"steam.yaml"},
	}

	result := checkCollisions(names)
	if result.Valid {
		t.Error("Expected collision between turbine.json and turbine.yaml")
	}

	found := false
	for _, err := range result.Errors {
		if contains(err, "Name collision") && contains(err, "turbine") {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("Expected 'Name collision' error for turbine, got: %v", result.Errors)
	}
}

func TestCheckCollisions_NoCollisions(t *testing.T) {
	names := map[string][]string{
		"turbine": {"turbine.json"},
		"steam":   {"steam.yaml"},
	}

	result := checkCollisions(names)
	if !result.Valid {
		t.Errorf("Expected no collisions, got: %v", result.Errors)
	}
}

// Helper function to check if a string contains a substring
func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}
