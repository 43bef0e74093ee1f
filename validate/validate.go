// Command validate provides a small CLI that validates engine definition
// files in a catalog directory. It checks:
//   - JSON/YAML structure and required fields (name, kind, label, messages)
//   - That the kind is a built-in kind or "custom"
//   - Labels following the built-in "<Name> Engine" convention
//   - Custom definitions whose name shadows a built-in kind
//   - Name collisions between definition files
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/enginebay/garage/garage/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validateDefinition loads and validates a single engine definition file.
// The parsed definition is returned alongside the result so the caller can
// run cross-file checks; it is nil when the file did not parse.
func validateDefinition(filePath string) (ValidationResult, *engine.EngineConfig) {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result, nil
	}

	config, err := engine.ParseEngineConfig(data, filepath.Ext(filePath))
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid definition: %v", err))
		return result, nil
	}

	// Lint checks beyond the structural validation

	if !strings.HasSuffix(config.Label, " Engine") {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Label %q does not follow the \"<Name> Engine\" convention of the built-in variants", config.Label))
	}

	// Engine resolution tries built-in kinds before the catalog, so a custom
	// definition named after one can never be selected.
	if config.Kind == engine.KindCustom && engine.Registered(strings.ToLower(config.Name)) {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Name %q shadows a built-in kind; this definition can never resolve", config.Name))
	}

	// Add informational data
	if result.Valid {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", config.Name))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Kind: %s", config.Kind))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Label: %s", config.Label))
		if config.FuelType != "" {
			result.Errors = append(result.Errors, fmt.Sprintf("✓ Fuel: %s", config.FuelType))
		}
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Start: %s", config.Messages.Start))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Stop: %s", config.Messages.Stop))
	}

	return result, config
}

// checkCollisions flags names defined by more than one file. The catalog
// resolves definitions by name, so only one of the colliding files can ever
// load; names are compared case-insensitively, matching catalog lookup.
func checkCollisions(names map[string][]string) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	keys := make([]string, 0, len(names))
	for name := range names {
		keys = append(keys, name)
	}
	sort.Strings(keys)

	for _, name := range keys {
		files := names[name]
		if len(files) > 1 {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Name collision: %q defined in %s", name, strings.Join(files, ", ")))
		}
	}

	if result.Valid {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Names: no collisions across %d definitions", len(names)))
	}

	return result
}

// main scans the catalog directory for definition files and validates each
// one, printing a concise report and exiting with non-zero status if any
// are invalid.
func main() {
	dir := flag.String("dir", "../engines", "catalog directory containing engine definitions")
	quiet := flag.Bool("quiet", false, "only print failures and the final summary")
	flag.Parse()

	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(*dir, pattern))
		if err != nil {
			fmt.Printf("Error finding definition files: %v\n", err)
			os.Exit(1)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	if len(files) == 0 {
		fmt.Printf("No engine definitions found in %s\n", *dir)
		os.Exit(1)
	}

	allValid := true
	names := make(map[string][]string)
	for _, file := range files {
		result, config := validateDefinition(file)
		if config != nil {
			key := strings.ToLower(config.Name)
			names[key] = append(names[key], result.File)
		}

		if result.Valid && *quiet {
			continue
		}

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	collisions := checkCollisions(names)
	if !collisions.Valid {
		allValid = false
		fmt.Printf("\n%s catalog\n", strings.Repeat("=", 20))
		fmt.Println("❌ INVALID")
		for _, err := range collisions.Errors {
			fmt.Println("  ❌ " + err)
		}
	} else if !*quiet {
		fmt.Printf("\n%s catalog\n", strings.Repeat("=", 20))
		fmt.Println("✅ VALID")
		for _, info := range collisions.Errors {
			fmt.Println("  " + info)
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All engine definitions are valid!")
	} else {
		fmt.Println("❌ Some engine definitions have errors")
		os.Exit(1)
	}
}
