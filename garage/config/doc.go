// Package config provides engine catalog management for the garage.
//
// The config package handles:
//   - Loading engine definitions from JSON and YAML files
//   - Definition validation and verification
//   - Default engine definition management
//   - Definition discovery and listing
//   - Seeding built-in definitions into an empty catalog
//   - Hot reload of the catalog when files change on disk
//
// Catalog Format:
//
// Engine definitions are stored as JSON or YAML files in the catalog
// directory. Each definition describes:
//   - The engine kind (petrol, electric, hybrid, or custom)
//   - The label reported while the engine is installed in a car
//   - The lines emitted when the engine starts and stops
//   - Descriptive metadata (name, description, fuel type)
//
// Built-in Definitions:
//
// A fresh catalog directory is seeded with the three built-in engines:
//   - petrol: combustion engine, label "Petrol Engine"
//   - electric: battery engine, label "Electric Engine"
//   - hybrid: combined engine, label "Hybrid Engine"
//
// Custom definitions dropped into the directory sit alongside the built-ins
// and are picked up without a restart when a Watcher is running.
//
// Usage:
//
//	manager, err := config.NewManager("engines")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Load specific definition
//	engineConfig, err := manager.LoadConfig("turbine")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Get default definition
//	defaultConfig := manager.GetDefault()
//
//	// List available definitions
//	configs, err := manager.ListConfigs()
//
//	// Refresh the cache when files change
//	watcher, err := config.NewWatcher("engines", 0)
//	go watcher.Watch(ctx, manager.RefreshCache)
//
// Validation:
//
// All definitions are validated for:
//   - A non-empty name and label
//   - A kind that is either a registered built-in or "custom"
//   - Start and stop message templates
package config
