// Package engine provides the engine variants a car can run on.
//
// The engine package implements:
//   - The Engine capability (Start, Stop, Type) every variant satisfies
//   - Built-in variants: petrol, electric, and hybrid
//   - A builder registry so new variants join without touching the car
//   - Catalog definitions (EngineConfig) loaded from JSON or YAML, with
//     validation and resolution to engine instances
//
// Core Types:
//
// The Engine interface defines the variant contract. PetrolEngine,
// ElectricEngine, and HybridEngine are the built-in implementations.
// EngineConfig describes a catalog entry; custom kinds carry their own
// label and start/stop lines.
//
// Usage:
//
//	eng, err := engine.Build(engine.KindPetrol)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Println(eng.Type())  // "Petrol Engine"
//	fmt.Println(eng.Start()) // "Petrol engine is starting..."
//
// Extension:
//
// Register a builder to add a variant. Built-in variants own their lines;
// catalog files for known kinds are descriptive only, so the observable
// transcript cannot drift through config edits.
package engine
