package bay

import (
	"os"
	"testing"

	"github.com/enginebay/garage/garage/engine"
)

func TestManagerWithPersistence(t *testing.T) {
	// Create temporary directory for test bays
	tempDir, err := os.MkdirTemp("", "manager_persistence_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}
	defer os.RemoveAll(tempDir)

	// Create persistence layer
	persistence, err := NewFilePersistence(tempDir, engine.Build)
	if err != nil {
		t.Fatalf("Failed to create file persistence: %v", err)
	}

	// Create manager with persistence
	manager := NewManagerWithPersistence(persistence)

	t.Run("Create Bay Auto-Saves", func(t *testing.T) {
		bay, err := manager.Create("auto1", engine.KindPetrol, newTestEngine(t))
		if err != nil {
			t.Fatalf("Failed to create bay: %v", err)
		}

		// Verify bay was auto-saved
		if !persistence.Exists(bay.ID) {
			t.Error("Bay should be auto-saved on creation")
		}

		// Verify we can load it directly from persistence
		loadedBay, err := persistence.Load(bay.ID)
		if err != nil {
			t.Fatalf("Failed to load auto-saved bay: %v", err)
		}

		if loadedBay.ID != bay.ID {
			t.Errorf("Expected ID %s, got %s", bay.ID, loadedBay.ID)
		}
	})

	t.Run("Get Bay Loads from Persistence", func(t *testing.T) {
		// Create new manager (no in-memory bays)
		manager2 := NewManagerWithPersistence(persistence)

		// Try to get bay that exists only in persistence
		bay, err := manager2.Get("auto1")
		if err != nil {
			t.Fatalf("Failed to get bay from persistence: %v", err)
		}

		if bay.ID != "auto1" {
			t.Errorf("Expected ID auto1, got %s", bay.ID)
		}

		// Verify it's now in memory too
		bay2, err := manager2.Get("auto1")
		if err != nil {
			t.Fatalf("Failed to get bay from memory: %v", err)
		}

		if bay2.ID != bay.ID {
			t.Error("Bay should be cached in memory after loading from persistence")
		}
	})

	t.Run("Save Method Persists Changes", func(t *testing.T) {
		// Get bay and drive the car
		bay, err := manager.Get("auto1")
		if err != nil {
			t.Fatalf("Failed to get bay: %v", err)
		}

		bay.Car.Start()
		bay.Car.Stop()

		// Save manually
		err = manager.Save("auto1")
		if err != nil {
			t.Fatalf("Failed to save bay: %v", err)
		}

		// Create new manager and load bay
		manager3 := NewManagerWithPersistence(persistence)
		loadedBay, err := manager3.Get("auto1")
		if err != nil {
			t.Fatalf("Failed to load bay after manual save: %v", err)
		}

		// Verify the journal was persisted
		if loadedBay.Car.JournalLen() != bay.Car.JournalLen() {
			t.Errorf("Journal should be persisted: got %d entries, want %d",
				loadedBay.Car.JournalLen(), bay.Car.JournalLen())
		}
	})

	t.Run("Delete Removes from Persistence", func(t *testing.T) {
		// Create bay
		bay, err := manager.Create("delete_test", engine.KindPetrol, newTestEngine(t))
		if err != nil {
			t.Fatalf("Failed to create bay: %v", err)
		}

		// Verify it exists in persistence
		if !persistence.Exists(bay.ID) {
			t.Error("Bay should exist in persistence")
		}

		// Delete bay
		err = manager.Delete(bay.ID)
		if err != nil {
			t.Fatalf("Failed to delete bay: %v", err)
		}

		// Verify it's gone from persistence
		if persistence.Exists(bay.ID) {
			t.Error("Bay should be removed from persistence on delete")
		}

		// Verify we can't get it anymore
		_, err = manager.Get(bay.ID)
		if err == nil {
			t.Error("Should not be able to get deleted bay")
		}
	})

	t.Run("Load Persisted Bays on Startup", func(t *testing.T) {
		// Create some bays with first manager
		bays := []string{"startup1", "startup2", "startup3"}
		for _, id := range bays {
			_, err := manager.Create(id, engine.KindPetrol, newTestEngine(t))
			if err != nil {
				t.Fatalf("Failed to create bay %s: %v", id, err)
			}
		}

		// Create new manager (simulates server restart)
		manager4 := NewManagerWithPersistence(persistence)

		// Load persisted bays
		err := manager4.LoadPersistedBays()
		if err != nil {
			t.Fatalf("Failed to load persisted bays: %v", err)
		}

		// Verify all bays are accessible
		for _, id := range bays {
			bay, err := manager4.Get(id)
			if err != nil {
				t.Errorf("Failed to get bay %s after loading persisted bays: %v", id, err)
			}
			if bay.ID != id {
				t.Errorf("Expected ID %s, got %s", id, bay.ID)
			}
		}

		// Check that bay list includes loaded bays
		allBays := manager4.List()
		if len(allBays) < len(bays) {
			t.Errorf("Expected at least %d bays, got %d", len(bays), len(allBays))
		}
	})

	t.Run("SaveAll Persists Every Bay", func(t *testing.T) {
		bay, err := manager.Get("startup1")
		if err != nil {
			t.Fatalf("Failed to get bay: %v", err)
		}

		bay.Car.Start()

		err = manager.SaveAll()
		if err != nil {
			t.Fatalf("Failed to save all bays: %v", err)
		}

		// Create new manager and verify the journal survived
		manager5 := NewManagerWithPersistence(persistence)
		loadedBay, err := manager5.Get("startup1")
		if err != nil {
			t.Fatalf("Failed to load bay: %v", err)
		}

		if loadedBay.Car.JournalLen() != bay.Car.JournalLen() {
			t.Errorf("Expected %d journal entries after SaveAll, got %d",
				bay.Car.JournalLen(), loadedBay.Car.JournalLen())
		}
	})
}
