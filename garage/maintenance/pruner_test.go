package maintenance

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/enginebay/garage/garage/bay"
	"github.com/enginebay/garage/garage/engine"
)

type fakeCleaner struct {
	removed   int
	count     int
	called    bool
	gotMaxAge time.Duration
}

func (f *fakeCleaner) CleanupExpiredBays(maxAge time.Duration) int {
	f.called = true
	f.gotMaxAge = maxAge
	return f.removed
}

func (f *fakeCleaner) Count() int {
	return f.count
}

type fakeTrimmer struct {
	trimmed int64
	err     error
	called  bool
	gotKeep int
}

func (f *fakeTrimmer) TrimJournals(ctx context.Context, keep int) (int64, error) {
	f.called = true
	f.gotKeep = keep
	return f.trimmed, f.err
}

type fakeRecorder struct {
	journalTrimmed int64
	trimCalls      int
	activeBays     float64
	activeSet      bool
}

func (f *fakeRecorder) RecordJournalTrimmed(count int64) {
	f.journalTrimmed += count
	f.trimCalls++
}

func (f *fakeRecorder) SetActiveBays(count float64) {
	f.activeBays = count
	f.activeSet = true
}

func TestPruner_Prune(t *testing.T) {
	t.Run("both phases run", func(t *testing.T) {
		cleaner := &fakeCleaner{removed: 3, count: 7}
		trimmer := &fakeTrimmer{trimmed: 14}
		pruner := NewPruner(cleaner, trimmer, &Config{MaxBayAge: time.Hour, JournalKeep: 50})

		result, err := pruner.Prune(context.Background())
		if err != nil {
			t.Fatalf("Prune failed: %v", err)
		}
		if result.BaysRemoved != 3 {
			t.Errorf("Expected 3 bays removed, got %d", result.BaysRemoved)
		}
		if result.EntriesTrimmed != 14 {
			t.Errorf("Expected 14 entries trimmed, got %d", result.EntriesTrimmed)
		}
		if cleaner.gotMaxAge != time.Hour {
			t.Errorf("Expected max age 1h, got %s", cleaner.gotMaxAge)
		}
		if trimmer.gotKeep != 50 {
			t.Errorf("Expected keep 50, got %d", trimmer.gotKeep)
		}
	})

	t.Run("bay cleanup disabled by zero age", func(t *testing.T) {
		cleaner := &fakeCleaner{removed: 3}
		trimmer := &fakeTrimmer{trimmed: 2}
		pruner := NewPruner(cleaner, trimmer, &Config{MaxBayAge: 0, JournalKeep: 50})

		result, err := pruner.Prune(context.Background())
		if err != nil {
			t.Fatalf("Prune failed: %v", err)
		}
		if cleaner.called {
			t.Error("Expected cleaner not to run with MaxBayAge 0")
		}
		if result.BaysRemoved != 0 {
			t.Errorf("Expected 0 bays removed, got %d", result.BaysRemoved)
		}
		if result.EntriesTrimmed != 2 {
			t.Errorf("Expected 2 entries trimmed, got %d", result.EntriesTrimmed)
		}
	})

	t.Run("journal trim disabled by zero keep", func(t *testing.T) {
		trimmer := &fakeTrimmer{trimmed: 14}
		pruner := NewPruner(&fakeCleaner{}, trimmer, &Config{MaxBayAge: time.Hour, JournalKeep: 0})

		if _, err := pruner.Prune(context.Background()); err != nil {
			t.Fatalf("Prune failed: %v", err)
		}
		if trimmer.called {
			t.Error("Expected trimmer not to run with JournalKeep 0")
		}
	})

	t.Run("nil trimmer skips trim phase", func(t *testing.T) {
		pruner := NewPruner(&fakeCleaner{removed: 1}, nil, &Config{MaxBayAge: time.Hour, JournalKeep: 50})

		result, err := pruner.Prune(context.Background())
		if err != nil {
			t.Fatalf("Prune failed: %v", err)
		}
		if result.BaysRemoved != 1 {
			t.Errorf("Expected 1 bay removed, got %d", result.BaysRemoved)
		}
		if result.EntriesTrimmed != 0 {
			t.Errorf("Expected 0 entries trimmed, got %d", result.EntriesTrimmed)
		}
	})

	t.Run("trim error is wrapped and keeps partial result", func(t *testing.T) {
		trimErr := errors.New("database is locked")
		pruner := NewPruner(
			&fakeCleaner{removed: 3},
			&fakeTrimmer{err: trimErr},
			&Config{MaxBayAge: time.Hour, JournalKeep: 50},
		)

		result, err := pruner.Prune(context.Background())
		if err == nil {
			t.Fatal("Expected error from failing trimmer")
		}
		if !strings.Contains(err.Error(), "journal trim failed") {
			t.Errorf("Expected wrapped trim error, got %v", err)
		}
		if !errors.Is(err, trimErr) {
			t.Errorf("Expected underlying trim error, got %v", err)
		}
		if result.BaysRemoved != 3 {
			t.Errorf("Expected bay phase result to survive trim failure, got %d", result.BaysRemoved)
		}
	})
}

func TestPruner_Metrics(t *testing.T) {
	t.Run("records counts", func(t *testing.T) {
		recorder := &fakeRecorder{}
		pruner := NewPrunerWithMetrics(
			&fakeCleaner{removed: 3, count: 7},
			&fakeTrimmer{trimmed: 14},
			&Config{MaxBayAge: time.Hour, JournalKeep: 50},
			recorder,
		)

		if _, err := pruner.Prune(context.Background()); err != nil {
			t.Fatalf("Prune failed: %v", err)
		}
		if !recorder.activeSet || recorder.activeBays != 7 {
			t.Errorf("Expected active bays gauge set to 7, got %v (set=%v)", recorder.activeBays, recorder.activeSet)
		}
		if recorder.journalTrimmed != 14 {
			t.Errorf("Expected 14 trimmed entries recorded, got %d", recorder.journalTrimmed)
		}
	})

	t.Run("skips trim counter when nothing trimmed", func(t *testing.T) {
		recorder := &fakeRecorder{}
		pruner := NewPrunerWithMetrics(
			&fakeCleaner{},
			&fakeTrimmer{trimmed: 0},
			&Config{MaxBayAge: time.Hour, JournalKeep: 50},
			recorder,
		)

		if _, err := pruner.Prune(context.Background()); err != nil {
			t.Fatalf("Prune failed: %v", err)
		}
		if recorder.trimCalls != 0 {
			t.Errorf("Expected no trim recordings, got %d", recorder.trimCalls)
		}
	})
}

func TestPruner_DefaultConfig(t *testing.T) {
	pruner := NewPruner(nil, nil, nil)

	if pruner.config.MaxBayAge != 24*time.Hour {
		t.Errorf("Expected default max bay age 24h, got %s", pruner.config.MaxBayAge)
	}
	if pruner.config.JournalKeep != 200 {
		t.Errorf("Expected default journal keep 200, got %d", pruner.config.JournalKeep)
	}
	if pruner.config.PruneSchedule != "0 3 * * *" {
		t.Errorf("Expected default schedule '0 3 * * *', got %q", pruner.config.PruneSchedule)
	}

	// Nil phases must not panic
	if _, err := pruner.Prune(context.Background()); err != nil {
		t.Fatalf("Prune with nil phases failed: %v", err)
	}
}

func TestPruner_WithBayManager(t *testing.T) {
	manager := bay.NewManager()

	petrol, err := engine.Build(engine.KindPetrol)
	if err != nil {
		t.Fatalf("Failed to build engine: %v", err)
	}
	stale, err := manager.Create("stale", engine.KindPetrol, petrol)
	if err != nil {
		t.Fatalf("Failed to create bay: %v", err)
	}

	electric, err := engine.Build(engine.KindElectric)
	if err != nil {
		t.Fatalf("Failed to build engine: %v", err)
	}
	if _, err := manager.Create("fresh", engine.KindElectric, electric); err != nil {
		t.Fatalf("Failed to create bay: %v", err)
	}

	// Age one bay past the cutoff
	stale.LastAccessedAt = time.Now().Add(-2 * time.Hour)

	pruner := NewPruner(manager, nil, &Config{MaxBayAge: time.Hour})
	result, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}

	if result.BaysRemoved != 1 {
		t.Errorf("Expected 1 bay removed, got %d", result.BaysRemoved)
	}
	if manager.Count() != 1 {
		t.Errorf("Expected 1 bay left, got %d", manager.Count())
	}
	if _, err := manager.Get("fresh"); err != nil {
		t.Errorf("Expected fresh bay to survive: %v", err)
	}
	if _, err := manager.Get("stale"); err == nil {
		t.Error("Expected stale bay to be evicted")
	}
}
