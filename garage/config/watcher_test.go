package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func waitForReloads(t *testing.T, count *atomic.Int32, want int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if count.Load() >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %d reloads, got %d", want, count.Load())
}

func TestWatcher_ReloadOnChange(t *testing.T) {
	dir := createTestConfigDir(t)
	defer os.RemoveAll(dir)

	watcher, err := NewWatcher(dir, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}

	var reloads atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- watcher.Watch(context.Background(), func() error {
			reloads.Add(1)
			return nil
		})
	}()

	// Give the event loop time to register the directory
	time.Sleep(100 * time.Millisecond)

	writeConfigFile(t, dir, "turbine", createCustomConfig())
	waitForReloads(t, &reloads, 1)

	if err := watcher.Stop(); err != nil {
		t.Errorf("Failed to stop watcher: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Watch did not return after Stop")
	}
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	dir := createTestConfigDir(t)
	defer os.RemoveAll(dir)

	watcher, err := NewWatcher(dir, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	defer watcher.Stop()

	var reloads atomic.Int32
	go watcher.Watch(context.Background(), func() error {
		reloads.Add(1)
		return nil
	})

	time.Sleep(100 * time.Millisecond)

	// Neither a stray text file nor an editor temp file should trigger a reload
	os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("readme"), 0644)
	os.WriteFile(filepath.Join(dir, ".turbine.json.swp"), []byte("swap"), 0644)
	time.Sleep(300 * time.Millisecond)

	if got := reloads.Load(); got != 0 {
		t.Errorf("Expected no reloads for unrelated files, got %d", got)
	}

	// A real definition still gets through
	writeConfigFile(t, dir, "turbine", createCustomConfig())
	waitForReloads(t, &reloads, 1)
}

func TestWatcher_ContextCancelUnblocksWatch(t *testing.T) {
	dir := createTestConfigDir(t)
	defer os.RemoveAll(dir)

	watcher, err := NewWatcher(dir, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- watcher.Watch(ctx, func() error { return nil })
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Watch did not return after context cancellation")
	}

	watcher.Stop()
}

func TestWatcher_AlreadyRunning(t *testing.T) {
	dir := createTestConfigDir(t)
	defer os.RemoveAll(dir)

	watcher, err := NewWatcher(dir, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	defer watcher.Stop()

	go watcher.Watch(context.Background(), func() error { return nil })
	time.Sleep(100 * time.Millisecond)

	if err := watcher.Watch(context.Background(), func() error { return nil }); err == nil {
		t.Error("Expected error for second Watch call")
	}
}

func TestShouldProcessEvent(t *testing.T) {
	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"json write", fsnotify.Event{Name: "engines/turbine.json", Op: fsnotify.Write}, true},
		{"yaml create", fsnotify.Event{Name: "engines/steam.yaml", Op: fsnotify.Create}, true},
		{"yml remove", fsnotify.Event{Name: "engines/old.yml", Op: fsnotify.Remove}, true},
		{"chmod only", fsnotify.Event{Name: "engines/turbine.json", Op: fsnotify.Chmod}, false},
		{"text file", fsnotify.Event{Name: "engines/readme.txt", Op: fsnotify.Write}, false},
		{"hidden file", fsnotify.Event{Name: "engines/.turbine.json", Op: fsnotify.Write}, false},
		{"no extension", fsnotify.Event{Name: "engines/turbine", Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldProcessEvent(tt.event); got != tt.want {
				t.Errorf("shouldProcessEvent(%v) = %v, want %v", tt.event, got, tt.want)
			}
		})
	}
}

func TestDebouncer(t *testing.T) {
	t.Run("collapses rapid triggers", func(t *testing.T) {
		d := newDebouncer(50 * time.Millisecond)
		defer d.stop()

		var count atomic.Int32
		for i := 0; i < 5; i++ {
			d.trigger(func() { count.Add(1) })
		}

		time.Sleep(200 * time.Millisecond)
		if got := count.Load(); got != 1 {
			t.Errorf("Expected 1 callback after rapid triggers, got %d", got)
		}
	})

	t.Run("latest callback wins", func(t *testing.T) {
		d := newDebouncer(50 * time.Millisecond)
		defer d.stop()

		var first, second atomic.Int32
		d.trigger(func() { first.Add(1) })
		d.trigger(func() { second.Add(1) })

		time.Sleep(200 * time.Millisecond)
		if first.Load() != 0 {
			t.Error("Expected replaced callback not to run")
		}
		if second.Load() != 1 {
			t.Errorf("Expected latest callback to run once, got %d", second.Load())
		}
	})

	t.Run("stop cancels pending callback", func(t *testing.T) {
		d := newDebouncer(50 * time.Millisecond)

		var count atomic.Int32
		d.trigger(func() { count.Add(1) })
		d.stop()

		time.Sleep(200 * time.Millisecond)
		if got := count.Load(); got != 0 {
			t.Errorf("Expected no callbacks after stop, got %d", got)
		}
	})
}
