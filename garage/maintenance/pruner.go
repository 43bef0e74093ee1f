package maintenance

import (
	"context"
	"fmt"
	"log"
	"time"
)

// BayCleaner evicts idle bays from memory. Persisted bays stay on disk and
// reload on the next access.
type BayCleaner interface {
	CleanupExpiredBays(maxAge time.Duration) int
	Count() int
}

// JournalTrimmer caps per-bay journals in durable storage.
type JournalTrimmer interface {
	TrimJournals(ctx context.Context, keep int) (int64, error)
}

// MetricsRecorder receives maintenance counters. A nil recorder disables
// recording.
type MetricsRecorder interface {
	RecordJournalTrimmed(count int64)
	SetActiveBays(count float64)
}

// Config contains configuration for the maintenance pruner.
type Config struct {
	// MaxBayAge is how long an untouched bay stays in memory.
	// 0 disables bay cleanup.
	MaxBayAge time.Duration

	// JournalKeep is the number of journal entries retained per bay.
	// 0 disables journal trimming.
	JournalKeep int

	// PruneSchedule is a cron expression for scheduling pruning.
	// Example: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string
}

// DefaultConfig returns the default maintenance configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxBayAge:     24 * time.Hour,
		JournalKeep:   200,
		PruneSchedule: "0 3 * * *",
	}
}

// PruneResult reports what a pruning cycle acted on.
type PruneResult struct {
	BaysRemoved    int
	EntriesTrimmed int64
}

// Pruner enforces retention on bays and journals.
type Pruner struct {
	cleaner   BayCleaner
	trimmer   JournalTrimmer
	config    *Config
	metrics   MetricsRecorder
	scheduler *Scheduler
}

// NewPruner creates a new maintenance pruner. A nil cleaner or trimmer
// disables the corresponding phase.
func NewPruner(cleaner BayCleaner, trimmer JournalTrimmer, config *Config) *Pruner {
	return NewPrunerWithMetrics(cleaner, trimmer, config, nil)
}

// NewPrunerWithMetrics creates a pruner that reports what it removed.
func NewPrunerWithMetrics(cleaner BayCleaner, trimmer JournalTrimmer, config *Config, metrics MetricsRecorder) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}

	pruner := &Pruner{
		cleaner: cleaner,
		trimmer: trimmer,
		config:  config,
		metrics: metrics,
	}

	pruner.scheduler = NewScheduler(pruner)

	return pruner
}

// Prune runs one maintenance cycle.
//
// Pruning happens in two phases:
//  1. Bay cleanup: evict bays untouched for longer than MaxBayAge
//  2. Journal trim: cap every stored journal at JournalKeep entries
//
// Returns how many bays and journal entries each phase acted on.
func (p *Pruner) Prune(ctx context.Context) (PruneResult, error) {
	var result PruneResult

	// Phase 1: evict idle bays
	if p.config.MaxBayAge > 0 && p.cleaner != nil {
		removed := p.cleaner.CleanupExpiredBays(p.config.MaxBayAge)
		result.BaysRemoved = removed

		if removed > 0 {
			log.Printf("Maintenance evicted %d idle bays (max age %s)", removed, p.config.MaxBayAge)
		}

		if p.metrics != nil {
			p.metrics.SetActiveBays(float64(p.cleaner.Count()))
		}
	}

	// Phase 2: cap stored journals
	if p.config.JournalKeep > 0 && p.trimmer != nil {
		trimmed, err := p.trimmer.TrimJournals(ctx, p.config.JournalKeep)
		if err != nil {
			return result, fmt.Errorf("journal trim failed: %w", err)
		}
		result.EntriesTrimmed = trimmed

		if trimmed > 0 {
			log.Printf("Maintenance trimmed %d journal entries (keeping %d per bay)", trimmed, p.config.JournalKeep)
		}

		if p.metrics != nil && trimmed > 0 {
			p.metrics.RecordJournalTrimmed(trimmed)
		}
	}

	return result, nil
}

// Start starts the automatic pruning scheduler.
// Call this when starting the application.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops the automatic pruning scheduler.
// Call this during graceful shutdown.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the time of the next scheduled pruning.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
