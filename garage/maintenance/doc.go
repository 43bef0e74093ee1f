// Package maintenance provides background retention for bays and journals.
//
// The maintenance package handles:
//   - Evicting bays that have not been accessed within MaxBayAge
//   - Capping stored journals at JournalKeep entries per bay
//   - Running both phases on a cron schedule
//
// Eviction only drops bays from memory. Bays held in durable storage reload
// on the next access, so an evicted bay is not a deleted bay.
//
// Usage:
//
//	pruner := maintenance.NewPruner(bayManager, sqliteStore, &maintenance.Config{
//		MaxBayAge:     24 * time.Hour,
//		JournalKeep:   200,
//		PruneSchedule: "0 3 * * *",
//	})
//
//	if err := pruner.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer pruner.Stop()
//
//	// Or run a single cycle by hand
//	result, err := pruner.Prune(ctx)
//
// Concurrency:
//
// The scheduler serializes its own state behind a mutex. Prune may be called
// concurrently with scheduled runs; the bay manager and store it drives are
// themselves safe for concurrent use.
package maintenance
