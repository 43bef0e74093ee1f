// Command analyze prints quick, human-readable heuristics about a garage
// database and engine catalog. It summarizes persisted bays and their
// journals, highlights cars left running, trimmed or gapped journal
// history, and catalog definitions that fail to load.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/enginebay/garage/garage/engine"
	"github.com/urfave/cli/v3"

	// SQLite driver
	_ "modernc.org/sqlite"
)

// BayRow is a light struct for reading bay rows used by analysis.
type BayRow struct {
	ID             string
	EngineKind     string
	EngineType     string
	CreatedAt      time.Time
	LastAccessedAt time.Time
	Entries        int
	Swaps          int
	MinSeq         int
	MaxSeq         int
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		os.Exit(1)
	}
}

// newCommand builds the CLI command tree.
func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "print quick heuristics about a garage database and engine catalog",
		Commands: []*cli.Command{
			{
				Name:  "bays",
				Usage: "summarize persisted bays and journal health",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "db",
						Value: "garage.db",
						Usage: "path to the garage SQLite database",
					},
					&cli.StringFlag{
						Name:  "bay",
						Usage: "restrict the report to one bay ID",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return analyzeBays(ctx, cmd.String("db"), cmd.String("bay"))
				},
			},
			{
				Name:  "journal",
				Usage: "print the newest journal entries for a bay",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "db",
						Value: "garage.db",
						Usage: "path to the garage SQLite database",
					},
					&cli.StringFlag{
						Name:     "bay",
						Usage:    "bay ID to inspect",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Value: 20,
						Usage: "number of entries to print",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return analyzeJournal(ctx, cmd.String("db"), cmd.String("bay"), int(cmd.Int("limit")))
				},
			},
			{
				Name:  "catalog",
				Usage: "summarize engine definitions in a catalog directory",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dir",
						Value: "engines",
						Usage: "catalog directory containing engine definitions",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return analyzeCatalog(cmd.String("dir"))
				},
			},
		},
	}
}

func openDatabase(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database %s not found: %w", path, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return db, nil
}

// analyzeBays prints a per-bay summary and journal health warnings.
func analyzeBays(ctx context.Context, dbPath, bayID string) error {
	db, err := openDatabase(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Printf("\n=== Analyzing %s ===\n", dbPath)

	query := `
		SELECT b.id, b.engine_kind, b.engine_type, b.created_at, b.last_accessed_at,
			COUNT(j.id),
			COALESCE(SUM(CASE WHEN j.kind = 'engine_swap' THEN 1 ELSE 0 END), 0),
			COALESCE(MIN(j.seq), 0),
			COALESCE(MAX(j.seq), 0)
		FROM bays b
		LEFT JOIN journal_entries j ON j.bay_id = b.id
	`
	args := []interface{}{}
	if bayID != "" {
		query += ` WHERE b.id = ?`
		args = append(args, bayID)
	}
	query += ` GROUP BY b.id ORDER BY b.created_at ASC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query bays: %w", err)
	}
	defer rows.Close()

	var bays []BayRow
	for rows.Next() {
		var b BayRow
		err := rows.Scan(
			&b.ID, &b.EngineKind, &b.EngineType,
			&b.CreatedAt, &b.LastAccessedAt,
			&b.Entries, &b.Swaps, &b.MinSeq, &b.MaxSeq,
		)
		if err != nil {
			return fmt.Errorf("failed to scan bay row: %w", err)
		}
		bays = append(bays, b)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating bays: %w", err)
	}

	if len(bays) == 0 {
		if bayID != "" {
			return fmt.Errorf("bay %q not found", bayID)
		}
		fmt.Println("No bays stored")
		return nil
	}

	fmt.Printf("Bays: %d\n", len(bays))

	var running, trimmed, gapped []string
	for _, b := range bays {
		fmt.Printf("\nBay: %s\n", b.ID)
		fmt.Printf("  Engine: %s (%s)\n", b.EngineType, b.EngineKind)
		fmt.Printf("  Journal: %d entries, %d swaps\n", b.Entries, b.Swaps)
		fmt.Printf("  Created: %s\n", b.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("  Last accessed: %s\n", b.LastAccessedAt.Format("2006-01-02 15:04:05"))

		kind, err := lastDriveKind(ctx, db, b.ID)
		if err != nil {
			return err
		}
		if kind == "car_start" {
			running = append(running, b.ID)
		}

		if b.Entries > 0 {
			// Sequence numbers start at 1; a higher stored minimum means the
			// oldest entries were trimmed
			if b.MinSeq > 1 {
				trimmed = append(trimmed, b.ID)
			}
			if b.MaxSeq-b.MinSeq+1 != b.Entries {
				gapped = append(gapped, b.ID)
			}
		}
	}

	fmt.Println()
	if len(running) > 0 {
		fmt.Printf("⚠️  WARNING: %d cars still running (started without a later stop)\n", len(running))
		for _, id := range running {
			fmt.Printf("   Running: %s\n", id)
		}
	} else {
		fmt.Printf("✅ No cars left running\n")
	}

	if len(trimmed) > 0 {
		fmt.Printf("⚠️  %d journals trimmed (oldest entries dropped by retention)\n", len(trimmed))
		for _, id := range trimmed {
			fmt.Printf("   Trimmed: %s\n", id)
		}
	}

	if len(gapped) > 0 {
		fmt.Printf("⚠️  CRITICAL: %d journals have sequence gaps!\n", len(gapped))
		for _, id := range gapped {
			fmt.Printf("   Gapped: %s\n", id)
		}
	} else {
		fmt.Printf("✅ All journals are contiguous\n")
	}

	return nil
}

// lastDriveKind returns the kind of the newest start/stop entry for a bay,
// or "" when the car has never been driven.
func lastDriveKind(ctx context.Context, db *sql.DB, bayID string) (string, error) {
	var kind string
	err := db.QueryRowContext(ctx, `
		SELECT kind FROM journal_entries
		WHERE bay_id = ? AND kind IN ('car_start', 'car_stop')
		ORDER BY seq DESC LIMIT 1
	`, bayID).Scan(&kind)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read drive state for %s: %w", bayID, err)
	}
	return kind, nil
}

// analyzeJournal prints the newest entries of one bay's journal.
func analyzeJournal(ctx context.Context, dbPath, bayID string, limit int) error {
	if limit <= 0 {
		limit = 20
	}

	db, err := openDatabase(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	var one int
	err = db.QueryRowContext(ctx, `SELECT 1 FROM bays WHERE id = ?`, bayID).Scan(&one)
	if err == sql.ErrNoRows {
		return fmt.Errorf("bay %q not found", bayID)
	}
	if err != nil {
		return fmt.Errorf("failed to look up bay: %w", err)
	}

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM journal_entries WHERE bay_id = ?`, bayID).Scan(&total); err != nil {
		return fmt.Errorf("failed to count journal entries: %w", err)
	}

	fmt.Printf("\n=== Journal for %s ===\n", bayID)

	rows, err := db.QueryContext(ctx, `
		SELECT seq, kind, line, timestamp FROM journal_entries
		WHERE bay_id = ?
		ORDER BY seq DESC LIMIT ?
	`, bayID, limit)
	if err != nil {
		return fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	shown := 0
	for rows.Next() {
		var seq int
		var kind, line string
		var ts time.Time
		if err := rows.Scan(&seq, &kind, &line, &ts); err != nil {
			return fmt.Errorf("failed to scan journal entry: %w", err)
		}
		fmt.Printf("%4d  %-12s  %s  %s\n", seq, kind, ts.Format("2006-01-02 15:04:05"), line)
		shown++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating journal: %w", err)
	}

	fmt.Printf("\nShowing %d of %d entries (newest first)\n", shown, total)
	return nil
}

// analyzeCatalog summarizes the definitions in a catalog directory.
func analyzeCatalog(dir string) error {
	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return fmt.Errorf("failed to scan catalog: %w", err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	fmt.Printf("\n=== Analyzing catalog %s ===\n", dir)

	if len(files) == 0 {
		fmt.Println("No engine definitions found")
		return nil
	}

	counts := map[string]int{}
	var broken []string
	for _, file := range files {
		config, err := engine.LoadEngineConfig(file)
		if err != nil {
			broken = append(broken, fmt.Sprintf("%s: %v", filepath.Base(file), err))
			continue
		}

		counts[config.Kind]++
		fmt.Printf("- %s: %s (%s", filepath.Base(file), config.Label, config.Kind)
		if config.FuelType != "" {
			fmt.Printf(", %s", config.FuelType)
		}
		fmt.Printf(")\n")
	}

	fmt.Printf("\nDefinitions: %d\n", len(files)-len(broken))
	kinds := make([]string, 0, len(counts))
	for kind := range counts {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fmt.Printf("  %s: %d\n", kind, counts[kind])
	}

	var missing []string
	for _, kind := range engine.Kinds() {
		if counts[kind] == 0 {
			missing = append(missing, kind)
		}
	}
	if len(missing) > 0 {
		fmt.Printf("⚠️  WARNING: %d built-in kinds have no catalog definition\n", len(missing))
		for _, kind := range missing {
			fmt.Printf("   Missing: %s\n", kind)
		}
	}

	if len(broken) > 0 {
		fmt.Printf("⚠️  CRITICAL: %d definitions failed to load!\n", len(broken))
		for _, b := range broken {
			fmt.Printf("   Broken: %s\n", b)
		}
	} else {
		fmt.Printf("✅ All definitions load cleanly\n")
	}

	return nil
}
