package bay

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/enginebay/garage/garage/car"
	"github.com/enginebay/garage/garage/service"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements BayPersistence using SQLite
type SQLiteStore struct {
	db       *sql.DB
	path     string
	resolver EngineResolver
}

// NewSQLiteStore opens (or creates) the database at path, enables WAL mode,
// and applies pending migrations.
func NewSQLiteStore(path string, resolver EngineResolver) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("engine resolver is required")
	}

	// Open database with SQLite-specific connection parameters
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Ensure foreign keys are enabled (connection-level setting)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{
		db:       db,
		path:     path,
		resolver: resolver,
	}

	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// migrate runs database migrations from the embedded FS
func (s *SQLiteStore) migrate() error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save persists a bay and its full journal in one transaction
func (s *SQLiteStore) Save(bay *service.Bay) error {
	if bay == nil {
		return fmt.Errorf("bay cannot be nil")
	}

	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	bayQuery := `
		INSERT INTO bays (id, engine_kind, engine_type, created_at, last_accessed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			engine_kind = excluded.engine_kind,
			engine_type = excluded.engine_type,
			last_accessed_at = excluded.last_accessed_at
	`

	_, err = tx.ExecContext(ctx, bayQuery,
		bay.ID,
		bay.EngineKind,
		bay.Car.EngineType(),
		bay.CreatedAt,
		bay.LastAccessedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save bay: %w", err)
	}

	// Rewrite the journal; entries are immutable so this keeps the stored
	// copy identical to memory, including after trims
	if _, err := tx.ExecContext(ctx, `DELETE FROM journal_entries WHERE bay_id = ?`, bay.ID); err != nil {
		return fmt.Errorf("failed to clear journal: %w", err)
	}

	entryQuery := `
		INSERT INTO journal_entries (id, bay_id, seq, kind, line, engine_type, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	for _, entry := range bay.Car.Journal() {
		_, err := tx.ExecContext(ctx, entryQuery,
			entry.ID,
			bay.ID,
			entry.Seq,
			string(entry.Kind),
			entry.Line,
			entry.EngineType,
			entry.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("failed to save journal entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Load retrieves a bay and rebuilds its car from the journal
func (s *SQLiteStore) Load(id string) (*service.Bay, error) {
	ctx := context.Background()

	bayQuery := `
		SELECT id, engine_kind, created_at, last_accessed_at
		FROM bays
		WHERE id = ?
	`

	var data PersistedBayData
	err := s.db.QueryRowContext(ctx, bayQuery, id).Scan(
		&data.ID,
		&data.EngineKind,
		&data.CreatedAt,
		&data.LastAccessedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrBayNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bay: %w", err)
	}

	entryQuery := `
		SELECT id, seq, kind, line, engine_type, timestamp
		FROM journal_entries
		WHERE bay_id = ?
		ORDER BY seq ASC
	`

	rows, err := s.db.QueryContext(ctx, entryQuery, data.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load journal: %w", err)
	}
	defer rows.Close()

	var journal []car.JournalEntry
	for rows.Next() {
		var entry car.JournalEntry
		var kind string
		err := rows.Scan(
			&entry.ID,
			&entry.Seq,
			&kind,
			&entry.Line,
			&entry.EngineType,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entry.Kind = car.JournalKind(kind)
		journal = append(journal, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal entries: %w", err)
	}

	// Rebuild the engine from its stored identifier
	eng, err := s.resolver(data.EngineKind)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild engine '%s': %w", data.EngineKind, err)
	}

	c, err := car.Restore(eng, journal)
	if err != nil {
		return nil, fmt.Errorf("failed to restore car: %w", err)
	}

	return &service.Bay{
		ID:             data.ID,
		EngineKind:     data.EngineKind,
		Car:            c,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
	}, nil
}

// Delete removes a bay; the journal goes with it via ON DELETE CASCADE
func (s *SQLiteStore) Delete(id string) error {
	result, err := s.db.Exec(`DELETE FROM bays WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bay: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return ErrBayNotFound
	}

	return nil
}

// ListAll returns all persisted bay IDs
func (s *SQLiteStore) ListAll() ([]string, error) {
	rows, err := s.db.Query(`SELECT id FROM bays ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list bays: %w", err)
	}
	defer rows.Close()

	var bayIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan bay ID: %w", err)
		}
		bayIDs = append(bayIDs, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bays: %w", err)
	}

	return bayIDs, nil
}

// Exists checks if a bay exists in the store
func (s *SQLiteStore) Exists(id string) bool {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM bays WHERE id = ?`, id).Scan(&one)
	return err == nil
}

// TrimJournals deletes all but the newest keep entries of every stored
// journal and returns the number of deleted rows.
func (s *SQLiteStore) TrimJournals(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}

	query := `
		DELETE FROM journal_entries
		WHERE id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (PARTITION BY bay_id ORDER BY seq DESC) AS rn
				FROM journal_entries
			)
			WHERE rn > ?
		)
	`

	result, err := s.db.ExecContext(ctx, query, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to trim journals: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}
