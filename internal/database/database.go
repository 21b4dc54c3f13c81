package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Repository is the lifecycle surface of the journal database
type Repository interface {
	JournalRepository(runID uuid.UUID) JournalRepository
	Close() error
}

// DB implements the Repository interface using SQLite
type DB struct {
	db *sql.DB
}

// New creates and initializes a new database connection
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := optimizeSQLite(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to optimize database: %w", err)
	}

	database := &DB{db: db}

	if err := database.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return database, nil
}

// optimizeSQLite tunes SQLite for a single writer with concurrent readers
func optimizeSQLite(db *sql.DB) error {
	// WAL lets readers proceed while the collector writes
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA temp_store=MEMORY"); err != nil {
		return fmt.Errorf("failed to set temp_store: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

// JournalRepository returns a journal writer/reader tagged with runID
func (d *DB) JournalRepository(runID uuid.UUID) JournalRepository {
	return NewJournalRepository(d.db, runID)
}

// initSchema creates the database schema if it doesn't exist
func (d *DB) initSchema() error {
	changesSchema := `CREATE TABLE IF NOT EXISTS registry_changes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		registry TEXT NOT NULL,
		entity_id INTEGER NOT NULL,
		kind TEXT NOT NULL,
		from_state TEXT NOT NULL,
		to_state TEXT NOT NULL,
		changed_at TIMESTAMP NOT NULL,
		payload BLOB NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_registry_changes_run ON registry_changes(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_registry_changes_entity ON registry_changes(registry, entity_id)`,
		`CREATE INDEX IF NOT EXISTS idx_registry_changes_changed_at ON registry_changes(changed_at)`,
	}

	if _, err := d.db.Exec(changesSchema); err != nil {
		return fmt.Errorf("failed to create registry_changes table: %w", err)
	}

	for _, idx := range indexes {
		if _, err := d.db.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
