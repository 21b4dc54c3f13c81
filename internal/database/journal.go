package database

import (
	"database/sql"
	"fmt"

	"ground_ops/internal/models"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// JournalEntry is one journaled registry change
type JournalEntry struct {
	RunID  uuid.UUID
	Change models.Change
}

type JournalRepository interface {
	InsertBatch(changes []models.Change) error
	Recent(limit int) ([]JournalEntry, error)
}

type journalRepository struct {
	db    *sql.DB
	runID uuid.UUID
}

func NewJournalRepository(db *sql.DB, runID uuid.UUID) JournalRepository {
	return &journalRepository{db: db, runID: runID}
}

// InsertBatch appends changes in a single transaction.
// The full change is kept as a msgpack payload next to the indexed columns.
func (r *journalRepository) InsertBatch(changes []models.Change) error {
	if len(changes) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO registry_changes (
		run_id, registry, entity_id, kind, from_state, to_state, changed_at, payload
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range changes {
		payload, err := msgpack.Marshal(&c)
		if err != nil {
			return fmt.Errorf("failed to encode change: %w", err)
		}
		if _, err := stmt.Exec(
			r.runID.String(),
			string(c.Registry),
			c.ID,
			string(c.Kind),
			c.From,
			c.To,
			c.At,
			payload,
		); err != nil {
			return fmt.Errorf("failed to insert change: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Recent returns up to limit of the newest entries across all runs, oldest first
func (r *journalRepository) Recent(limit int) ([]JournalEntry, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := r.db.Query(`SELECT run_id, payload FROM (
		SELECT id, run_id, payload FROM registry_changes ORDER BY id DESC LIMIT ?
	) ORDER BY id ASC`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var runID string
		var payload []byte
		if err := rows.Scan(&runID, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan journal row: %w", err)
		}

		entry := JournalEntry{}
		if entry.RunID, err = uuid.Parse(runID); err != nil {
			return nil, fmt.Errorf("invalid run id %q: %w", runID, err)
		}
		if err := msgpack.Unmarshal(payload, &entry.Change); err != nil {
			return nil, fmt.Errorf("failed to decode change: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	return entries, nil
}
