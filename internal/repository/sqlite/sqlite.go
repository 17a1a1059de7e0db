package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"devicescanner/internal/domain"

	_ "modernc.org/sqlite"
)

// Repository implements repository.PresenceRepository using SQLite
type Repository struct {
	db *sql.DB
}

// New creates a new SQLite repository
func New(dbPath string) (*Repository, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// every pooled connection to :memory: would see its own empty database
	db.SetMaxOpenConns(1)

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS presence (
		identity TEXT PRIMARY KEY,
		last_seen TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS presence_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		identity TEXT NOT NULL,
		kind TEXT NOT NULL,
		at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_presence_events_at ON presence_events(at);
	`

	_, err := r.db.Exec(schema)
	return err
}

// SaveSnapshot replaces the presence table with the snapshot's present set
// and appends its arrivals and departures, in one transaction
func (r *Repository) SaveSnapshot(ctx context.Context, snap domain.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM presence`); err != nil {
		return fmt.Errorf("failed to clear presence: %w", err)
	}

	updatedAt := formatTime(snap.Taken)
	for _, entry := range snap.Present {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO presence (identity, last_seen, updated_at) VALUES (?, ?, ?)`,
			presenceInsertArgs(entry, updatedAt)...,
		); err != nil {
			return fmt.Errorf("failed to insert presence for %s: %w", entry.Identity, err)
		}
	}

	for _, event := range snap.Events() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO presence_events (identity, kind, at) VALUES (?, ?, ?)`,
			eventInsertArgs(event)...,
		); err != nil {
			return fmt.Errorf("failed to insert event for %s: %w", event.Identity, err)
		}
	}

	return tx.Commit()
}

// GetPresence returns the stored presence set ordered by identity
func (r *Repository) GetPresence(ctx context.Context) ([]domain.PresenceEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+presenceColumns+` FROM presence ORDER BY identity`)
	if err != nil {
		return nil, fmt.Errorf("failed to query presence: %w", err)
	}
	defer rows.Close()

	entries := []domain.PresenceEntry{}
	for rows.Next() {
		var row presenceRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan presence: %w", err)
		}
		entry, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// RecentEvents returns up to limit events, newest first. A limit of zero or
// less returns every event.
func (r *Repository) RecentEvents(ctx context.Context, limit int) ([]domain.PresenceEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM presence_events ORDER BY id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []domain.PresenceEvent{}
	for rows.Next() {
		var row eventRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		event, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}
