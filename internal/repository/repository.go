package repository

import (
	"context"

	"devicescanner/internal/domain"
)

// PresenceRepository persists presence snapshots and their history
type PresenceRepository interface {
	// SaveSnapshot replaces the stored presence set with snap and appends
	// its arrivals and departures to the history
	SaveSnapshot(ctx context.Context, snap domain.Snapshot) error

	// GetPresence returns the last saved presence set
	GetPresence(ctx context.Context) ([]domain.PresenceEntry, error)

	// RecentEvents returns up to limit history events, newest first
	RecentEvents(ctx context.Context, limit int) ([]domain.PresenceEvent, error)

	// Close releases resources
	Close() error
}
