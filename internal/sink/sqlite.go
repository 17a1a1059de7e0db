package sink

import (
	"context"

	"devicescanner/internal/domain"
	"devicescanner/internal/repository"
)

// HistorySink stores snapshots and their arrivals and departures in a
// presence repository
type HistorySink struct {
	repo repository.PresenceRepository
}

// NewHistorySink wraps repo as a sink
func NewHistorySink(repo repository.PresenceRepository) *HistorySink {
	return &HistorySink{repo: repo}
}

// Name returns the sink identifier
func (h *HistorySink) Name() string {
	return "sqlite"
}

// Write saves snap
func (h *HistorySink) Write(ctx context.Context, snap domain.Snapshot) error {
	return h.repo.SaveSnapshot(ctx, snap)
}

// Close closes the repository
func (h *HistorySink) Close() error {
	return h.repo.Close()
}
