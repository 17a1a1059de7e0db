package sqlite

import (
	"fmt"
	"time"

	"devicescanner/internal/domain"
)

// Timestamps are stored as RFC3339 text with nanoseconds in UTC so that
// lexical order matches time order.
const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// ============================================================================
// Presence Row Scanner
// ============================================================================

// presenceRow holds the columns of a presence query
type presenceRow struct {
	Identity string
	LastSeen string
}

// scanArgs MUST match presenceColumns order
func (r *presenceRow) scanArgs() []interface{} {
	return []interface{}{&r.Identity, &r.LastSeen}
}

func (r *presenceRow) toDomain() (domain.PresenceEntry, error) {
	seen, err := parseTime(r.LastSeen)
	if err != nil {
		return domain.PresenceEntry{}, fmt.Errorf("parse last_seen for %s: %w", r.Identity, err)
	}
	return domain.PresenceEntry{Identity: domain.Identity(r.Identity), LastSeen: seen}, nil
}

const presenceColumns = `identity, last_seen`

// presenceInsertArgs returns: identity, last_seen, updated_at
func presenceInsertArgs(entry domain.PresenceEntry, updatedAt string) []interface{} {
	return []interface{}{string(entry.Identity), formatTime(entry.LastSeen), updatedAt}
}

// ============================================================================
// Event Row Scanner
// ============================================================================

// eventRow holds the columns of a presence_events query
type eventRow struct {
	Identity string
	Kind     string
	At       string
}

// scanArgs MUST match eventColumns order
func (r *eventRow) scanArgs() []interface{} {
	return []interface{}{&r.Identity, &r.Kind, &r.At}
}

func (r *eventRow) toDomain() (domain.PresenceEvent, error) {
	at, err := parseTime(r.At)
	if err != nil {
		return domain.PresenceEvent{}, fmt.Errorf("parse event time for %s: %w", r.Identity, err)
	}
	return domain.PresenceEvent{
		Identity: domain.Identity(r.Identity),
		Kind:     domain.PresenceEventKind(r.Kind),
		At:       at,
	}, nil
}

const eventColumns = `identity, kind, at`

// eventInsertArgs returns: identity, kind, at
func eventInsertArgs(event domain.PresenceEvent) []interface{} {
	return []interface{}{string(event.Identity), string(event.Kind), formatTime(event.At)}
}
