package presence

import (
	"sort"
	"sync"
	"time"

	"devicescanner/internal/domain"
)

// Registry maps identities to the time they were last seen.
// Reads are safe to call concurrently with Touch and Evict.
type Registry struct {
	mu       sync.RWMutex
	lastSeen map[domain.Identity]time.Time
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		lastSeen: make(map[domain.Identity]time.Time),
	}
}

// Touch records identities as seen at now and returns the ones that were not
// present before. A stored time later than now is kept, so last-seen values
// never move backwards.
func (r *Registry) Touch(identities []domain.Identity, now time.Time) []domain.Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.touch(identities, now)
}

func (r *Registry) touch(identities []domain.Identity, now time.Time) []domain.Identity {
	var arrived []domain.Identity
	for _, id := range identities {
		prev, ok := r.lastSeen[id]
		if !ok {
			arrived = append(arrived, id)
			r.lastSeen[id] = now
			continue
		}
		if now.After(prev) {
			r.lastSeen[id] = now
		}
	}

	sortIdentities(arrived)
	return arrived
}

// Evict removes identities not seen for at least retention and returns them.
// Entries last seen at or after now are never removed, so an identity touched
// in the same cycle survives any retention.
func (r *Registry) Evict(now time.Time, retention time.Duration) []domain.Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evict(now, retention)
}

func (r *Registry) evict(now time.Time, retention time.Duration) []domain.Identity {
	var departed []domain.Identity
	for id, seen := range r.lastSeen {
		if !seen.Before(now) {
			continue
		}
		if now.Sub(seen) >= retention {
			departed = append(departed, id)
			delete(r.lastSeen, id)
		}
	}

	sortIdentities(departed)
	return departed
}

// Snapshot returns the identities currently present, sorted
func (r *Registry) Snapshot() []domain.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]domain.Identity, 0, len(r.lastSeen))
	for id := range r.lastSeen {
		ids = append(ids, id)
	}
	sortIdentities(ids)
	return ids
}

// Entries returns present identities with their last-seen times, sorted by identity
func (r *Registry) Entries() []domain.PresenceEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries()
}

func (r *Registry) entries() []domain.PresenceEntry {
	entries := make([]domain.PresenceEntry, 0, len(r.lastSeen))
	for id, seen := range r.lastSeen {
		entries = append(entries, domain.PresenceEntry{Identity: id, LastSeen: seen})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Identity < entries[j].Identity
	})
	return entries
}

// LastSeen returns when an identity was last seen
func (r *Registry) LastSeen(id domain.Identity) (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.lastSeen[id]
	return t, ok
}

// Len returns the number of present identities
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.lastSeen)
}

// Update runs touch then evict under one lock and returns the resulting
// snapshot. Readers never observe the state between the two.
func (r *Registry) Update(identities []domain.Identity, now time.Time, retention time.Duration) domain.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	arrived := r.touch(identities, now)
	departed := r.evict(now, retention)

	return domain.Snapshot{
		Taken:    now,
		Present:  r.entries(),
		Arrived:  arrived,
		Departed: departed,
	}
}

func sortIdentities(ids []domain.Identity) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
