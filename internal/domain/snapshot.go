package domain

import "time"

// PresenceEntry is one identity currently considered present
type PresenceEntry struct {
	Identity Identity  `json:"identity"`
	LastSeen time.Time `json:"last_seen"`
}

// Snapshot is the presence state after a cycle's touch and eviction pass
type Snapshot struct {
	Taken    time.Time       `json:"taken"`
	Present  []PresenceEntry `json:"present"`
	Arrived  []Identity      `json:"arrived,omitempty"`
	Departed []Identity      `json:"departed,omitempty"`
}

// Identities returns the present identities in entry order
func (s Snapshot) Identities() []Identity {
	ids := make([]Identity, len(s.Present))
	for i, e := range s.Present {
		ids[i] = e.Identity
	}
	return ids
}

// PresenceEventKind says whether an identity came or went
type PresenceEventKind string

const (
	PresenceArrived  PresenceEventKind = "arrived"
	PresenceDeparted PresenceEventKind = "departed"
)

// PresenceEvent is one arrival or departure
type PresenceEvent struct {
	Identity Identity          `json:"identity"`
	Kind     PresenceEventKind `json:"kind"`
	At       time.Time         `json:"at"`
}

// Events returns the snapshot's arrivals followed by its departures
func (s Snapshot) Events() []PresenceEvent {
	events := make([]PresenceEvent, 0, len(s.Arrived)+len(s.Departed))
	for _, id := range s.Arrived {
		events = append(events, PresenceEvent{Identity: id, Kind: PresenceArrived, At: s.Taken})
	}
	for _, id := range s.Departed {
		events = append(events, PresenceEvent{Identity: id, Kind: PresenceDeparted, At: s.Taken})
	}
	return events
}
