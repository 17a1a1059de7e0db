package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"devicescanner/internal/domain"
	"devicescanner/internal/service"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fakePresence struct {
	snap domain.Snapshot
	last *service.CycleReport
}

func (f *fakePresence) Presence() domain.Snapshot { return f.snap }

func (f *fakePresence) LastCycle() (service.CycleReport, bool) {
	if f.last == nil {
		return service.CycleReport{}, false
	}
	return *f.last, true
}

type fakeHistory struct {
	events    []domain.PresenceEvent
	err       error
	lastLimit int
}

func (f *fakeHistory) RecentEvents(ctx context.Context, limit int) ([]domain.PresenceEvent, error) {
	f.lastLimit = limit
	return f.events, f.err
}

func newTestRouter(p PresenceSource, history HistorySource) http.Handler {
	api := NewAPIHandler(p, []string{"redis", "file"}, zerolog.Nop())
	if history != nil {
		api.SetHistory(history)
	}
	return NewRouter(api, nil, zerolog.Nop())
}

func doGet(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestGetPresence(t *testing.T) {
	p := &fakePresence{snap: domain.Snapshot{
		Taken: t0,
		Present: []domain.PresenceEntry{
			{Identity: "alice", LastSeen: t0},
			{Identity: "bob", LastSeen: t0.Add(-time.Minute)},
		},
	}}

	rec := doGet(t, newTestRouter(p, nil), "/api/presence")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp PresenceResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !reflect.DeepEqual(resp.Identities, []domain.Identity{"alice", "bob"}) {
		t.Errorf("unexpected identities %v", resp.Identities)
	}
	if len(resp.Present) != 2 {
		t.Errorf("expected 2 entries, got %d", len(resp.Present))
	}
}

func TestGetPresence_EmptyIsArray(t *testing.T) {
	p := &fakePresence{snap: domain.Snapshot{Taken: t0, Present: []domain.PresenceEntry{}}}

	rec := doGet(t, newTestRouter(p, nil), "/api/presence")

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if string(raw["identities"]) != "[]" {
		t.Errorf("expected empty array, got %s", raw["identities"])
	}
}

func TestGetHealth(t *testing.T) {
	tests := []struct {
		name       string
		last       *service.CycleReport
		wantStatus string
	}{
		{"before first cycle", nil, "starting"},
		{"healthy cycle", &service.CycleReport{Number: 1}, "ok"},
		{"failed scan", &service.CycleReport{Number: 2, ScanError: "timeout"}, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doGet(t, newTestRouter(&fakePresence{last: tt.last}, nil), "/api/health")
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}

			var resp HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("expected status %s, got %s", tt.wantStatus, resp.Status)
			}
			if !reflect.DeepEqual(resp.Sinks, []string{"redis", "file"}) {
				t.Errorf("unexpected sinks %v", resp.Sinks)
			}
		})
	}
}

func TestGetEventHistory(t *testing.T) {
	events := []domain.PresenceEvent{{Identity: "alice", Kind: domain.PresenceArrived, At: t0}}

	tests := []struct {
		name      string
		history   *fakeHistory
		path      string
		wantCode  int
		wantLimit int
	}{
		{"history disabled", nil, "/api/events/history", http.StatusNotFound, 0},
		{"default limit", &fakeHistory{events: events}, "/api/events/history", http.StatusOK, defaultHistoryLimit},
		{"explicit limit", &fakeHistory{events: events}, "/api/events/history?limit=5", http.StatusOK, 5},
		{"limit capped", &fakeHistory{events: events}, "/api/events/history?limit=999999", http.StatusOK, maxHistoryLimit},
		{"invalid limit", &fakeHistory{events: events}, "/api/events/history?limit=abc", http.StatusBadRequest, 0},
		{"negative limit", &fakeHistory{events: events}, "/api/events/history?limit=-1", http.StatusBadRequest, 0},
		{"repository error", &fakeHistory{err: errors.New("disk I/O error")}, "/api/events/history", http.StatusInternalServerError, defaultHistoryLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var history HistorySource
			if tt.history != nil {
				history = tt.history
			}

			rec := doGet(t, newTestRouter(&fakePresence{}, history), tt.path)
			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			if tt.history != nil && tt.history.lastLimit != tt.wantLimit {
				t.Errorf("expected limit %d, got %d", tt.wantLimit, tt.history.lastLimit)
			}
		})
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	rec := doGet(t, newTestRouter(&fakePresence{}, nil), "/api/nodes")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestRouterEventsEndpoint(t *testing.T) {
	called := false
	events := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	})

	router := NewRouter(NewAPIHandler(&fakePresence{}, nil, zerolog.Nop()), events, zerolog.Nop())
	rec := doGet(t, router, "/events")

	if !called || rec.Code != http.StatusNoContent {
		t.Errorf("expected events handler to serve /events, got %d", rec.Code)
	}
}
