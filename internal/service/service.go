package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"devicescanner/internal/adapter"
	"devicescanner/internal/domain"
	"devicescanner/internal/logging"
	"devicescanner/internal/presence"
	"devicescanner/internal/sink"
)

// Options holds the scheduler's timing and scan target
type Options struct {
	Hosts       string
	Interval    time.Duration
	Retention   time.Duration
	ScanTimeout time.Duration
}

// CycleReport summarizes one completed cycle
type CycleReport struct {
	Number     uint64                   `json:"number"`
	Started    time.Time                `json:"started"`
	Duration   time.Duration            `json:"duration_ns"`
	Scanner    string                   `json:"scanner"`
	ScanError  string                   `json:"scan_error,omitempty"`
	Raw        int                      `json:"raw"`
	Identities []domain.Identity        `json:"identities"`
	Unknown    []domain.HardwareAddress `json:"unknown"`
	Present    int                      `json:"present"`
	Arrived    []domain.Identity        `json:"arrived,omitempty"`
	Departed   []domain.Identity        `json:"departed,omitempty"`
	SinkError  string                   `json:"sink_error,omitempty"`
}

// PresenceChange is the payload of arrival and departure events
type PresenceChange struct {
	Identity domain.Identity `json:"identity"`
	At       time.Time       `json:"at"`
}

// Scheduler runs the scan, resolve, update and persist cycle
type Scheduler struct {
	opts     Options
	mapping  *domain.IdentityMapping
	registry *presence.Registry
	scanner  adapter.Scanner
	fanout   *sink.Fanout
	audit    *sink.AuditLog
	clock    presence.Clock
	eventBus *EventBus
	logger   zerolog.Logger

	mu     sync.RWMutex
	cycles uint64
	last   *CycleReport
}

// SchedulerOption configures optional scheduler collaborators
type SchedulerOption func(*Scheduler)

// WithAuditLog appends every scan's raw addresses to log
func WithAuditLog(log *sink.AuditLog) SchedulerOption {
	return func(s *Scheduler) {
		s.audit = log
	}
}

// WithClock replaces the system clock
func WithClock(clock presence.Clock) SchedulerOption {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

// WithEventBus publishes arrivals, departures and cycle reports to bus
func WithEventBus(bus *EventBus) SchedulerOption {
	return func(s *Scheduler) {
		s.eventBus = bus
	}
}

// NewScheduler creates a scheduler with an empty registry
func NewScheduler(opts Options, mapping *domain.IdentityMapping, scanner adapter.Scanner, fanout *sink.Fanout, logger zerolog.Logger, options ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		opts:     opts,
		mapping:  mapping,
		registry: presence.NewRegistry(),
		scanner:  scanner,
		fanout:   fanout,
		clock:    presence.SystemClock{},
		logger:   logging.Component(logger, "scheduler"),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.fanout == nil {
		s.fanout = sink.NewFanout(logger)
	}
	return s
}

// Registry returns the presence registry; it is safe for concurrent reads
func (s *Scheduler) Registry() *presence.Registry {
	return s.registry
}

// Presence returns the current presence set
func (s *Scheduler) Presence() domain.Snapshot {
	return domain.Snapshot{
		Taken:   s.clock.Now(),
		Present: s.registry.Entries(),
	}
}

// LastCycle returns the report of the most recent cycle
func (s *Scheduler) LastCycle() (CycleReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return CycleReport{}, false
	}
	return *s.last, true
}

// Run executes cycles until ctx is done, sleeping for the poll interval after
// each one. Cycles never overlap.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info().
		Str("hosts", s.opts.Hosts).
		Str("scanner", s.scanner.Name()).
		Dur("interval", s.opts.Interval).
		Dur("retention", s.opts.Retention).
		Strs("sinks", s.fanout.Names()).
		Msg("Start scanning")

	for {
		s.RunCycle(ctx)

		timer := time.NewTimer(s.opts.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info().Msg("scheduler stopped")
			return nil
		case <-timer.C:
		}
	}
}

// RunCycle performs a single cycle: scan, audit, resolve, touch then evict,
// persist. A panic anywhere in the cycle is logged and the cycle abandoned;
// the registry keeps whatever state it had reached. A cycle whose ctx ends
// during the scan stops there and leaves no trace in any sink.
func (s *Scheduler) RunCycle(ctx context.Context) (report CycleReport) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("cycle aborted")
			report.SinkError = fmt.Sprintf("cycle panicked: %v", r)
		}
	}()

	result := adapter.RunScan(ctx, s.scanner, s.opts.Hosts, s.opts.ScanTimeout)
	if err := ctx.Err(); err != nil {
		s.logger.Info().Dur("took", time.Since(result.Started)).Msg("cycle interrupted during scan")
		return CycleReport{
			Started:   result.Started,
			Scanner:   s.scanner.Name(),
			ScanError: err.Error(),
		}
	}
	now := s.clock.Now()

	obs := domain.NewObservation(now, result.Addresses, s.mapping)
	obs.Reported = result.Reported
	if !result.OK() {
		obs.ScanErr = result.Err
		s.logger.Warn().Err(result.Err).Dur("took", result.Duration).Msg("scan failed, treating as empty observation")
	}

	if s.audit != nil {
		if err := s.audit.Append(obs); err != nil {
			s.logger.Warn().Err(err).Str("path", s.audit.Path()).Msg("could not append audit log")
		}
	}

	snap := s.registry.Update(obs.Identities, now, s.opts.Retention)

	report = CycleReport{
		Started:    result.Started,
		Scanner:    s.scanner.Name(),
		Raw:        len(obs.Raw),
		Identities: obs.Identities,
		Unknown:    obs.Unknown,
		Present:    len(snap.Present),
		Arrived:    snap.Arrived,
		Departed:   snap.Departed,
	}
	if obs.Failed() {
		report.ScanError = obs.ScanErr.Error()
	}

	s.logger.Info().
		Strs("identities", domain.IdentityStrings(obs.Identities)).
		Strs("unknown", domain.AddressStrings(obs.Unknown)).
		Int("present", len(snap.Present)).
		Msg("cycle observed")

	for _, id := range snap.Arrived {
		s.logger.Info().Str("identity", string(id)).Msg("arrived")
	}
	for _, id := range snap.Departed {
		s.logger.Info().Str("identity", string(id)).Msg("departed")
	}

	if err := s.fanout.Publish(ctx, snap); err != nil {
		report.SinkError = err.Error()
	}

	report.Duration = time.Since(result.Started)
	s.finish(&report)
	s.publish(snap, report)
	return report
}

func (s *Scheduler) finish(report *CycleReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycles++
	report.Number = s.cycles
	stored := *report
	s.last = &stored
}

func (s *Scheduler) publish(snap domain.Snapshot, report CycleReport) {
	if s.eventBus == nil {
		return
	}
	for _, id := range snap.Arrived {
		s.eventBus.Publish(Event{Type: EventPresenceArrived, Payload: PresenceChange{Identity: id, At: snap.Taken}})
	}
	for _, id := range snap.Departed {
		s.eventBus.Publish(Event{Type: EventPresenceDeparted, Payload: PresenceChange{Identity: id, At: snap.Taken}})
	}
	s.eventBus.Publish(Event{Type: EventCycleCompleted, Payload: report})
}
