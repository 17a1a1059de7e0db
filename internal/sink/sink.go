package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"devicescanner/internal/domain"
	"devicescanner/internal/logging"
)

// Sink is a persistence destination for presence snapshots
type Sink interface {
	// Name identifies the sink in logs
	Name() string

	// Write stores snap, fully replacing what the sink held before
	Write(ctx context.Context, snap domain.Snapshot) error
}

// Fanout writes each snapshot to every sink in order
type Fanout struct {
	sinks  []Sink
	logger zerolog.Logger
}

// NewFanout creates a fanout over sinks
func NewFanout(logger zerolog.Logger, sinks ...Sink) *Fanout {
	return &Fanout{
		sinks:  sinks,
		logger: logging.Component(logger, "sink"),
	}
}

// Names returns the sink names in write order
func (f *Fanout) Names() []string {
	names := make([]string, len(f.sinks))
	for i, s := range f.sinks {
		names[i] = s.Name()
	}
	return names
}

// Len returns the number of sinks
func (f *Fanout) Len() int {
	return len(f.sinks)
}

// Publish writes snap to every sink. A failing or panicking sink is logged as
// a warning and does not stop the others. The joined errors are returned.
func (f *Fanout) Publish(ctx context.Context, snap domain.Snapshot) error {
	var errs []error
	for _, s := range f.sinks {
		if err := f.write(ctx, s, snap); err != nil {
			f.logger.Warn().Err(err).Str("sink", s.Name()).Msg("could not persist snapshot")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) write(ctx context.Context, s Sink, snap domain.Snapshot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s sink panicked: %v", s.Name(), r)
		}
	}()

	if err := s.Write(ctx, snap); err != nil {
		return fmt.Errorf("%s sink: %w", s.Name(), err)
	}
	return nil
}

// Close closes every sink that holds resources
func (f *Fanout) Close() error {
	var errs []error
	for _, s := range f.sinks {
		if c, ok := s.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s sink: %w", s.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}
