package adapter

import (
	"context"
	"fmt"
	"time"

	"devicescanner/internal/domain"
)

// Scanner discovers the hardware addresses currently present in a host range
type Scanner interface {
	// Name returns the unique identifier for this scanner
	Name() string

	// Scan returns the addresses observed in hosts. It may fail transiently
	// (timeout, missing permissions, tool unavailable).
	Scan(ctx context.Context, hosts string) ([]domain.HardwareAddress, error)
}

// ScanResult is the outcome of one scan: addresses on success, the failure
// otherwise. A failed result always has no addresses.
type ScanResult struct {
	// Reported is the scanner output exactly as returned
	Reported []domain.HardwareAddress
	// Addresses is Reported canonicalized and deduplicated
	Addresses []domain.HardwareAddress
	Err       error
	Started   time.Time
	Duration  time.Duration
}

// OK returns true if the scan succeeded
func (r ScanResult) OK() bool {
	return r.Err == nil
}

// RunScan executes one scan bounded by timeout and converts every failure,
// including a panic inside the scanner, into a failed ScanResult.
// A timeout <= 0 leaves the scan unbounded apart from ctx.
func RunScan(ctx context.Context, s Scanner, hosts string, timeout time.Duration) (result ScanResult) {
	result.Started = time.Now()
	defer func() {
		if r := recover(); r != nil {
			result.Reported = nil
			result.Addresses = nil
			result.Err = fmt.Errorf("%s scanner panicked: %v", s.Name(), r)
		}
		result.Duration = time.Since(result.Started)
	}()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	addrs, err := s.Scan(ctx, hosts)
	if err != nil {
		result.Err = fmt.Errorf("%s scan of %s: %w", s.Name(), hosts, err)
		return result
	}

	result.Reported = addrs
	result.Addresses = normalize(addrs)
	return result
}

// normalize canonicalizes and deduplicates scanner output
func normalize(addrs []domain.HardwareAddress) []domain.HardwareAddress {
	raw := make([]string, len(addrs))
	for i, a := range addrs {
		raw[i] = string(a)
	}
	return domain.NormalizeAddresses(raw)
}

// StaticScanner returns a fixed result; tests use it in place of a real scan
type StaticScanner struct {
	Addresses []domain.HardwareAddress
	Err       error
}

// Name returns the scanner identifier
func (s *StaticScanner) Name() string {
	return "static"
}

// Scan returns the configured addresses or error
func (s *StaticScanner) Scan(ctx context.Context, hosts string) ([]domain.HardwareAddress, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]domain.HardwareAddress, len(s.Addresses))
	copy(out, s.Addresses)
	return out, nil
}
