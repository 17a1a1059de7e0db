package adapter

import (
	"context"
	"fmt"
	"strings"

	nmap "github.com/Ullaakut/nmap/v3"
	"github.com/rs/zerolog"

	"devicescanner/internal/domain"
	"devicescanner/internal/logging"
)

// NmapScanner discovers hosts with an nmap ping scan and reports their MACs
type NmapScanner struct {
	binaryPath     string
	maxParallelism int
	logger         zerolog.Logger
}

// NewNmapScanner creates a new nmap-based scanner
func NewNmapScanner(logger zerolog.Logger, opts ...NmapOption) *NmapScanner {
	scanner := &NmapScanner{
		maxParallelism: 100,
		logger:         logging.Component(logger, "nmap"),
	}

	// Apply options
	for _, opt := range opts {
		opt(scanner)
	}

	return scanner
}

// Name returns the scanner identifier
func (n *NmapScanner) Name() string {
	return "nmap"
}

// Scan runs `nmap -sn --max-parallelism N hosts` and returns the MAC
// addresses of hosts reported up
func (n *NmapScanner) Scan(ctx context.Context, hosts string) ([]domain.HardwareAddress, error) {
	targets := strings.Fields(hosts)
	if len(targets) == 0 {
		return nil, fmt.Errorf("no hosts to scan")
	}

	scanner, err := nmap.NewScanner(ctx, n.options(targets)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	result, warnings, err := scanner.Run()
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	if warnings != nil && len(*warnings) > 0 {
		n.logger.Debug().Strs("warnings", *warnings).Msg("nmap reported warnings")
	}

	return addressesFromRun(result)
}

// Available checks if the nmap binary can be executed
func (n *NmapScanner) Available(ctx context.Context) bool {
	opts := []nmap.Option{
		nmap.WithTargets("localhost"),
		nmap.WithListScan(),
	}
	if n.binaryPath != "" {
		opts = append(opts, nmap.WithBinaryPath(n.binaryPath))
	}

	scanner, err := nmap.NewScanner(ctx, opts...)
	if err != nil {
		return false
	}

	_, _, err = scanner.Run()
	return err == nil
}

// options builds the nmap arguments for a ping scan of targets
func (n *NmapScanner) options(targets []string) []nmap.Option {
	opts := []nmap.Option{
		nmap.WithTargets(targets...),
		nmap.WithPingScan(),
	}
	if n.maxParallelism > 0 {
		opts = append(opts, nmap.WithMaxParallelism(n.maxParallelism))
	}
	if n.binaryPath != "" {
		opts = append(opts, nmap.WithBinaryPath(n.binaryPath))
	}
	return opts
}

// addressesFromRun collects MAC addresses of hosts that are up, as nmap
// printed them
func addressesFromRun(result *nmap.Run) ([]domain.HardwareAddress, error) {
	if result == nil {
		return nil, fmt.Errorf("nil scan result")
	}

	var raw []domain.HardwareAddress
	for _, host := range result.Hosts {
		if host.Status.State != "up" {
			continue
		}
		for _, addr := range host.Addresses {
			if addr.AddrType == "mac" && addr.Addr != "" {
				raw = append(raw, domain.HardwareAddress(addr.Addr))
			}
		}
	}

	return raw, nil
}
