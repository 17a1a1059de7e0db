package main

import (
	"context"

	"github.com/rs/zerolog"

	"devicescanner/internal/adapter"
	"devicescanner/internal/adapter/arp"
	"devicescanner/internal/config"
	"devicescanner/internal/repository/sqlite"
	"devicescanner/internal/sink"
)

// sinkSet is every persistence target built from config
type sinkSet struct {
	fanout  *sink.Fanout
	audit   *sink.AuditLog
	history *sqlite.Repository
}

// buildScanner returns the scanner selected by scan_method and logs what is
// likely to go wrong with it. Problems here are warnings: a scan that fails
// later is treated as an empty observation.
func buildScanner(ctx context.Context, cfg *config.Config, logger zerolog.Logger) adapter.Scanner {
	if err := adapter.CheckPrivileges(adapter.DetectPrivileges()); err != nil {
		logger.Warn().Err(err).Msg("privilege check")
	}

	switch cfg.ScanMethod {
	case config.ScanMethodARP:
		iface := cfg.Interface
		if iface == "" {
			iface = detectInterface(cfg.Hosts, logger)
		}
		return arp.New(iface, arp.Config{}, logger)
	default:
		var opts []adapter.NmapOption
		if cfg.NmapPath != "" {
			opts = append(opts, adapter.WithBinaryPath(cfg.NmapPath))
		}
		scanner := adapter.NewNmapScanner(logger, opts...)
		if !scanner.Available(ctx) {
			logger.Warn().Msg("nmap is not available; scans will fail until it is installed")
		}
		return scanner
	}
}

// detectInterface picks the LAN interface facing hosts. An empty name makes
// every ARP scan fail, which the scheduler logs each cycle.
func detectInterface(hosts string, logger zerolog.Logger) string {
	candidates, err := adapter.DetectInterfaces()
	if err == nil {
		var iface adapter.LANInterface
		if iface, err = adapter.SelectInterface(candidates, hosts); err == nil {
			logger.Info().Str("interface", iface.Name).Str("subnet", iface.Prefix.String()).Msg("interface detected")
			return iface.Name
		}
	}
	logger.Warn().Err(err).Msg("could not detect an interface for the ARP sweep; set interface")
	return ""
}

// buildSinks creates the enabled sinks in a fixed order: redis, file, sqlite.
// A history database that cannot be opened disables that sink with an error
// log, the same as a sink with missing settings.
func buildSinks(cfg *config.Config, logger zerolog.Logger) *sinkSet {
	set := &sinkSet{}
	var sinks []sink.Sink

	if cfg.RedisEnable {
		sinks = append(sinks, sink.NewRedisSink(sink.RedisOptions{
			Addr:     cfg.RedisAddr(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.RedisKey,
		}))
	}
	if cfg.FileEnable {
		sinks = append(sinks, sink.NewFileSink(cfg.FilePath))
	}
	if cfg.SQLiteEnable {
		repo, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			logger.Error().Err(err).Str("path", cfg.SQLitePath).Msg("sqlite history disabled")
			cfg.SQLiteEnable = false
		} else {
			set.history = repo
			sinks = append(sinks, sink.NewHistorySink(repo))
		}
	}
	if cfg.LogEnable {
		set.audit = sink.NewAuditLog(cfg.LogPath)
	}

	set.fanout = sink.NewFanout(logger, sinks...)
	return set
}

// disableAllSinks turns off every persistence target
func disableAllSinks(cfg *config.Config) {
	cfg.RedisEnable = false
	cfg.FileEnable = false
	cfg.LogEnable = false
	cfg.SQLiteEnable = false
}
