// Package config loads and validates devicescanner configuration.
//
// The config file is YAML, or TOML when its name ends in .toml. Its path comes
// from $DEVICE_SCANNER_CONFIG. Loading happens once at startup; the resulting
// Config is never mutated afterwards.
//
// Errors fall in two groups:
//  1. Fatal: unreadable or malformed file, invalid intervals, invalid identity
//     mapping. LoadFromPath and Validate return these.
//  2. Recoverable: a sink enabled without its required fields. DisableIncompleteSinks
//     turns such sinks off and reports why.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"devicescanner/internal/domain"
	"devicescanner/internal/logging"
)

const (
	DefaultHosts       = "192.168.0.0/24"
	DefaultInterval    = 10
	DefaultLastSeen    = 5 * 60
	DefaultScanTimeout = 60
	DefaultRedisKey    = "DeviceScanner:People"
	DefaultHTTPAddr    = ":8080"
)

// ErrEmptyConfig is returned for a config file with no document in it
var ErrEmptyConfig = errors.New("config is empty")

// Load reads the config named by $DEVICE_SCANNER_CONFIG
func Load() (*Config, string, error) {
	path, err := PathFromEnv()
	if err != nil {
		return nil, "", err
	}

	cfg, err := LoadFromPath(path)
	return cfg, path, err
}

// LoadFromPath loads, defaults and validates config from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data, isTOML(path))
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a config document, applies defaults and validates it
func Parse(data []byte, asTOML bool) (*Config, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyConfig
	}

	var (
		cfg  Config
		keys map[string]any
	)
	if asTOML {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
		if err := toml.Unmarshal(data, &keys); err != nil {
			return nil, err
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &keys); err != nil {
			return nil, err
		}
	}

	cfg.applyDefaults(keys)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultConfig returns a config with every default applied and no sinks
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults(nil)
	return cfg
}

// applyDefaults fills in missing values with defaults. The numeric settings
// count as missing only when their key is absent or null in set, so an
// explicit 0 survives.
func (c *Config) applyDefaults(set map[string]any) {
	absent := func(key string) bool {
		v, ok := set[key]
		return !ok || v == nil
	}

	if c.People == nil {
		c.People = make(map[string][]string)
	}
	if strings.TrimSpace(c.Hosts) == "" {
		c.Hosts = DefaultHosts
	}
	if absent("interval") {
		c.Interval = DefaultInterval
	}
	if absent("last_seen") {
		c.LastSeen = DefaultLastSeen
	}
	if absent("scan_timeout") {
		c.ScanTimeout = DefaultScanTimeout
	}
	if c.ScanMethod == "" {
		c.ScanMethod = ScanMethodNmap
	}
	if c.RedisKey == "" {
		c.RedisKey = DefaultRedisKey
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = DefaultHTTPAddr
	}
}

// Validate returns the first fatal problem with the config
func (c *Config) Validate() error {
	if c.Interval < 0 {
		return fmt.Errorf("interval must not be negative, got %d", c.Interval)
	}
	if c.LastSeen < 0 {
		return fmt.Errorf("last_seen must not be negative, got %d", c.LastSeen)
	}
	if c.ScanTimeout < 0 {
		return fmt.Errorf("scan_timeout must not be negative, got %d", c.ScanTimeout)
	}
	if !c.ScanMethod.Valid() {
		return fmt.Errorf("unknown scan_method %q", c.ScanMethod)
	}
	if c.ScanMethod == ScanMethodARP {
		if _, err := netip.ParsePrefix(c.Hosts); err != nil {
			return fmt.Errorf("scan_method arp requires hosts in CIDR form: %w", err)
		}
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := c.Mapping(); err != nil {
		return err
	}
	return nil
}

// Mapping builds the identity mapping from People. Addresses listed under two
// identities are an error unless AllowDuplicateAddresses is set.
func (c *Config) Mapping() (*domain.IdentityMapping, error) {
	m, err := domain.NewIdentityMapping(c.People)
	if err != nil {
		return nil, fmt.Errorf("people: %w", err)
	}

	if conflicts := m.Conflicts(); len(conflicts) > 0 && !c.AllowDuplicateAddresses {
		errs := make([]error, len(conflicts))
		for i, conflict := range conflicts {
			errs[i] = conflict
		}
		return nil, fmt.Errorf("people: %w (set allow_duplicate_addresses to accept)", errors.Join(errs...))
	}
	return m, nil
}

// DisableIncompleteSinks turns off every enabled sink that lacks a required
// field and returns one error per disabled sink.
func (c *Config) DisableIncompleteSinks() []error {
	var problems []error

	if c.RedisEnable && (strings.TrimSpace(c.RedisHost) == "" || c.RedisPort <= 0) {
		problems = append(problems, errors.New("redis_host or redis_port are not set, redis disabled"))
		c.RedisEnable = false
	}
	if c.FileEnable && strings.TrimSpace(c.FilePath) == "" {
		problems = append(problems, errors.New("file_path is not set, file output disabled"))
		c.FileEnable = false
	}
	if c.LogEnable && strings.TrimSpace(c.LogPath) == "" {
		problems = append(problems, errors.New("log_path is not set, address log disabled"))
		c.LogEnable = false
	}
	if c.SQLiteEnable && strings.TrimSpace(c.SQLitePath) == "" {
		problems = append(problems, errors.New("sqlite_path is not set, sqlite history disabled"))
		c.SQLiteEnable = false
	}

	return problems
}

// EnabledSinks returns the names of enabled persistence targets
func (c *Config) EnabledSinks() []string {
	var sinks []string
	if c.RedisEnable {
		sinks = append(sinks, "redis")
	}
	if c.FileEnable {
		sinks = append(sinks, "file")
	}
	if c.LogEnable {
		sinks = append(sinks, "audit")
	}
	if c.SQLiteEnable {
		sinks = append(sinks, "sqlite")
	}
	return sinks
}

// RedisAddr returns host:port for the redis sink
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	sinks := c.EnabledSinks()
	if len(sinks) == 0 {
		sinks = []string{"none"}
	}

	summary := fmt.Sprintf("Hosts: %s, Method: %s\n", c.Hosts, c.ScanMethod)
	summary += fmt.Sprintf("Interval: %s, Retention: %s, Scan timeout: %s\n",
		c.PollInterval(), c.Retention(), c.ScanTimeoutDuration())
	summary += fmt.Sprintf("People: %d, Sinks: %s", len(c.People), strings.Join(sinks, ", "))
	if c.HTTPEnable {
		summary += fmt.Sprintf("\nStatus API: %s", c.HTTPAddr)
	}
	return summary
}
