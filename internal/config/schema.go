package config

import "time"

// Config is the root configuration document. Durations are whole seconds. An
// explicit 0 is kept: interval 0 rescans without pausing, last_seen 0 keeps
// only identities seen in the latest cycle, scan_timeout 0 leaves scans
// unbounded.
type Config struct {
	// People maps an identity to the hardware addresses it owns
	People map[string][]string `yaml:"people" toml:"people"`

	Hosts       string     `yaml:"hosts" toml:"hosts"`
	Interval    int        `yaml:"interval" toml:"interval"`
	LastSeen    int        `yaml:"last_seen" toml:"last_seen"`
	ScanTimeout int        `yaml:"scan_timeout" toml:"scan_timeout"`
	ScanMethod  ScanMethod `yaml:"scan_method" toml:"scan_method"`
	Interface   string     `yaml:"interface" toml:"interface"` // arp only, detected when empty
	NmapPath    string     `yaml:"nmap_path" toml:"nmap_path"`

	AllowDuplicateAddresses bool   `yaml:"allow_duplicate_addresses" toml:"allow_duplicate_addresses"`
	LogLevel                string `yaml:"log_level" toml:"log_level"`

	RedisEnable   bool   `yaml:"redis_enable" toml:"redis_enable"`
	RedisHost     string `yaml:"redis_host" toml:"redis_host"`
	RedisPort     int    `yaml:"redis_port" toml:"redis_port"`
	RedisPassword string `yaml:"redis_password" toml:"redis_password"`
	RedisDB       int    `yaml:"redis_db" toml:"redis_db"`
	RedisKey      string `yaml:"redis_key" toml:"redis_key"`

	FileEnable bool   `yaml:"file_enable" toml:"file_enable"`
	FilePath   string `yaml:"file_path" toml:"file_path"`

	// Audit log of raw addresses per cycle
	LogEnable bool   `yaml:"log_enable" toml:"log_enable"`
	LogPath   string `yaml:"log_path" toml:"log_path"`

	SQLiteEnable bool   `yaml:"sqlite_enable" toml:"sqlite_enable"`
	SQLitePath   string `yaml:"sqlite_path" toml:"sqlite_path"`

	HTTPEnable bool   `yaml:"http_enable" toml:"http_enable"`
	HTTPAddr   string `yaml:"http_addr" toml:"http_addr"`
}

// ScanMethod selects the discovery backend
type ScanMethod string

const (
	ScanMethodNmap ScanMethod = "nmap" // nmap ping scan
	ScanMethodARP  ScanMethod = "arp"  // raw ARP sweep via pcap
)

// Valid returns true for known scan methods
func (m ScanMethod) Valid() bool {
	return m == ScanMethodNmap || m == ScanMethodARP
}

// PollInterval returns the sleep between cycles
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

// Retention returns how long an unseen identity stays present
func (c *Config) Retention() time.Duration {
	return time.Duration(c.LastSeen) * time.Second
}

// ScanTimeoutDuration returns the bound on a single scan
func (c *Config) ScanTimeoutDuration() time.Duration {
	return time.Duration(c.ScanTimeout) * time.Second
}
