package main

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"devicescanner/internal/config"
)

func TestBuildSinks(t *testing.T) {
	dir := t.TempDir()

	t.Run("enabled sinks in order", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.RedisEnable = true
		cfg.RedisHost = "127.0.0.1"
		cfg.RedisPort = 6379
		cfg.FileEnable = true
		cfg.FilePath = filepath.Join(dir, "people.txt")
		cfg.SQLiteEnable = true
		cfg.SQLitePath = filepath.Join(dir, "history.db")
		cfg.LogEnable = true
		cfg.LogPath = filepath.Join(dir, "addresses.log")

		set := buildSinks(cfg, zerolog.Nop())
		defer set.fanout.Close()

		if !reflect.DeepEqual(set.fanout.Names(), []string{"redis", "file", "sqlite"}) {
			t.Errorf("unexpected sinks %v", set.fanout.Names())
		}
		if set.audit == nil || set.history == nil {
			t.Error("expected audit log and history repository")
		}
	})

	t.Run("unopenable history database is disabled", func(t *testing.T) {
		blocker := filepath.Join(dir, "blocker")
		if err := os.WriteFile(blocker, nil, 0o644); err != nil {
			t.Fatalf("failed to create blocker: %v", err)
		}

		cfg := config.DefaultConfig()
		cfg.SQLiteEnable = true
		cfg.SQLitePath = filepath.Join(blocker, "history.db")

		set := buildSinks(cfg, zerolog.Nop())
		defer set.fanout.Close()

		if set.history != nil || set.fanout.Len() != 0 {
			t.Error("expected sqlite sink to be disabled")
		}
		if cfg.SQLiteEnable {
			t.Error("expected sqlite_enable to be cleared")
		}
	})
}

func TestDisableAllSinks(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.RedisEnable = true
	cfg.FileEnable = true
	cfg.LogEnable = true
	cfg.SQLiteEnable = true

	disableAllSinks(cfg)

	if len(cfg.EnabledSinks()) != 0 {
		t.Errorf("expected no sinks, got %v", cfg.EnabledSinks())
	}
}

// A single cycle with a scanner that cannot start still writes the file sink
// and the audit log
func TestRunOnceWithFailingScan(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.People = map[string][]string{"alice": {"AA:BB:CC:DD:EE:01"}}
	cfg.ScanMethod = config.ScanMethodARP
	cfg.Interface = "devicescanner-test0"
	cfg.Hosts = "10.99.0.0/30"
	cfg.FileEnable = true
	cfg.FilePath = filepath.Join(dir, "people.txt")
	cfg.LogEnable = true
	cfg.LogPath = filepath.Join(dir, "addresses.log")

	if err := run(context.Background(), cfg, flags{once: true}, zerolog.Nop()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(cfg.FilePath)
	if err != nil {
		t.Fatalf("file sink not written: %v", err)
	}
	if string(data) != "\n" {
		t.Errorf("expected empty presence file, got %q", string(data))
	}

	audit, err := os.ReadFile(cfg.LogPath)
	if err != nil {
		t.Fatalf("audit log not written: %v", err)
	}
	if !strings.HasSuffix(string(audit), ";\n") {
		t.Errorf("expected empty audit line, got %q", string(audit))
	}
}

func TestRunOnceDryRun(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.ScanMethod = config.ScanMethodARP
	cfg.Interface = "devicescanner-test0"
	cfg.Hosts = "10.99.0.0/30"
	cfg.FileEnable = true
	cfg.FilePath = filepath.Join(dir, "people.txt")

	if err := run(context.Background(), cfg, flags{once: true, dryRun: true}, zerolog.Nop()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(cfg.FilePath); !os.IsNotExist(err) {
		t.Error("dry run must not write the file sink")
	}
}
