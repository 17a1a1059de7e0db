package adapter

import (
	"reflect"
	"testing"

	nmap "github.com/Ullaakut/nmap/v3"
	"github.com/rs/zerolog"

	"devicescanner/internal/domain"
)

// TestNmapScanner_Options tests option functions
func TestNmapScanner_Options(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		scanner := NewNmapScanner(zerolog.Nop())
		if scanner.maxParallelism != 100 {
			t.Errorf("expected max parallelism 100, got %d", scanner.maxParallelism)
		}
		if scanner.binaryPath != "" {
			t.Errorf("expected empty binary path, got %s", scanner.binaryPath)
		}
	})

	t.Run("WithBinaryPath", func(t *testing.T) {
		scanner := NewNmapScanner(zerolog.Nop(), WithBinaryPath("/usr/local/bin/nmap"))
		if scanner.binaryPath != "/usr/local/bin/nmap" {
			t.Errorf("expected binary path /usr/local/bin/nmap, got %s", scanner.binaryPath)
		}
	})

	t.Run("WithMaxParallelism", func(t *testing.T) {
		scanner := NewNmapScanner(zerolog.Nop(), WithMaxParallelism(20))
		if scanner.maxParallelism != 20 {
			t.Errorf("expected max parallelism 20, got %d", scanner.maxParallelism)
		}
	})
}

// TestNmapScanner_Interface tests scanner interface implementation
func TestNmapScanner_Interface(t *testing.T) {
	var scanner Scanner = NewNmapScanner(zerolog.Nop())

	if scanner.Name() != "nmap" {
		t.Errorf("expected name 'nmap', got %s", scanner.Name())
	}
}

func TestNmapScanner_BuildOptions(t *testing.T) {
	tests := []struct {
		name      string
		opts      []NmapOption
		wantCount int
	}{
		{"targets, ping scan and parallelism", nil, 3},
		{"with binary path", []NmapOption{WithBinaryPath("/opt/nmap")}, 4},
		{"parallelism disabled", []NmapOption{WithMaxParallelism(0)}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scanner := NewNmapScanner(zerolog.Nop(), tt.opts...)
			if got := len(scanner.options([]string{"192.168.0.0/24"})); got != tt.wantCount {
				t.Errorf("expected %d options, got %d", tt.wantCount, got)
			}
		})
	}
}

// TestNmapScanner_ParseResults tests parsing of mock nmap results
func TestNmapScanner_ParseResults(t *testing.T) {
	mockResult := &nmap.Run{
		Hosts: []nmap.Host{
			{
				Addresses: []nmap.Address{
					{Addr: "192.168.0.10", AddrType: "ipv4"},
					{Addr: "aa:bb:cc:dd:ee:ff", AddrType: "mac", Vendor: "Test Vendor"},
				},
				Status: nmap.Status{State: "up"},
			},
			{
				// Host without MAC (e.g. the scanning machine itself)
				Addresses: []nmap.Address{
					{Addr: "192.168.0.2", AddrType: "ipv4"},
				},
				Status: nmap.Status{State: "up"},
			},
			{
				Addresses: []nmap.Address{
					{Addr: "192.168.0.11", AddrType: "ipv4"},
					{Addr: "11:22:33:44:55:66", AddrType: "mac"},
				},
				Status: nmap.Status{State: "down"},
			},
			{
				Addresses: []nmap.Address{
					{Addr: "192.168.0.12", AddrType: "ipv4"},
					{Addr: "AA:BB:CC:DD:EE:FF", AddrType: "mac"},
				},
				Status: nmap.Status{State: "up"},
			},
			{
				Addresses: []nmap.Address{
					{Addr: "192.168.0.13", AddrType: "ipv4"},
					{Addr: "00:11:22:33:44:55", AddrType: "mac"},
				},
				Status: nmap.Status{State: "up"},
			},
		},
	}

	addrs, err := addressesFromRun(mockResult)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []domain.HardwareAddress{"aa:bb:cc:dd:ee:ff", "AA:BB:CC:DD:EE:FF", "00:11:22:33:44:55"}
	if !reflect.DeepEqual(addrs, want) {
		t.Errorf("expected %v, got %v", want, addrs)
	}
}

func TestNmapScanner_ParseNilResult(t *testing.T) {
	if _, err := addressesFromRun(nil); err == nil {
		t.Error("expected error for nil result")
	}
}
