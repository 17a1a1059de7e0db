package arp

import (
	"context"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/rs/zerolog"
)

func TestExpandPrefix(t *testing.T) {
	tests := []struct {
		name      string
		cidr      string
		max       int
		wantCount int
		wantFirst string
		wantErr   bool
	}{
		{"slash 24 skips network and broadcast", "192.168.0.0/24", 4096, 254, "192.168.0.1", false},
		{"unmasked prefix", "192.168.0.77/30", 4096, 2, "192.168.0.77", false},
		{"slash 31 keeps both", "10.0.0.0/31", 4096, 2, "10.0.0.0", false},
		{"single host", "10.0.0.5/32", 4096, 1, "10.0.0.5", false},
		{"too large", "10.0.0.0/16", 4096, 0, "", true},
		{"ipv6 rejected", "fe80::/64", 4096, 0, "", true},
		{"not a cidr", "192.168.0.1-20", 4096, 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addrs, err := expandPrefix(tt.cidr, tt.max)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expandPrefix(%s) error = %v, wantErr %v", tt.cidr, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(addrs) != tt.wantCount {
				t.Errorf("expected %d addresses, got %d", tt.wantCount, len(addrs))
			}
			if addrs[0].String() != tt.wantFirst {
				t.Errorf("expected first address %s, got %s", tt.wantFirst, addrs[0])
			}
		})
	}
}

func buildARPPacket(t *testing.T, op uint16, srcMAC net.HardwareAddr, srcIP string) gopacket.Packet {
	t.Helper()

	ip := netip.MustParseAddr(srcIP).As4()
	eth := layers.Ethernet{
		SrcMAC:       srcMAC,
		DstMAC:       net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		EthernetType: layers.EthernetTypeARP,
	}
	reply := layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         op,
		SourceHwAddress:   []byte(srcMAC),
		SourceProtAddress: ip[:],
		DstHwAddress:      []byte{0, 0, 0, 0, 0, 0},
		DstProtAddress:    []byte{192, 168, 0, 2},
	}

	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{FixLengths: true}, &eth, &reply); err != nil {
		t.Fatalf("failed to serialize packet: %v", err)
	}
	return gopacket.NewPacket(buf.Bytes(), layers.LayerTypeEthernet, gopacket.Default)
}

func TestARPReplySource(t *testing.T) {
	prefix := netip.MustParsePrefix("192.168.0.0/24")
	local := netip.MustParseAddr("192.168.0.2")
	mac := net.HardwareAddr{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}

	tests := []struct {
		name   string
		op     uint16
		srcIP  string
		wantOK bool
	}{
		{"reply from subnet", layers.ARPReply, "192.168.0.10", true},
		{"request is ignored", layers.ARPRequest, "192.168.0.10", false},
		{"reply from outside range", layers.ARPReply, "10.0.0.10", false},
		{"reply from ourselves", layers.ARPReply, "192.168.0.2", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packet := buildARPPacket(t, tt.op, mac, tt.srcIP)
			got, ok := arpReplySource(packet, prefix, local)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if ok && got != "aa:bb:cc:dd:ee:ff" {
				t.Errorf("expected aa:bb:cc:dd:ee:ff, got %s", got)
			}
		})
	}
}

func TestNewDefaults(t *testing.T) {
	s := New("eth0", Config{}, zerolog.Nop())
	if s.Name() != "arp" {
		t.Errorf("expected name 'arp', got %s", s.Name())
	}
	if s.config.RateLimit != 50*time.Microsecond {
		t.Errorf("expected default rate limit, got %v", s.config.RateLimit)
	}
	if s.config.IdleWait != 500*time.Millisecond {
		t.Errorf("expected default idle wait, got %v", s.config.IdleWait)
	}
	if s.config.MaxHosts != 4096 {
		t.Errorf("expected default max hosts, got %d", s.config.MaxHosts)
	}
}

func TestScanFailsWithoutInterface(t *testing.T) {
	s := New("devicescanner-none0", Config{IdleWait: time.Millisecond}, zerolog.Nop())

	if _, err := s.Scan(context.Background(), "10.99.0.0/30"); err == nil {
		t.Error("expected error for missing interface")
	}
	if _, err := s.Scan(context.Background(), "10.99.0.1-3"); err == nil {
		t.Error("expected error for non-CIDR hosts")
	}
}
