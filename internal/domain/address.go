package domain

import (
	"net"
	"sort"
	"strings"
)

// HardwareAddress identifies a network interface, usually a MAC address
type HardwareAddress string

// NormalizeAddress returns the canonical form of a hardware address.
// Values that parse as a MAC (colon, hyphen or dot notation) are rendered as
// upper-case colon-separated octets; anything else is trimmed and upper-cased.
func NormalizeAddress(raw string) HardwareAddress {
	s := strings.TrimSpace(raw)
	if mac, err := net.ParseMAC(s); err == nil {
		return HardwareAddress(strings.ToUpper(mac.String()))
	}
	return HardwareAddress(strings.ToUpper(s))
}

// String returns the address as a plain string
func (a HardwareAddress) String() string {
	return string(a)
}

// NormalizeAddresses normalizes each address, dropping blanks and duplicates.
// Order of first appearance is preserved.
func NormalizeAddresses(raw []string) []HardwareAddress {
	seen := make(map[HardwareAddress]struct{}, len(raw))
	out := make([]HardwareAddress, 0, len(raw))
	for _, r := range raw {
		addr := NormalizeAddress(r)
		if addr == "" {
			continue
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out
}

// AddressStrings converts addresses back to strings for encoding and logging
func AddressStrings(addrs []HardwareAddress) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = string(a)
	}
	return out
}

func sortAddresses(addrs []HardwareAddress) {
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
}
