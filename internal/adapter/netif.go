package adapter

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"
)

// ErrNoInterface is returned when no usable LAN interface is found
var ErrNoInterface = errors.New("no usable IPv4 interface found")

// LANInterface is an up, non-loopback interface with an IPv4 address
type LANInterface struct {
	Name     string
	Addr     netip.Addr
	Prefix   netip.Prefix
	Hardware string
	Private  bool
}

// DetectInterfaces lists the interfaces an ARP sweep could use
func DetectInterfaces() ([]LANInterface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}
	return lanInterfaces(ifaces, func(iface net.Interface) ([]net.Addr, error) {
		return iface.Addrs()
	}), nil
}

func lanInterfaces(ifaces []net.Interface, addrsOf func(net.Interface) ([]net.Addr, error)) []LANInterface {
	var out []LANInterface
	for _, iface := range ifaces {
		// Skip loopback and down interfaces
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		if isContainerInterface(iface.Name) {
			continue
		}

		addrs, err := addrsOf(iface)
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok || ipnet.IP.To4() == nil {
				continue
			}
			ip := netip.AddrFrom4([4]byte(ipnet.IP.To4()))
			ones, _ := ipnet.Mask.Size()

			out = append(out, LANInterface{
				Name:     iface.Name,
				Addr:     ip,
				Prefix:   netip.PrefixFrom(ip, ones).Masked(),
				Hardware: iface.HardwareAddr.String(),
				Private:  ip.IsPrivate(),
			})
		}
	}
	return out
}

// Virtual interfaces commonly used by containers
func isContainerInterface(name string) bool {
	for _, prefix := range []string{"veth", "docker", "br-", "cni", "flannel"} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// SelectInterface picks the interface whose subnet overlaps the hosts range.
// Without an overlap it falls back to the first private interface.
func SelectInterface(candidates []LANInterface, hosts string) (LANInterface, error) {
	target, err := netip.ParsePrefix(hosts)
	if err != nil {
		return LANInterface{}, fmt.Errorf("invalid CIDR %s: %w", hosts, err)
	}

	for _, c := range candidates {
		if c.Prefix.Overlaps(target) {
			return c, nil
		}
	}
	for _, c := range candidates {
		if c.Private {
			return c, nil
		}
	}
	return LANInterface{}, ErrNoInterface
}
