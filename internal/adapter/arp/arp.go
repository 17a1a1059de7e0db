// Package arp implements a hardware address scanner that broadcasts ARP
// requests over pcap. It is the only package that needs cgo and libpcap.
package arp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"github.com/rs/zerolog"

	"devicescanner/internal/domain"
	"devicescanner/internal/logging"
)

// Config controls the ARP sweep
type Config struct {
	// RateLimit is the delay between ARP requests. Defaults to 50µs.
	RateLimit time.Duration
	// IdleWait is how long to wait for late replies after the last request.
	// Defaults to 500ms.
	IdleWait time.Duration
	// MaxHosts caps how many addresses are swept. Defaults to 4096.
	MaxHosts int
}

func (c Config) withDefaults() Config {
	if c.RateLimit <= 0 {
		c.RateLimit = 50 * time.Microsecond
	}
	if c.IdleWait <= 0 {
		c.IdleWait = 500 * time.Millisecond
	}
	if c.MaxHosts <= 0 {
		c.MaxHosts = 4096
	}
	return c
}

// Scanner discovers hosts by broadcasting ARP requests on one interface
type Scanner struct {
	iface  string
	config Config
	logger zerolog.Logger
}

// New creates a scanner bound to the named interface
func New(iface string, config Config, logger zerolog.Logger) *Scanner {
	return &Scanner{
		iface:  iface,
		config: config.withDefaults(),
		logger: logging.Component(logger, "arp").With().Str("interface", iface).Logger(),
	}
}

// Name returns the scanner identifier
func (s *Scanner) Name() string {
	return "arp"
}

// Scan sends an ARP request to every host address in the CIDR range and
// returns the hardware addresses that replied, in reply order
func (s *Scanner) Scan(ctx context.Context, hosts string) ([]domain.HardwareAddress, error) {
	targets, err := expandPrefix(hosts, s.config.MaxHosts)
	if err != nil {
		return nil, err
	}
	prefix, _ := netip.ParsePrefix(hosts)

	iface, err := net.InterfaceByName(s.iface)
	if err != nil {
		return nil, fmt.Errorf("could not get interface: %w", err)
	}

	localIP, err := interfaceIPv4(iface)
	if err != nil {
		return nil, err
	}

	handle, err := pcap.OpenLive(s.iface, 65536, false, pcap.BlockForever)
	if err != nil {
		return nil, fmt.Errorf("could not open handle: %w", err)
	}
	defer handle.Close()

	if err := handle.SetBPFFilter("arp"); err != nil {
		return nil, fmt.Errorf("could not set BPF filter: %w", err)
	}

	var (
		mu   sync.Mutex
		seen = make(map[string]struct{})
		raw  []string
		done = make(chan struct{})
		wg   sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		src := gopacket.NewPacketSource(handle, layers.LayerTypeEthernet)
		in := src.Packets()

		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case packet, ok := <-in:
				if !ok {
					return
				}
				mac, ok := arpReplySource(packet, prefix, localIP)
				if !ok {
					continue
				}
				mu.Lock()
				if _, dup := seen[mac]; !dup {
					seen[mac] = struct{}{}
					raw = append(raw, mac)
				}
				mu.Unlock()
			}
		}
	}()

	ticker := time.NewTicker(s.config.RateLimit)
	defer ticker.Stop()

	var sendErrs int
	for _, target := range targets {
		if target == localIP {
			continue
		}

		select {
		case <-ctx.Done():
			close(done)
			wg.Wait()
			return nil, ctx.Err()
		case <-ticker.C:
		}

		if err := sendARPRequest(handle, iface, localIP, target); err != nil {
			sendErrs++
		}
	}
	if sendErrs > 0 {
		s.logger.Debug().Int("failed", sendErrs).Int("targets", len(targets)).Msg("some ARP requests could not be sent")
	}

	wait := time.NewTimer(s.config.IdleWait)
	defer wait.Stop()

	select {
	case <-ctx.Done():
	case <-wait.C:
	}

	close(done)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	out := make([]domain.HardwareAddress, len(raw))
	for i, mac := range raw {
		out[i] = domain.HardwareAddress(mac)
	}
	return out, nil
}

// arpReplySource returns the sender MAC of an ARP reply from inside prefix
func arpReplySource(packet gopacket.Packet, prefix netip.Prefix, localIP netip.Addr) (string, bool) {
	arpLayer := packet.Layer(layers.LayerTypeARP)
	if arpLayer == nil {
		return "", false
	}
	reply := arpLayer.(*layers.ARP)

	if reply.Operation != layers.ARPReply {
		return "", false
	}

	ip, ok := netip.AddrFromSlice(reply.SourceProtAddress)
	if !ok {
		return "", false
	}
	ip = ip.Unmap()
	if !prefix.Contains(ip) || ip == localIP {
		return "", false
	}

	return net.HardwareAddr(reply.SourceHwAddress).String(), true
}

// interfaceIPv4 returns the first IPv4 address assigned to iface
func interfaceIPv4(iface *net.Interface) (netip.Addr, error) {
	addrs, err := iface.Addrs()
	if err != nil {
		return netip.Addr{}, fmt.Errorf("could not get interface addresses: %w", err)
	}

	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok {
			if ip4 := ipnet.IP.To4(); ip4 != nil {
				return netip.AddrFrom4([4]byte(ip4)), nil
			}
		}
	}
	return netip.Addr{}, errors.New("no IPv4 address found on interface")
}

// expandPrefix lists the host addresses of an IPv4 CIDR range. Network and
// broadcast addresses are skipped for prefixes shorter than /31.
func expandPrefix(cidr string, max int) ([]netip.Addr, error) {
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		return nil, fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	prefix = prefix.Masked()
	if !prefix.Addr().Is4() {
		return nil, fmt.Errorf("only IPv4 supported")
	}

	size := 1 << (32 - prefix.Bits())
	if max > 0 && size > max+2 {
		return nil, fmt.Errorf("CIDR range %s too large (max %d hosts)", cidr, max)
	}

	skipEdges := prefix.Bits() < 31
	var addrs []netip.Addr
	for ip, i := prefix.Addr(), 0; i < size; ip, i = ip.Next(), i+1 {
		if skipEdges && (i == 0 || i == size-1) {
			continue
		}
		addrs = append(addrs, ip)
	}
	return addrs, nil
}

// sendARPRequest sends a single ARP request
func sendARPRequest(handle *pcap.Handle, iface *net.Interface, srcIP, dstIP netip.Addr) error {
	src := srcIP.As4()
	dst := dstIP.As4()

	eth := layers.Ethernet{
		SrcMAC:       iface.HardwareAddr,
		DstMAC:       net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		EthernetType: layers.EthernetTypeARP,
	}
	request := layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   []byte(iface.HardwareAddr),
		SourceProtAddress: src[:],
		DstHwAddress:      []byte{0, 0, 0, 0, 0, 0},
		DstProtAddress:    dst[:],
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		FixLengths:       true,
		ComputeChecksums: true,
	}
	if err := gopacket.SerializeLayers(buf, opts, &eth, &request); err != nil {
		return err
	}
	return handle.WritePacketData(buf.Bytes())
}
