// Package adapter implements the network discovery side of devicescanner.
//
// A Scanner takes a host range and returns the hardware addresses it saw.
// Scanners are the only part of the system that touches the network; the
// presence logic only ever sees their output through RunScan, which turns
// every failure into an empty ScanResult carrying the error.
//
// # Scanners
//
// NmapScanner runs an nmap ping scan (-sn) and reads the MAC address nmap
// reports for each host that is up. nmap only learns MAC addresses when it
// runs privileged on the local segment; CheckPrivileges reports when it does
// not.
//
// The ARP sweep lives in the arp subpackage so that only the binary links
// pcap. When no interface is configured, DetectInterfaces and SelectInterface
// pick the one whose subnet overlaps the host range.
//
// Scanners return addresses as the tool reported them. RunScan keeps that
// list for the audit log and canonicalizes a copy for resolution.
//
// StaticScanner returns a fixed answer for tests.
package adapter
