// Package domain defines the core types for devicescanner presence tracking.
//
// This package contains the value types that flow through a scan cycle:
// hardware addresses reported by a scanner, the identities they belong to,
// and the observations and snapshots produced from them.
//
// # Core Types
//
// HardwareAddress is a normalized network interface identifier. Configured
// addresses and scanner output go through the same normalization, so lookups
// compare exact values.
//
// IdentityMapping is the static identity -> addresses configuration turned
// around into an address -> identity lookup. It partitions a scan result into
// resolved identities and unknown addresses.
//
// Observation is the transient result of one cycle's scan and resolution.
//
// Snapshot is the set of identities currently present, together with the
// identities that arrived or departed during the cycle that produced it.
//
// # Design Principles
//
// - Immutable value objects where possible
// - No database or external dependencies
// - Pure domain logic without infrastructure concerns
package domain
