// Package repository defines the data access interfaces for presence history.
//
// The actual implementation is in the sqlite subpackage. It keeps two
// tables: the current presence set, replaced on every save, and an
// append-only log of arrivals and departures.
//
// The registry is never reloaded from the repository; a restart starts cold.
// Stored data serves readers such as the status API and external tools.
package repository
