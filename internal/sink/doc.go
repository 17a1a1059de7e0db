// Package sink persists presence snapshots.
//
// Each cycle the scheduler hands the current snapshot to a Fanout, which
// writes it to every configured Sink: a Redis key, a flat file, and an
// optional SQLite history. Sinks are isolated from each other: a failing
// sink is logged and skipped, the rest still run.
//
// The audit log is separate. It records the raw addresses of every scan,
// before identity resolution, and is appended to even when the scan failed.
package sink
