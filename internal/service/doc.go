// Package service runs the presence tracking loop.
//
// A Scheduler owns the presence registry. Each cycle it scans the configured
// host range, appends the raw addresses to the audit log, resolves them to
// identities, runs touch then evict on the registry and hands the resulting
// snapshot to the sink fanout. It then sleeps for the poll interval.
//
// # Failure handling
//
// A failed or timed out scan counts as an empty observation. Sink failures are
// logged per sink. A panic inside a cycle is logged and the loop carries on
// with the next cycle. None of these stop the process.
//
// # Event System
//
// When an EventBus is attached, the scheduler publishes presence_arrived,
// presence_departed and cycle_completed events. The status API forwards them
// to Server-Sent Events clients.
package service
