// Package handler implements the read-only HTTP status API.
//
// Routes:
//
//	GET /api/presence        identities present now, with last-seen times
//	GET /api/health          uptime, enabled sinks and the last cycle report
//	GET /api/events/history  stored arrivals and departures (needs sqlite)
//	GET /events              Server-Sent Events stream of presence changes
//
// Errors are returned as JSON with {error, details} and a matching status code.
// Nothing in the API mutates presence state.
package handler
