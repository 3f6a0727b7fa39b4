// Package api implements the HTTP surface of Lumen Hub Core.
//
// This package provides:
//   - REST endpoints for aggregated lights and plugs, and their state
//   - Hue bridge registration, pairing and scene endpoints
//   - Server-sent events and WebSocket streams of state changes
//   - Bearer token authentication (the token subject is the user id)
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Streams
//
// Both stream transports read from one events.Subscription per client,
// so a client only sees the payload of changes it made itself; other
// users' changes arrive with an empty data object. Browsers cannot set
// headers on EventSource or WebSocket, so stream routes also accept the
// token as a "token" query parameter.
//
// # Errors
//
// Every failure is answered with {"status", "code", "message"}. Service
// errors are classified with errors.Is against the device taxonomy.
package api
