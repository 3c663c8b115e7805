// Package api implements the HTTP server and WebSocket push for LedLink Core.
//
// This package provides:
//   - The control page at / and the LED control endpoint /led?state=
//   - The /status and /clients JSON views polled by the page
//   - WebSocket push of the same views on /ws
//   - Health and runtime metrics under /api/v1
//   - Middleware stack (request ID, request recorder, logging, recovery, CORS)
//
// # Request recording
//
// Every request, including unknown paths and WebSocket upgrades, passes the
// recorder middleware before routing. It appends the caller's address, the
// path and the User-Agent to the request log and bumps the total counter.
//
// # Graceful Degradation
//
// The server operates without MQTT or InfluxDB. When the LED driver fails the
// control endpoint answers 502 and the state is left unchanged.
package api
