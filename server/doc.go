// Package server runs the Gin HTTP server that exposes a streamkit process:
// the notice board, health and build information.
//
// Server implements component.Component so it starts and stops with the
// rest of the application.
//
// # Middleware
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: X-Request-Id generation and propagation
//   - CORS: allowed origins for browser clients reading notices
//   - RequestLogger: per-request logging, level by status code
//
// # Endpoints
//
//   - GET /health: component health aggregation
//   - GET /version: build version information
package server
