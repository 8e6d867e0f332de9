// Package http provides the HTTP REST API implementation.
//
// The HTTP server exposes endpoints for:
//   - Single-row and batch predictions
//   - Model metadata
//   - Health checks
//   - Prometheus metrics
//
// Every route allows cross-origin requests from any origin.
package http
