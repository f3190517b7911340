// Package server provides the HTTP surface of sensorhub.
//
// This package is internal to sensorhub and handles all HTTP concerns:
//
//   - Ingestion: POST /webhook runs the store → broadcast → alert pipeline
//     for each incoming reading
//   - Read-back API: GET /api/readings and GET /api/latest
//   - Real-time channel: GET /ws upgrades to WebSocket and hands the
//     connection to the broadcast hub
//   - Dashboard, /health and /metrics
//
// Each request's pipeline is strictly sequential: a failed store write
// short-circuits everything (500, no broadcast, no alert), while broadcast
// and alert outcomes never affect the producer's response.
//
// The server supports graceful shutdown via context cancellation, with a
// bounded timeout for in-flight requests.
package server
