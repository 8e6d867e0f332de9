// Package websocket provides real-time prediction streaming via WebSocket.
//
// Clients can connect to /ws/predictions to receive every prediction event
// as a JSON text frame. The optional source query parameter restricts the
// feed to one request source (http, http_batch or grpc).
package websocket
