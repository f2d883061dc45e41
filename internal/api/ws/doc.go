// Package ws pushes change notifications to connected hosts over
// WebSocket. The hub is one-directional: mutations arrive via the HTTP
// API, and every connected client learns about them here. A client that
// stops draining its buffer is disconnected rather than allowed to
// backpressure the broadcast path.
package ws
