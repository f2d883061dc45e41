// Package monitoring provides Prometheus metrics for the backend.
//
// Metrics cover the message bus (sends, rejections, consumption, state
// supersede, TTL expiry), panel navigation, persistence (saves, loads,
// snapshot TTL purges, debounce collapses), the HTTP surface, and
// WebSocket fan-out.
//
// Construct one Metrics per process; collectors register on the default
// Prometheus registry.
package monitoring
