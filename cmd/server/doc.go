// Package main is the entry point for the PanelKit coordination server.
//
// The server coordinates multi-panel hosts: it routes messages between
// panel resources, tracks per-panel navigation, and persists both across
// restarts.
//
// The server provides:
//   - REST API for configuration, navigation, and messaging
//   - WebSocket push of change notifications
//   - Plugin hooks for message validation and side effects
//   - Snapshot persistence with pluggable storage backends
//   - Rate limiting and CORS
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server -port 8000 -panels layout.yaml -storage bolt
//
//	# Development mode (colored logs, debug level)
//	./server -dev -storage memory
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown with a final state flush
package main
