// Package http exposes the coordination core over a JSON HTTP API:
// panel configuration and navigation, message send/read/consume, and
// snapshot persistence. Handlers translate bus errors into status codes
// (validation failures are 400s, unknown resources 404s) and schedule a
// debounced auto-save after every mutation.
package http
