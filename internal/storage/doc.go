// Package storage defines the key-value adapter contract consumed by
// the persistence manager, plus the backends shipped with the server:
//
//   - Memory: in-memory, for tests and ephemeral hosts
//   - Bolt: embedded bbolt database file
//   - Remote: remote key-value HTTP API with timeout and retry
//
// Browser-local backends (localStorage, sessionStorage) live on the
// host side of the boundary and only implement this interface.
//
// Adapters report failures as errors; the persistence manager owns
// normalizing them into the non-throwing behavior hosts observe.
package storage
