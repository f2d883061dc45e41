// Package persistence snapshots panel navigation and a filtered
// projection of the message store to a pluggable storage adapter, and
// rehydrates both after a restart.
//
// Retention policy lives in a replaceable filter predicate. The default
// keeps state messages forever, events for 24 hours, and drops commands
// outright. Snapshots expire wholesale after a configurable TTL; an
// expired snapshot is purged from storage on load, never returned
// stale.
//
// Auto-save is debounced: one pending timer per manager, replaced on
// each call, so a burst of mutations produces a single write carrying
// the newest arguments. A process exiting inside the debounce window
// loses that window's changes; persistence here is at-most-eventually,
// not at-least-once.
//
// Every storage or serialization failure is logged and normalized to a
// false/nil result. Callers on the render path never see an error
// escape this package.
package persistence
