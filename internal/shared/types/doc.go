// Package types provides the shared data model for the PanelKit backend.
//
// This package defines the core types used across all components,
// ensuring consistent shapes at every layer boundary.
//
// Core Types:
//   - Resource: Addressable display unit
//   - Panel: Named slot over an ordered resource list
//   - PanelConfig: Host-supplied static configuration
//   - Message, Content, Lifecycle: Bus communication model
//   - Snapshot: Persisted navigation + message record
//
// Lifecycles:
//   - state: supersede by state key per recipient scope
//   - event: expire by TTL, consumed per recipient
//   - command: consumed exactly once
//
// Types here carry no behavior beyond small pure helpers so that the
// domain packages (bus, panels, persistence) can depend on them without
// import cycles.
//
// Example Usage:
//
//	msg := types.Message{
//	    FromResourceID: "scriptureA",
//	    Content:        types.Content{Type: "token.select", Data: payload},
//	    Lifecycle:      types.LifecycleState,
//	    StateKey:       "highlight",
//	}
package types
