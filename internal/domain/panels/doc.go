// Package panels provides the panel/resource registry: static
// configuration plus per-panel navigation cursors.
//
// Navigation semantics are deliberate product choices, not defensive
// defaults:
//   - next/previous clamp at the ends, they never wrap
//   - a resource can only be displayed in a panel it belongs to
//   - the same resource may appear in several panels; resolution picks
//     the first match in configuration order
//
// Example Usage:
//
//	registry := panels.NewRegistry()
//	registry.SetConfig(cfg)
//	registry.Next("left")
//	state, _ := registry.NavigationState("left")
package panels
