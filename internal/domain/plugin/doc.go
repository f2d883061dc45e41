// Package plugin provides the pluggable validation and handler layer for
// the message bus.
//
// A plugin declares which message types it understands, a pure validator
// predicate per type, and optional side-effect handlers. The registry
// enforces two isolation rules:
//   - validation defaults to permissive when no validator is registered
//   - handler errors and panics are logged, never propagated into the
//     bus send path
//
// Example Usage:
//
//	registry := plugin.NewRegistry(logger)
//	registry.Register(&plugin.Plugin{
//	    Name:    "scripture-tokens",
//	    Version: "1.0.0",
//	    Validators: map[string]plugin.Validator{
//	        "token.select": func(c types.Content) bool {
//	            _, ok := c.Data["token"].(string)
//	            return ok
//	        },
//	    },
//	})
package plugin
