// Package bus implements the inter-resource message bus with three
// message lifecycles:
//
//   - state: exactly one current message per (recipient scope, state
//     key); a newer message with the same key replaces the old one, it
//     is never queued behind it
//   - event: queued until its TTL elapses or a recipient consumes it;
//     consumption is tracked per recipient so one reader of a broadcast
//     never hides it from the others
//   - command: queued for exactly one consumption, with an explicit
//     handled marker retained for audit
//
// The bus is synchronous and in-memory: messages are visible the moment
// Send returns, TTL expiry is evaluated lazily on read, and no
// background tasks are spawned. A single instance serves one logical
// thread of control; embedders with concurrent writers must serialize
// access externally.
//
// Dependencies are constructor-injected (plugin registry for
// validation/handlers, resource resolver for routing pre-checks) so
// independent instances can coexist, one per test or embedded widget.
package bus
