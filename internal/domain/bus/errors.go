package bus

import "fmt"

// ValidationError reports message content rejected before routing:
// either a registered plugin validator refused it, or the message shape
// itself is inconsistent (e.g. a state message without a state key).
// Hosts should treat this as a caller bug, not a transient condition.
type ValidationError struct {
	Type   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid message of type %q: %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("message content rejected by validator for type %q", e.Type)
}

// RoutingError reports a send addressed to or from a resource unknown to
// the current configuration. Send always surfaces this as an explicit
// error rather than silently dropping the message, so callers learn
// about stale resource IDs immediately.
type RoutingError struct {
	ResourceID string
	Role       string // "sender" or "recipient"
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("unknown %s resource: %s", e.Role, e.ResourceID)
}
