package types

import "time"

// Lifecycle determines how the bus retains and retires a message
type Lifecycle string

const (
	// LifecycleState messages supersede prior messages with the same state key
	LifecycleState Lifecycle = "state"
	// LifecycleEvent messages expire by TTL and are consumed per recipient
	LifecycleEvent Lifecycle = "event"
	// LifecycleCommand messages are consumed exactly once
	LifecycleCommand Lifecycle = "command"
)

// BroadcastScope is the reserved recipient scope for messages with no
// specific addressee. It is not a valid resource ID.
const BroadcastScope = "*"

// Content is the tagged payload of a message. Type discriminates the
// payload shape; the bus never interprets Data.
type Content struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data,omitempty"`
}

// Message is the unit of communication between resources
type Message struct {
	ID             string    `json:"id"`
	FromResourceID string    `json:"from_resource_id"`
	ToResourceID   *string   `json:"to_resource_id,omitempty"`
	Content        Content   `json:"content"`
	Lifecycle      Lifecycle `json:"lifecycle"`
	StateKey       string    `json:"state_key,omitempty"`
	TTLMillis      int64     `json:"ttl_ms,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	Consumed       bool      `json:"consumed"`
	HandledBy      *string   `json:"handled_by,omitempty"`
	ChainID        string    `json:"chain_id,omitempty"`

	// Seq is the bus insertion order, used to keep ordering stable when
	// timestamps collide. Not serialized.
	Seq uint64 `json:"-"`
}

// Scope returns the recipient scope of the message: the addressed
// resource ID, or BroadcastScope when unaddressed.
func (m *Message) Scope() string {
	if m.ToResourceID == nil {
		return BroadcastScope
	}
	return *m.ToResourceID
}

// Broadcast reports whether the message is addressed to all resources
func (m *Message) Broadcast() bool {
	return m.ToResourceID == nil
}

// Expired reports whether an event message's TTL has elapsed at now.
// Messages without a TTL never expire; only events carry TTLs.
func (m *Message) Expired(now time.Time) bool {
	if m.Lifecycle != LifecycleEvent || m.TTLMillis <= 0 {
		return false
	}
	return now.Sub(m.Timestamp) > time.Duration(m.TTLMillis)*time.Millisecond
}

// AddressedTo reports whether resourceID sees this message: either it is
// the explicit addressee or the message is broadcast.
func (m *Message) AddressedTo(resourceID string) bool {
	return m.Broadcast() || *m.ToResourceID == resourceID
}
