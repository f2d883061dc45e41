package bus

import (
	"sort"
	"sync"
	"time"

	"github.com/GriffinCanCode/PanelKit/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/PanelKit/backend/internal/shared/id"
	"github.com/GriffinCanCode/PanelKit/backend/internal/shared/types"
	"go.uber.org/zap"
)

// PluginRegistry is the validation/handler hook consumed by the bus
type PluginRegistry interface {
	Validate(msgType string, content types.Content) bool
	Handle(message types.Message)
}

// ResourceResolver answers whether a resource ID exists in the current
// configuration. Typically the panels registry.
type ResourceResolver interface {
	Knows(resourceID string) bool
}

// SendOptions carries the optional attributes of a send
type SendOptions struct {
	Lifecycle types.Lifecycle // Defaults to event
	StateKey  string          // Required for state messages
	TTLMillis int64           // Events only; 0 means never expires
	ChainID   string          // Opaque causal grouping, carried not interpreted
}

// Bus routes messages between resources and keeps the in-session store.
//
// All operations are synchronous and in-memory: a message is visible to
// Messages the moment Send returns. The bus never spawns background
// work; TTL expiry is evaluated lazily on read, and Sweep exists only to
// bound memory.
type Bus struct {
	mu       sync.RWMutex
	plugins  PluginRegistry
	resolver ResourceResolver
	metrics  *monitoring.Metrics
	logger   *zap.Logger

	broadcastState map[string]*types.Message            // State key -> current
	resourceState  map[string]map[string]*types.Message // Resource -> state key -> current
	events         []*types.Message
	commands       []*types.Message
	eventConsumed  map[string]map[string]struct{} // Message ID -> recipients that consumed it

	seq uint64
	now func() time.Time
}

// New creates a message bus. Both dependencies are optional: without a
// plugin registry every content type validates, without a resolver
// routing is not pre-checked.
func New(plugins PluginRegistry, resolver ResourceResolver, logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		plugins:        plugins,
		resolver:       resolver,
		logger:         logger,
		broadcastState: make(map[string]*types.Message),
		resourceState:  make(map[string]map[string]*types.Message),
		eventConsumed:  make(map[string]map[string]struct{}),
		now:            time.Now,
	}
}

// WithMetrics adds metrics tracking to the bus
func (b *Bus) WithMetrics(metrics *monitoring.Metrics) *Bus {
	b.metrics = metrics
	return b
}

// Send validates, stamps, and stores a message. A nil toResourceID means
// broadcast. Returns the stored message on success.
//
// The default lifecycle is event with no TTL, which never expires; this
// differs materially from state, which supersedes by key.
//
// Unknown sender or recipient IDs fail with a RoutingError rather than a
// silent false: the bus prefers telling the caller about a stale ID over
// quietly dropping traffic.
func (b *Bus) Send(content types.Content, fromResourceID string, toResourceID *string, opts *SendOptions) (*types.Message, error) {
	if opts == nil {
		opts = &SendOptions{}
	}
	lifecycle := opts.Lifecycle
	if lifecycle == "" {
		lifecycle = types.LifecycleEvent
	}

	if err := b.checkSend(content, fromResourceID, toResourceID, lifecycle, opts); err != nil {
		return nil, err
	}

	msg := &types.Message{
		ID:             string(id.NewMessageID()),
		FromResourceID: fromResourceID,
		ToResourceID:   toResourceID,
		Content:        content,
		Lifecycle:      lifecycle,
		StateKey:       opts.StateKey,
		TTLMillis:      opts.TTLMillis,
		Timestamp:      b.now(),
		ChainID:        opts.ChainID,
	}

	b.mu.Lock()
	b.seq++
	msg.Seq = b.seq
	b.store(msg)
	b.mu.Unlock()

	if b.metrics != nil {
		scope := "direct"
		if msg.Broadcast() {
			scope = "broadcast"
		}
		b.metrics.RecordSend(string(lifecycle), scope)
	}

	// Best-effort handler dispatch, outside the lock so handlers may
	// call back into the bus
	if b.plugins != nil {
		b.plugins.Handle(*msg)
	}

	msgCopy := *msg
	return &msgCopy, nil
}

// Messages returns every message currently visible to a resource,
// newest first. The merge covers, in one pass:
//   - current broadcast state messages
//   - current resource-scoped state messages (winning on key collision)
//   - live, not-yet-consumed events addressed to the resource or broadcast
//   - unconsumed commands addressed to the resource or broadcast
//
// Timestamp ties keep insertion order.
func (b *Bus) Messages(resourceID string) []types.Message {
	now := b.now()

	b.mu.RLock()
	defer b.mu.RUnlock()

	var visible []*types.Message

	// State: resource scope strictly overrides broadcast scope per key;
	// no merging of payloads
	overridden := make(map[string]struct{})
	if scoped, ok := b.resourceState[resourceID]; ok {
		for key, msg := range scoped {
			overridden[key] = struct{}{}
			visible = append(visible, msg)
		}
	}
	for key, msg := range b.broadcastState {
		if _, hidden := overridden[key]; !hidden {
			visible = append(visible, msg)
		}
	}

	for _, msg := range b.events {
		if !msg.AddressedTo(resourceID) || msg.Expired(now) {
			continue
		}
		if b.consumedBy(msg.ID, resourceID) {
			continue
		}
		visible = append(visible, msg)
	}

	for _, msg := range b.commands {
		if !msg.AddressedTo(resourceID) || msg.Consumed {
			continue
		}
		visible = append(visible, msg)
	}

	// Insertion order first, then a stable sort by descending timestamp
	// so equal timestamps retain it
	sort.Slice(visible, func(i, j int) bool { return visible[i].Seq < visible[j].Seq })
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].Timestamp.After(visible[j].Timestamp)
	})

	out := make([]types.Message, len(visible))
	for i, msg := range visible {
		out[i] = *msg
	}
	return out
}

// CurrentState resolves the current value of a state key as seen by a
// resource: its scoped state if present, else broadcast state.
func (b *Bus) CurrentState(resourceID, stateKey string) (*types.Message, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if scoped, ok := b.resourceState[resourceID]; ok {
		if msg, ok := scoped[stateKey]; ok {
			msgCopy := *msg
			return &msgCopy, true
		}
	}
	if msg, ok := b.broadcastState[stateKey]; ok {
		msgCopy := *msg
		return &msgCopy, true
	}
	return nil, false
}

// ConsumeEvent marks an event consumed for one recipient. Idempotent.
// Consumption is per recipient: consuming a broadcast event hides it
// from this resource's future reads without affecting other recipients.
func (b *Bus) ConsumeEvent(resourceID, messageID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, msg := range b.events {
		if msg.ID != messageID {
			continue
		}
		recipients, ok := b.eventConsumed[messageID]
		if !ok {
			recipients = make(map[string]struct{})
			b.eventConsumed[messageID] = recipients
		}
		if _, seen := recipients[resourceID]; !seen {
			recipients[resourceID] = struct{}{}
			if !msg.Broadcast() && *msg.ToResourceID == resourceID {
				msg.Consumed = true
			}
			if b.metrics != nil {
				b.metrics.MessagesConsumed.WithLabelValues(string(types.LifecycleEvent)).Inc()
			}
		}
		return
	}
}

// ConsumeCommand marks a command handled. Idempotent. Commands are
// one-shot: the first consumer wins and the record keeps an explicit
// handled marker for audit instead of being deleted.
func (b *Bus) ConsumeCommand(resourceID, messageID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, msg := range b.commands {
		if msg.ID != messageID {
			continue
		}
		if !msg.Consumed {
			msg.Consumed = true
			handledBy := resourceID
			msg.HandledBy = &handledBy
			if b.metrics != nil {
				b.metrics.MessagesConsumed.WithLabelValues(string(types.LifecycleCommand)).Inc()
			}
		}
		return
	}
}

// ClearState removes the current state entry for one scope/key without
// touching other keys. Pass types.BroadcastScope to clear broadcast
// state.
func (b *Bus) ClearState(resourceID, stateKey string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if resourceID == types.BroadcastScope {
		delete(b.broadcastState, stateKey)
		return
	}
	if scoped, ok := b.resourceState[resourceID]; ok {
		delete(scoped, stateKey)
		if len(scoped) == 0 {
			delete(b.resourceState, resourceID)
		}
	}
}

// ClearMessages drops a resource's private mailbox: its scoped state and
// every event or command addressed specifically to it. Broadcast data is
// never touched.
func (b *Bus) ClearMessages(resourceID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.resourceState, resourceID)

	keepEvents := b.events[:0]
	for _, msg := range b.events {
		if !msg.Broadcast() && *msg.ToResourceID == resourceID {
			delete(b.eventConsumed, msg.ID)
			continue
		}
		keepEvents = append(keepEvents, msg)
	}
	b.events = keepEvents

	keepCommands := b.commands[:0]
	for _, msg := range b.commands {
		if !msg.Broadcast() && *msg.ToResourceID == resourceID {
			continue
		}
		keepCommands = append(keepCommands, msg)
	}
	b.commands = keepCommands
}

// Sweep drops expired events and fully consumed records to bound
// memory. Correctness never depends on it running: expiry is always
// re-checked on read. Returns the number of records removed.
func (b *Bus) Sweep() int {
	now := b.now()

	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0

	keepEvents := b.events[:0]
	for _, msg := range b.events {
		if msg.Expired(now) {
			delete(b.eventConsumed, msg.ID)
			removed++
			if b.metrics != nil {
				b.metrics.EventsExpired.Inc()
			}
			continue
		}
		keepEvents = append(keepEvents, msg)
	}
	b.events = keepEvents

	keepCommands := b.commands[:0]
	for _, msg := range b.commands {
		if msg.Consumed {
			removed++
			continue
		}
		keepCommands = append(keepCommands, msg)
	}
	b.commands = keepCommands

	return removed
}

// Export projects the current store as recipient-scope -> ordered
// message list, the shape the persistence layer snapshots. Broadcast
// data exports under types.BroadcastScope. Expired events and consumed
// records are skipped.
func (b *Bus) Export() map[string][]types.Message {
	now := b.now()

	b.mu.RLock()
	defer b.mu.RUnlock()

	grouped := make(map[string][]*types.Message)

	for _, msg := range b.broadcastState {
		grouped[types.BroadcastScope] = append(grouped[types.BroadcastScope], msg)
	}
	for resID, scoped := range b.resourceState {
		for _, msg := range scoped {
			grouped[resID] = append(grouped[resID], msg)
		}
	}
	for _, msg := range b.events {
		if msg.Expired(now) || msg.Consumed {
			continue
		}
		grouped[msg.Scope()] = append(grouped[msg.Scope()], msg)
	}
	for _, msg := range b.commands {
		if msg.Consumed {
			continue
		}
		grouped[msg.Scope()] = append(grouped[msg.Scope()], msg)
	}

	out := make(map[string][]types.Message, len(grouped))
	for scope, msgs := range grouped {
		sort.Slice(msgs, func(i, j int) bool { return msgs[i].Seq < msgs[j].Seq })
		list := make([]types.Message, len(msgs))
		for i, msg := range msgs {
			list[i] = *msg
		}
		out[scope] = list
	}
	return out
}

// Restore rebuilds the store from a persisted projection, replacing all
// current contents. Message IDs and timestamps are preserved; insertion
// order follows the per-scope list order.
func (b *Bus) Restore(messages map[string][]types.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.broadcastState = make(map[string]*types.Message)
	b.resourceState = make(map[string]map[string]*types.Message)
	b.events = nil
	b.commands = nil
	b.eventConsumed = make(map[string]map[string]struct{})
	b.seq = 0

	scopes := make([]string, 0, len(messages))
	for scope := range messages {
		scopes = append(scopes, scope)
	}
	sort.Strings(scopes)

	for _, scope := range scopes {
		for i := range messages[scope] {
			msg := messages[scope][i]
			b.seq++
			msg.Seq = b.seq
			b.store(&msg)
		}
	}
}

// Stats returns bus statistics
func (b *Bus) Stats() map[string]interface{} {
	b.mu.RLock()
	defer b.mu.RUnlock()

	scopedStates := 0
	for _, scoped := range b.resourceState {
		scopedStates += len(scoped)
	}

	return map[string]interface{}{
		"broadcast_state_keys": len(b.broadcastState),
		"resource_state_keys":  scopedStates,
		"events":               len(b.events),
		"commands":             len(b.commands),
	}
}

// checkSend runs validation and routing pre-checks
func (b *Bus) checkSend(content types.Content, from string, to *string, lifecycle types.Lifecycle, opts *SendOptions) error {
	if content.Type == "" {
		b.reject("validation")
		return &ValidationError{Type: content.Type, Reason: "content type cannot be empty"}
	}

	switch lifecycle {
	case types.LifecycleState:
		if opts.StateKey == "" {
			b.reject("validation")
			return &ValidationError{Type: content.Type, Reason: "state messages require a state key"}
		}
	case types.LifecycleEvent, types.LifecycleCommand:
	default:
		b.reject("validation")
		return &ValidationError{Type: content.Type, Reason: "unknown lifecycle: " + string(lifecycle)}
	}

	if b.plugins != nil && !b.plugins.Validate(content.Type, content) {
		b.reject("validation")
		b.logger.Warn("Message rejected by validator",
			zap.String("type", content.Type),
			zap.String("from", from),
		)
		return &ValidationError{Type: content.Type}
	}

	if b.resolver != nil {
		if !b.resolver.Knows(from) {
			b.reject("routing")
			return &RoutingError{ResourceID: from, Role: "sender"}
		}
		if to != nil && !b.resolver.Knows(*to) {
			b.reject("routing")
			return &RoutingError{ResourceID: *to, Role: "recipient"}
		}
	}
	return nil
}

// store routes a stamped message per its lifecycle. Must hold the lock.
func (b *Bus) store(msg *types.Message) {
	switch msg.Lifecycle {
	case types.LifecycleState:
		if msg.Broadcast() {
			if _, had := b.broadcastState[msg.StateKey]; had && b.metrics != nil {
				b.metrics.StateSuperseded.Inc()
			}
			b.broadcastState[msg.StateKey] = msg
			return
		}
		scoped, ok := b.resourceState[*msg.ToResourceID]
		if !ok {
			scoped = make(map[string]*types.Message)
			b.resourceState[*msg.ToResourceID] = scoped
		}
		if _, had := scoped[msg.StateKey]; had && b.metrics != nil {
			b.metrics.StateSuperseded.Inc()
		}
		scoped[msg.StateKey] = msg

	case types.LifecycleCommand:
		b.commands = append(b.commands, msg)

	default:
		b.events = append(b.events, msg)
	}
}

// consumedBy reports whether recipient already consumed an event. Must
// hold at least a read lock.
func (b *Bus) consumedBy(messageID, resourceID string) bool {
	recipients, ok := b.eventConsumed[messageID]
	if !ok {
		return false
	}
	_, consumed := recipients[resourceID]
	return consumed
}

func (b *Bus) reject(reason string) {
	if b.metrics != nil {
		b.metrics.RecordRejection(reason)
	}
}
