package persistence

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/gzip"

	"github.com/GriffinCanCode/PanelKit/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/PanelKit/backend/internal/shared/types"
	"github.com/GriffinCanCode/PanelKit/backend/internal/storage"
	"go.uber.org/zap"
)

// compressedPrefix marks a stored value as gzip+base64. The prefix keeps
// the record self-describing so the threshold can change without a
// format bump.
const compressedPrefix = "gz:"

// Filter decides whether a message belongs in a snapshot
type Filter func(msg types.Message, now time.Time) bool

// Config holds persistence tuning knobs
type Config struct {
	// StorageKey is the single adapter key the snapshot lives under
	StorageKey string

	// TTL bounds snapshot age on load; older snapshots are purged from
	// storage and treated as absent
	TTL time.Duration

	// MaxEventAge bounds event-message age in the default filter
	MaxEventAge time.Duration

	// DebounceInterval collapses repeated ScheduleAutoSave calls
	DebounceInterval time.Duration

	// IncludeNavigation controls whether panel cursors are snapshotted
	IncludeNavigation bool

	// CompressThreshold gzips serialized snapshots above this many
	// bytes; 0 disables compression
	CompressThreshold int
}

// DefaultConfig returns production-ready persistence configuration
func DefaultConfig() Config {
	return Config{
		StorageKey:        "panelkit:state",
		TTL:               7 * 24 * time.Hour,
		MaxEventAge:       24 * time.Hour,
		DebounceInterval:  time.Second,
		IncludeNavigation: true,
		CompressThreshold: 32 * 1024,
	}
}

// Manager serializes navigation cursors and a filtered projection of the
// message store to a storage adapter.
//
// Failure normalization lives here, not in adapters: every adapter or
// serialization failure is logged and reported as false/nil so callers
// on the render path never see a panic or an error they cannot act on.
type Manager struct {
	adapter storage.Adapter
	cfg     Config
	filter  Filter
	metrics *monitoring.Metrics
	logger  *zap.Logger
	now     func() time.Time

	mu          sync.Mutex
	timer       *time.Timer
	pendingNav  map[string]int
	pendingMsgs map[string][]types.Message
}

// NewManager creates a persistence manager over an adapter
func NewManager(adapter storage.Adapter, cfg Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.StorageKey == "" {
		cfg.StorageKey = DefaultConfig().StorageKey
	}
	m := &Manager{
		adapter: adapter,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
	m.filter = DefaultFilter(cfg.MaxEventAge)
	return m
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// WithFilter replaces the message filter predicate
func (m *Manager) WithFilter(filter Filter) *Manager {
	if filter != nil {
		m.filter = filter
	}
	return m
}

// DefaultFilter keeps all state messages regardless of age, keeps event
// messages younger than maxEventAge, and always drops commands: they
// are one-shot and meaningless to rehydrate.
func DefaultFilter(maxEventAge time.Duration) Filter {
	if maxEventAge <= 0 {
		maxEventAge = DefaultConfig().MaxEventAge
	}
	return func(msg types.Message, now time.Time) bool {
		switch msg.Lifecycle {
		case types.LifecycleState:
			return true
		case types.LifecycleEvent:
			return now.Sub(msg.Timestamp) <= maxEventAge
		default:
			return false
		}
	}
}

// SaveState snapshots navigation and messages to storage. Returns false
// on any failure; never throws.
func (m *Manager) SaveState(ctx context.Context, navigation map[string]int, messages map[string][]types.Message) bool {
	now := m.now()
	snapshot := m.buildSnapshot(navigation, messages, now)

	raw, err := sonic.Marshal(snapshot)
	if err != nil {
		m.fail("save", "Failed to serialize snapshot", err)
		return false
	}

	value := string(raw)
	if m.cfg.CompressThreshold > 0 && len(raw) > m.cfg.CompressThreshold {
		compressed, err := compress(raw)
		if err != nil {
			m.fail("save", "Failed to compress snapshot", err)
			return false
		}
		value = compressed
	}

	if err := m.adapter.SetItem(ctx, m.cfg.StorageKey, value); err != nil {
		m.fail("save", "Failed to write snapshot", err)
		return false
	}

	if m.metrics != nil {
		m.metrics.SnapshotsSaved.Inc()
		m.metrics.SnapshotSizeBytes.Observe(float64(len(value)))
	}
	m.logger.Debug("Snapshot saved",
		zap.Int("bytes", len(value)),
		zap.Int("panels", len(snapshot.PanelNavigation)),
		zap.Int("scopes", len(snapshot.ResourceMessages)),
	)
	return true
}

// LoadState reads the snapshot back. Returns nil when absent, unreadable,
// malformed, or expired; an expired snapshot is purged from storage
// rather than returned stale.
func (m *Manager) LoadState(ctx context.Context) *types.Snapshot {
	value, err := m.adapter.GetItem(ctx, m.cfg.StorageKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			m.fail("load", "Failed to read snapshot", err)
		}
		return nil
	}

	raw, err := decode(value)
	if err != nil {
		m.fail("load", "Failed to decode snapshot", err)
		return nil
	}

	var snapshot types.Snapshot
	if err := sonic.Unmarshal(raw, &snapshot); err != nil {
		m.fail("load", "Malformed snapshot", err)
		return nil
	}

	age := m.now().UnixMilli() - snapshot.SavedAt
	if m.cfg.TTL > 0 && age > m.cfg.TTL.Milliseconds() {
		m.logger.Info("Snapshot expired, purging",
			zap.Int64("age_ms", age),
			zap.Duration("ttl", m.cfg.TTL),
		)
		if err := m.adapter.RemoveItem(ctx, m.cfg.StorageKey); err != nil {
			m.fail("purge", "Failed to purge expired snapshot", err)
		}
		if m.metrics != nil {
			m.metrics.SnapshotsExpired.Inc()
		}
		return nil
	}

	if snapshot.Version != types.FormatVersion {
		m.migrate(&snapshot)
	}

	if m.metrics != nil {
		m.metrics.SnapshotsLoaded.Inc()
	}
	return &snapshot
}

// ScheduleAutoSave queues a debounced save. Repeated calls within the
// debounce window collapse into a single save using the most recent
// arguments: one pending timer per manager, replaced, never stacked.
func (m *Manager) ScheduleAutoSave(navigation map[string]int, messages map[string][]types.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pendingNav = navigation
	m.pendingMsgs = messages

	if m.timer != nil {
		m.timer.Stop()
		if m.metrics != nil {
			m.metrics.AutoSaveCollapsed.Inc()
		}
	}

	interval := m.cfg.DebounceInterval
	if interval <= 0 {
		interval = DefaultConfig().DebounceInterval
	}
	m.timer = time.AfterFunc(interval, m.flushPending)
}

// Flush saves any pending auto-save immediately, cancelling the timer.
// Returns false only when a pending save was attempted and failed.
func (m *Manager) Flush(ctx context.Context) bool {
	nav, msgs, pending := m.takePending()
	if !pending {
		return true
	}
	return m.SaveState(ctx, nav, msgs)
}

// Stop cancels any pending auto-save without saving
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.pendingNav = nil
	m.pendingMsgs = nil
}

// ClearState removes the persisted snapshot. Returns false on failure.
func (m *Manager) ClearState(ctx context.Context) bool {
	if err := m.adapter.RemoveItem(ctx, m.cfg.StorageKey); err != nil {
		m.fail("clear", "Failed to clear snapshot", err)
		return false
	}
	return true
}

// StorageInfo describes the stored snapshot without rehydrating it
func (m *Manager) StorageInfo(ctx context.Context) types.StorageInfo {
	value, err := m.adapter.GetItem(ctx, m.cfg.StorageKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			m.fail("info", "Failed to inspect snapshot", err)
		}
		return types.StorageInfo{}
	}

	info := types.StorageInfo{
		HasStoredState: true,
		SizeBytes:      len(value),
	}

	raw, err := decode(value)
	if err != nil {
		return info
	}
	var snapshot types.Snapshot
	if err := sonic.Unmarshal(raw, &snapshot); err != nil {
		return info
	}
	info.SavedAt = snapshot.SavedAt
	info.FormatVersion = snapshot.Version
	return info
}

// buildSnapshot applies the navigation-inclusion flag and the message
// filter independently.
func (m *Manager) buildSnapshot(navigation map[string]int, messages map[string][]types.Message, now time.Time) *types.Snapshot {
	nav := make(map[string]int)
	if m.cfg.IncludeNavigation {
		for panelID, idx := range navigation {
			nav[panelID] = idx
		}
	}

	filtered := make(map[string][]types.Message)
	for scope, msgs := range messages {
		var keep []types.Message
		for _, msg := range msgs {
			if m.filter(msg, now) {
				keep = append(keep, msg)
			}
		}
		if len(keep) > 0 {
			filtered[scope] = keep
		}
	}

	return &types.Snapshot{
		PanelNavigation:  nav,
		ResourceMessages: filtered,
		SavedAt:          now.UnixMilli(),
		Version:          types.FormatVersion,
	}
}

// migrate upgrades a snapshot from an older format version. Currently
// the identity transform; the hook exists so future format changes have
// a defined extension point.
func (m *Manager) migrate(snapshot *types.Snapshot) {
	m.logger.Info("Migrating snapshot format",
		zap.String("from", snapshot.Version),
		zap.String("to", types.FormatVersion),
	)
	snapshot.Version = types.FormatVersion
}

// flushPending runs on the debounce timer
func (m *Manager) flushPending() {
	nav, msgs, pending := m.takePending()
	if !pending {
		return
	}
	m.SaveState(context.Background(), nav, msgs)
}

// takePending atomically claims the pending auto-save arguments
func (m *Manager) takePending() (map[string]int, map[string][]types.Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if m.pendingNav == nil && m.pendingMsgs == nil {
		return nil, nil, false
	}
	nav, msgs := m.pendingNav, m.pendingMsgs
	m.pendingNav = nil
	m.pendingMsgs = nil
	return nav, msgs, true
}

func (m *Manager) fail(op, msg string, err error) {
	m.logger.Warn(msg, zap.String("op", op), zap.Error(err))
	if m.metrics != nil {
		m.metrics.PersistenceErrors.WithLabelValues(op).Inc()
	}
}

// compress gzips and base64-encodes a serialized snapshot
func compress(raw []byte) (string, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(raw); err != nil {
		return "", err
	}
	if err := gz.Close(); err != nil {
		return "", err
	}
	return compressedPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// decode reverses compress for marked values, passing plain JSON through
func decode(value string) ([]byte, error) {
	if !strings.HasPrefix(value, compressedPrefix) {
		return []byte(value), nil
	}
	packed, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, compressedPrefix))
	if err != nil {
		return nil, err
	}
	gz, err := gzip.NewReader(bytes.NewReader(packed))
	if err != nil {
		return nil, err
	}
	defer gz.Close()
	return io.ReadAll(gz)
}
