package persistence

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GriffinCanCode/PanelKit/backend/internal/shared/types"
	"github.com/GriffinCanCode/PanelKit/backend/internal/storage"
)

type countingAdapter struct {
	*storage.Memory
	sets atomic.Int64
}

func (c *countingAdapter) SetItem(ctx context.Context, key, value string) error {
	c.sets.Add(1)
	return c.Memory.SetItem(ctx, key, value)
}

func newTestManager(cfg Config) (*Manager, *storage.Memory) {
	mem := storage.NewMemory()
	return NewManager(mem, cfg, nil), mem
}

func msgAt(lifecycle types.Lifecycle, ts time.Time) types.Message {
	return types.Message{
		ID:             "msg_" + string(lifecycle) + ts.Format("150405.000"),
		FromResourceID: "scriptureA",
		Content:        types.Content{Type: "test"},
		Lifecycle:      lifecycle,
		StateKey:       "k",
		Timestamp:      ts,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(DefaultConfig())

	now := time.Now()
	nav := map[string]int{"left": 1, "right": 0}
	msgs := map[string][]types.Message{
		types.BroadcastScope: {
			msgAt(types.LifecycleState, now.Add(-100*time.Hour)), // State: kept regardless of age
			msgAt(types.LifecycleEvent, now),                     // Young event: kept
			msgAt(types.LifecycleEvent, now.Add(-25*time.Hour)),  // Old event: dropped
			msgAt(types.LifecycleCommand, now),                   // Command: always dropped
		},
	}

	if !m.SaveState(ctx, nav, msgs) {
		t.Fatal("SaveState failed")
	}

	snapshot := m.LoadState(ctx)
	if snapshot == nil {
		t.Fatal("LoadState returned nil after save")
	}

	if len(snapshot.PanelNavigation) != 2 || snapshot.PanelNavigation["left"] != 1 {
		t.Errorf("Navigation not round-tripped: %v", snapshot.PanelNavigation)
	}

	kept := snapshot.ResourceMessages[types.BroadcastScope]
	if len(kept) != 2 {
		t.Fatalf("Filter should keep state + young event, got %d messages", len(kept))
	}
	for _, msg := range kept {
		if msg.Lifecycle == types.LifecycleCommand {
			t.Error("Commands must never be persisted")
		}
	}
	if snapshot.Version != types.FormatVersion {
		t.Errorf("Snapshot version = %q", snapshot.Version)
	}
}

func TestLoadAbsent(t *testing.T) {
	m, _ := newTestManager(DefaultConfig())
	if snapshot := m.LoadState(context.Background()); snapshot != nil {
		t.Error("LoadState should return nil when nothing is stored")
	}
}

func TestLoadMalformed(t *testing.T) {
	ctx := context.Background()
	m, mem := newTestManager(DefaultConfig())

	mem.SetItem(ctx, DefaultConfig().StorageKey, "{not json")
	if snapshot := m.LoadState(ctx); snapshot != nil {
		t.Error("Malformed snapshot should load as nil")
	}
}

func TestExpiryPurgesStorage(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	m, mem := newTestManager(cfg)

	base := time.Now()
	m.now = func() time.Time { return base }
	if !m.SaveState(ctx, map[string]int{"left": 0}, nil) {
		t.Fatal("SaveState failed")
	}

	m.now = func() time.Time { return base.Add(cfg.TTL + time.Millisecond) }
	if snapshot := m.LoadState(ctx); snapshot != nil {
		t.Error("Expired snapshot should load as nil")
	}
	if mem.Len() != 0 {
		t.Error("Expired snapshot must be purged from the backing store")
	}
}

func TestNavigationExclusion(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.IncludeNavigation = false
	m, _ := newTestManager(cfg)

	m.SaveState(ctx, map[string]int{"left": 1}, nil)
	snapshot := m.LoadState(ctx)
	if snapshot == nil {
		t.Fatal("LoadState returned nil")
	}
	if len(snapshot.PanelNavigation) != 0 {
		t.Error("Navigation flag off should omit cursors")
	}
}

func TestCustomFilter(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(DefaultConfig())
	m.WithFilter(func(msg types.Message, now time.Time) bool {
		return msg.Content.Type == "keep"
	})

	msgs := map[string][]types.Message{
		"notesA": {
			{ID: "1", Content: types.Content{Type: "keep"}, Lifecycle: types.LifecycleEvent, Timestamp: time.Now()},
			{ID: "2", Content: types.Content{Type: "drop"}, Lifecycle: types.LifecycleState, Timestamp: time.Now()},
		},
	}
	m.SaveState(ctx, nil, msgs)

	snapshot := m.LoadState(ctx)
	if len(snapshot.ResourceMessages["notesA"]) != 1 || snapshot.ResourceMessages["notesA"][0].ID != "1" {
		t.Error("Replacement filter should decide retention")
	}
}

func TestAutoSaveDebounce(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DebounceInterval = 50 * time.Millisecond

	adapter := &countingAdapter{Memory: storage.NewMemory()}
	m := NewManager(adapter, cfg, nil)

	for i := 0; i < 20; i++ {
		m.ScheduleAutoSave(map[string]int{"left": i}, nil)
	}

	time.Sleep(150 * time.Millisecond)
	if got := adapter.sets.Load(); got != 1 {
		t.Fatalf("Debounce should collapse to a single save, got %d", got)
	}

	// The surviving save must carry the newest arguments
	snapshot := m.LoadState(context.Background())
	if snapshot == nil || snapshot.PanelNavigation["left"] != 19 {
		t.Error("Debounced save should use the most recent arguments")
	}
}

func TestFlush(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DebounceInterval = time.Hour // Would never fire on its own

	adapter := &countingAdapter{Memory: storage.NewMemory()}
	m := NewManager(adapter, cfg, nil)

	m.ScheduleAutoSave(map[string]int{"left": 1}, nil)
	if !m.Flush(context.Background()) {
		t.Fatal("Flush failed")
	}
	if adapter.sets.Load() != 1 {
		t.Error("Flush should save the pending state immediately")
	}

	// Nothing pending: Flush is a successful no-op
	if !m.Flush(context.Background()) {
		t.Error("Flush with nothing pending should succeed")
	}
	if adapter.sets.Load() != 1 {
		t.Error("Flush must not save twice")
	}
}

func TestStopCancelsPending(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DebounceInterval = 30 * time.Millisecond

	adapter := &countingAdapter{Memory: storage.NewMemory()}
	m := NewManager(adapter, cfg, nil)

	m.ScheduleAutoSave(map[string]int{"left": 1}, nil)
	m.Stop()

	time.Sleep(80 * time.Millisecond)
	if adapter.sets.Load() != 0 {
		t.Error("Stop should cancel the pending save")
	}
}

func TestStorageFailureNormalized(t *testing.T) {
	ctx := context.Background()
	m, mem := newTestManager(DefaultConfig())
	mem.SetAvailable(false)

	if m.SaveState(ctx, map[string]int{"left": 0}, nil) {
		t.Error("SaveState should report false on storage failure")
	}
	if snapshot := m.LoadState(ctx); snapshot != nil {
		t.Error("LoadState should report nil on storage failure")
	}
	if m.ClearState(ctx) {
		t.Error("ClearState should report false on storage failure")
	}
	if info := m.StorageInfo(ctx); info.HasStoredState {
		t.Error("StorageInfo should report empty on storage failure")
	}
}

func TestStorageInfo(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(DefaultConfig())

	if info := m.StorageInfo(ctx); info.HasStoredState {
		t.Error("Fresh store should report no state")
	}

	m.SaveState(ctx, map[string]int{"left": 0}, nil)
	info := m.StorageInfo(ctx)
	if !info.HasStoredState || info.SizeBytes == 0 {
		t.Errorf("Unexpected info: %+v", info)
	}
	if info.FormatVersion != types.FormatVersion || info.SavedAt == 0 {
		t.Errorf("Info should expose version and save time: %+v", info)
	}
}

func TestClearState(t *testing.T) {
	ctx := context.Background()
	m, mem := newTestManager(DefaultConfig())

	m.SaveState(ctx, map[string]int{"left": 0}, nil)
	if !m.ClearState(ctx) {
		t.Fatal("ClearState failed")
	}
	if mem.Len() != 0 {
		t.Error("ClearState should empty the store")
	}
}

func TestFormatMigration(t *testing.T) {
	ctx := context.Background()
	m, mem := newTestManager(DefaultConfig())

	base := time.Now()
	m.now = func() time.Time { return base }
	m.SaveState(ctx, map[string]int{"left": 1}, nil)

	// Rewrite the stored record as an older format version
	value, _ := mem.GetItem(ctx, DefaultConfig().StorageKey)
	old := strings.Replace(value, types.FormatVersion, "0.9.0", 1)
	mem.SetItem(ctx, DefaultConfig().StorageKey, old)

	snapshot := m.LoadState(ctx)
	if snapshot == nil {
		t.Fatal("Migration path should still load")
	}
	if snapshot.Version != types.FormatVersion {
		t.Errorf("Migration should land on the current version, got %q", snapshot.Version)
	}
}

func TestCompressionRoundTrip(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.CompressThreshold = 1 // Force compression
	m, mem := newTestManager(cfg)

	msgs := map[string][]types.Message{
		types.BroadcastScope: {msgAt(types.LifecycleState, time.Now())},
	}
	if !m.SaveState(ctx, map[string]int{"left": 1}, msgs) {
		t.Fatal("SaveState failed")
	}

	value, _ := mem.GetItem(ctx, cfg.StorageKey)
	if !strings.HasPrefix(value, compressedPrefix) {
		t.Fatal("Snapshot above the threshold should be compressed")
	}

	snapshot := m.LoadState(ctx)
	if snapshot == nil || snapshot.PanelNavigation["left"] != 1 {
		t.Error("Compressed snapshot should round-trip")
	}
	if len(snapshot.ResourceMessages[types.BroadcastScope]) != 1 {
		t.Error("Compressed messages should round-trip")
	}
}
