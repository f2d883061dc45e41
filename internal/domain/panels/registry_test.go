package panels

import (
	"testing"

	"github.com/GriffinCanCode/PanelKit/backend/internal/shared/types"
)

func testConfig() types.PanelConfig {
	return types.PanelConfig{
		Resources: []types.Resource{
			{ID: "scriptureA", Category: "scripture"},
			{ID: "scriptureB", Category: "scripture"},
			{ID: "notesA", Category: "notes"},
		},
		Panels: []types.Panel{
			{ID: "left", ResourceIDs: []string{"scriptureA", "scriptureB"}},
			{ID: "right", ResourceIDs: []string{"notesA"}},
		},
	}
}

func newConfigured(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	if err := r.SetConfig(testConfig()); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}
	return r
}

func TestSetConfigValidation(t *testing.T) {
	r := NewRegistry()

	cases := []struct {
		name string
		cfg  types.PanelConfig
	}{
		{"empty panel", types.PanelConfig{
			Resources: []types.Resource{{ID: "a"}},
			Panels:    []types.Panel{{ID: "p"}},
		}},
		{"unknown member", types.PanelConfig{
			Resources: []types.Resource{{ID: "a"}},
			Panels:    []types.Panel{{ID: "p", ResourceIDs: []string{"missing"}}},
		}},
		{"duplicate resource", types.PanelConfig{
			Resources: []types.Resource{{ID: "a"}, {ID: "a"}},
			Panels:    []types.Panel{{ID: "p", ResourceIDs: []string{"a"}}},
		}},
		{"duplicate panel", types.PanelConfig{
			Resources: []types.Resource{{ID: "a"}},
			Panels: []types.Panel{
				{ID: "p", ResourceIDs: []string{"a"}},
				{ID: "p", ResourceIDs: []string{"a"}},
			},
		}},
	}

	for _, tc := range cases {
		if err := r.SetConfig(tc.cfg); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestInitialIndexResolution(t *testing.T) {
	idx := 5
	cfg := types.PanelConfig{
		Resources: []types.Resource{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Panels: []types.Panel{
			{ID: "byResource", ResourceIDs: []string{"a", "b", "c"}, InitialResourceID: "b"},
			{ID: "byIndex", ResourceIDs: []string{"a", "b"}, InitialIndex: &idx}, // Out of range, clamps
			{ID: "default", ResourceIDs: []string{"a", "b"}},
		},
	}

	r := NewRegistry()
	if err := r.SetConfig(cfg); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}

	nav := r.Navigation()
	if nav["byResource"] != 1 {
		t.Errorf("InitialResourceID should resolve to index 1, got %d", nav["byResource"])
	}
	if nav["byIndex"] != 1 {
		t.Errorf("Out-of-range InitialIndex should clamp to 1, got %d", nav["byIndex"])
	}
	if nav["default"] != 0 {
		t.Errorf("Default initial index should be 0, got %d", nav["default"])
	}
}

func TestNavigationClamping(t *testing.T) {
	r := newConfigured(t)

	// N resources, N+5 next calls from index 0 must land on N-1
	for i := 0; i < 7; i++ {
		r.Next("left")
	}
	if nav := r.Navigation(); nav["left"] != 1 {
		t.Errorf("Next should clamp at the last index, got %d", nav["left"])
	}

	for i := 0; i < 5; i++ {
		r.Previous("left")
	}
	if nav := r.Navigation(); nav["left"] != 0 {
		t.Errorf("Previous should clamp at 0, got %d", nav["left"])
	}

	r.SetCurrentResource("left", 99)
	if nav := r.Navigation(); nav["left"] != 1 {
		t.Errorf("SetCurrentResource should clamp, got %d", nav["left"])
	}
	r.SetCurrentResource("left", -3)
	if nav := r.Navigation(); nav["left"] != 0 {
		t.Errorf("SetCurrentResource should clamp negatives to 0, got %d", nav["left"])
	}
}

func TestUnknownPanelIsNoOp(t *testing.T) {
	r := newConfigured(t)

	r.Next("missing")
	r.Previous("missing")
	r.SetCurrentResource("missing", 2)

	if _, ok := r.NavigationState("missing"); ok {
		t.Error("NavigationState should report unknown panels")
	}
	if r.SetResourceByID("missing", "scriptureA") {
		t.Error("SetResourceByID on unknown panel should return false")
	}
}

func TestSetResourceByID(t *testing.T) {
	r := newConfigured(t)

	if !r.SetResourceByID("left", "scriptureB") {
		t.Fatal("Member resource should be selectable")
	}
	if nav := r.Navigation(); nav["left"] != 1 {
		t.Errorf("SetResourceByID should move the cursor, got %d", nav["left"])
	}

	// notesA exists in the system but not in this panel
	if r.SetResourceByID("left", "notesA") {
		t.Error("Resource outside the panel must not be selectable there")
	}
	if nav := r.Navigation(); nav["left"] != 1 {
		t.Error("Failed selection must not mutate the cursor")
	}
}

func TestNavigationState(t *testing.T) {
	r := newConfigured(t)

	state, ok := r.NavigationState("left")
	if !ok {
		t.Fatal("NavigationState failed for known panel")
	}
	if state.ResourceID != "scriptureA" || state.CanGoPrevious || !state.CanGoNext {
		t.Errorf("Unexpected initial state: %+v", state)
	}

	r.Next("left")
	state, _ = r.NavigationState("left")
	if state.ResourceID != "scriptureB" || !state.CanGoPrevious || state.CanGoNext {
		t.Errorf("Unexpected state after Next: %+v", state)
	}
}

func TestPanelForFirstMatch(t *testing.T) {
	cfg := types.PanelConfig{
		Resources: []types.Resource{{ID: "shared"}, {ID: "other"}},
		Panels: []types.Panel{
			{ID: "first", ResourceIDs: []string{"shared"}},
			{ID: "second", ResourceIDs: []string{"other", "shared"}}, // Duplication is intentional
		},
	}
	r := NewRegistry()
	if err := r.SetConfig(cfg); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}

	panelID, ok := r.PanelFor("shared")
	if !ok || panelID != "first" {
		t.Errorf("PanelFor should return the first match, got %q", panelID)
	}
	if _, ok := r.PanelFor("missing"); ok {
		t.Error("PanelFor should miss on unknown resources")
	}
}

func TestVisibleResources(t *testing.T) {
	r := newConfigured(t)
	r.Next("left")

	visible := r.VisibleResources()
	if visible["left"] != "scriptureB" || visible["right"] != "notesA" {
		t.Errorf("Unexpected visible map: %v", visible)
	}
}

func TestResourcesByCategory(t *testing.T) {
	r := newConfigured(t)

	grouped := r.ResourcesByCategory()
	if len(grouped["scripture"]) != 2 || len(grouped["notes"]) != 1 {
		t.Errorf("Unexpected grouping: %v", grouped)
	}
}

func TestRestoreNavigation(t *testing.T) {
	r := newConfigured(t)

	r.RestoreNavigation(map[string]int{
		"left":    9, // Clamped
		"right":   0,
		"unknown": 3, // Skipped
	})

	nav := r.Navigation()
	if nav["left"] != 1 || nav["right"] != 0 {
		t.Errorf("Unexpected navigation after restore: %v", nav)
	}
	if _, ok := nav["unknown"]; ok {
		t.Error("Restore must not invent panels")
	}
}

func TestSetConfigResetsNavigation(t *testing.T) {
	r := newConfigured(t)
	r.Next("left")

	if err := r.SetConfig(testConfig()); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}
	if nav := r.Navigation(); nav["left"] != 0 {
		t.Errorf("SetConfig should reset cursors to initial positions, got %d", nav["left"])
	}
}
