package panels

import (
	"fmt"
	"sort"
	"sync"

	"github.com/GriffinCanCode/PanelKit/backend/internal/shared/types"
)

// Registry holds the static panel/resource configuration and the
// per-panel navigation cursor.
//
// All mutation happens through explicit operations; lookups on unknown
// panel or resource IDs return zero values rather than errors, because
// this layer sits directly under rendering code where "nothing happened"
// beats a propagated exception.
type Registry struct {
	mu        sync.RWMutex
	resources map[string]*types.Resource
	panels    []types.Panel // Ordered; first match wins for duplicated resources
	byPanelID map[string]int
	nav       map[string]int // Panel ID -> currently displayed index
}

// NewRegistry creates an empty registry; apply a configuration with
// SetConfig before use.
func NewRegistry() *Registry {
	return &Registry{
		resources: make(map[string]*types.Resource),
		byPanelID: make(map[string]int),
		nav:       make(map[string]int),
	}
}

// SetConfig atomically replaces resources, panel membership, and resets
// every panel's navigation cursor to its configured initial position.
// InitialResourceID is resolved to an index first, then InitialIndex,
// else 0; out-of-range values are clamped.
func (r *Registry) SetConfig(cfg types.PanelConfig) error {
	resources := make(map[string]*types.Resource, len(cfg.Resources))
	for i := range cfg.Resources {
		res := cfg.Resources[i]
		if res.ID == "" {
			return fmt.Errorf("resource at position %d has empty ID", i)
		}
		if _, dup := resources[res.ID]; dup {
			return fmt.Errorf("duplicate resource ID: %s", res.ID)
		}
		resources[res.ID] = &res
	}

	byPanelID := make(map[string]int, len(cfg.Panels))
	panels := make([]types.Panel, 0, len(cfg.Panels))
	nav := make(map[string]int, len(cfg.Panels))

	for i, panel := range cfg.Panels {
		if panel.ID == "" {
			return fmt.Errorf("panel at position %d has empty ID", i)
		}
		if _, dup := byPanelID[panel.ID]; dup {
			return fmt.Errorf("duplicate panel ID: %s", panel.ID)
		}
		if len(panel.ResourceIDs) == 0 {
			return fmt.Errorf("panel %s has no resources", panel.ID)
		}
		for _, resID := range panel.ResourceIDs {
			if _, known := resources[resID]; !known {
				return fmt.Errorf("panel %s references unknown resource: %s", panel.ID, resID)
			}
		}

		byPanelID[panel.ID] = len(panels)
		panels = append(panels, clonePanel(panel))
		nav[panel.ID] = initialIndex(panel)
	}

	r.mu.Lock()
	r.resources = resources
	r.panels = panels
	r.byPanelID = byPanelID
	r.nav = nav
	r.mu.Unlock()

	return nil
}

// SetCurrentResource jumps a panel's cursor to index, clamped to the
// member range. Unknown panels are a no-op.
func (r *Registry) SetCurrentResource(panelID string, index int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	panel, ok := r.panel(panelID)
	if !ok {
		return
	}
	r.nav[panelID] = clamp(index, len(panel.ResourceIDs))
}

// Next advances a panel's cursor by one. Navigating past the end is a
// no-op, not a wrap; the last resource stays displayed.
func (r *Registry) Next(panelID string) {
	r.step(panelID, 1)
}

// Previous moves a panel's cursor back by one, clamped at 0
func (r *Registry) Previous(panelID string) {
	r.step(panelID, -1)
}

// SetResourceByID displays resourceID in the panel, returning false
// without mutation when the resource is not a member of that panel, even
// if it exists elsewhere in the system.
func (r *Registry) SetResourceByID(panelID, resourceID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	panel, ok := r.panel(panelID)
	if !ok {
		return false
	}
	for i, resID := range panel.ResourceIDs {
		if resID == resourceID {
			r.nav[panelID] = i
			return true
		}
	}
	return false
}

// Resource returns a copy of a registered resource
func (r *Registry) Resource(resourceID string) (*types.Resource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.resources[resourceID]
	if !ok {
		return nil, false
	}
	resCopy := *res
	return &resCopy, true
}

// Knows reports whether resourceID names a resource in the current
// configuration. Used by the bus for routing pre-checks.
func (r *Registry) Knows(resourceID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.resources[resourceID]
	return ok
}

// PanelFor resolves which panel currently contains a resource. Resources
// may appear in several panels; the first match in configuration order
// wins.
func (r *Registry) PanelFor(resourceID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, panel := range r.panels {
		for _, resID := range panel.ResourceIDs {
			if resID == resourceID {
				return panel.ID, true
			}
		}
	}
	return "", false
}

// VisibleResources computes the panel-id -> currently-visible-resource-id map
func (r *Registry) VisibleResources() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	visible := make(map[string]string, len(r.panels))
	for _, panel := range r.panels {
		idx := clamp(r.nav[panel.ID], len(panel.ResourceIDs))
		visible[panel.ID] = panel.ResourceIDs[idx]
	}
	return visible
}

// ResourcesByCategory lists resources grouped by category. Resources
// without a category group under the empty string.
func (r *Registry) ResourcesByCategory() map[string][]types.Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	grouped := make(map[string][]types.Resource)
	for _, res := range r.resources {
		grouped[res.Category] = append(grouped[res.Category], *res)
	}
	for _, group := range grouped {
		sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })
	}
	return grouped
}

// NavigationState returns the render-cycle view for one panel: current
// resource, position, and capability flags.
func (r *Registry) NavigationState(panelID string) (types.NavigationState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	panel, ok := r.panel(panelID)
	if !ok {
		return types.NavigationState{}, false
	}

	count := len(panel.ResourceIDs)
	idx := clamp(r.nav[panelID], count)
	return types.NavigationState{
		PanelID:       panelID,
		ResourceID:    panel.ResourceIDs[idx],
		Index:         idx,
		Count:         count,
		CanGoNext:     idx < count-1,
		CanGoPrevious: idx > 0,
	}, true
}

// Panels returns copies of all configured panels, in order
func (r *Registry) Panels() []types.Panel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Panel, 0, len(r.panels))
	for _, panel := range r.panels {
		out = append(out, clonePanel(panel))
	}
	return out
}

// Navigation returns a copy of the panel-id -> index cursor map,
// consumed by the persistence layer.
func (r *Registry) Navigation() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	nav := make(map[string]int, len(r.nav))
	for panelID, idx := range r.nav {
		nav[panelID] = idx
	}
	return nav
}

// RestoreNavigation applies persisted cursors. Indexes are clamped to
// the current membership; panels unknown to the current configuration
// are skipped, so a stale snapshot can never corrupt navigation.
func (r *Registry) RestoreNavigation(nav map[string]int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for panelID, idx := range nav {
		panel, ok := r.panel(panelID)
		if !ok {
			continue
		}
		r.nav[panelID] = clamp(idx, len(panel.ResourceIDs))
	}
}

// Stats returns registry statistics
func (r *Registry) Stats() map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return map[string]interface{}{
		"total_resources": len(r.resources),
		"total_panels":    len(r.panels),
	}
}

// step moves a panel cursor by delta with clamping. Unknown panels are a
// no-op.
func (r *Registry) step(panelID string, delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	panel, ok := r.panel(panelID)
	if !ok {
		return
	}
	r.nav[panelID] = clamp(r.nav[panelID]+delta, len(panel.ResourceIDs))
}

// panel resolves a panel by ID. Must hold the lock.
func (r *Registry) panel(panelID string) (*types.Panel, bool) {
	pos, ok := r.byPanelID[panelID]
	if !ok {
		return nil, false
	}
	return &r.panels[pos], true
}

// clamp bounds an index to [0, count-1]
func clamp(index, count int) int {
	if index < 0 {
		return 0
	}
	if index > count-1 {
		return count - 1
	}
	return index
}

// initialIndex resolves a panel's starting cursor position
func initialIndex(panel types.Panel) int {
	if panel.InitialResourceID != "" {
		for i, resID := range panel.ResourceIDs {
			if resID == panel.InitialResourceID {
				return i
			}
		}
	}
	if panel.InitialIndex != nil {
		return clamp(*panel.InitialIndex, len(panel.ResourceIDs))
	}
	return 0
}

// clonePanel deep-copies a panel so callers cannot mutate registry state
func clonePanel(panel types.Panel) types.Panel {
	cloned := panel
	cloned.ResourceIDs = append([]string(nil), panel.ResourceIDs...)
	return cloned
}
