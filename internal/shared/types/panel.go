package types

// Resource is an addressable unit of content that can be displayed in a
// panel and can send/receive messages. Immutable once a configuration is
// applied; replacing the configuration replaces the whole resource set.
type Resource struct {
	ID          string                 `json:"id" yaml:"id"`
	Title       string                 `json:"title,omitempty" yaml:"title,omitempty"`
	Description string                 `json:"description,omitempty" yaml:"description,omitempty"`
	Icon        string                 `json:"icon,omitempty" yaml:"icon,omitempty"`
	Category    string                 `json:"category,omitempty" yaml:"category,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Panel is a named slot holding an ordered list of resources, showing
// exactly one at a time.
type Panel struct {
	ID          string   `json:"id" yaml:"id"`
	ResourceIDs []string `json:"resource_ids" yaml:"resource_ids"`

	// Initial display position; InitialResourceID wins over InitialIndex
	// when both are set. Out-of-range values are clamped.
	InitialResourceID string `json:"initial_resource_id,omitempty" yaml:"initial_resource_id,omitempty"`
	InitialIndex      *int   `json:"initial_index,omitempty" yaml:"initial_index,omitempty"`
}

// PanelConfig is the host-supplied static configuration: the full
// resource set and panel membership.
type PanelConfig struct {
	Resources []Resource `json:"resources" yaml:"resources"`
	Panels    []Panel    `json:"panels" yaml:"panels"`
}

// NavigationState is the per-render view a host needs for one panel
type NavigationState struct {
	PanelID       string `json:"panel_id"`
	ResourceID    string `json:"resource_id"`
	Index         int    `json:"index"`
	Count         int    `json:"count"`
	CanGoNext     bool   `json:"can_go_next"`
	CanGoPrevious bool   `json:"can_go_previous"`
}
