package types

// FormatVersion is the current persistence snapshot format
const FormatVersion = "1.0.0"

// Snapshot is the persisted record: navigation cursors plus a filtered
// projection of the message store.
type Snapshot struct {
	PanelNavigation  map[string]int       `json:"panel_navigation"`
	ResourceMessages map[string][]Message `json:"resource_messages"`
	SavedAt          int64                `json:"saved_at"` // epoch millis
	Version          string               `json:"version"`
}

// StorageInfo describes the currently persisted snapshot, if any
type StorageInfo struct {
	HasStoredState bool   `json:"has_stored_state"`
	SizeBytes      int    `json:"size_bytes"`
	SavedAt        int64  `json:"saved_at,omitempty"`
	FormatVersion  string `json:"format_version,omitempty"`
}
