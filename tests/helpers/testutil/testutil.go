// Package testutil provides testing utilities and helpers for backend tests.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/GriffinCanCode/PanelKit/backend/internal/shared/types"
)

// MockAdapter is a mock implementation of storage.Adapter for testing.
type MockAdapter struct {
	mock.Mock
}

// IsAvailable mocks the IsAvailable method.
func (m *MockAdapter) IsAvailable(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

// GetItem mocks the GetItem method.
func (m *MockAdapter) GetItem(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

// SetItem mocks the SetItem method.
func (m *MockAdapter) SetItem(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

// RemoveItem mocks the RemoveItem method.
func (m *MockAdapter) RemoveItem(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// MockResolver is a mock implementation of bus.ResourceResolver.
type MockResolver struct {
	mock.Mock
}

// Knows mocks the Knows method.
func (m *MockResolver) Knows(resourceID string) bool {
	args := m.Called(resourceID)
	return args.Bool(0)
}

// TwoPanelConfig returns the canonical test layout: a left panel with
// two scripture resources and a right panel with one notes resource.
func TwoPanelConfig() types.PanelConfig {
	return types.PanelConfig{
		Resources: []types.Resource{
			{ID: "scriptureA", Title: "Scripture A", Category: "scripture"},
			{ID: "scriptureB", Title: "Scripture B", Category: "scripture"},
			{ID: "notesA", Title: "Notes", Category: "notes"},
		},
		Panels: []types.Panel{
			{ID: "left", ResourceIDs: []string{"scriptureA", "scriptureB"}},
			{ID: "right", ResourceIDs: []string{"notesA"}},
		},
	}
}

// MessageIDs extracts IDs from a message slice, in order.
func MessageIDs(t *testing.T, msgs []types.Message) []string {
	t.Helper()
	ids := make([]string, len(msgs))
	for i, msg := range msgs {
		ids[i] = msg.ID
	}
	return ids
}
