package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GriffinCanCode/PanelKit/backend/internal/infrastructure/resilience"
)

func tripFast() resilience.Settings {
	return resilience.Settings{
		MaxRequests: 1,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 2
		},
	}
}

func TestResilientPassThrough(t *testing.T) {
	ctx := context.Background()
	r := NewResilient(NewMemory(), "test", tripFast())

	if err := r.SetItem(ctx, "k", "v"); err != nil {
		t.Fatalf("SetItem failed: %v", err)
	}
	value, err := r.GetItem(ctx, "k")
	if err != nil || value != "v" {
		t.Fatalf("GetItem = %q, %v", value, err)
	}
	if err := r.RemoveItem(ctx, "k"); err != nil {
		t.Fatalf("RemoveItem failed: %v", err)
	}
	if !r.IsAvailable(ctx) {
		t.Error("Healthy backend should be available")
	}
}

func TestResilientNotFoundIsNotFailure(t *testing.T) {
	ctx := context.Background()
	r := NewResilient(NewMemory(), "test", tripFast())

	for i := 0; i < 5; i++ {
		if _, err := r.GetItem(ctx, "absent"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("GetItem should pass ErrNotFound through, got %v", err)
		}
	}
	if r.BreakerState() != resilience.StateClosed {
		t.Error("Missing keys must not trip the breaker")
	}
}

func TestResilientTripsOnBackendFailure(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	mem.SetAvailable(false)
	r := NewResilient(mem, "test", tripFast())

	r.SetItem(ctx, "k", "v")
	r.SetItem(ctx, "k", "v")
	if r.BreakerState() != resilience.StateOpen {
		t.Fatal("Breaker should open after consecutive failures")
	}

	// Backend recovers but the breaker is still open: fail fast
	mem.SetAvailable(true)
	if err := r.SetItem(ctx, "k", "v"); !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Errorf("Open breaker should reject, got %v", err)
	}
	if r.IsAvailable(ctx) {
		t.Error("Open breaker should report unavailable")
	}
}
