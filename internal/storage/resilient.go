package storage

import (
	"context"
	"errors"

	"github.com/GriffinCanCode/PanelKit/backend/internal/infrastructure/resilience"
)

// Resilient wraps an adapter with a circuit breaker. When the backend
// trips the breaker, calls fail fast with the breaker's error instead of
// waiting out timeouts and retries on every snapshot.
//
// ErrNotFound is not a backend failure and never counts against the
// breaker.
type Resilient struct {
	inner   Adapter
	breaker *resilience.Breaker
}

// NewResilient wraps an adapter with the given breaker settings.
func NewResilient(inner Adapter, name string, settings resilience.Settings) *Resilient {
	return &Resilient{
		inner:   inner,
		breaker: resilience.New(name, settings),
	}
}

// BreakerState reports the current breaker state.
func (r *Resilient) BreakerState() resilience.State {
	return r.breaker.State()
}

// IsAvailable reports false while the breaker is open.
func (r *Resilient) IsAvailable(ctx context.Context) bool {
	if r.breaker.State() == resilience.StateOpen {
		return false
	}
	return r.inner.IsAvailable(ctx)
}

// GetItem reads a key through the breaker. An absent key is passed
// through as ErrNotFound without counting as a backend failure.
func (r *Resilient) GetItem(ctx context.Context, key string) (string, error) {
	var value string
	var notFound bool
	err := r.breaker.Do(func() error {
		v, err := r.inner.GetItem(ctx, key)
		if errors.Is(err, ErrNotFound) {
			notFound = true
			return nil
		}
		value = v
		return err
	})
	if err != nil {
		return "", err
	}
	if notFound {
		return "", ErrNotFound
	}
	return value, nil
}

// SetItem writes a key through the breaker.
func (r *Resilient) SetItem(ctx context.Context, key, value string) error {
	return r.breaker.Do(func() error {
		return r.inner.SetItem(ctx, key, value)
	})
}

// RemoveItem deletes a key through the breaker.
func (r *Resilient) RemoveItem(ctx context.Context, key string) error {
	return r.breaker.Do(func() error {
		return r.inner.RemoveItem(ctx, key)
	})
}
