package storage

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// RemoteConfig configures the remote key-value adapter
type RemoteConfig struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
	AuthToken  string
}

// DefaultRemoteConfig returns production-ready remote adapter configuration
func DefaultRemoteConfig(baseURL string) RemoteConfig {
	return RemoteConfig{
		BaseURL:    baseURL,
		Timeout:    5 * time.Second,
		RetryCount: 2,
	}
}

// Remote talks to a remote key-value HTTP API:
//
//	GET    /kv/{key}  -> 200 value | 404
//	PUT    /kv/{key}  -> 204
//	DELETE /kv/{key}  -> 204
//	GET    /health    -> 200
//
// The adapter imposes its own timeout and retry policy; any remaining
// failure surfaces as an error for the persistence manager to
// normalize.
type Remote struct {
	client *resty.Client
}

// NewRemote creates a remote key-value adapter
func NewRemote(cfg RemoteConfig) *Remote {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond)

	if cfg.AuthToken != "" {
		client.SetAuthToken(cfg.AuthToken)
	}

	return &Remote{client: client}
}

// IsAvailable probes the backend's health endpoint
func (r *Remote) IsAvailable(ctx context.Context) bool {
	resp, err := r.client.R().SetContext(ctx).Get("/health")
	return err == nil && resp.StatusCode() == http.StatusOK
}

// GetItem fetches a value; a 404 maps to ErrNotFound
func (r *Remote) GetItem(ctx context.Context, key string) (string, error) {
	resp, err := r.client.R().
		SetContext(ctx).
		SetPathParam("key", key).
		Get("/kv/{key}")
	if err != nil {
		return "", fmt.Errorf("remote get failed: %w", err)
	}
	switch resp.StatusCode() {
	case http.StatusOK:
		return resp.String(), nil
	case http.StatusNotFound:
		return "", ErrNotFound
	default:
		return "", fmt.Errorf("remote get returned status %d", resp.StatusCode())
	}
}

// SetItem stores a value
func (r *Remote) SetItem(ctx context.Context, key, value string) error {
	resp, err := r.client.R().
		SetContext(ctx).
		SetPathParam("key", key).
		SetHeader("Content-Type", "application/octet-stream").
		SetBody(value).
		Put("/kv/{key}")
	if err != nil {
		return fmt.Errorf("remote set failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("remote set returned status %d", resp.StatusCode())
	}
	return nil
}

// RemoveItem deletes a key; a 404 is treated as success
func (r *Remote) RemoveItem(ctx context.Context, key string) error {
	resp, err := r.client.R().
		SetContext(ctx).
		SetPathParam("key", key).
		Delete("/kv/{key}")
	if err != nil {
		return fmt.Errorf("remote remove failed: %w", err)
	}
	if resp.IsError() && resp.StatusCode() != http.StatusNotFound {
		return fmt.Errorf("remote remove returned status %d", resp.StatusCode())
	}
	return nil
}
