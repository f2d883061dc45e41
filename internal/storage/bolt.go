package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var errUnavailable = errors.New("storage: backend unavailable")

var boltBucket = []byte("panelkit")

// Bolt persists key-value pairs in an embedded bbolt database file.
// This is the application-database backend for hosts that run outside a
// browser.
type Bolt struct {
	db *bolt.DB
}

// NewBolt opens (or creates) the database at path
func NewBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &Bolt{db: db}, nil
}

// Close releases the database file
func (b *Bolt) Close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

// IsAvailable reports whether the database is open
func (b *Bolt) IsAvailable(ctx context.Context) bool {
	return b.db != nil
}

// GetItem returns the stored value or ErrNotFound
func (b *Bolt) GetItem(ctx context.Context, key string) (string, error) {
	if b.db == nil {
		return "", errUnavailable
	}

	var value []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(boltBucket).Get([]byte(key))
		if raw == nil {
			return ErrNotFound
		}
		// Copy: bbolt memory is only valid inside the transaction
		value = append([]byte(nil), raw...)
		return nil
	})
	if err != nil {
		return "", err
	}
	return string(value), nil
}

// SetItem stores a value
func (b *Bolt) SetItem(ctx context.Context, key, value string) error {
	if b.db == nil {
		return errUnavailable
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put([]byte(key), []byte(value))
	})
}

// RemoveItem deletes a key
func (b *Bolt) RemoveItem(ctx context.Context, key string) error {
	if b.db == nil {
		return errUnavailable
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Delete([]byte(key))
	})
}
