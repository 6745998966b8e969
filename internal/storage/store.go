// Package storage provides the key-value store holding the JSON documents of one
// expense tracking profile.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// Logical keys of the persisted documents.
const (
	KeyUser            = "user"
	KeyExpenses        = "expenses"
	KeyUserData        = "userData"
	KeyIsAuthenticated = "isAuthenticated"
	KeySchemaVersion   = "schemaVersion"
)

// SchemaVersion is the layout version written by this build.
const SchemaVersion = 1

var (
	ErrKeyNotFound       = errors.New("key not found")
	ErrUnsupportedSchema = errors.New("unsupported schema version")
)

// Store is a flat key-value store of raw JSON documents. Implementations must be
// safe for concurrent use; there are no transactions across keys.
type Store interface {
	// Get returns the value under key or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set creates or replaces the value under key.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}

// EnsureSchema stamps an unversioned store with SchemaVersion and refuses stores
// written by a newer layout.
func EnsureSchema(ctx context.Context, s Store) error {
	raw, err := s.Get(ctx, KeySchemaVersion)
	if errors.Is(err, ErrKeyNotFound) {
		return s.Set(ctx, KeySchemaVersion, []byte(strconv.Itoa(SchemaVersion)))
	}
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	v, err := strconv.Atoi(string(raw))
	if err != nil {
		return fmt.Errorf("parse schema version %q: %w", raw, err)
	}
	if v > SchemaVersion {
		return fmt.Errorf("%w: store has %d, this build supports %d", ErrUnsupportedSchema, v, SchemaVersion)
	}
	return nil
}
