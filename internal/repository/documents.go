// Package repository owns serialization, defaulting and validation of the
// documents kept in the persistent store. Nothing else reads or writes the
// store directly.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"expenseflow/internal/core"
	applog "expenseflow/internal/log"
	"expenseflow/internal/metrics"
	"expenseflow/internal/storage"
)

// readDocument decodes the JSON document under key into v.
// It returns the raw bytes, whether the key existed, and a *core.CorruptDataError
// when the bytes do not decode.
func readDocument(ctx context.Context, s storage.Store, key string, v any) ([]byte, bool, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		metrics.CorruptReads.WithLabelValues(key).Inc()
		slog.WarnContext(ctx, "Stored document is corrupt",
			applog.FieldComponent, applog.ComponentStorage,
			applog.FieldErrorType, applog.ErrorTypeCorrupt,
			"key", key,
			"bytes", len(raw),
			applog.FieldError, err)
		return raw, true, &core.CorruptDataError{Key: key, Err: err}
	}
	return raw, true, nil
}

func writeDocument(ctx context.Context, s storage.Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.Set(ctx, key, data); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// replaceDocument writes v under key. An undecodable value already stored there
// is quarantined first so the write never destroys it.
func replaceDocument(ctx context.Context, s storage.Store, key string, v, shape any, now time.Time) error {
	raw, _, err := readDocument(ctx, s, key, shape)
	if err != nil {
		if !errors.Is(err, core.ErrCorruptData) {
			return err
		}
		if err := quarantine(ctx, s, key, raw, now); err != nil {
			return err
		}
	}
	return writeDocument(ctx, s, key, v)
}

// quarantine copies raw to "<key>.corrupt.<unix nanos>".
func quarantine(ctx context.Context, s storage.Store, key string, raw []byte, now time.Time) error {
	qkey := fmt.Sprintf("%s.corrupt.%d", key, now.UnixNano())
	if err := s.Set(ctx, qkey, raw); err != nil {
		return fmt.Errorf("quarantine corrupt %s: %w", key, err)
	}
	slog.WarnContext(ctx, "Corrupt document moved aside",
		applog.FieldComponent, applog.ComponentStorage,
		"key", key,
		"quarantine_key", qkey,
		"bytes", len(raw))
	return nil
}

// notFoundIfCorrupt lets lookups against an unreadable document surface as
// not-found while keeping the corruption detail in the chain.
func notFoundIfCorrupt(err error) error {
	if errors.Is(err, core.ErrCorruptData) {
		return errors.Join(core.ErrNotFound, err)
	}
	return err
}
