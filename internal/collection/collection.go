// Package collection reads and writes whole JSON-encoded record collections
// stored as a single value in a key-value store.
package collection

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jacobmichels/portal"
	"github.com/jacobmichels/portal/metrics"
	"github.com/rs/zerolog/log"
)

// Load returns the collection stored under key.
// A missing key yields an empty collection. So does a value that cannot be decoded:
// it is logged and counted, and left in place until the next Save overwrites it.
func Load[T any](ctx context.Context, kv portal.KeyValueStore, key string) ([]T, error) {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		log.Warn().Err(err).Str("key", key).Msgf("%s, treating collection as empty", portal.ErrCorruptPersistedState)
		metrics.CorruptReads.WithLabelValues(key).Inc()
		return []T{}, nil
	}
	if items == nil {
		items = []T{}
	}

	return items, nil
}

// Exists reports whether anything, decodable or not, is stored under key
func Exists(ctx context.Context, kv portal.KeyValueStore, key string) (bool, error) {
	_, ok, err := kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return ok, nil
}

// Save replaces the whole collection stored under key
func Save[T any](ctx context.Context, kv portal.KeyValueStore, key string, items []T) error {
	if items == nil {
		items = []T{}
	}

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", key, err)
	}

	if err := kv.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("failed to persist %s: %w", key, err)
	}
	metrics.CollectionWrites.WithLabelValues(key).Inc()

	return nil
}
