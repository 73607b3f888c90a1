package state

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrNotFound is returned by a Store when the key holds no value.
var ErrNotFound = errors.New("state record not found")

// LoadOrInit decodes the record stored under key into v. When the key is
// absent v keeps its current value, which callers set to the default, and
// loaded is false.
func LoadOrInit(ctx context.Context, s Store, key string, v any) (bool, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load state %q: %w", key, err)
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("failed to decode state %q: %w", key, err)
	}

	return true, nil
}

// Save encodes v as JSON and stores it under key.
func Save(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode state %q: %w", key, err)
	}

	if err := s.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("failed to save state %q: %w", key, err)
	}

	return nil
}
