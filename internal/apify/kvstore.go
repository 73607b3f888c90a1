package apify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/BarkinBalci/dataset-validation-service/internal/state"
)

// KeyValueStore implements state.Store with records of a hosted key-value store
type KeyValueStore struct {
	client *Client
	id     string
	log    *zap.Logger
}

// compile-time check that interface is satisfied
var _ state.Store = (*KeyValueStore)(nil)

// OpenKeyValueStore returns the store with the given id. Without an id the
// store called name is opened, and created if needed.
func OpenKeyValueStore(ctx context.Context, client *Client, id, name string, log *zap.Logger) (*KeyValueStore, error) {
	if id == "" {
		body, err := client.do(ctx, http.MethodPost, "/v2/key-value-stores", url.Values{"name": {name}}, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to open key-value store %q: %w", name, err)
		}

		var info storageInfoResponse
		if err := json.Unmarshal(body, &info); err != nil {
			return nil, fmt.Errorf("failed to decode key-value store %q: %w", name, err)
		}
		id = info.Data.ID
	}

	log.Info("Key-value store opened", zap.String("store_id", id))

	return &KeyValueStore{client: client, id: id, log: log}, nil
}

// ID returns the key-value store id
func (s *KeyValueStore) ID() string {
	return s.id
}

// Get returns the record stored under key
func (s *KeyValueStore) Get(ctx context.Context, key string) ([]byte, error) {
	body, err := s.client.do(ctx, http.MethodGet, s.recordPath(key), nil, nil)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return nil, state.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s: %w", key, err)
	}
	return body, nil
}

// Set stores value as a JSON record under key
func (s *KeyValueStore) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.client.do(ctx, http.MethodPut, s.recordPath(key), nil, value); err != nil {
		return fmt.Errorf("failed to set record %s: %w", key, err)
	}
	s.log.Debug("Record saved", zap.String("store_id", s.id), zap.String("key", key))
	return nil
}

func (s *KeyValueStore) recordPath(key string) string {
	return "/v2/key-value-stores/" + url.PathEscape(s.id) + "/records/" + url.PathEscape(key)
}
