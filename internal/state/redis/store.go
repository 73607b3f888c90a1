package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BarkinBalci/dataset-validation-service/internal/config"
	"github.com/BarkinBalci/dataset-validation-service/internal/state"
)

// Store implements state.Store on top of Redis string keys
type Store struct {
	client goredis.UniversalClient
	prefix string
	log    *zap.Logger
}

// NewClient creates a Redis client and verifies the connection
func NewClient(ctx context.Context, cfg config.Redis, log *zap.Logger) (*goredis.Client, error) {
	log.Info("Connecting to Redis",
		zap.String("addr", cfg.Addr()),
		zap.Int("db", cfg.DB))

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		log.Error("Failed to ping Redis", zap.Error(err))
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}

// NewStore creates a state store whose keys are namespaced by prefix
func NewStore(client goredis.UniversalClient, prefix string, log *zap.Logger) *Store {
	return &Store{
		client: client,
		prefix: prefix,
		log:    log,
	}
}

// Get returns the value stored under key
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, state.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key %s: %w", s.key(key), err)
	}
	return value, nil
}

// Set stores value under key without expiration
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", s.key(key), err)
	}
	s.log.Debug("State saved to Redis", zap.String("key", s.key(key)), zap.Int("bytes", len(value)))
	return nil
}

func (s *Store) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}
