package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BarkinBalci/dataset-validation-service/internal/apify"
	"github.com/BarkinBalci/dataset-validation-service/internal/config"
	"github.com/BarkinBalci/dataset-validation-service/internal/pusher"
	"github.com/BarkinBalci/dataset-validation-service/internal/repository"
	"github.com/BarkinBalci/dataset-validation-service/internal/repository/clickhouse"
	"github.com/BarkinBalci/dataset-validation-service/internal/state"
	"github.com/BarkinBalci/dataset-validation-service/internal/state/redis"
)

// Runtime holds the validated pusher of a process and the storages it reports on
type Runtime struct {
	Pusher *pusher.Pusher
	// StateStoreID is the hosted key-value store holding the stats. It is
	// empty when the stats live in Redis.
	StateStoreID string

	cfg     *config.Config
	closers []func() error
	log     *zap.Logger
}

// NewRuntime connects the configured state backend and creates the validated pusher
func NewRuntime(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Runtime, error) {
	rt := &Runtime{cfg: cfg, log: log}

	client := apify.NewClient(cfg.Apify, log)

	states, err := rt.openStateStore(ctx, client)
	if err != nil {
		rt.Close()
		return nil, err
	}

	store := apify.NewDatasetStore(client, cfg.Actor.DefaultDatasetID, log)

	p, err := pusher.New(ctx, store, states, pusher.Options{
		RunID:    cfg.Actor.RunID,
		StateKey: cfg.State.Key,
	}, log)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Pusher = p

	return rt, nil
}

func (rt *Runtime) openStateStore(ctx context.Context, client *apify.Client) (state.Store, error) {
	switch rt.cfg.State.Backend {
	case config.StateBackendRedis:
		redisClient, err := redis.NewClient(ctx, rt.cfg.Redis, rt.log)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis client: %w", err)
		}
		rt.closers = append(rt.closers, redisClient.Close)
		return redis.NewStore(redisClient, rt.cfg.Redis.KeyPrefix, rt.log), nil
	default:
		kv, err := apify.OpenKeyValueStore(ctx, client, rt.cfg.Actor.DefaultKeyValueStoreID, rt.cfg.State.StoreName, rt.log)
		if err != nil {
			return nil, fmt.Errorf("failed to open state store: %w", err)
		}
		rt.StateStoreID = kv.ID()
		return kv, nil
	}
}

// OutcomeRepository connects the outcome log and creates its tables. It
// returns nil when the outcome log is disabled. Close releases the connection.
func (rt *Runtime) OutcomeRepository(ctx context.Context) (repository.OutcomeRepository, error) {
	if !rt.cfg.ClickHouse.Enabled {
		return nil, nil
	}

	client, err := clickhouse.NewClient(ctx, &rt.cfg.ClickHouse, rt.log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect outcome log: %w", err)
	}
	repo := clickhouse.NewRepository(client, rt.log)
	rt.closers = append(rt.closers, repo.Close)

	if err := repo.InitSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize outcome log schema: %w", err)
	}
	rt.log.Info("Outcome log schema initialized")

	return repo, nil
}

// Close releases the connections opened by the runtime, latest first
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.log.Error("Failed to close connection", zap.Error(err))
		}
	}
	rt.closers = nil
}
