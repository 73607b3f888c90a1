package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BarkinBalci/dataset-validation-service/internal/apify"
	"github.com/BarkinBalci/dataset-validation-service/internal/config"
	"github.com/BarkinBalci/dataset-validation-service/internal/domain"
	"github.com/BarkinBalci/dataset-validation-service/internal/state"
)

// StatsRecord is the persisted validation stats and where they are stored
type StatsRecord struct {
	Stats *domain.ValidationStats
	// Loaded is false when no record exists yet and Stats holds zeros.
	Loaded bool
	URL    string
}

// LoadStats reads the persisted validation stats from the configured state
// backend. No dataset is opened, so nothing is created on the dataset store.
func LoadStats(ctx context.Context, cfg *config.Config, log *zap.Logger) (*StatsRecord, error) {
	rt := &Runtime{cfg: cfg, log: log}
	defer rt.Close()

	states, err := rt.openStateStore(ctx, apify.NewClient(cfg.Apify, log))
	if err != nil {
		return nil, err
	}

	stats := domain.NewValidationStats()
	loaded, err := state.LoadOrInit(ctx, states, cfg.State.Key, stats)
	if err != nil {
		return nil, fmt.Errorf("failed to load validation stats: %w", err)
	}
	stats.Normalize()

	return &StatsRecord{
		Stats:  stats,
		Loaded: loaded,
		URL:    rt.statsLocation(cfg.State.Key),
	}, nil
}
