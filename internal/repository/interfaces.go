package repository

import (
	"context"

	"github.com/BarkinBalci/dataset-validation-service/internal/domain"
)

// MetricsQuery represents a metrics query parameters
type MetricsQuery struct {
	RunID   string
	From    int64
	To      int64
	GroupBy string
}

// MetricsGroupResult represents aggregated validation errors for a specific group
type MetricsGroupResult struct {
	GroupValue string
	ErrorCount uint64
}

// MetricsResult represents the result of a metrics query
type MetricsResult struct {
	TotalPushes   uint64
	TotalItems    uint64
	RejectedItems uint64
	Groups        []MetricsGroupResult
}

// OutcomeRepository defines the interface for push outcome storage operations
type OutcomeRepository interface {
	// InsertBatch inserts a batch of push outcomes into the storage
	InsertBatch(ctx context.Context, outcomes []*domain.PushOutcome) (int, error)

	// InitSchema initializes the database schema (creates tables if they don't exist)
	InitSchema(ctx context.Context) error

	// Ping checks if the database connection is alive
	Ping(ctx context.Context) error

	// Close closes the repository and releases resources
	Close() error

	// GetMetrics retrieves aggregated push and validation error metrics
	GetMetrics(ctx context.Context, query MetricsQuery) (*MetricsResult, error)
}

// SupportedGroupBy lists the accepted MetricsQuery.GroupBy values
var SupportedGroupBy = map[string]bool{"field": true, "keyword": true, "hour": true, "day": true}
