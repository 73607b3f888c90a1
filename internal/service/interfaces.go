package service

import (
	"context"

	"github.com/BarkinBalci/dataset-validation-service/internal/domain"
	"github.com/BarkinBalci/dataset-validation-service/internal/dto"
	"github.com/BarkinBalci/dataset-validation-service/internal/pusher"
)

// Pusher defines the validated pusher operations used by the push service
type Pusher interface {
	PushData(ctx context.Context, items ...domain.Item) (*pusher.PushResult, error)
	GetStats() *domain.ValidationStats
	SaveStats(ctx context.Context) error
}

// PushServicer defines the interface for push service operations
type PushServicer interface {
	PushItems(ctx context.Context, items []domain.Item) (*dto.PushItemsResponse, error)
	EnqueueItems(ctx context.Context, items []domain.Item) (*dto.EnqueueItemsResponse, error)
	Stats() domain.ValidationStats
	GetMetrics(ctx context.Context, req *dto.GetMetricsRequest) (*dto.GetMetricsResponse, error)
}
