package consumer

import (
	"context"

	"github.com/BarkinBalci/dataset-validation-service/internal/domain"
	"github.com/BarkinBalci/dataset-validation-service/internal/dto"
)

// MessageParser defines the interface for parsing raw message bytes into items
type MessageParser interface {
	Parse(body []byte) ([]domain.Item, error)
}

// ItemPusher pushes a batch of items through the validated pusher
type ItemPusher interface {
	PushItems(ctx context.Context, items []domain.Item) (*dto.PushItemsResponse, error)
}
