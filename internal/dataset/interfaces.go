package dataset

import (
	"context"

	"github.com/BarkinBalci/dataset-validation-service/internal/domain"
)

// Store opens append-only datasets by name
type Store interface {
	// Open returns the dataset with the given name, creating it if needed.
	// An empty name opens the default dataset of the run.
	Open(ctx context.Context, name string) (Dataset, error)
}

// Dataset is an append-only, externally persisted collection of items
type Dataset interface {
	ID() string
	Name() string

	// PushData appends items to the dataset. Datasets with a schema reject
	// the whole batch with a *ValidationRejectedError if any item is invalid.
	PushData(ctx context.Context, items []domain.Item) error
}
