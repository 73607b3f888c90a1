package pusher

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/BarkinBalci/dataset-validation-service/internal/dataset"
	"github.com/BarkinBalci/dataset-validation-service/internal/domain"
)

// MockStore is a mock implementation of dataset.Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Open(ctx context.Context, name string) (dataset.Dataset, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(dataset.Dataset), args.Error(1)
}

// MockDataset is a mock implementation of dataset.Dataset that also keeps
// every item it accepted.
type MockDataset struct {
	mock.Mock
	id     string
	pushed []domain.Item
}

func NewMockDataset(id string) *MockDataset {
	return &MockDataset{id: id}
}

func (m *MockDataset) ID() string {
	return m.id
}

func (m *MockDataset) Name() string {
	return m.id
}

func (m *MockDataset) PushData(ctx context.Context, items []domain.Item) error {
	args := m.Called(ctx, items)
	if err := args.Error(0); err != nil {
		return err
	}
	m.pushed = append(m.pushed, items...)
	return nil
}

// MockStateStore is a mock implementation of state.Store
type MockStateStore struct {
	mock.Mock
}

func (m *MockStateStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockStateStore) Set(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}
