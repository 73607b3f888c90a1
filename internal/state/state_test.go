package state

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStore is a mock implementation of Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockStore) Set(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

type counters struct {
	Total int            `json:"total"`
	Kinds map[string]int `json:"kinds"`
}

func TestLoadOrInit_NotFoundKeepsDefault(t *testing.T) {
	store := new(MockStore)
	store.On("Get", mock.Anything, "STATS").Return(nil, ErrNotFound)

	v := counters{Total: 0, Kinds: map[string]int{}}
	loaded, err := LoadOrInit(context.Background(), store, "STATS", &v)

	require.NoError(t, err)
	assert.False(t, loaded)
	assert.Equal(t, counters{Total: 0, Kinds: map[string]int{}}, v)
	store.AssertExpectations(t)
}

func TestLoadOrInit_Loaded(t *testing.T) {
	store := new(MockStore)
	store.On("Get", mock.Anything, "STATS").Return([]byte(`{"total": 7, "kinds": {"type": 2}}`), nil)

	var v counters
	loaded, err := LoadOrInit(context.Background(), store, "STATS", &v)

	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, 7, v.Total)
	assert.Equal(t, 2, v.Kinds["type"])
}

func TestLoadOrInit_StoreError(t *testing.T) {
	store := new(MockStore)
	store.On("Get", mock.Anything, "STATS").Return(nil, errors.New("connection refused"))

	var v counters
	loaded, err := LoadOrInit(context.Background(), store, "STATS", &v)

	assert.Error(t, err)
	assert.False(t, loaded)
	assert.Contains(t, err.Error(), "failed to load state")
}

func TestLoadOrInit_CorruptRecord(t *testing.T) {
	store := new(MockStore)
	store.On("Get", mock.Anything, "STATS").Return([]byte(`not json`), nil)

	var v counters
	_, err := LoadOrInit(context.Background(), store, "STATS", &v)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode state")
}

func TestSave(t *testing.T) {
	store := new(MockStore)
	store.On("Set", mock.Anything, "STATS", []byte(`{"total":3,"kinds":{"required":1}}`)).Return(nil)

	err := Save(context.Background(), store, "STATS", counters{Total: 3, Kinds: map[string]int{"required": 1}})

	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestSave_StoreError(t *testing.T) {
	store := new(MockStore)
	store.On("Set", mock.Anything, "STATS", mock.Anything).Return(errors.New("read-only replica"))

	err := Save(context.Background(), store, "STATS", counters{})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save state")
}
