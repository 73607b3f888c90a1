package apify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/BarkinBalci/dataset-validation-service/internal/dataset"
	"github.com/BarkinBalci/dataset-validation-service/internal/domain"
)

// storageInfo is the subset of dataset and key-value store metadata we use
type storageInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type storageInfoResponse struct {
	Data storageInfo `json:"data"`
}

// DatasetStore implements dataset.Store against the hosted storage API
type DatasetStore struct {
	client           *Client
	defaultDatasetID string
	log              *zap.Logger
}

// compile-time check that interface is satisfied
var _ dataset.Store = (*DatasetStore)(nil)

// NewDatasetStore creates a dataset store. defaultDatasetID is the dataset
// opened for an empty name; when empty, an unnamed dataset is created.
func NewDatasetStore(client *Client, defaultDatasetID string, log *zap.Logger) *DatasetStore {
	return &DatasetStore{
		client:           client,
		defaultDatasetID: defaultDatasetID,
		log:              log,
	}
}

// Open returns the named dataset, creating it if it does not exist
func (s *DatasetStore) Open(ctx context.Context, name string) (dataset.Dataset, error) {
	var (
		body []byte
		err  error
	)

	switch {
	case name != "":
		body, err = s.client.do(ctx, http.MethodPost, "/v2/datasets", url.Values{"name": {name}}, nil)
	case s.defaultDatasetID != "":
		body, err = s.client.do(ctx, http.MethodGet, "/v2/datasets/"+url.PathEscape(s.defaultDatasetID), nil, nil)
	default:
		body, err = s.client.do(ctx, http.MethodPost, "/v2/datasets", nil, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %q: %w", name, err)
	}

	var info storageInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to decode dataset %q: %w", name, err)
	}

	s.log.Info("Dataset opened",
		zap.String("dataset_id", info.Data.ID),
		zap.String("dataset_name", info.Data.Name))

	return &Dataset{
		client: s.client,
		id:     info.Data.ID,
		name:   info.Data.Name,
		log:    s.log,
	}, nil
}

// Dataset is a handle to one hosted dataset
type Dataset struct {
	client *Client
	id     string
	name   string
	log    *zap.Logger
}

// compile-time check that interface is satisfied
var _ dataset.Dataset = (*Dataset)(nil)

func (d *Dataset) ID() string {
	return d.id
}

func (d *Dataset) Name() string {
	return d.name
}

// PushData appends items to the dataset. Datasets with a schema answer a
// batch containing any invalid item with *dataset.ValidationRejectedError
// and store nothing.
func (d *Dataset) PushData(ctx context.Context, items []domain.Item) error {
	body, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal items: %w", err)
	}

	if _, err := d.client.do(withoutServerErrorRetry(ctx), http.MethodPost, "/v2/datasets/"+url.PathEscape(d.id)+"/items", nil, body); err != nil {
		return fmt.Errorf("failed to push %d item(s) to dataset %s: %w", len(items), d.id, err)
	}

	d.log.Debug("Items pushed to dataset",
		zap.String("dataset_id", d.id),
		zap.Int("item_count", len(items)))

	return nil
}
