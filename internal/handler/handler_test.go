package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BarkinBalci/dataset-validation-service/internal/dataset"
	"github.com/BarkinBalci/dataset-validation-service/internal/domain"
	"github.com/BarkinBalci/dataset-validation-service/internal/dto"
	"github.com/BarkinBalci/dataset-validation-service/internal/queue"
	"github.com/BarkinBalci/dataset-validation-service/internal/service"
)

// MockPushService is a mock implementation of service.PushServicer
type MockPushService struct {
	mock.Mock
}

func (m *MockPushService) PushItems(ctx context.Context, items []domain.Item) (*dto.PushItemsResponse, error) {
	args := m.Called(ctx, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PushItemsResponse), args.Error(1)
}

func (m *MockPushService) EnqueueItems(ctx context.Context, items []domain.Item) (*dto.EnqueueItemsResponse, error) {
	args := m.Called(ctx, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.EnqueueItemsResponse), args.Error(1)
}

func (m *MockPushService) Stats() domain.ValidationStats {
	args := m.Called()
	return args.Get(0).(domain.ValidationStats)
}

func (m *MockPushService) GetMetrics(ctx context.Context, req *dto.GetMetricsRequest) (*dto.GetMetricsResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.GetMetricsResponse), args.Error(1)
}

func serve(handler *Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	var response dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestHandler_HealthCheck(t *testing.T) {
	handler := NewHandler(new(MockPushService), zap.NewNop())

	w := serve(handler, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "ok", response["status"])
}

func TestHandler_SwaggerDoc(t *testing.T) {
	handler := NewHandler(new(MockPushService), zap.NewNop())

	w := serve(handler, http.MethodGet, "/swagger/doc.json", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Contains(t, doc.Paths["/items"], "post")
	assert.Contains(t, doc.Paths["/items/async"], "post")
	assert.Contains(t, doc.Paths["/stats"], "get")
	assert.Contains(t, doc.Paths["/metrics"], "get")
	assert.Contains(t, doc.Paths["/health"], "get")
}

func TestHandler_PushItems_SingleObject(t *testing.T) {
	mockService := new(MockPushService)
	handler := NewHandler(mockService, zap.NewNop())

	mockService.On("PushItems", mock.Anything, mock.MatchedBy(func(items []domain.Item) bool {
		return len(items) == 1 && items[0]["url"] == "test"
	})).Return(&dto.PushItemsResponse{
		PushID:       "push-1",
		ItemCount:    1,
		Accepted:     true,
		InvalidItems: []domain.InvalidItem{},
		Stats:        *domain.NewValidationStats(),
	}, nil)

	w := serve(handler, http.MethodPost, "/items", []byte(`{"url": "test", "name": "test"}`))

	assert.Equal(t, http.StatusOK, w.Code)

	var response dto.PushItemsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "push-1", response.PushID)
	assert.True(t, response.Accepted)
	mockService.AssertExpectations(t)
}

func TestHandler_PushItems_RejectionIsOK(t *testing.T) {
	mockService := new(MockPushService)
	handler := NewHandler(mockService, zap.NewNop())

	invalid := []domain.InvalidItem{{
		ItemPosition: 1,
		ValidationErrors: []domain.ValidationError{{
			InstancePath: "/url",
			Keyword:      "type",
			Params:       domain.ValidationParams{Type: "string"},
			Message:      "must be string",
		}},
	}}

	mockService.On("PushItems", mock.Anything, mock.MatchedBy(func(items []domain.Item) bool {
		return len(items) == 2
	})).Return(&dto.PushItemsResponse{
		PushID:       "push-2",
		ItemCount:    2,
		Accepted:     false,
		InvalidItems: invalid,
	}, nil)

	w := serve(handler, http.MethodPost, "/items", []byte(`[{"url": "test"}, {"url": 1}]`))

	assert.Equal(t, http.StatusOK, w.Code)

	var response dto.PushItemsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.False(t, response.Accepted)
	require.Len(t, response.InvalidItems, 1)
	assert.Equal(t, 1, response.InvalidItems[0].ItemPosition)
	assert.Equal(t, "/url", response.InvalidItems[0].ValidationErrors[0].InstancePath)
}

func TestHandler_PushItems_InvalidBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed", body: `{"url": "test", invalid}`},
		{name: "scalar", body: `42`},
		{name: "empty array", body: `[]`},
		{name: "non-object element", body: `[{"url": "test"}, null]`},
		{name: "empty body", body: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockPushService)
			handler := NewHandler(mockService, zap.NewNop())

			w := serve(handler, http.MethodPost, "/items", []byte(tt.body))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "validation_error", decodeError(t, w).Error)
			mockService.AssertNotCalled(t, "PushItems")
		})
	}
}

func TestHandler_PushItems_TooManyItems(t *testing.T) {
	mockService := new(MockPushService)
	handler := NewHandler(mockService, zap.NewNop())

	items := make([]map[string]string, maxItemsPerRequest+1)
	for i := range items {
		items[i] = map[string]string{"url": "test"}
	}
	body, _ := json.Marshal(items)

	w := serve(handler, http.MethodPost, "/items", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w).Message, "too many items")
	mockService.AssertNotCalled(t, "PushItems")
}

func TestHandler_PushItems_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "store unavailable",
			err:        dataset.Unavailable(errors.New("502 Bad Gateway")),
			wantStatus: http.StatusBadGateway,
			wantError:  "store_unavailable",
		},
		{
			name:       "unexpected",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockPushService)
			handler := NewHandler(mockService, zap.NewNop())

			mockService.On("PushItems", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := serve(handler, http.MethodPost, "/items", []byte(`{"url": "test"}`))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantError, decodeError(t, w).Error)
			mockService.AssertExpectations(t)
		})
	}
}

func TestHandler_EnqueueItems_Success(t *testing.T) {
	mockService := new(MockPushService)
	handler := NewHandler(mockService, zap.NewNop())

	mockService.On("EnqueueItems", mock.Anything, mock.MatchedBy(func(items []domain.Item) bool {
		return len(items) == 2
	})).Return(&dto.EnqueueItemsResponse{BatchID: "batch-1", ItemCount: 2, Status: "queued"}, nil)

	w := serve(handler, http.MethodPost, "/items/async", []byte(`[{"url": "a"}, {"url": "b"}]`))

	assert.Equal(t, http.StatusAccepted, w.Code)

	var response dto.EnqueueItemsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "batch-1", response.BatchID)
	assert.Equal(t, "queued", response.Status)
	mockService.AssertExpectations(t)
}

func TestHandler_EnqueueItems_QueueDisabled(t *testing.T) {
	mockService := new(MockPushService)
	handler := NewHandler(mockService, zap.NewNop())

	mockService.On("EnqueueItems", mock.Anything, mock.Anything).Return(nil, service.ErrQueueDisabled)

	w := serve(handler, http.MethodPost, "/items/async", []byte(`{"url": "a"}`))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "not_configured", decodeError(t, w).Error)
}

func TestHandler_EnqueueItems_TooLarge(t *testing.T) {
	mockService := new(MockPushService)
	handler := NewHandler(mockService, zap.NewNop())

	tooLarge := fmt.Errorf("failed to publish items to queue: %w", queue.ErrMessageTooLarge)
	mockService.On("EnqueueItems", mock.Anything, mock.Anything).Return(nil, tooLarge)

	w := serve(handler, http.MethodPost, "/items/async", []byte(`[{"url": "a"}, {"url": "b"}]`))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "payload_too_large", decodeError(t, w).Error)
}

func TestHandler_GetStats(t *testing.T) {
	mockService := new(MockPushService)
	handler := NewHandler(mockService, zap.NewNop())

	stats := domain.ValidationStats{
		TotalItems:    5,
		ValidItems:    2,
		InvalidItems:  3,
		InvalidFields: map[string]int{"url": 2, "name": 1},
		InvalidKinds:  map[string]int{"type": 2, "required": 1},
	}
	mockService.On("Stats").Return(stats)

	w := serve(handler, http.MethodGet, "/stats", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"totalItems": 5,
		"validItems": 2,
		"invalidItems": 3,
		"invalidFields": {"url": 2, "name": 1},
		"invalidKinds": {"type": 2, "required": 1}
	}`, w.Body.String())
}

func TestHandler_GetMetrics_Success(t *testing.T) {
	mockService := new(MockPushService)
	handler := NewHandler(mockService, zap.NewNop())

	mockService.On("GetMetrics", mock.Anything, &dto.GetMetricsRequest{
		RunID:   "run-1",
		From:    1000,
		To:      2000,
		GroupBy: "keyword",
	}).Return(&dto.GetMetricsResponse{
		RunID:         "run-1",
		From:          1000,
		To:            2000,
		TotalPushes:   4,
		TotalItems:    5,
		RejectedItems: 3,
		GroupBy:       "keyword",
		Groups:        []dto.MetricsGroupData{{GroupValue: "type", ErrorCount: 2}},
	}, nil)

	w := serve(handler, http.MethodGet, "/metrics?run_id=run-1&from=1000&to=2000&group_by=keyword", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var response dto.GetMetricsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, uint64(4), response.TotalPushes)
	assert.Equal(t, uint64(3), response.RejectedItems)
	assert.Len(t, response.Groups, 1)
	mockService.AssertExpectations(t)
}

func TestHandler_GetMetrics_InvalidQueryParams(t *testing.T) {
	mockService := new(MockPushService)
	handler := NewHandler(mockService, zap.NewNop())

	// Missing required query parameters
	w := serve(handler, http.MethodGet, "/metrics?run_id=run-1", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decodeError(t, w).Error)
	mockService.AssertNotCalled(t, "GetMetrics")
}

func TestHandler_GetMetrics_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "invalid query",
			err:        service.ErrInvalidQuery,
			wantStatus: http.StatusBadRequest,
			wantError:  "validation_error",
		},
		{
			name:       "metrics disabled",
			err:        service.ErrMetricsDisabled,
			wantStatus: http.StatusServiceUnavailable,
			wantError:  "not_configured",
		},
		{
			name:       "repository failure",
			err:        errors.New("database connection error"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockPushService)
			handler := NewHandler(mockService, zap.NewNop())

			mockService.On("GetMetrics", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := serve(handler, http.MethodGet, "/metrics?from=1000&to=2000", nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantError, decodeError(t, w).Error)
		})
	}
}
