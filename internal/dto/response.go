package dto

import (
	"github.com/BarkinBalci/dataset-validation-service/internal/domain"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// PushItemsResponse represents the outcome of a synchronous push.
// A schema rejection is reported with Accepted set to false.
type PushItemsResponse struct {
	PushID       string                 `json:"push_id"`
	ItemCount    int                    `json:"item_count"`
	Accepted     bool                   `json:"accepted"`
	InvalidItems []domain.InvalidItem   `json:"invalid_items"`
	Stats        domain.ValidationStats `json:"stats"`
}

// EnqueueItemsResponse represents a batch accepted for asynchronous pushing
type EnqueueItemsResponse struct {
	BatchID   string `json:"batch_id"`
	ItemCount int    `json:"item_count"`
	Status    string `json:"status"`
}

// MetricsGroupData represents aggregated validation errors for a specific group
type MetricsGroupData struct {
	GroupValue string `json:"group_value"`
	ErrorCount uint64 `json:"error_count"`
}

// GetMetricsResponse represents the metrics query response
type GetMetricsResponse struct {
	RunID         string             `json:"run_id,omitempty"`
	From          int64              `json:"from"`
	To            int64              `json:"to"`
	TotalPushes   uint64             `json:"total_pushes"`
	TotalItems    uint64             `json:"total_items"`
	RejectedItems uint64             `json:"rejected_items"`
	GroupBy       string             `json:"group_by,omitempty"`
	Groups        []MetricsGroupData `json:"groups,omitempty"`
}
