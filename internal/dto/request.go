package dto

// GetMetricsRequest represents a metrics query request
type GetMetricsRequest struct {
	RunID   string `form:"run_id"`
	From    int64  `form:"from" binding:"required"`
	To      int64  `form:"to" binding:"required"`
	GroupBy string `form:"group_by"`
}
