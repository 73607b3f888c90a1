package handler

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/BarkinBalci/dataset-validation-service/docs"
	"github.com/BarkinBalci/dataset-validation-service/internal/dataset"
	"github.com/BarkinBalci/dataset-validation-service/internal/domain"
	"github.com/BarkinBalci/dataset-validation-service/internal/dto"
	"github.com/BarkinBalci/dataset-validation-service/internal/queue"
	"github.com/BarkinBalci/dataset-validation-service/internal/service"
)

// maxItemsPerRequest bounds a single push or enqueue request.
const maxItemsPerRequest = 1000

type Handler struct {
	pushService service.PushServicer
	router      *gin.Engine
	log         *zap.Logger
}

func NewHandler(pushService service.PushServicer, log *zap.Logger) *Handler {
	h := &Handler{
		pushService: pushService,
		router:      gin.Default(),
		log:         log,
	}

	h.registerRoutes()

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/health", h.healthCheck)
	h.router.POST("/items", h.pushItems)
	h.router.POST("/items/async", h.enqueueItems)
	h.router.GET("/stats", h.getStats)
	h.router.GET("/metrics", h.getMetrics)
	h.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// healthCheck handles GET /health
// @Summary Health check
// @Description Check if the service is running
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// pushItems handles POST /items. The body is a JSON object or an array of
// objects. A schema rejection is reported with 200 and accepted=false.
// @Summary Push items
// @Description Validate items against the dataset schema and push them to the validated, full and error datasets
// @Tags items
// @Accept json
// @Produce json
// @Param items body []object true "A JSON object or an array of objects"
// @Success 200 {object} dto.PushItemsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /items [post]
func (h *Handler) pushItems(c *gin.Context) {
	items, ok := h.bindItems(c)
	if !ok {
		return
	}

	response, err := h.pushService.PushItems(c.Request.Context(), items)
	if err != nil {
		h.log.Error("Failed to push items",
			zap.Error(err),
			zap.Int("item_count", len(items)))
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// enqueueItems handles POST /items/async
// @Summary Enqueue items
// @Description Queue items for an asynchronous validated push
// @Tags items
// @Accept json
// @Produce json
// @Param items body []object true "A JSON object or an array of objects"
// @Success 202 {object} dto.EnqueueItemsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 413 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /items/async [post]
func (h *Handler) enqueueItems(c *gin.Context) {
	items, ok := h.bindItems(c)
	if !ok {
		return
	}

	response, err := h.pushService.EnqueueItems(c.Request.Context(), items)
	if err != nil {
		h.log.Error("Failed to enqueue items",
			zap.Error(err),
			zap.Int("item_count", len(items)))
		h.writeError(c, err)
		return
	}

	h.log.Info("Items queued",
		zap.String("batch_id", response.BatchID),
		zap.Int("item_count", response.ItemCount))

	c.JSON(http.StatusAccepted, response)
}

// getStats handles GET /stats
// @Summary Validation stats
// @Description Get the validation stats accumulated by this run
// @Tags stats
// @Produce json
// @Success 200 {object} domain.ValidationStats
// @Router /stats [get]
func (h *Handler) getStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.pushService.Stats())
}

// getMetrics handles GET /metrics
// @Summary Get validation metrics
// @Description Get aggregated push outcomes and validation errors for a time range
// @Tags metrics
// @Produce json
// @Param run_id query string false "Run ID"
// @Param from query int true "Start timestamp (Unix seconds)"
// @Param to query int true "End timestamp (Unix seconds)"
// @Param group_by query string false "Group by field, keyword, hour or day"
// @Success 200 {object} dto.GetMetricsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /metrics [get]
func (h *Handler) getMetrics(c *gin.Context) {
	var req dto.GetMetricsRequest

	if err := c.ShouldBindQuery(&req); err != nil {
		h.log.Warn("Invalid metrics request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	response, err := h.pushService.GetMetrics(c.Request.Context(), &req)
	if err != nil {
		h.log.Error("Failed to get metrics",
			zap.Error(err),
			zap.String("run_id", req.RunID),
			zap.Int64("from", req.From),
			zap.Int64("to", req.To))
		h.writeError(c, err)
		return
	}

	h.log.Info("Metrics retrieved",
		zap.String("run_id", req.RunID),
		zap.Uint64("total_pushes", response.TotalPushes),
		zap.Uint64("rejected_items", response.RejectedItems))

	c.JSON(http.StatusOK, response)
}

// bindItems reads the request body into items and writes a 400 response
// when it is not usable.
func (h *Handler) bindItems(c *gin.Context) ([]domain.Item, bool) {
	body, err := c.GetRawData()
	if err == nil {
		var items []domain.Item
		items, err = domain.ParseItems(body)
		if err == nil {
			switch {
			case len(items) == 0:
				err = errors.New("at least one item is required")
			case len(items) > maxItemsPerRequest:
				err = fmt.Errorf("too many items: %d (max %d)", len(items), maxItemsPerRequest)
			default:
				return items, true
			}
		}
	}

	h.log.Warn("Invalid items request", zap.Error(err))
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:   "validation_error",
		Message: err.Error(),
	})
	return nil, false
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "validation_error", Message: err.Error()})
	case errors.Is(err, queue.ErrMessageTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{Error: "payload_too_large", Message: err.Error()})
	case errors.Is(err, dataset.ErrStoreUnavailable):
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: "store_unavailable", Message: err.Error()})
	case errors.Is(err, service.ErrQueueDisabled), errors.Is(err, service.ErrMetricsDisabled):
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "not_configured", Message: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal_error", Message: err.Error()})
	}
}
