package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BarkinBalci/dataset-validation-service/internal/domain"
	"github.com/BarkinBalci/dataset-validation-service/internal/dto"
	"github.com/BarkinBalci/dataset-validation-service/internal/queue"
	"github.com/BarkinBalci/dataset-validation-service/internal/repository"
)

var (
	// ErrQueueDisabled is returned by EnqueueItems when no queue is configured.
	ErrQueueDisabled = errors.New("item queue is not configured")
	// ErrMetricsDisabled is returned by GetMetrics when no outcome repository is configured.
	ErrMetricsDisabled = errors.New("outcome repository is not configured")
	// ErrInvalidQuery marks metrics queries rejected before reaching the repository.
	ErrInvalidQuery = errors.New("invalid metrics query")
)

// PushService serializes pushes through a single validated pusher,
// checkpoints its stats after every push and records push outcomes.
type PushService struct {
	mu         sync.Mutex
	pusher     Pusher
	publisher  queue.QueuePublisher
	repository repository.OutcomeRepository
	runID      string
	log        *zap.Logger
}

// NewPushService creates a new push service. publisher and repo are optional.
func NewPushService(p Pusher, publisher queue.QueuePublisher, repo repository.OutcomeRepository, runID string, log *zap.Logger) *PushService {
	return &PushService{
		pusher:     p,
		publisher:  publisher,
		repository: repo,
		runID:      runID,
		log:        log,
	}
}

// PushItems pushes items as one batch. A schema rejection is reported in
// the response; only store failures are returned as errors.
func (s *PushService) PushItems(ctx context.Context, items []domain.Item) (*dto.PushItemsResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pushID := uuid.NewString()

	result, err := s.pusher.PushData(ctx, items...)
	if err != nil {
		s.checkpoint(ctx)
		return nil, fmt.Errorf("failed to push items: %w", err)
	}

	s.checkpoint(ctx)

	if len(items) > 0 {
		s.recordOutcome(ctx, domain.NewPushOutcome(pushID, s.runID, len(items), result.Accepted(), result.InvalidItems, time.Now()))
	}

	s.log.Info("Items pushed",
		zap.String("push_id", pushID),
		zap.Int("item_count", len(items)),
		zap.Bool("accepted", result.Accepted()),
		zap.Int("invalid_count", len(result.InvalidItems)))

	return &dto.PushItemsResponse{
		PushID:       pushID,
		ItemCount:    len(items),
		Accepted:     result.Accepted(),
		InvalidItems: result.InvalidItems,
		Stats:        s.pusher.GetStats().Clone(),
	}, nil
}

// checkpoint persists the stats. The full dataset may have been written
// even when the push failed, so it runs after failed pushes too.
func (s *PushService) checkpoint(ctx context.Context) {
	if err := s.pusher.SaveStats(ctx); err != nil {
		s.log.Warn("Failed to checkpoint validation stats", zap.Error(err))
	}
}

func (s *PushService) recordOutcome(ctx context.Context, outcome *domain.PushOutcome) {
	if s.repository == nil {
		return
	}

	if _, err := s.repository.InsertBatch(ctx, []*domain.PushOutcome{outcome}); err != nil {
		s.log.Warn("Failed to record push outcome",
			zap.String("push_id", outcome.PushID),
			zap.Error(err))
	}
}

// EnqueueItems publishes items to the queue for the consumer to push later
func (s *PushService) EnqueueItems(ctx context.Context, items []domain.Item) (*dto.EnqueueItemsResponse, error) {
	if s.publisher == nil {
		return nil, ErrQueueDisabled
	}

	batchID := uuid.NewString()

	if err := s.publisher.PublishItems(ctx, items, batchID); err != nil {
		return nil, fmt.Errorf("failed to publish items to queue: %w", err)
	}

	return &dto.EnqueueItemsResponse{
		BatchID:   batchID,
		ItemCount: len(items),
		Status:    "queued",
	}, nil
}

// Stats returns a snapshot of the validation stats
func (s *PushService) Stats() domain.ValidationStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pusher.GetStats().Clone()
}

// Checkpoint persists the validation stats
func (s *PushService) Checkpoint(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.pusher.SaveStats(ctx); err != nil {
		return fmt.Errorf("failed to save validation stats: %w", err)
	}
	return nil
}

// GetMetrics retrieves aggregated push metrics from the repository
func (s *PushService) GetMetrics(ctx context.Context, req *dto.GetMetricsRequest) (*dto.GetMetricsResponse, error) {
	if s.repository == nil {
		return nil, ErrMetricsDisabled
	}

	// Validate time range
	if req.From > req.To {
		s.log.Warn("Invalid time range for metrics",
			zap.Int64("from", req.From),
			zap.Int64("to", req.To))
		return nil, errors.Mark(fmt.Errorf("from timestamp must be less than or equal to to timestamp"), ErrInvalidQuery)
	}

	// Validate group_by parameter
	if req.GroupBy != "" {
		if !repository.SupportedGroupBy[req.GroupBy] {
			s.log.Warn("Invalid group_by value",
				zap.String("group_by", req.GroupBy))
			return nil, errors.Mark(fmt.Errorf("invalid group_by value: %s (supported: field, keyword, hour, day)", req.GroupBy), ErrInvalidQuery)
		}

		rangeSeconds := req.To - req.From
		if req.GroupBy == "hour" && rangeSeconds > 90*24*3600 {
			s.log.Warn("Large time range for hourly grouping",
				zap.Int64("range_days", rangeSeconds/(24*3600)))
			return nil, errors.Mark(fmt.Errorf("time range too large for hourly grouping (max 90 days, got %d days)", rangeSeconds/(24*3600)), ErrInvalidQuery)
		}
	}

	query := repository.MetricsQuery{
		RunID:   req.RunID,
		From:    req.From,
		To:      req.To,
		GroupBy: req.GroupBy,
	}

	s.log.Info("Querying metrics",
		zap.String("run_id", req.RunID),
		zap.Int64("from", req.From),
		zap.Int64("to", req.To),
		zap.String("group_by", req.GroupBy))

	result, err := s.repository.GetMetrics(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics from repository: %w", err)
	}

	response := &dto.GetMetricsResponse{
		RunID:         req.RunID,
		From:          req.From,
		To:            req.To,
		TotalPushes:   result.TotalPushes,
		TotalItems:    result.TotalItems,
		RejectedItems: result.RejectedItems,
		GroupBy:       req.GroupBy,
		Groups:        make([]dto.MetricsGroupData, 0, len(result.Groups)),
	}

	for _, group := range result.Groups {
		response.Groups = append(response.Groups, dto.MetricsGroupData{
			GroupValue: group.GroupValue,
			ErrorCount: group.ErrorCount,
		})
	}

	return response, nil
}
