package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/BarkinBalci/dataset-validation-service/internal/domain"
	"github.com/BarkinBalci/dataset-validation-service/internal/repository"
)

// Repository implements OutcomeRepository for ClickHouse
type Repository struct {
	client *Client
	log    *zap.Logger
}

// NewRepository creates a new ClickHouse repository
func NewRepository(client *Client, log *zap.Logger) *Repository {
	return &Repository{
		client: client,
		log:    log,
	}
}

var schema = []string{
	`
	CREATE TABLE IF NOT EXISTS push_outcomes (
		push_id String,
		run_id LowCardinality(String),
		item_count UInt32,
		accepted Bool,
		invalid_count UInt32,
		pushed_at DateTime64(3)
	) ENGINE = ReplacingMergeTree
	PRIMARY KEY (run_id, push_id)
	ORDER BY (run_id, push_id)
	PARTITION BY toYYYYMM(pushed_at)
	`,
	`
	CREATE TABLE IF NOT EXISTS validation_errors (
		push_id String,
		run_id LowCardinality(String),
		item_position UInt32,
		field String,
		keyword LowCardinality(String),
		message String,
		pushed_at DateTime64(3)
	) ENGINE = MergeTree
	ORDER BY (run_id, pushed_at, push_id, item_position)
	PARTITION BY toYYYYMM(pushed_at)
	`,
}

// InitSchema creates the outcome tables
func (r *Repository) InitSchema(ctx context.Context) error {
	for _, query := range schema {
		if err := r.client.Conn().Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to create outcome tables: %w", err)
		}
	}

	r.log.Info("ClickHouse schema initialized successfully")
	return nil
}

// InsertBatch inserts push outcomes and their validation errors.
// A prepared batch that is not sent is aborted on every return path.
func (r *Repository) InsertBatch(ctx context.Context, outcomes []*domain.PushOutcome) (int, error) {
	if len(outcomes) == 0 {
		return 0, nil
	}

	outcomeBatch, err := r.client.Conn().PrepareBatch(ctx, "INSERT INTO push_outcomes")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare outcome batch: %w", err)
	}
	outcomeSent := false
	defer func() {
		if !outcomeSent {
			r.abort(outcomeBatch, "push_outcomes")
		}
	}()

	errorBatch, err := r.client.Conn().PrepareBatch(ctx, "INSERT INTO validation_errors")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare validation error batch: %w", err)
	}
	errorSent := false
	defer func() {
		if !errorSent {
			r.abort(errorBatch, "validation_errors")
		}
	}()

	errorCount := 0
	for _, outcome := range outcomes {
		err := outcomeBatch.Append(
			outcome.PushID,
			outcome.RunID,
			uint32(outcome.ItemCount),
			outcome.Accepted,
			uint32(outcome.InvalidCount),
			outcome.PushedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to append outcome to batch: %w", err)
		}

		for _, e := range outcome.Errors {
			err := errorBatch.Append(
				outcome.PushID,
				outcome.RunID,
				uint32(e.ItemPosition),
				e.Field,
				e.Keyword,
				e.Message,
				outcome.PushedAt,
			)
			if err != nil {
				return 0, fmt.Errorf("failed to append validation error to batch: %w", err)
			}
			errorCount++
		}
	}

	// The driver releases a batch once Send returns, even on failure
	outcomeSent = true
	if err := outcomeBatch.Send(); err != nil {
		return 0, fmt.Errorf("failed to send outcome batch: %w", err)
	}

	if errorCount > 0 {
		errorSent = true
		if err := errorBatch.Send(); err != nil {
			return 0, fmt.Errorf("failed to send validation error batch: %w", err)
		}
	}

	return len(outcomes), nil
}

func (r *Repository) abort(batch driver.Batch, table string) {
	if err := batch.Abort(); err != nil {
		r.log.Warn("Failed to abort batch",
			zap.String("table", table),
			zap.Error(err))
	}
}

// Ping checks if the ClickHouse connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Conn().Ping(ctx)
}

// Close closes the ClickHouse connection
func (r *Repository) Close() error {
	return r.client.Close()
}

// GetMetrics retrieves push totals and, optionally, validation errors grouped
// by field, keyword, hour or day
func (r *Repository) GetMetrics(ctx context.Context, query repository.MetricsQuery) (*repository.MetricsResult, error) {
	result := &repository.MetricsResult{
		Groups: []repository.MetricsGroupResult{},
	}

	whereClause, args := buildWhereClause(query)

	overallQuery := fmt.Sprintf(`
		SELECT
			count() as total_pushes,
			sum(item_count) as total_items,
			sum(invalid_count) as rejected_items
		FROM push_outcomes FINAL
		%s
	`, whereClause)

	row := r.client.Conn().QueryRow(ctx, overallQuery, args...)
	if err := row.Scan(&result.TotalPushes, &result.TotalItems, &result.RejectedItems); err != nil {
		return nil, fmt.Errorf("failed to query overall metrics: %w", err)
	}

	if query.GroupBy == "" {
		return result, nil
	}

	if !repository.SupportedGroupBy[query.GroupBy] {
		return nil, fmt.Errorf("unsupported group_by value: %s (supported: field, keyword, hour, day)", query.GroupBy)
	}

	var selectField string
	var groupByClause string
	var orderBy string

	switch query.GroupBy {
	case "field":
		selectField = "field"
		groupByClause = "GROUP BY field"
		orderBy = "ORDER BY error_count DESC"
	case "keyword":
		selectField = "keyword"
		groupByClause = "GROUP BY keyword"
		orderBy = "ORDER BY error_count DESC"
	case "hour":
		selectField = "formatDateTime(toStartOfHour(pushed_at), '%Y-%m-%d %H:00:00')"
		groupByClause = "GROUP BY toStartOfHour(pushed_at)"
		orderBy = "ORDER BY group_value ASC"
	case "day":
		selectField = "formatDateTime(toStartOfDay(pushed_at), '%Y-%m-%d')"
		groupByClause = "GROUP BY toStartOfDay(pushed_at)"
		orderBy = "ORDER BY group_value ASC"
	}

	groupedQuery := fmt.Sprintf(`
		SELECT
			%s as group_value,
			count() as error_count
		FROM validation_errors
		%s
		%s
		%s
	`, selectField, whereClause, groupByClause, orderBy)

	rows, err := r.client.Conn().Query(ctx, groupedQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query grouped metrics: %w", err)
	}
	defer func(rows driver.Rows) {
		err := rows.Close()
		if err != nil {
			r.log.Error("Failed to close grouped metrics rows", zap.Error(err))
		}
	}(rows)

	for rows.Next() {
		var group repository.MetricsGroupResult
		if err := rows.Scan(&group.GroupValue, &group.ErrorCount); err != nil {
			return nil, fmt.Errorf("failed to scan grouped metrics row: %w", err)
		}
		result.Groups = append(result.Groups, group)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating grouped metrics rows: %w", err)
	}

	return result, nil
}

// buildWhereClause filters on the pushed_at range and, when set, the run id
func buildWhereClause(query repository.MetricsQuery) (string, []interface{}) {
	whereClause := "WHERE pushed_at >= fromUnixTimestamp64Milli(?) AND pushed_at <= fromUnixTimestamp64Milli(?)"
	args := []interface{}{query.From * 1000, query.To * 1000}

	if query.RunID != "" {
		whereClause += " AND run_id = ?"
		args = append(args, query.RunID)
	}

	return whereClause, args
}
