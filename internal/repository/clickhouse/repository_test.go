package clickhouse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BarkinBalci/dataset-validation-service/internal/domain"
	"github.com/BarkinBalci/dataset-validation-service/internal/repository"
)

// fakeBatch records appends and how the batch was settled.
type fakeBatch struct {
	driver.Batch
	rows      int
	appendErr error
	sent      bool
	aborted   bool
}

func (b *fakeBatch) Append(v ...any) error {
	if b.appendErr != nil {
		return b.appendErr
	}
	b.rows++
	return nil
}

func (b *fakeBatch) Send() error {
	b.sent = true
	return nil
}

func (b *fakeBatch) Abort() error {
	b.aborted = true
	return nil
}

// fakeConn hands out prepared batches keyed by insert query.
type fakeConn struct {
	driver.Conn
	batches    map[string]*fakeBatch
	prepareErr map[string]error
}

func (c *fakeConn) PrepareBatch(ctx context.Context, query string, opts ...driver.PrepareBatchOption) (driver.Batch, error) {
	if err := c.prepareErr[query]; err != nil {
		return nil, err
	}
	return c.batches[query], nil
}

func newFakeRepository() (*Repository, *fakeBatch, *fakeBatch, *fakeConn) {
	outcomes := &fakeBatch{}
	errs := &fakeBatch{}
	conn := &fakeConn{
		batches: map[string]*fakeBatch{
			"INSERT INTO push_outcomes":     outcomes,
			"INSERT INTO validation_errors": errs,
		},
		prepareErr: map[string]error{},
	}
	repo := NewRepository(&Client{connection: conn, log: zap.NewNop()}, zap.NewNop())
	return repo, outcomes, errs, conn
}

func rejectedOutcome() *domain.PushOutcome {
	return &domain.PushOutcome{
		PushID:       "push-1",
		RunID:        "run-1",
		ItemCount:    2,
		InvalidCount: 1,
		Errors: []domain.OutcomeError{
			{ItemPosition: 1, Field: "name", Keyword: "required", Message: "must have required property 'name'"},
		},
		PushedAt: time.UnixMilli(1000),
	}
}

func TestRepository_InsertBatch_SendsBoth(t *testing.T) {
	repo, outcomes, errs, _ := newFakeRepository()

	n, err := repo.InsertBatch(context.Background(), []*domain.PushOutcome{rejectedOutcome()})

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, outcomes.sent)
	assert.True(t, errs.sent)
	assert.False(t, outcomes.aborted)
	assert.False(t, errs.aborted)
	assert.Equal(t, 1, errs.rows)
}

func TestRepository_InsertBatch_AbortsEmptyErrorBatch(t *testing.T) {
	repo, outcomes, errs, _ := newFakeRepository()

	_, err := repo.InsertBatch(context.Background(), []*domain.PushOutcome{{PushID: "push-1", ItemCount: 1, Accepted: true}})

	require.NoError(t, err)
	assert.True(t, outcomes.sent)
	assert.False(t, outcomes.aborted)
	assert.False(t, errs.sent)
	assert.True(t, errs.aborted)
}

func TestRepository_InsertBatch_AbortsOnFailure(t *testing.T) {
	tests := []struct {
		name  string
		setup func(outcomes, errs *fakeBatch, conn *fakeConn)
	}{
		{
			name: "second prepare fails",
			setup: func(_, _ *fakeBatch, conn *fakeConn) {
				conn.prepareErr["INSERT INTO validation_errors"] = errors.New("too many parts")
			},
		},
		{
			name: "outcome append fails",
			setup: func(outcomes, _ *fakeBatch, _ *fakeConn) {
				outcomes.appendErr = errors.New("column mismatch")
			},
		},
		{
			name: "validation error append fails",
			setup: func(_, errs *fakeBatch, _ *fakeConn) {
				errs.appendErr = errors.New("column mismatch")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, outcomes, errs, conn := newFakeRepository()
			tt.setup(outcomes, errs, conn)

			n, err := repo.InsertBatch(context.Background(), []*domain.PushOutcome{rejectedOutcome()})

			require.Error(t, err)
			assert.Zero(t, n)
			assert.False(t, outcomes.sent)
			assert.True(t, outcomes.aborted)
			assert.False(t, errs.sent)
			if conn.prepareErr["INSERT INTO validation_errors"] == nil {
				assert.True(t, errs.aborted)
			}
		})
	}
}

func TestBuildWhereClause_TimeRangeOnly(t *testing.T) {
	where, args := buildWhereClause(repository.MetricsQuery{From: 1000, To: 2000})

	assert.Equal(t, "WHERE pushed_at >= fromUnixTimestamp64Milli(?) AND pushed_at <= fromUnixTimestamp64Milli(?)", where)
	assert.Equal(t, []interface{}{int64(1000000), int64(2000000)}, args)
}

func TestBuildWhereClause_WithRunID(t *testing.T) {
	where, args := buildWhereClause(repository.MetricsQuery{RunID: "run-1", From: 1, To: 2})

	assert.Contains(t, where, "AND run_id = ?")
	assert.Equal(t, []interface{}{int64(1000), int64(2000), "run-1"}, args)
}
