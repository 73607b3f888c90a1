package pusher

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/BarkinBalci/dataset-validation-service/internal/dataset"
	"github.com/BarkinBalci/dataset-validation-service/internal/domain"
	"github.com/BarkinBalci/dataset-validation-service/internal/state"
)

// DefaultStateKey is the state record holding the validation stats.
const DefaultStateKey = "VALIDATION_STATS"

// ErrInitialization marks failures to open datasets or load state in New.
var ErrInitialization = errors.New("validated pusher initialization failed")

// Options configures a Pusher
type Options struct {
	// RunID namespaces the full and error datasets.
	RunID string
	// StateKey is the state record the stats are loaded from and saved to.
	StateKey string
}

// FullDatasetName returns the name of the dataset receiving every item.
func FullDatasetName(runID string) string {
	return runID + "-full"
}

// ErrorDatasetName returns the name of the dataset receiving validation errors.
func ErrorDatasetName(runID string) string {
	return runID + "-validation-errors"
}

// PushResult is the outcome of one PushData call
type PushResult struct {
	// InvalidItems is empty when the validated dataset accepted the push.
	InvalidItems []domain.InvalidItem
	// Rejection is set when the validated dataset rejected the push.
	Rejection *dataset.ValidationRejectedError
}

// Accepted reports whether the validated dataset accepted the push.
func (r *PushResult) Accepted() bool {
	return r.Rejection == nil
}

// Pusher writes every push to three datasets: the default dataset, which
// validates items against its schema, a full dataset receiving every item,
// and an error dataset receiving the validation errors of rejected pushes.
//
// A Pusher is not safe for concurrent use; callers serialize PushData.
type Pusher struct {
	validated dataset.Dataset
	full      dataset.Dataset
	errors    dataset.Dataset
	states    state.Store
	stateKey  string
	stats     *domain.ValidationStats
	log       *zap.Logger
}

// New opens the three datasets and loads the stats persisted under
// opts.StateKey, starting from zero when none exist.
func New(ctx context.Context, store dataset.Store, states state.Store, opts Options, log *zap.Logger) (*Pusher, error) {
	if opts.StateKey == "" {
		opts.StateKey = DefaultStateKey
	}

	validated, err := store.Open(ctx, "")
	if err != nil {
		return nil, initErr(fmt.Errorf("failed to open validated dataset: %w", err))
	}

	full, err := store.Open(ctx, FullDatasetName(opts.RunID))
	if err != nil {
		return nil, initErr(fmt.Errorf("failed to open full dataset: %w", err))
	}

	errorDataset, err := store.Open(ctx, ErrorDatasetName(opts.RunID))
	if err != nil {
		return nil, initErr(fmt.Errorf("failed to open error dataset: %w", err))
	}

	stats := domain.NewValidationStats()
	loaded, err := state.LoadOrInit(ctx, states, opts.StateKey, stats)
	if err != nil {
		return nil, initErr(err)
	}
	stats.Normalize()

	log.Info("Validated pusher initialized",
		zap.String("run_id", opts.RunID),
		zap.String("validated_dataset_id", validated.ID()),
		zap.String("full_dataset_id", full.ID()),
		zap.String("error_dataset_id", errorDataset.ID()),
		zap.Bool("stats_resumed", loaded),
		zap.Int("total_items", stats.TotalItems))

	return &Pusher{
		validated: validated,
		full:      full,
		errors:    errorDataset,
		states:    states,
		stateKey:  opts.StateKey,
		stats:     stats,
		log:       log,
	}, nil
}

func initErr(err error) error {
	return errors.Mark(err, ErrInitialization)
}

// PushData pushes items to the validated dataset and, whatever the outcome,
// to the full dataset. A schema rejection is not returned as an error: its
// invalid items are written to the error dataset, counted in the stats and
// returned in the result. Other store failures are returned.
//
// A mixed batch is rejected as a whole, so the valid and invalid counts are
// approximate for batches holding both kinds of items.
func (p *Pusher) PushData(ctx context.Context, items ...domain.Item) (*PushResult, error) {
	result := &PushResult{InvalidItems: []domain.InvalidItem{}}
	if len(items) == 0 {
		return result, nil
	}

	validatedErr := p.validated.PushData(ctx, items)
	if validatedErr == nil {
		p.stats.RecordAccepted(len(items))
	} else if rejected, ok := dataset.AsValidationRejected(validatedErr); ok {
		result.Rejection = rejected
		result.InvalidItems = rejected.InvalidItems
		validatedErr = nil
	}

	if err := p.full.PushData(ctx, items); err != nil {
		return nil, fmt.Errorf("failed to push to full dataset: %w", err)
	}
	p.stats.RecordSubmitted(len(items))

	if validatedErr != nil {
		return nil, fmt.Errorf("failed to push to validated dataset: %w", validatedErr)
	}

	if result.Rejection == nil {
		p.log.Debug("Items accepted", zap.Int("item_count", len(items)))
		return result, nil
	}

	if err := p.errors.PushData(ctx, invalidItemsToRecords(result.InvalidItems)); err != nil {
		return nil, fmt.Errorf("failed to push to error dataset: %w", err)
	}
	p.stats.RecordRejected(result.InvalidItems)

	p.log.Info("Items rejected by schema validation",
		zap.Int("item_count", len(items)),
		zap.Int("invalid_count", len(result.InvalidItems)))

	return result, nil
}

// GetStats returns the live stats record. It keeps changing with every
// subsequent PushData call.
func (p *Pusher) GetStats() *domain.ValidationStats {
	return p.stats
}

// SaveStats persists the stats under the state key.
func (p *Pusher) SaveStats(ctx context.Context) error {
	return state.Save(ctx, p.states, p.stateKey, p.stats)
}

// StateKey returns the key the stats are persisted under.
func (p *Pusher) StateKey() string {
	return p.stateKey
}

func (p *Pusher) ValidatedDataset() dataset.Dataset {
	return p.validated
}

func (p *Pusher) FullDataset() dataset.Dataset {
	return p.full
}

func (p *Pusher) ErrorDataset() dataset.Dataset {
	return p.errors
}
