package domain

import "time"

// PushOutcome is the outcome log entry of a single push call.
type PushOutcome struct {
	PushID       string
	RunID        string
	ItemCount    int
	Accepted     bool
	InvalidCount int
	Errors       []OutcomeError
	PushedAt     time.Time
}

// OutcomeError is a flattened validation error stored with its outcome.
type OutcomeError struct {
	ItemPosition int
	Field        string
	Keyword      string
	Message      string
}

// NewPushOutcome flattens the invalid items of a push into an outcome entry.
func NewPushOutcome(pushID, runID string, itemCount int, accepted bool, invalidItems []InvalidItem, pushedAt time.Time) *PushOutcome {
	outcome := &PushOutcome{
		PushID:       pushID,
		RunID:        runID,
		ItemCount:    itemCount,
		Accepted:     accepted,
		InvalidCount: len(invalidItems),
		PushedAt:     pushedAt,
	}

	for _, item := range invalidItems {
		for _, e := range item.ValidationErrors {
			outcome.Errors = append(outcome.Errors, OutcomeError{
				ItemPosition: item.ItemPosition,
				Field:        FieldName(e),
				Keyword:      e.Keyword,
				Message:      e.Message,
			})
		}
	}

	return outcome
}
