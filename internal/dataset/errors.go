package dataset

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/BarkinBalci/dataset-validation-service/internal/domain"
)

// ErrStoreUnavailable marks transport, authentication and server failures
// of the dataset store.
var ErrStoreUnavailable = errors.New("dataset store unavailable")

// ValidationRejectedError is returned when a validating write rejects a batch.
type ValidationRejectedError struct {
	Message      string
	InvalidItems []domain.InvalidItem
}

func (e *ValidationRejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("schema validation failed for %d item(s)", len(e.InvalidItems))
	}
	return fmt.Sprintf("%s: %d invalid item(s)", e.Message, len(e.InvalidItems))
}

// AsValidationRejected reports whether err is a validation rejection and
// returns it.
func AsValidationRejected(err error) (*ValidationRejectedError, bool) {
	var rejected *ValidationRejectedError
	if errors.As(err, &rejected) {
		return rejected, true
	}
	return nil, false
}

// Unavailable marks err as ErrStoreUnavailable.
func Unavailable(err error) error {
	return errors.Mark(err, ErrStoreUnavailable)
}
