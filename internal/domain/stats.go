package domain

// ValidationStats accumulates push outcomes over the lifetime of a run.
// TotalItems equals ValidItems+InvalidItems only while every push is
// accepted or rejected as a whole.
type ValidationStats struct {
	TotalItems    int            `json:"totalItems"`
	InvalidItems  int            `json:"invalidItems"`
	ValidItems    int            `json:"validItems"`
	InvalidFields map[string]int `json:"invalidFields"`
	InvalidKinds  map[string]int `json:"invalidKinds"`
}

// NewValidationStats returns zeroed stats with empty maps.
func NewValidationStats() *ValidationStats {
	return &ValidationStats{
		InvalidFields: map[string]int{},
		InvalidKinds:  map[string]int{},
	}
}

// Normalize replaces nil maps, which older persisted state may contain.
func (s *ValidationStats) Normalize() {
	if s.InvalidFields == nil {
		s.InvalidFields = map[string]int{}
	}
	if s.InvalidKinds == nil {
		s.InvalidKinds = map[string]int{}
	}
}

// RecordAccepted counts items accepted by the validated dataset.
func (s *ValidationStats) RecordAccepted(count int) {
	s.ValidItems += count
}

// RecordSubmitted counts items written to the full dataset.
func (s *ValidationStats) RecordSubmitted(count int) {
	s.TotalItems += count
}

// RecordRejected counts rejected items and tallies every validation error
// by field name and by keyword.
func (s *ValidationStats) RecordRejected(items []InvalidItem) {
	s.InvalidItems += len(items)

	for _, item := range items {
		for _, e := range item.ValidationErrors {
			s.InvalidFields[FieldName(e)]++
			s.InvalidKinds[e.Keyword]++
		}
	}
}

// Clone returns a deep copy that is safe to hand to other goroutines.
func (s *ValidationStats) Clone() ValidationStats {
	clone := ValidationStats{
		TotalItems:    s.TotalItems,
		InvalidItems:  s.InvalidItems,
		ValidItems:    s.ValidItems,
		InvalidFields: make(map[string]int, len(s.InvalidFields)),
		InvalidKinds:  make(map[string]int, len(s.InvalidKinds)),
	}
	for k, v := range s.InvalidFields {
		clone.InvalidFields[k] = v
	}
	for k, v := range s.InvalidKinds {
		clone.InvalidKinds[k] = v
	}
	return clone
}
