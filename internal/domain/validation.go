package domain

import "strings"

// ValidationError is one schema violation reported by the dataset store
// for a rejected item.
type ValidationError struct {
	InstancePath string           `json:"instancePath"`
	SchemaPath   string           `json:"schemaPath"`
	Keyword      string           `json:"keyword"`
	Params       ValidationParams `json:"params"`
	Message      string           `json:"message"`
}

// ValidationParams carries the keyword specific parameters of a
// ValidationError. Parameters not listed here are dropped on decode.
type ValidationParams struct {
	MissingProperty    string `json:"missingProperty,omitempty"`
	Type               string `json:"type,omitempty"`
	AdditionalProperty string `json:"additionalProperty,omitempty"`
}

// InvalidItem pairs the zero-based position of an item within the pushed
// batch with its validation errors.
type InvalidItem struct {
	ItemPosition     int               `json:"itemPosition"`
	ValidationErrors []ValidationError `json:"validationErrors"`
}

// FieldName returns the name of the field a validation error refers to.
// A leading "/" is stripped from the instance path; errors raised on the
// record root (such as "required") fall back to the missing property.
func FieldName(e ValidationError) string {
	field := strings.TrimPrefix(e.InstancePath, "/")
	if field == "" && e.Params.MissingProperty != "" {
		field = e.Params.MissingProperty
	}
	return field
}
