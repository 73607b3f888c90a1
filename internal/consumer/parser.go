package consumer

import (
	"fmt"

	"github.com/BarkinBalci/dataset-validation-service/internal/domain"
)

// JSONItemParser implements MessageParser for messages holding a JSON item
// or a JSON array of items
type JSONItemParser struct{}

// NewJSONItemParser creates a new JSON item parser
func NewJSONItemParser() *JSONItemParser {
	return &JSONItemParser{}
}

// Parse parses a JSON message body into items
func (p *JSONItemParser) Parse(body []byte) ([]domain.Item, error) {
	items, err := domain.ParseItems(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse message body: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("message holds no items")
	}
	return items, nil
}
