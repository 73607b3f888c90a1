package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ParseItems decodes a JSON object or a JSON array of objects into items.
// Numbers are kept as json.Number so they are pushed back unchanged.
func ParseItems(data []byte) ([]Item, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty body")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	switch trimmed[0] {
	case '{':
		var item Item
		if err := decoder.Decode(&item); err != nil {
			return nil, fmt.Errorf("failed to decode item: %w", err)
		}
		return []Item{item}, nil
	case '[':
		var items []Item
		if err := decoder.Decode(&items); err != nil {
			return nil, fmt.Errorf("failed to decode items: %w", err)
		}
		for i, item := range items {
			if item == nil {
				return nil, fmt.Errorf("item %d is not an object", i)
			}
		}
		return items, nil
	default:
		return nil, errors.New("body must be a JSON object or an array of objects")
	}
}
