package domain

// Item is a single open-ended record. Its shape is unknown to this service;
// values are whatever encoding/json produces (string, float64, bool, nil,
// map[string]any, []any).
type Item map[string]any
