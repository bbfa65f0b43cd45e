package normalize

import (
	"errors"
	"fmt"
)

// ErrUnsupportedShape is returned when a response body cannot be
// interpreted as tabular data.
var ErrUnsupportedShape = errors.New("unsupported response shape")

// envelopeKeys are probed in order when a response is an object rather
// than a list. The first key holding a list wins.
var envelopeKeys = []string{"data", "results", "items", "records"}

// Normalize converts a decoded JSON body into a Table:
//
//   - a list becomes one row per element,
//   - an object with a list under one of the envelope keys is unwrapped
//     to that list,
//   - any other object becomes a single-row table,
//   - everything else fails with ErrUnsupportedShape.
func Normalize(v any) (*Table, error) {
	switch val := v.(type) {
	case []any:
		return fromList(val), nil

	case map[string]any:
		for _, key := range envelopeKeys {
			if list, ok := val[key].([]any); ok {
				return fromList(list), nil
			}
		}
		return &Table{Rows: []Row{Row(val)}}, nil

	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedShape, v)
	}
}

// fromList turns list elements into rows. Non-object elements are
// wrapped under a single "value" column.
func fromList(list []any) *Table {
	rows := make([]Row, 0, len(list))
	for _, elem := range list {
		if m, ok := elem.(map[string]any); ok {
			rows = append(rows, Row(m))
			continue
		}
		rows = append(rows, Row{"value": elem})
	}

	return &Table{Rows: rows}
}
