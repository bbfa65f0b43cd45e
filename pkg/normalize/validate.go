package normalize

import "time"

// RetrievedAtColumn is stamped onto every validated row with the
// capture instant.
const RetrievedAtColumn = "retrieved_at"

// Clean validates a normalized table: rows whose values are all empty
// are dropped, and every surviving row is stamped with one shared
// capture timestamp (UTC).
func Clean(t *Table) *Table {
	retrievedAt := time.Now().UTC()

	kept := make([]Row, 0, len(t.Rows))
	for _, row := range t.Rows {
		if emptyRow(row) {
			continue
		}
		row[RetrievedAtColumn] = retrievedAt
		kept = append(kept, row)
	}

	return &Table{Rows: kept}
}

// emptyRow reports whether every value in the row is nil or an empty
// string. A row without columns counts as empty.
func emptyRow(row Row) bool {
	for _, v := range row {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			if val != "" {
				return false
			}
		default:
			return false
		}
	}
	return true
}
