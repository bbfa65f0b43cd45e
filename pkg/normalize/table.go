// Package normalize converts heterogeneous JSON API responses into a
// uniform tabular structure of rows and named columns.
package normalize

import "sort"

// Row is one record of a normalized table.
type Row map[string]any

// Table is the uniform tabular output of a connector.
type Table struct {
	Rows []Row
}

// Len reports the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return len(t.Rows) == 0
}

// Columns returns the sorted union of all column names in the table.
func (t *Table) Columns() []string {
	seen := make(map[string]struct{})
	for _, row := range t.Rows {
		for col := range row {
			seen[col] = struct{}{}
		}
	}

	cols := make([]string, 0, len(seen))
	for col := range seen {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	return cols
}
