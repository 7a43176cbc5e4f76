package domain

// Row is a single record of an external tabular record set, keyed by column
// name. Values are kept as raw strings; numeric coercion is the adapter's job.
type Row map[string]string

// Table is the boundary representation of one external source extract.
// The core never opens files; callers hand tables in fully materialized.
type Table struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// HasColumn reports whether the table declares the given column.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Empty reports whether the table carries no rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}
