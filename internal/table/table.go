// Package table holds the in-memory tabular model and the CSV and Excel
// codecs around it. Matching never touches files; it works on Tables.
package table

// Record is one row: an ordered mapping from column name to string value.
// Column order lives on the owning Table, identity is the original row
// index within the source. Cells are immutable after read except for
// derived columns added during processing.
type Record struct {
	Index int
	cells map[string]string
}

// NewRecord builds a record from parallel header and value slices. Extra
// values are dropped, missing ones read back as "".
func NewRecord(index int, headers, values []string) Record {
	cells := make(map[string]string, len(headers))
	for i, h := range headers {
		if i < len(values) {
			cells[h] = values[i]
		}
	}
	return Record{Index: index, cells: cells}
}

// Get returns the value of a column, "" when absent.
func (r Record) Get(column string) string {
	return r.cells[column]
}

// Set writes a derived column value.
func (r Record) Set(column, value string) {
	r.cells[column] = value
}

// Values serializes the record in the given column order.
func (r Record) Values(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i] = r.cells[h]
	}
	return out
}

// Table is an ordered collection of records sharing one header list.
type Table struct {
	Headers []string
	Rows    []Record
}

// New creates an empty table with the given headers.
func New(headers ...string) *Table {
	return &Table{Headers: headers}
}

// Append adds a row from raw values, assigning the next row index.
func (t *Table) Append(values []string) {
	t.Rows = append(t.Rows, NewRecord(len(t.Rows), t.Headers, values))
}

// AppendRecord adds an already-built record without renumbering it.
func (t *Table) AppendRecord(rec Record) {
	t.Rows = append(t.Rows, rec)
}

// Len returns the row count.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Column collects one column's values in row order.
func (t *Table) Column(name string) []string {
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row.Get(name)
	}
	return out
}
