package rfm

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Column names the engine requires in an input table.
const (
	ColumnCustomerID    = "customer_id"
	ColumnTransactionID = "transaction_id"
	ColumnDate          = "transaction_date"
	ColumnAmount        = "transaction_amount"
)

// RequiredColumns lists the columns a transaction table must carry before a
// pipeline can run.
var RequiredColumns = []string{ColumnCustomerID, ColumnTransactionID, ColumnDate, ColumnAmount}

// Row is one transaction record. Values are strings as loaded, and become
// time.Time or float64 where the preprocessor coerces them.
type Row map[string]any

// Table is a tabular transaction dataset. Only the preprocessor mutates a
// table; every later stage reads it.
type Table struct {
	Columns []string
	Rows    []Row
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{Columns: append([]string(nil), t.Columns...)}
	out.Rows = make([]Row, len(t.Rows))
	for i, row := range t.Rows {
		cp := make(Row, len(row))
		for k, v := range row {
			cp[k] = v
		}
		out.Rows[i] = cp
	}
	return out
}

// HasColumn reports whether the table carries the named column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// ValidateColumns checks that every required column is present. The returned
// error names all missing columns so upload handlers can surface it verbatim.
func (t *Table) ValidateColumns() error {
	var missing []string
	for _, col := range RequiredColumns {
		if !t.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required columns: %s", ErrDataQuality, strings.Join(missing, ", "))
	}
	return nil
}

// ReadCSV parses a CSV stream with a header row into a Table. Cell values are
// kept as strings; type coercion happens in the preprocessor.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty dataset", ErrDataQuality)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.TrimSpace(name)
	}

	table := &Table{Columns: columns}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(table.Rows)+2, err)
		}
		row := make(Row, len(columns))
		for i, col := range columns {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}
