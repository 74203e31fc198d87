package rfm

import (
	"strconv"
	"strings"
	"time"
)

// Timestamp layouts accepted when parsing date-like columns.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
}

// PreprocessOptions tune table cleaning. The zero value applies the default
// behavior: every column whose name contains "date" or "time" is treated as a
// timestamp column.
type PreprocessOptions struct {
	// DateColumns pins the exact set of columns to parse as timestamps,
	// bypassing the name heuristic.
	DateColumns []string
}

// Clean returns the preprocessed copy of a transaction table:
//
//   - date-like columns are parsed to timestamps, keeping the original value
//     when parsing fails (non-fatal at this stage);
//   - rows missing customer_id, transaction_date or transaction_amount are
//     dropped;
//   - transaction_amount is coerced to a number, with uncoercible values
//     treated as missing and dropped;
//   - rows with transaction_amount <= 0 are dropped.
//
// Cleaning is idempotent: running it on its own output yields the same table.
func Clean(t *Table, opts PreprocessOptions) (*Table, error) {
	if err := t.ValidateColumns(); err != nil {
		return nil, err
	}

	dateCols := opts.DateColumns
	if len(dateCols) == 0 {
		for _, col := range t.Columns {
			if isDateColumn(col) {
				dateCols = append(dateCols, col)
			}
		}
	}

	out := &Table{Columns: append([]string(nil), t.Columns...)}
	for _, row := range t.Rows {
		cleaned := make(Row, len(row))
		for k, v := range row {
			cleaned[k] = v
		}

		for _, col := range dateCols {
			if v, ok := cleaned[col]; ok {
				if ts, ok := parseTimestamp(v); ok {
					cleaned[col] = ts
				}
			}
		}

		if isMissing(cleaned[ColumnCustomerID]) || isMissing(cleaned[ColumnDate]) {
			continue
		}

		amount, ok := toNumber(cleaned[ColumnAmount])
		if !ok {
			// Uncoercible amounts become missing and fall under the
			// missing-value drop rule.
			continue
		}
		if amount <= 0 {
			continue
		}
		cleaned[ColumnAmount] = amount

		out.Rows = append(out.Rows, cleaned)
	}
	return out, nil
}

func isDateColumn(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "date") || strings.Contains(lower, "time")
}

func parseTimestamp(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}

func toNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func isMissing(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
