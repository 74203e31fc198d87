package rfm

import (
	"fmt"
	"time"
)

// Metrics is the per-customer RFM triple. It is immutable once produced;
// scoring and classification layer fields on top without altering it.
type Metrics struct {
	CustomerID string
	Recency    int
	Frequency  int
	Monetary   float64
}

// ComputeMetrics groups a cleaned table by customer and reduces it to one
// Metrics record per customer, ordered by first appearance in the table.
//
// Recency is the whole number of days between the reference timestamp and the
// customer's latest transaction date. A reference earlier than the latest
// transaction yields a negative recency; that is documented behavior, not an
// error. A zero reference defaults to the current time.
func ComputeMetrics(t *Table, reference time.Time) ([]Metrics, error) {
	if err := t.ValidateColumns(); err != nil {
		return nil, fmt.Errorf("%w: table not preprocessed", ErrPrecondition)
	}
	if reference.IsZero() {
		reference = time.Now()
	}

	type group struct {
		latest   time.Time
		count    int
		monetary float64
	}

	var order []string
	groups := make(map[string]*group)

	for i, row := range t.Rows {
		id := customerKey(row[ColumnCustomerID])
		ts, ok := row[ColumnDate].(time.Time)
		if !ok {
			return nil, fmt.Errorf("%w: row %d has unparsed %s", ErrDataQuality, i+1, ColumnDate)
		}
		amount, ok := toNumber(row[ColumnAmount])
		if !ok {
			return nil, fmt.Errorf("%w: row %d has non-numeric %s", ErrDataQuality, i+1, ColumnAmount)
		}

		g, exists := groups[id]
		if !exists {
			g = &group{latest: ts}
			groups[id] = g
			order = append(order, id)
		}
		if ts.After(g.latest) {
			g.latest = ts
		}
		g.count++
		g.monetary += amount
	}

	result := make([]Metrics, 0, len(order))
	for _, id := range order {
		g := groups[id]
		result = append(result, Metrics{
			CustomerID: id,
			Recency:    wholeDays(reference.Sub(g.latest)),
			Frequency:  g.count,
			Monetary:   g.monetary,
		})
	}
	return result, nil
}

// wholeDays floors a duration to days, so partial days toward the past round
// down (matching calendar-day recency for negative spans too).
func wholeDays(d time.Duration) int {
	secs := int64(d / time.Second)
	days := secs / 86400
	if secs%86400 != 0 && secs < 0 {
		days--
	}
	return int(days)
}

func customerKey(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
