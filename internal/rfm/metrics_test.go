package rfm

import (
	"errors"
	"testing"
	"time"
)

func cleanedRow(customer, tx string, date time.Time, amount float64) Row {
	return Row{
		ColumnCustomerID:    customer,
		ColumnTransactionID: tx,
		ColumnDate:          date,
		ColumnAmount:        amount,
	}
}

func TestComputeMetrics(t *testing.T) {
	ref := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	table := transactionTable(
		cleanedRow("a", "t1", ref.AddDate(0, 0, -30), 100),
		cleanedRow("a", "t2", ref.AddDate(0, 0, -5), 150),
		cleanedRow("a", "t3", ref.AddDate(0, 0, -90), 50),
		cleanedRow("b", "t4", ref.AddDate(0, 0, -200), 50),
	)

	metrics, err := ComputeMetrics(table, ref)
	if err != nil {
		t.Fatalf("compute metrics: %v", err)
	}
	if len(metrics) != 2 {
		t.Fatalf("expected 2 customers, got %d", len(metrics))
	}

	a, b := metrics[0], metrics[1]
	if a.CustomerID != "a" || a.Frequency != 3 || a.Monetary != 300 || a.Recency != 5 {
		t.Fatalf("unexpected metrics for a: %+v", a)
	}
	if b.CustomerID != "b" || b.Frequency != 1 || b.Monetary != 50 || b.Recency != 200 {
		t.Fatalf("unexpected metrics for b: %+v", b)
	}
}

func TestComputeMetricsNegativeRecency(t *testing.T) {
	ref := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	table := transactionTable(
		cleanedRow("a", "t1", ref.AddDate(0, 0, 10), 100),
	)
	metrics, err := ComputeMetrics(table, ref)
	if err != nil {
		t.Fatalf("compute metrics: %v", err)
	}
	// A reference before the latest transaction is allowed and goes negative.
	if metrics[0].Recency != -10 {
		t.Fatalf("expected recency -10, got %d", metrics[0].Recency)
	}
}

func TestComputeMetricsWholeDays(t *testing.T) {
	ref := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	table := transactionTable(
		cleanedRow("a", "t1", time.Date(2024, 6, 8, 18, 0, 0, 0, time.UTC), 10),
	)
	metrics, err := ComputeMetrics(table, ref)
	if err != nil {
		t.Fatalf("compute metrics: %v", err)
	}
	// 42 hours elapsed -> 1 whole day.
	if metrics[0].Recency != 1 {
		t.Fatalf("expected recency 1, got %d", metrics[0].Recency)
	}
}

func TestComputeMetricsUnparsedDate(t *testing.T) {
	table := transactionTable(
		Row{ColumnCustomerID: "a", ColumnTransactionID: "t1", ColumnDate: "garbage", ColumnAmount: float64(10)},
	)
	_, err := ComputeMetrics(table, time.Now())
	if !errors.Is(err, ErrDataQuality) {
		t.Fatalf("expected data quality error, got %v", err)
	}
}

func TestComputeMetricsMissingColumns(t *testing.T) {
	table := &Table{Columns: []string{"foo"}}
	_, err := ComputeMetrics(table, time.Now())
	if !errors.Is(err, ErrPrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
}

func TestWholeDays(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want int
	}{
		{0, 0},
		{26 * time.Hour, 1},
		{24 * time.Hour, 1},
		{23 * time.Hour, 0},
		{-5 * time.Hour, -1},
		{-24 * time.Hour, -1},
		{-25 * time.Hour, -2},
	}
	for _, tc := range cases {
		if got := wholeDays(tc.d); got != tc.want {
			t.Errorf("wholeDays(%v) = %d, want %d", tc.d, got, tc.want)
		}
	}
}
