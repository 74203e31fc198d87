// Package analysis defines the records the calling layer persists for each
// segmentation run.
package analysis

import (
	"time"

	"github.com/matrizrfm/rfm-engine/internal/rfm"
)

// Status tracks the lifecycle of a submitted analysis.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Analysis is one segmentation run: who submitted it, where it stands, and —
// once completed — the summary the core produced plus the narrative insights
// attached by the caller.
type Analysis struct {
	ID             string
	Owner          string
	Name           string
	Status         Status
	TotalCustomers int
	ReferenceDate  time.Time
	Summary        *rfm.Summary
	Insights       string
	Error          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    time.Time
}

// SegmentRow is the persisted per-segment aggregate of a completed analysis.
type SegmentRow struct {
	ID                string
	AnalysisID        string
	Segment           string
	Count             int
	Percentage        float64
	AvgRecency        float64
	AvgFrequency      float64
	AvgMonetary       float64
	TotalRevenue      float64
	RevenuePercentage float64
	CreatedAt         time.Time
}

// SegmentRowsFromSummary flattens a summary's distribution into persisted
// rows for one analysis.
func SegmentRowsFromSummary(analysisID string, summary rfm.Summary) []SegmentRow {
	rows := make([]SegmentRow, 0, len(summary.SegmentDistribution))
	for name, stats := range summary.SegmentDistribution {
		rows = append(rows, SegmentRow{
			AnalysisID:        analysisID,
			Segment:           name,
			Count:             stats.Count,
			Percentage:        stats.Percentage,
			AvgRecency:        stats.AvgRecency,
			AvgFrequency:      stats.AvgFrequency,
			AvgMonetary:       stats.AvgMonetary,
			TotalRevenue:      stats.TotalRevenue,
			RevenuePercentage: stats.RevenuePercentage,
		})
	}
	return rows
}
