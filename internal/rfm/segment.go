package rfm

import "fmt"

// CustomerRecord is a scored record plus its assigned segment.
type CustomerRecord struct {
	Score
	Segment string
}

// ClassifyScores assigns each scored record its segment. Segments are
// evaluated in rule-set definition order and the first match wins; customers
// matching nothing get UnknownSegment.
func ClassifyScores(scores []Score, rules RuleSet) ([]CustomerRecord, error) {
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rule set: %w", err)
	}
	records := make([]CustomerRecord, len(scores))
	for i, sc := range scores {
		records[i] = CustomerRecord{Score: sc, Segment: rules.Classify(sc)}
	}
	return records, nil
}

// SegmentStats aggregates the customers of one segment.
type SegmentStats struct {
	Count             int     `json:"count"`
	Percentage        float64 `json:"percentage"`
	AvgRecency        float64 `json:"avg_recency"`
	AvgFrequency      float64 `json:"avg_frequency"`
	AvgMonetary       float64 `json:"avg_monetary"`
	TotalRevenue      float64 `json:"total_revenue"`
	RevenuePercentage float64 `json:"revenue_percentage"`
}

// Summary is the analysis output contract. It is derived read-only from the
// segmented table and every numeric field is finite.
type Summary struct {
	TotalCustomers      int                     `json:"total_customers"`
	TotalRevenue        float64                 `json:"total_revenue"`
	AverageRecency      float64                 `json:"average_recency"`
	AverageFrequency    float64                 `json:"average_frequency"`
	AverageMonetary     float64                 `json:"average_monetary"`
	SegmentDistribution map[string]SegmentStats `json:"segment_distribution"`
}

// Summarize aggregates segmented customer records. A zero-customer table is a
// precondition error rather than a division fault.
func Summarize(records []CustomerRecord) (Summary, error) {
	total := len(records)
	if total == 0 {
		return Summary{}, fmt.Errorf("%w: no customers to summarize", ErrPrecondition)
	}

	type agg struct {
		count     int
		recency   float64
		frequency float64
		monetary  float64
	}

	var overall agg
	perSegment := make(map[string]*agg)
	for _, rec := range records {
		overall.count++
		overall.recency += float64(rec.Recency)
		overall.frequency += float64(rec.Frequency)
		overall.monetary += rec.Monetary

		a, ok := perSegment[rec.Segment]
		if !ok {
			a = &agg{}
			perSegment[rec.Segment] = a
		}
		a.count++
		a.recency += float64(rec.Recency)
		a.frequency += float64(rec.Frequency)
		a.monetary += rec.Monetary
	}

	summary := Summary{
		TotalCustomers:      total,
		TotalRevenue:        overall.monetary,
		AverageRecency:      overall.recency / float64(total),
		AverageFrequency:    overall.frequency / float64(total),
		AverageMonetary:     overall.monetary / float64(total),
		SegmentDistribution: make(map[string]SegmentStats, len(perSegment)),
	}

	for name, a := range perSegment {
		stats := SegmentStats{
			Count:        a.count,
			Percentage:   float64(a.count) / float64(total) * 100,
			AvgRecency:   a.recency / float64(a.count),
			AvgFrequency: a.frequency / float64(a.count),
			AvgMonetary:  a.monetary / float64(a.count),
			TotalRevenue: a.monetary,
		}
		if overall.monetary != 0 {
			stats.RevenuePercentage = a.monetary / overall.monetary * 100
		}
		summary.SegmentDistribution[name] = stats
	}
	return summary, nil
}
