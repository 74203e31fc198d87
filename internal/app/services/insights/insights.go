// Package insights turns a completed segmentation summary into a short
// narrative for the analysis report.
package insights

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/matrizrfm/rfm-engine/internal/rfm"
)

// FallbackMessage is attached when no generator is configured or generation
// fails. Analyses still complete; the narrative is best effort.
const FallbackMessage = "Automatic insights are unavailable for this analysis. " +
	"Review the segment distribution to prioritize retention and reactivation campaigns."

// Generator produces narrative insights from a summary.
type Generator interface {
	Generate(ctx context.Context, summary rfm.Summary) (string, error)
}

// Static is a deterministic generator that renders a plain-text digest from
// the summary itself, with no external calls.
type Static struct{}

var _ Generator = Static{}

func (Static) Generate(_ context.Context, summary rfm.Summary) (string, error) {
	if summary.TotalCustomers == 0 {
		return FallbackMessage, nil
	}

	type entry struct {
		name  string
		stats rfm.SegmentStats
	}
	entries := make([]entry, 0, len(summary.SegmentDistribution))
	for name, stats := range summary.SegmentDistribution {
		entries = append(entries, entry{name: name, stats: stats})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].stats.Count != entries[j].stats.Count {
			return entries[i].stats.Count > entries[j].stats.Count
		}
		return entries[i].name < entries[j].name
	})

	var b strings.Builder
	fmt.Fprintf(&b, "Analyzed %d customers generating %.2f in total revenue.\n",
		summary.TotalCustomers, summary.TotalRevenue)
	fmt.Fprintf(&b, "Average profile: recency %.1f days, frequency %.1f purchases, monetary %.2f per customer.\n",
		summary.AverageRecency, summary.AverageFrequency, summary.AverageMonetary)

	if len(entries) > 0 {
		top := entries[0]
		fmt.Fprintf(&b, "Largest segment is %q with %d customers (%.1f%%), contributing %.1f%% of revenue.",
			top.name, top.stats.Count, top.stats.Percentage, top.stats.RevenuePercentage)
	}
	return b.String(), nil
}
