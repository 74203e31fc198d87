package memory

import (
	"context"
	"testing"

	"github.com/matrizrfm/rfm-engine/internal/app/domain/analysis"
	"github.com/matrizrfm/rfm-engine/internal/rfm"
)

func TestAnalysisLifecycle(t *testing.T) {
	store := New()
	ctx := context.Background()

	created, err := store.CreateAnalysis(ctx, analysis.Analysis{
		Owner:  "acme",
		Name:   "q2-transactions",
		Status: analysis.StatusPending,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected generated id")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatalf("timestamps not set: %+v", created)
	}

	created.Status = analysis.StatusCompleted
	created.TotalCustomers = 42
	created.Summary = &rfm.Summary{
		TotalCustomers: 42,
		SegmentDistribution: map[string]rfm.SegmentStats{
			"champions": {Count: 42, Percentage: 100},
		},
	}
	updated, err := store.UpdateAnalysis(ctx, created)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != analysis.StatusCompleted {
		t.Fatalf("status not updated: %+v", updated)
	}

	got, err := store.GetAnalysis(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TotalCustomers != 42 || got.Summary == nil {
		t.Fatalf("unexpected analysis: %+v", got)
	}

	// Mutating the returned summary must not leak into the store.
	got.Summary.SegmentDistribution["champions"] = rfm.SegmentStats{Count: 1}
	again, err := store.GetAnalysis(ctx, created.ID)
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if again.Summary.SegmentDistribution["champions"].Count != 42 {
		t.Fatalf("store summary mutated through returned copy")
	}

	if err := store.DeleteAnalysis(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetAnalysis(ctx, created.ID); err == nil {
		t.Fatalf("expected not found after delete")
	}
}

func TestListAnalysesByOwner(t *testing.T) {
	store := New()
	ctx := context.Background()

	for _, owner := range []string{"a", "a", "b"} {
		if _, err := store.CreateAnalysis(ctx, analysis.Analysis{Owner: owner, Status: analysis.StatusPending}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	all, err := store.ListAnalyses(ctx, "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 analyses, got %d", len(all))
	}

	mine, err := store.ListAnalyses(ctx, "a")
	if err != nil {
		t.Fatalf("list owner: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 analyses for owner a, got %d", len(mine))
	}
}

func TestSegments(t *testing.T) {
	store := New()
	ctx := context.Background()

	a, err := store.CreateAnalysis(ctx, analysis.Analysis{Owner: "acme", Status: analysis.StatusCompleted})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	rows := []analysis.SegmentRow{
		{Segment: "champions", Count: 10, Percentage: 50},
		{Segment: "lost", Count: 10, Percentage: 50},
	}
	stored, err := store.ReplaceSegments(ctx, a.ID, rows)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	for _, row := range stored {
		if row.ID == "" || row.AnalysisID != a.ID {
			t.Fatalf("row not normalized: %+v", row)
		}
	}

	// Replace swaps the whole set.
	if _, err := store.ReplaceSegments(ctx, a.ID, rows[:1]); err != nil {
		t.Fatalf("replace again: %v", err)
	}
	listed, err := store.ListSegments(ctx, a.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || listed[0].Segment != "champions" {
		t.Fatalf("unexpected segments: %+v", listed)
	}

	if _, err := store.ReplaceSegments(ctx, "missing", rows); err == nil {
		t.Fatalf("expected error for unknown analysis")
	}
}
