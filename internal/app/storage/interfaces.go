package storage

import (
	"context"

	"github.com/matrizrfm/rfm-engine/internal/app/domain/analysis"
)

// AnalysisStore persists analysis run records and their summaries.
type AnalysisStore interface {
	CreateAnalysis(ctx context.Context, a analysis.Analysis) (analysis.Analysis, error)
	UpdateAnalysis(ctx context.Context, a analysis.Analysis) (analysis.Analysis, error)
	GetAnalysis(ctx context.Context, id string) (analysis.Analysis, error)
	ListAnalyses(ctx context.Context, owner string) ([]analysis.Analysis, error)
	DeleteAnalysis(ctx context.Context, id string) error
}

// SegmentStore persists per-segment aggregate rows for completed analyses.
type SegmentStore interface {
	ReplaceSegments(ctx context.Context, analysisID string, rows []analysis.SegmentRow) ([]analysis.SegmentRow, error)
	ListSegments(ctx context.Context, analysisID string) ([]analysis.SegmentRow, error)
}
