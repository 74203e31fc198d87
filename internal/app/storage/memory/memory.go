// Package memory provides an in-memory implementation of the storage
// interfaces. It is safe for concurrent use and is primarily intended for
// tests and local development.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/matrizrfm/rfm-engine/internal/app/domain/analysis"
	"github.com/matrizrfm/rfm-engine/internal/app/storage"
	"github.com/matrizrfm/rfm-engine/internal/rfm"
)

// Store keeps analyses and segment rows in maps guarded by a single mutex.
type Store struct {
	mu       sync.RWMutex
	nextID   int64
	analyses map[string]analysis.Analysis
	segments map[string][]analysis.SegmentRow
}

var _ storage.AnalysisStore = (*Store)(nil)
var _ storage.SegmentStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:   1,
		analyses: make(map[string]analysis.Analysis),
		segments: make(map[string][]analysis.SegmentRow),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

func (s *Store) CreateAnalysis(_ context.Context, a analysis.Analysis) (analysis.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = s.nextIDLocked()
	} else if _, exists := s.analyses[a.ID]; exists {
		return analysis.Analysis{}, fmt.Errorf("analysis %s already exists", a.ID)
	}

	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	s.analyses[a.ID] = cloneAnalysis(a)
	return a, nil
}

func (s *Store) UpdateAnalysis(_ context.Context, a analysis.Analysis) (analysis.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.analyses[a.ID]
	if !ok {
		return analysis.Analysis{}, fmt.Errorf("analysis %s not found", a.ID)
	}

	a.Owner = original.Owner
	a.CreatedAt = original.CreatedAt
	a.UpdatedAt = time.Now().UTC()

	s.analyses[a.ID] = cloneAnalysis(a)
	return a, nil
}

func (s *Store) GetAnalysis(_ context.Context, id string) (analysis.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.analyses[id]
	if !ok {
		return analysis.Analysis{}, fmt.Errorf("analysis %s not found", id)
	}
	return cloneAnalysis(a), nil
}

func (s *Store) ListAnalyses(_ context.Context, owner string) ([]analysis.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]analysis.Analysis, 0, len(s.analyses))
	for _, a := range s.analyses {
		if owner == "" || a.Owner == owner {
			result = append(result, cloneAnalysis(a))
		}
	}
	return result, nil
}

func (s *Store) DeleteAnalysis(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.analyses[id]; !ok {
		return fmt.Errorf("analysis %s not found", id)
	}
	delete(s.analyses, id)
	delete(s.segments, id)
	return nil
}

func (s *Store) ReplaceSegments(_ context.Context, analysisID string, rows []analysis.SegmentRow) ([]analysis.SegmentRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.analyses[analysisID]; !ok {
		return nil, fmt.Errorf("analysis %s not found", analysisID)
	}

	now := time.Now().UTC()
	stored := make([]analysis.SegmentRow, len(rows))
	for i, row := range rows {
		row.AnalysisID = analysisID
		if row.ID == "" {
			row.ID = s.nextIDLocked()
		}
		row.CreatedAt = now
		stored[i] = row
	}
	s.segments[analysisID] = stored
	return append([]analysis.SegmentRow(nil), stored...), nil
}

func (s *Store) ListSegments(_ context.Context, analysisID string) ([]analysis.SegmentRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]analysis.SegmentRow(nil), s.segments[analysisID]...), nil
}

func cloneAnalysis(a analysis.Analysis) analysis.Analysis {
	if a.Summary != nil {
		cp := *a.Summary
		if cp.SegmentDistribution != nil {
			dist := make(map[string]rfm.SegmentStats, len(cp.SegmentDistribution))
			for name, stats := range cp.SegmentDistribution {
				dist[name] = stats
			}
			cp.SegmentDistribution = dist
		}
		a.Summary = &cp
	}
	return a
}
