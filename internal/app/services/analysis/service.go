// Package analysis orchestrates segmentation runs: it drives the pipeline,
// persists results, and attaches narrative insights.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domain "github.com/matrizrfm/rfm-engine/internal/app/domain/analysis"
	"github.com/matrizrfm/rfm-engine/internal/app/metrics"
	"github.com/matrizrfm/rfm-engine/internal/app/services/insights"
	"github.com/matrizrfm/rfm-engine/internal/app/storage"
	"github.com/matrizrfm/rfm-engine/internal/rfm"
	"github.com/matrizrfm/rfm-engine/pkg/logger"
)

// Request describes one segmentation run over an uploaded transaction table.
type Request struct {
	Owner         string
	Name          string
	Table         *rfm.Table
	ReferenceDate time.Time
}

// Service runs analyses and serves their results.
type Service struct {
	analyses storage.AnalysisStore
	segments storage.SegmentStore
	log      *logger.Logger

	scoring  rfm.ScoringConfig
	rules    rfm.RuleSet
	insights insights.Generator

	mu        sync.RWMutex
	pipelines map[string]*rfm.Pipeline

	wg sync.WaitGroup
}

// New constructs an analysis service with the default scoring configuration
// and segment catalogue.
func New(analyses storage.AnalysisStore, segments storage.SegmentStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("analysis")
	}
	return &Service{
		analyses:  analyses,
		segments:  segments,
		log:       log,
		scoring:   rfm.DefaultScoringConfig(),
		rules:     rfm.DefaultRuleSet(),
		insights:  insights.Static{},
		pipelines: make(map[string]*rfm.Pipeline),
	}
}

// Configure overrides the scoring configuration and segment catalogue used
// for subsequent runs. The rule set is validated up front.
func (s *Service) Configure(scoring rfm.ScoringConfig, rules rfm.RuleSet) error {
	if err := rules.Validate(); err != nil {
		return err
	}
	s.scoring = scoring
	s.rules = rules
	return nil
}

// AttachInsights overrides the narrative generator.
func (s *Service) AttachInsights(gen insights.Generator) {
	if gen != nil {
		s.insights = gen
	}
}

// Submit registers a pending analysis and runs it in the background. The
// returned record carries the identifier callers poll for completion.
func (s *Service) Submit(ctx context.Context, req Request) (domain.Analysis, error) {
	if err := validateRequest(req); err != nil {
		return domain.Analysis{}, err
	}

	created, err := s.analyses.CreateAnalysis(ctx, domain.Analysis{
		Owner:         req.Owner,
		Name:          req.Name,
		Status:        domain.StatusPending,
		ReferenceDate: req.ReferenceDate,
	})
	if err != nil {
		return domain.Analysis{}, err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		// Detached from the request context: the upload response returns
		// before the run finishes.
		s.execute(context.Background(), created.ID, req)
	}()

	return created, nil
}

// Run registers an analysis and executes it synchronously.
func (s *Service) Run(ctx context.Context, req Request) (domain.Analysis, error) {
	if err := validateRequest(req); err != nil {
		return domain.Analysis{}, err
	}

	created, err := s.analyses.CreateAnalysis(ctx, domain.Analysis{
		Owner:         req.Owner,
		Name:          req.Name,
		Status:        domain.StatusPending,
		ReferenceDate: req.ReferenceDate,
	})
	if err != nil {
		return domain.Analysis{}, err
	}

	s.execute(ctx, created.ID, req)
	return s.analyses.GetAnalysis(ctx, created.ID)
}

// Wait blocks until all background runs have finished. Intended for shutdown
// and tests.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Get retrieves an analysis by identifier.
func (s *Service) Get(ctx context.Context, id string) (domain.Analysis, error) {
	return s.analyses.GetAnalysis(ctx, id)
}

// List returns analyses, optionally filtered by owner.
func (s *Service) List(ctx context.Context, owner string) ([]domain.Analysis, error) {
	return s.analyses.ListAnalyses(ctx, owner)
}

// Delete removes an analysis together with its segments and retained records.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.analyses.DeleteAnalysis(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.pipelines, id)
	s.mu.Unlock()
	return nil
}

// Segments returns the persisted per-segment aggregates of an analysis.
func (s *Service) Segments(ctx context.Context, id string) ([]domain.SegmentRow, error) {
	if _, err := s.analyses.GetAnalysis(ctx, id); err != nil {
		return nil, err
	}
	return s.segments.ListSegments(ctx, id)
}

// Customer returns one customer's scored record from a completed analysis.
func (s *Service) Customer(ctx context.Context, analysisID, customerID string) (rfm.CustomerRecord, error) {
	a, err := s.analyses.GetAnalysis(ctx, analysisID)
	if err != nil {
		return rfm.CustomerRecord{}, err
	}
	if a.Status != domain.StatusCompleted {
		return rfm.CustomerRecord{}, fmt.Errorf("analysis %s is %s: %w", analysisID, a.Status, rfm.ErrPrecondition)
	}

	s.mu.RLock()
	p, ok := s.pipelines[analysisID]
	s.mu.RUnlock()
	if !ok {
		return rfm.CustomerRecord{}, fmt.Errorf("records for analysis %s no longer retained: %w", analysisID, rfm.ErrCustomerNotFound)
	}
	return p.Customer(customerID)
}

// Records returns all scored customer records of a completed analysis.
func (s *Service) Records(ctx context.Context, analysisID string) ([]rfm.CustomerRecord, error) {
	a, err := s.analyses.GetAnalysis(ctx, analysisID)
	if err != nil {
		return nil, err
	}
	if a.Status != domain.StatusCompleted {
		return nil, fmt.Errorf("analysis %s is %s: %w", analysisID, a.Status, rfm.ErrPrecondition)
	}

	s.mu.RLock()
	p, ok := s.pipelines[analysisID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("records for analysis %s no longer retained: %w", analysisID, rfm.ErrCustomerNotFound)
	}
	return p.Records(), nil
}

func (s *Service) execute(ctx context.Context, id string, req Request) {
	log := s.log.WithField("analysis_id", id)
	start := time.Now()

	if err := s.transition(ctx, id, func(a *domain.Analysis) {
		a.Status = domain.StatusRunning
	}); err != nil {
		log.WithError(err).Error("mark analysis running failed")
		return
	}

	p := rfm.NewPipeline(req.Table)
	summary, err := p.Run(req.ReferenceDate, s.scoring, s.rules)
	if err != nil {
		log.WithError(err).Warn("analysis run failed")
		metrics.RecordAnalysisRun("failed", time.Since(start), 0)
		if terr := s.transition(ctx, id, func(a *domain.Analysis) {
			a.Status = domain.StatusFailed
			a.Error = err.Error()
		}); terr != nil {
			log.WithError(terr).Error("mark analysis failed failed")
		}
		return
	}

	narrative, err := s.insights.Generate(ctx, summary)
	if err != nil {
		log.WithError(err).Warn("insights generation failed; using fallback")
		narrative = insights.FallbackMessage
	}

	if _, err := s.segments.ReplaceSegments(ctx, id, domain.SegmentRowsFromSummary(id, summary)); err != nil {
		log.WithError(err).Error("persist segments failed")
		if terr := s.transition(ctx, id, func(a *domain.Analysis) {
			a.Status = domain.StatusFailed
			a.Error = err.Error()
		}); terr != nil {
			log.WithError(terr).Error("mark analysis failed failed")
		}
		return
	}

	if err := s.transition(ctx, id, func(a *domain.Analysis) {
		a.Status = domain.StatusCompleted
		a.TotalCustomers = summary.TotalCustomers
		a.Summary = &summary
		a.Insights = narrative
		a.Error = ""
		a.CompletedAt = time.Now().UTC()
	}); err != nil {
		log.WithError(err).Error("mark analysis completed failed")
		return
	}

	s.mu.Lock()
	s.pipelines[id] = p
	s.mu.Unlock()

	metrics.RecordAnalysisRun("completed", time.Since(start), summary.TotalCustomers)
	log.Infof("analysis completed with %d customers", summary.TotalCustomers)
}

func (s *Service) transition(ctx context.Context, id string, apply func(*domain.Analysis)) error {
	a, err := s.analyses.GetAnalysis(ctx, id)
	if err != nil {
		return err
	}
	apply(&a)
	_, err = s.analyses.UpdateAnalysis(ctx, a)
	return err
}

func validateRequest(req Request) error {
	if req.Table == nil || len(req.Table.Rows) == 0 {
		return fmt.Errorf("transaction table is empty: %w", rfm.ErrDataQuality)
	}
	if err := req.Table.ValidateColumns(); err != nil {
		return err
	}
	if req.Name == "" {
		return errors.New("name is required")
	}
	return nil
}
