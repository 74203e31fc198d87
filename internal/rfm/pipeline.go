// Package rfm implements the customer segmentation core: a batch pipeline
// that cleans a transaction table, reduces it to per-customer
// recency/frequency/monetary metrics, scores metrics into quartiles, and
// classifies customers into named marketing segments.
//
// The package performs no I/O beyond reading the table it is given. Callers
// own persistence, transport, and narrative generation.
package rfm

import (
	"fmt"
	"time"
)

// Option configures a Pipeline at construction.
type Option func(*Pipeline)

// WithDateColumns pins the exact columns parsed as timestamps during
// preprocessing, replacing the "name contains date or time" heuristic.
func WithDateColumns(columns ...string) Option {
	return func(p *Pipeline) {
		p.opts.DateColumns = append([]string(nil), columns...)
	}
}

// Pipeline accumulates the state of one analysis run: raw table, cleaned
// table, metrics, scores, segmented records, summary. Stages must run in
// order; invoking a stage before its predecessor fails with ErrPrecondition
// and leaves earlier outputs intact. A Pipeline is not safe for concurrent
// use; run one pipeline per dataset.
type Pipeline struct {
	table *Table
	opts  PreprocessOptions

	cleaned bool
	metrics []Metrics
	scores  []Score
	records []CustomerRecord
	index   map[string]int
	summary *Summary
}

// NewPipeline wraps a raw transaction table. The table is cloned so the
// caller's copy is never mutated.
func NewPipeline(t *Table, opts ...Option) *Pipeline {
	p := &Pipeline{table: t.Clone()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Preprocess cleans the held table in place, replacing it with the cleaned
// version.
func (p *Pipeline) Preprocess() error {
	cleaned, err := Clean(p.table, p.opts)
	if err != nil {
		return fmt.Errorf("preprocess: %w", err)
	}
	p.table = cleaned
	p.cleaned = true
	return nil
}

// ComputeMetrics reduces the cleaned table to one RFM record per customer.
// A zero reference defaults to the current time.
func (p *Pipeline) ComputeMetrics(reference time.Time) error {
	if !p.cleaned {
		return fmt.Errorf("compute metrics: %w: preprocess has not run", ErrPrecondition)
	}
	metrics, err := ComputeMetrics(p.table, reference)
	if err != nil {
		return fmt.Errorf("compute metrics: %w", err)
	}
	p.metrics = metrics
	return nil
}

// Score converts metrics to quartile scores using this run's distribution.
func (p *Pipeline) Score(cfg ScoringConfig) error {
	if p.metrics == nil {
		return fmt.Errorf("score: %w: metrics have not been computed", ErrPrecondition)
	}
	scores, err := ScoreMetrics(p.metrics, cfg)
	if err != nil {
		return fmt.Errorf("score: %w", err)
	}
	p.scores = scores
	return nil
}

// Classify assigns segments to scored customers.
func (p *Pipeline) Classify(rules RuleSet) error {
	if p.scores == nil {
		return fmt.Errorf("classify: %w: scores have not been assigned", ErrPrecondition)
	}
	records, err := ClassifyScores(p.scores, rules)
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}
	index := make(map[string]int, len(records))
	for i, rec := range records {
		index[rec.CustomerID] = i
	}
	p.records = records
	p.index = index
	return nil
}

// Summarize aggregates the segmented table into the analysis summary.
func (p *Pipeline) Summarize() (Summary, error) {
	if p.records == nil {
		return Summary{}, fmt.Errorf("summarize: %w: segments have not been assigned", ErrPrecondition)
	}
	summary, err := Summarize(p.records)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize: %w", err)
	}
	p.summary = &summary
	return summary, nil
}

// Run executes the full pipeline in stage order and returns the summary.
func (p *Pipeline) Run(reference time.Time, scoring ScoringConfig, rules RuleSet) (Summary, error) {
	if err := p.Preprocess(); err != nil {
		return Summary{}, err
	}
	if err := p.ComputeMetrics(reference); err != nil {
		return Summary{}, err
	}
	if err := p.Score(scoring); err != nil {
		return Summary{}, err
	}
	if err := p.Classify(rules); err != nil {
		return Summary{}, err
	}
	return p.Summarize()
}

// Customer returns the full scored and segmented record for one customer id.
func (p *Pipeline) Customer(id string) (CustomerRecord, error) {
	if p.records == nil {
		return CustomerRecord{}, fmt.Errorf("customer lookup: %w: segments have not been assigned", ErrPrecondition)
	}
	i, ok := p.index[id]
	if !ok {
		return CustomerRecord{}, fmt.Errorf("%w: %s", ErrCustomerNotFound, id)
	}
	return p.records[i], nil
}

// Records returns the segmented customer table, one record per customer.
func (p *Pipeline) Records() []CustomerRecord {
	return append([]CustomerRecord(nil), p.records...)
}

// Summary returns the generated summary, or false when Summarize has not run.
func (p *Pipeline) Summary() (Summary, bool) {
	if p.summary == nil {
		return Summary{}, false
	}
	return *p.summary, true
}
