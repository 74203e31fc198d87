package rfm

import (
	"fmt"
	"sort"
	"strconv"
)

// MetricScoring controls how one metric maps to a quartile score. Invert
// flips the mapping so the lowest raw values receive the highest score.
type MetricScoring struct {
	Invert    bool `yaml:"invert"`
	Quartiles int  `yaml:"quartiles"`
}

// ScoringConfig holds the per-metric scoring options.
type ScoringConfig struct {
	Recency   MetricScoring `yaml:"recency"`
	Frequency MetricScoring `yaml:"frequency"`
	Monetary  MetricScoring `yaml:"monetary"`
}

// DefaultScoringConfig inverts recency (fewer days since the last purchase is
// better) and scores frequency and monetary directly.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Recency:   MetricScoring{Invert: true, Quartiles: 4},
		Frequency: MetricScoring{Invert: false, Quartiles: 4},
		Monetary:  MetricScoring{Invert: false, Quartiles: 4},
	}
}

func (c *ScoringConfig) normalize() {
	for _, m := range []*MetricScoring{&c.Recency, &c.Frequency, &c.Monetary} {
		if m.Quartiles == 0 {
			m.Quartiles = 4
		}
	}
}

func (c ScoringConfig) validate() error {
	for _, m := range []MetricScoring{c.Recency, c.Frequency, c.Monetary} {
		if m.Quartiles < 2 || m.Quartiles > 9 {
			return fmt.Errorf("quartile count %d out of range [2,9]", m.Quartiles)
		}
	}
	return nil
}

// Score is a Metrics record plus its quartile scores. One Score exists per
// Metrics record.
type Score struct {
	Metrics
	RQuartile int
	FQuartile int
	MQuartile int
	RFMScore  int
	RFMGroup  string
}

// ScoreMetrics assigns quartile buckets per metric from the empirical
// distribution of this run. Boundaries are data-dependent and recomputed per
// analysis, never fixed thresholds.
func ScoreMetrics(records []Metrics, cfg ScoringConfig) ([]Score, error) {
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	recency := make([]float64, len(records))
	frequency := make([]float64, len(records))
	monetary := make([]float64, len(records))
	for i, m := range records {
		recency[i] = float64(m.Recency)
		frequency[i] = float64(m.Frequency)
		monetary[i] = m.Monetary
	}

	rScores, err := quantileScores(recency, cfg.Recency)
	if err != nil {
		return nil, fmt.Errorf("recency: %w", err)
	}
	fScores, err := quantileScores(frequency, cfg.Frequency)
	if err != nil {
		return nil, fmt.Errorf("frequency: %w", err)
	}
	mScores, err := quantileScores(monetary, cfg.Monetary)
	if err != nil {
		return nil, fmt.Errorf("monetary: %w", err)
	}

	scores := make([]Score, len(records))
	for i, m := range records {
		r, f, mo := rScores[i], fScores[i], mScores[i]
		scores[i] = Score{
			Metrics:   m,
			RQuartile: r,
			FQuartile: f,
			MQuartile: mo,
			RFMScore:  r*100 + f*10 + mo,
			RFMGroup:  strconv.Itoa(r) + strconv.Itoa(f) + strconv.Itoa(mo),
		}
	}
	return scores, nil
}

// quantileScores buckets values into equal-sized rank bins and maps each bin
// to a score. Ties at a bucket boundary land deterministically: values sort
// stably by raw value, then by their original position.
func quantileScores(values []float64, cfg MetricScoring) ([]int, error) {
	n := len(values)
	buckets := cfg.Quartiles
	if n < buckets {
		return nil, fmt.Errorf("%w: %d customers cannot fill %d buckets", ErrDataQuality, n, buckets)
	}
	if distinct := distinctCount(values); distinct < buckets {
		return nil, fmt.Errorf("%w: only %d distinct values for %d buckets", ErrDataQuality, distinct, buckets)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return values[order[a]] < values[order[b]]
	})

	scores := make([]int, n)
	for rank, idx := range order {
		bucket := rank*buckets/n + 1
		if cfg.Invert {
			scores[idx] = buckets + 1 - bucket
		} else {
			scores[idx] = bucket
		}
	}
	return scores, nil
}

func distinctCount(values []float64) int {
	seen := make(map[float64]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}
