package rfm

import (
	"context"
	"fmt"
	"log/slog"

	"rfmcli/internal/errors"
	"rfmcli/pkg/contracts/domain"
)

// Metric names as they appear in errors, logs and the output header.
const (
	MetricRecency   = "Recency"
	MetricFrequency = "Frequency"
	MetricMonetary  = "Monetary"
)

// DegeneratePolicy decides what happens when a metric cannot be cut into
// four buckets with unique edges.
type DegeneratePolicy string

const (
	// PolicyStrict fails the run with a QUANTILE_DEGENERATE error.
	PolicyStrict DegeneratePolicy = "strict"
	// PolicyRank re-cuts the metric on its ordinal rank, ties by CustomerID.
	PolicyRank DegeneratePolicy = "rank"
)

// ParsePolicy converts a configuration value to a DegeneratePolicy.
// An empty string selects PolicyStrict.
func ParsePolicy(s string) (DegeneratePolicy, error) {
	switch DegeneratePolicy(s) {
	case "", PolicyStrict:
		return PolicyStrict, nil
	case PolicyRank:
		return PolicyRank, nil
	default:
		return "", errors.NewConfigError(fmt.Sprintf("unknown degenerate policy %q", s), nil).
			WithContext("policy", s)
	}
}

// Scorer assigns quartile scores to customer profiles.
type Scorer struct {
	logger *slog.Logger
	policy DegeneratePolicy
}

// NewScorer creates a Scorer. A nil logger falls back to slog.Default().
func NewScorer(logger *slog.Logger, policy DegeneratePolicy) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	if policy == "" {
		policy = PolicyStrict
	}
	return &Scorer{logger: logger, policy: policy}
}

// ScoreSet is the Scorer's output, aligned index for index with its input.
type ScoreSet struct {
	Scores []domain.Scores
	// RankFallbacks names the metrics that were re-cut on rank under PolicyRank.
	RankFallbacks []string
}

// Score cuts Recency (reversed labels), Frequency (on stable ordinal rank)
// and Monetary into quartiles over the given population.
func (s *Scorer) Score(ctx context.Context, profiles []domain.Profile) (ScoreSet, error) {
	set := ScoreSet{Scores: make([]domain.Scores, len(profiles))}
	if len(profiles) == 0 {
		return set, nil
	}

	ids := make([]int64, len(profiles))
	recency := make([]float64, len(profiles))
	frequency := make([]float64, len(profiles))
	monetary := make([]float64, len(profiles))
	for i, p := range profiles {
		ids[i] = p.CustomerID
		recency[i] = float64(p.Recency)
		frequency[i] = float64(p.Frequency)
		monetary[i] = p.Monetary.InexactFloat64()
	}

	r, err := s.cut(ctx, MetricRecency, recency, ids, DescendingLabels, &set)
	if err != nil {
		return ScoreSet{}, err
	}
	f, err := s.cut(ctx, MetricFrequency, OrdinalRanks(frequency, ids), ids, AscendingLabels, &set)
	if err != nil {
		return ScoreSet{}, err
	}
	m, err := s.cut(ctx, MetricMonetary, monetary, ids, AscendingLabels, &set)
	if err != nil {
		return ScoreSet{}, err
	}

	for i := range profiles {
		set.Scores[i] = domain.Scores{R: r[i], F: f[i], M: m[i]}
	}
	return set, nil
}

func (s *Scorer) cut(ctx context.Context, metric string, values []float64, ids []int64, labels Labels, set *ScoreSet) ([]int, error) {
	if scores, ok := Cut(values, labels); ok {
		return scores, nil
	}

	distinct := DistinctCount(values)
	if s.policy != PolicyRank {
		return nil, errors.NewQuantileDegenerateError(metric, distinct)
	}

	s.logger.WarnContext(ctx, "Quartile edges not unique, cutting on rank",
		slog.String("metric", metric),
		slog.Int("distinct_values", distinct),
		slog.Int("customers", len(values)))
	set.RankFallbacks = append(set.RankFallbacks, metric)
	return CutRanked(values, ids, labels), nil
}
