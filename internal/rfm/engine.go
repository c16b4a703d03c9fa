package rfm

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"rfmcli/internal/errors"
	"rfmcli/pkg/contracts/domain"
)

// previewRows is how many customers are logged at debug level after scoring.
const previewRows = 5

// EngineConfig holds configuration options for the Engine.
type EngineConfig struct {
	Policy DegeneratePolicy
}

// Engine computes the RFM profile, scores and segment of every customer.
type Engine struct {
	logger *slog.Logger
	scorer *Scorer
}

// NewEngine creates an Engine. A nil logger falls back to slog.Default().
func NewEngine(logger *slog.Logger, config EngineConfig) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		logger: logger,
		scorer: NewScorer(logger, config.Policy),
	}
}

// Result is the scored customer population of one run.
type Result struct {
	// Snapshot is zero when there were no transactions.
	Snapshot      time.Time
	Customers     []domain.CustomerRFM
	RankFallbacks []string

	index map[int64]int
}

// NewResult builds a Result over customers, which must have unique ids.
func NewResult(snapshot time.Time, customers []domain.CustomerRFM) *Result {
	index := make(map[int64]int, len(customers))
	for i, c := range customers {
		index[c.CustomerID] = i
	}
	return &Result{
		Snapshot:  snapshot,
		Customers: customers,
		index:     index,
	}
}

// Len returns the number of scored customers.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Customers)
}

// Lookup returns the scored customer with the given id.
func (r *Result) Lookup(customerID int64) (*domain.CustomerRFM, bool) {
	if r == nil {
		return nil, false
	}
	i, ok := r.index[customerID]
	if !ok {
		return nil, false
	}
	return &r.Customers[i], true
}

// SegmentCount is the number of customers in one segment.
type SegmentCount struct {
	Segment   domain.Segment `json:"segment"`
	Customers int            `json:"customers"`
}

// SegmentCounts returns the populated segments ordered by customer count,
// largest first, then by segment name.
func (r *Result) SegmentCounts() []SegmentCount {
	if r == nil {
		return []SegmentCount{}
	}
	counts := make(map[domain.Segment]int)
	for _, c := range r.Customers {
		counts[c.Segment]++
	}
	out := make([]SegmentCount, 0, len(counts))
	for seg, n := range counts {
		out = append(out, SegmentCount{Segment: seg, Customers: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Customers != out[j].Customers {
			return out[i].Customers > out[j].Customers
		}
		return out[i].Segment < out[j].Segment
	})
	return out
}

// Run aggregates txns per customer, scores the population and classifies
// every customer. An empty input yields an empty Result.
func (e *Engine) Run(ctx context.Context, txns []domain.Transaction) (*Result, error) {
	snapshot, ok := SnapshotDate(txns)
	if !ok {
		e.logger.WarnContext(ctx, "No transactions to score")
		return NewResult(time.Time{}, []domain.CustomerRFM{}), nil
	}

	profiles := Aggregate(txns, snapshot)
	e.logger.InfoContext(ctx, "Aggregated customer profiles",
		slog.Int("customers", len(profiles)),
		slog.Time("snapshot", snapshot))

	set, err := e.scorer.Score(ctx, profiles)
	if err != nil {
		return nil, err
	}

	customers := make([]domain.CustomerRFM, len(profiles))
	for i, p := range profiles {
		scores := set.Scores[i]
		seg, ok := Classify(scores)
		if !ok {
			return nil, errors.NewAppValidationError(fmt.Sprintf("customer %d has out of range scores %+v", p.CustomerID, scores)).
				WithContext("customer_id", p.CustomerID)
		}
		customers[i] = domain.CustomerRFM{
			Profile:  p,
			Scores:   scores,
			RFMScore: scores.Code(),
			Segment:  seg,
		}
	}

	result := NewResult(snapshot, customers)
	result.RankFallbacks = set.RankFallbacks
	e.logResult(ctx, result)
	return result, nil
}

func (e *Engine) logResult(ctx context.Context, result *Result) {
	for i := 0; i < len(result.Customers) && i < previewRows; i++ {
		c := result.Customers[i]
		e.logger.DebugContext(ctx, "RFM preview",
			slog.Int64("customer_id", c.CustomerID),
			slog.Int("recency", c.Recency),
			slog.Int("frequency", c.Frequency),
			slog.String("monetary", c.Monetary.String()),
			slog.String("rfm_score", c.RFMScore),
			slog.String("segment", c.Segment.String()))
	}

	attrs := make([]any, 0, len(domain.Segments)+1)
	attrs = append(attrs, slog.Int("customers", result.Len()))
	for _, sc := range result.SegmentCounts() {
		attrs = append(attrs, slog.Int(sc.Segment.String(), sc.Customers))
	}
	e.logger.InfoContext(ctx, "Customer segments", attrs...)
}
