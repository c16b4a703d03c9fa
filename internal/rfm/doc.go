// Package rfm scores customers on Recency, Frequency and Monetary value and
// assigns each one a segment.
//
// The Engine runs four phases over the cleaned transactions:
//
//	Aggregate → quartile scoring → composite code → segmentation
//
// Quartile edges are empirical, computed on each run's own population with
// linear interpolation between order statistics. Frequency is always cut on a
// stable ordinal rank (ties broken by ascending CustomerID). When a metric has
// too few distinct values for four unique edges the DegeneratePolicy decides:
// PolicyStrict fails with a QUANTILE_DEGENERATE error naming the metric,
// PolicyRank re-cuts that metric on its ordinal rank.
package rfm
