package rfm

import (
	"math"
	"sort"
)

// Quartiles is the number of score buckets per metric.
const Quartiles = 4

// Labels maps bucket 1..4 to a score.
type Labels [Quartiles]int

var (
	// AscendingLabels gives the highest bucket the highest score.
	AscendingLabels = Labels{1, 2, 3, 4}
	// DescendingLabels gives the lowest bucket the highest score (Recency).
	DescendingLabels = Labels{4, 3, 2, 1}
)

// QuantileEdges returns the q+1 edges at k/q, k = 0..q, of values using
// linear interpolation between the closest order statistics. values must be
// non-empty; it is not modified.
func QuantileEdges(values []float64, q int) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)

	edges := make([]float64, q+1)
	for k := 0; k <= q; k++ {
		pos := float64(k) / float64(q) * float64(n-1)
		lo := int(math.Floor(pos))
		if lo >= n-1 {
			edges[k] = sorted[n-1]
			continue
		}
		edges[k] = lerp(sorted[lo], sorted[lo+1], pos-float64(lo))
	}
	return edges
}

// lerp interpolates from the nearer end so edges stay monotonic under rounding.
func lerp(a, b, t float64) float64 {
	diff := b - a
	if t >= 0.5 {
		return b - diff*(1-t)
	}
	return a + diff*t
}

// StrictlyIncreasing reports whether every edge is greater than the previous one.
func StrictlyIncreasing(edges []float64) bool {
	for i := 1; i < len(edges); i++ {
		if !(edges[i] > edges[i-1]) {
			return false
		}
	}
	return true
}

// AssignBins returns the 1-based bin of each value. Bins are right-closed
// (edges[i-1], edges[i]], with the first bin also holding edges[0].
func AssignBins(values, edges []float64) []int {
	bins := make([]int, len(values))
	for i, v := range values {
		b := sort.SearchFloat64s(edges, v)
		if b == 0 {
			b = 1
		}
		if b > len(edges)-1 {
			b = len(edges) - 1
		}
		bins[i] = b
	}
	return bins
}

// Cut splits values into quartiles and maps each bucket through labels.
// It returns false when the quartile edges are not unique.
func Cut(values []float64, labels Labels) ([]int, bool) {
	if len(values) == 0 {
		return []int{}, true
	}
	edges := QuantileEdges(values, Quartiles)
	if !StrictlyIncreasing(edges) {
		return nil, false
	}
	bins := AssignBins(values, edges)
	scores := make([]int, len(bins))
	for i, b := range bins {
		scores[i] = labels[b-1]
	}
	return scores, true
}

// OrdinalRanks ranks values 1..n in ascending order, breaking ties by
// ascending id. values and ids must have the same length.
func OrdinalRanks(values []float64, ids []int64) []float64 {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if values[ia] != values[ib] {
			return values[ia] < values[ib]
		}
		return ids[ia] < ids[ib]
	})

	ranks := make([]float64, len(values))
	for rank, idx := range order {
		ranks[idx] = float64(rank + 1)
	}
	return ranks
}

// CutRanked cuts values on their ordinal rank. Ranks 1..n have unique
// quartile edges for n >= 2; a single value lands in the first bucket.
func CutRanked(values []float64, ids []int64, labels Labels) []int {
	if len(values) == 1 {
		return []int{labels[0]}
	}
	scores, _ := Cut(OrdinalRanks(values, ids), labels)
	return scores
}

// DistinctCount returns the number of distinct values.
func DistinctCount(values []float64) int {
	seen := make(map[float64]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}
