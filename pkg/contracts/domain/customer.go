package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Profile holds the per-customer RFM aggregates for one run.
type Profile struct {
	CustomerID int64           `json:"customer_id"`
	Recency    int             `json:"recency" validate:"min=0"`
	Frequency  int             `json:"frequency" validate:"min=1"`
	Monetary   decimal.Decimal `json:"monetary"`
}

// Scores is the quartile score tuple. Each score is in 1..4.
type Scores struct {
	R int `json:"r_score" validate:"min=1,max=4"`
	F int `json:"f_score" validate:"min=1,max=4"`
	M int `json:"m_score" validate:"min=1,max=4"`
}

// Valid reports whether every score is in 1..4.
func (s Scores) Valid() bool {
	return inRange(s.R) && inRange(s.F) && inRange(s.M)
}

// Code returns the composite three digit RFM score, e.g. "444".
func (s Scores) Code() string {
	return fmt.Sprintf("%d%d%d", s.R, s.F, s.M)
}

func inRange(v int) bool {
	return v >= 1 && v <= 4
}

// Segment is a human readable customer value category.
type Segment string

const (
	SegmentBest       Segment = "Best Customers"
	SegmentLoyal      Segment = "Loyal Customers"
	SegmentRecent     Segment = "Recent Customers"
	SegmentBigSpender Segment = "Big Spenders"
	SegmentRegular    Segment = "Regular Customers"
)

// Segments lists every segment in classification priority order.
var Segments = []Segment{
	SegmentBest,
	SegmentLoyal,
	SegmentRecent,
	SegmentBigSpender,
	SegmentRegular,
}

// String implements fmt.Stringer.
func (s Segment) String() string {
	return string(s)
}

// CustomerRFM is a profile with its scores and segment.
type CustomerRFM struct {
	Profile
	Scores
	RFMScore string  `json:"rfm_score"`
	Segment  Segment `json:"segment"`
}
