package rfm

import "rfmcli/pkg/contracts/domain"

// segmentTable holds the segment of every valid score tuple, indexed [R-1][F-1][M-1].
var segmentTable = buildSegmentTable()

func buildSegmentTable() [Quartiles][Quartiles][Quartiles]domain.Segment {
	var table [Quartiles][Quartiles][Quartiles]domain.Segment
	for r := 1; r <= Quartiles; r++ {
		for f := 1; f <= Quartiles; f++ {
			for m := 1; m <= Quartiles; m++ {
				table[r-1][f-1][m-1] = segmentRule(domain.Scores{R: r, F: f, M: m})
			}
		}
	}
	return table
}

// segmentRule is evaluated first match wins; F=4 outranks R=4 outranks M=4.
func segmentRule(s domain.Scores) domain.Segment {
	switch {
	case s.Code() == "444":
		return domain.SegmentBest
	case s.F == 4:
		return domain.SegmentLoyal
	case s.R == 4:
		return domain.SegmentRecent
	case s.M == 4:
		return domain.SegmentBigSpender
	default:
		return domain.SegmentRegular
	}
}

// Classify returns the segment for a score tuple. ok is false when any score
// is outside 1..4.
func Classify(s domain.Scores) (seg domain.Segment, ok bool) {
	if !s.Valid() {
		return "", false
	}
	return segmentTable[s.R-1][s.F-1][s.M-1], true
}
