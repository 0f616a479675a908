package scoring

import "math"

// Factor records one contribution to a score so callers can explain it.
type Factor struct {
	Name        string  `json:"name"`
	Position    string  `json:"position,omitempty"`
	Delta       float64 `json:"delta"`
	Description string  `json:"description"`
}

// Grade is the letter band of an overall score.
type Grade string

const (
	GradeS Grade = "S"
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// GradeFor maps an overall score to its band.
func GradeFor(score int, bands GradeBands) Grade {
	switch {
	case score >= bands.S:
		return GradeS
	case score >= bands.A:
		return GradeA
	case score >= bands.B:
		return GradeB
	case score >= bands.C:
		return GradeC
	case score >= bands.D:
		return GradeD
	default:
		return GradeF
	}
}

// clamp restricts v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp100(v float64) float64 { return clamp(v, 0, 100) }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
