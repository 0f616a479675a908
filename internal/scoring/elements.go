package scoring

import (
	"fmt"
	"math"

	"saju-engine/internal/saju"
)

// Occurrence weights for element counting.
const (
	weightVisibleStem   = 1.0
	weightBranch        = 1.0
	weightSeasonalBonus = 0.5
	weightHiddenMain    = 0.3
	weightHiddenMiddle  = 0.2
	weightHiddenResid   = 0.1
)

// Imbalance thresholds against the uniform 20% share.
const (
	ExcessRatio = 0.35
	LackRatio   = 0.05
)

const uniformShare = 1.0 / saju.ElementCount

// ElementScore is one of the five element buckets.
type ElementScore struct {
	Element         saju.Element `json:"element"`
	RawWeight       float64      `json:"raw_weight"`
	NormalizedRatio float64      `json:"normalized_ratio"`
}

// ElementBalance is the weighted element distribution of a chart. The five
// ratios sum to 1; a chart with no known positions is uniform.
type ElementBalance struct {
	Scores   [saju.ElementCount]ElementScore `json:"scores"`
	Dominant saju.Element                    `json:"dominant"`
	Weakest  saju.Element                    `json:"weakest"`
}

// Ratio returns the normalised share of e.
func (b ElementBalance) Ratio(e saju.Element) float64 {
	if !e.Valid() {
		return 0
	}
	return b.Scores[e].NormalizedRatio
}

// Deviation is the summed distance of every ratio from the uniform share,
// 0 for a perfectly even chart and 1.6 for a single-element one.
func (b ElementBalance) Deviation() float64 {
	var d float64
	for _, s := range b.Scores {
		d += math.Abs(s.NormalizedRatio - uniformShare)
	}
	return d
}

// Excess lists elements whose share is at least ExcessRatio.
func (b ElementBalance) Excess() []saju.Element {
	var out []saju.Element
	for _, s := range b.Scores {
		if s.NormalizedRatio >= ExcessRatio {
			out = append(out, s.Element)
		}
	}
	return out
}

// Lacking lists elements whose share is at most LackRatio.
func (b ElementBalance) Lacking() []saju.Element {
	var out []saju.Element
	for _, s := range b.Scores {
		if s.NormalizedRatio <= LackRatio {
			out = append(out, s.Element)
		}
	}
	return out
}

// Elements counts weighted element occurrences over the eight stem and
// branch positions. Hidden stems weigh less than visible ones and the month
// branch carries a seasonal bonus.
func Elements(p saju.Pillars) ElementBalance {
	var raw [saju.ElementCount]float64

	for _, s := range p.Slots() {
		if !s.Branch {
			raw[s.Stem.Element()] += weightVisibleStem
			continue
		}
		w := weightBranch
		if s.Pos == saju.MonthPos {
			w += weightSeasonalBonus
		}
		raw[s.Br.Element()] += w
		for _, h := range s.Br.HiddenStems() {
			raw[h.Stem.Element()] += hiddenWeight(h.Role)
		}
	}

	var total float64
	for _, v := range raw {
		total += v
	}

	var out ElementBalance
	for _, e := range saju.Elements {
		ratio := uniformShare
		if total > 0 {
			ratio = raw[e] / total
		}
		out.Scores[e] = ElementScore{Element: e, RawWeight: raw[e], NormalizedRatio: ratio}
		if ratio > out.Scores[out.Dominant].NormalizedRatio {
			out.Dominant = e
		}
		if ratio < out.Scores[out.Weakest].NormalizedRatio {
			out.Weakest = e
		}
	}
	return out
}

func hiddenWeight(r saju.HiddenRole) float64 {
	switch r {
	case saju.Main:
		return weightHiddenMain
	case saju.Middle:
		return weightHiddenMiddle
	default:
		return weightHiddenResid
	}
}

// balanceScore turns the deviation into 0..100, 100 being perfectly even.
func balanceScore(b ElementBalance) float64 {
	return clamp100(100 - b.Deviation()/1.6*100)
}

func describeRatio(e saju.Element, r float64) string {
	return fmt.Sprintf("%s at %.0f%%", e, r*100)
}
