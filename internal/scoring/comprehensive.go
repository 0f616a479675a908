package scoring

import (
	"fmt"
	"math"

	"saju-engine/internal/saju"
)

// Period overlay deltas for a transiting pillar.
const (
	periodStemCombo     = 5.0
	periodAffinityMatch = 5.0
	periodDayClash      = -5.0
	periodDayCombo      = 3.0
	periodMaxDelta      = 10.0
)

// Sub-scores at or beyond these marks are reported as strengths or weaknesses.
const (
	highSubScore = 75.0
	lowSubScore  = 35.0
)

// Options selects the optional parts of a comprehensive score.
type Options struct {
	// Target forces the affinity element; nil picks the best fit.
	Target *saju.Element
	// Transit overlays a period pillar (year or luck pillar).
	Transit *saju.Pillar
}

// SubScores are the four 0..100 components of the overall score.
type SubScores struct {
	Balance  float64 `json:"balance"`
	Strength float64 `json:"strength"`
	Pattern  float64 `json:"pattern"`
	Affinity float64 `json:"affinity"`
}

// PeriodOverlay is the harmony/conflict delta of a transiting pillar.
type PeriodOverlay struct {
	Pillar  saju.Pillar `json:"pillar"`
	Delta   float64     `json:"delta"`
	Factors []Factor    `json:"contributing_factors"`
}

// ComprehensiveScore aggregates every score of a chart.
type ComprehensiveScore struct {
	Overall         int              `json:"overall"`
	Grade           Grade            `json:"grade"`
	SubScores       SubScores        `json:"sub_scores"`
	Elements        ElementBalance   `json:"elements"`
	Strength        StrengthScore    `json:"strength"`
	Pattern         PatternScore     `json:"pattern"`
	Affinity        AffinityFitScore `json:"affinity"`
	Period          *PeriodOverlay   `json:"period,omitempty"`
	Strengths       []string         `json:"strengths"`
	Weaknesses      []string         `json:"weaknesses"`
	Recommendations []string         `json:"recommendations"`
}

// Comprehensive computes every sub-score, combines them with params.Weights,
// applies the optional period overlay and grades the result.
func Comprehensive(p saju.Pillars, opts Options, params Params) ComprehensiveScore {
	out := ComprehensiveScore{
		Elements: Elements(p),
		Pattern:  Pattern(p, params),
	}
	out.Strength = Strength(p, params)
	if opts.Target != nil && opts.Target.Valid() {
		out.Affinity = AffinityFit(p, *opts.Target, out.Strength, out.Elements, params)
	} else {
		out.Affinity = BestAffinity(p, out.Strength, out.Elements, params)
	}

	out.SubScores = SubScores{
		Balance:  round2(balanceScore(out.Elements)),
		Strength: round2(clamp100(100 - math.Abs(out.Strength.Total-50)*2)),
		Pattern:  round2((out.Pattern.Purity + out.Pattern.Stability) / 2),
		Affinity: out.Affinity.FitScore,
	}

	w := params.Weights
	sum := w.sum()
	if sum <= 0 {
		w = DefaultParams().Weights
		sum = w.sum()
	}
	overall := (out.SubScores.Balance*w.Balance +
		out.SubScores.Strength*w.Strength +
		out.SubScores.Pattern*w.Pattern +
		out.SubScores.Affinity*w.Affinity) / sum

	if opts.Transit != nil && opts.Transit.Known() {
		out.Period = periodOverlay(p, *opts.Transit, out.Affinity.TargetElement)
		overall += out.Period.Delta
	}

	out.Overall = int(math.Round(clamp100(overall)))
	out.Grade = GradeFor(out.Overall, params.Grades)
	out.Strengths, out.Weaknesses, out.Recommendations = narrative(out)
	return out
}

func periodOverlay(p saju.Pillars, transit saju.Pillar, affinity saju.Element) *PeriodOverlay {
	ov := &PeriodOverlay{Pillar: transit}
	add := func(name, desc string, d float64) {
		ov.Delta += d
		ov.Factors = append(ov.Factors, Factor{Name: name, Delta: d, Description: desc})
	}

	if dm, ok := p.DayMaster(); ok {
		if el, ok := saju.StemCombination(transit.Stem, dm); ok {
			add("period_stem_combination", fmt.Sprintf("%s combines with day master %s into %s", transit.Stem, dm, el), periodStemCombo)
		}
	}
	if transit.Stem.Element() == affinity {
		add("period_affinity", fmt.Sprintf("%s brings the affinity element %s", transit.Stem, affinity), periodAffinityMatch)
	}
	if day := p.Day.Branch; day.Known() {
		if saju.Clash(transit.Branch, day) {
			add("period_day_clash", fmt.Sprintf("%s clashes with day branch %s", transit.Branch, day), periodDayClash)
		}
		if el, ok := saju.SixCombination(transit.Branch, day); ok {
			add("period_day_combination", fmt.Sprintf("%s combines with day branch %s into %s", transit.Branch, day, el), periodDayCombo)
		}
	}

	ov.Delta = clamp(ov.Delta, -periodMaxDelta, periodMaxDelta)
	return ov
}

func narrative(s ComprehensiveScore) (strengths, weaknesses, recs []string) {
	subs := []struct {
		name  string
		value float64
		good  string
		bad   string
		rec   string
	}{
		{"balance", s.SubScores.Balance,
			"the five elements are evenly distributed",
			"the five elements are unevenly distributed",
			"seek environments and activities tied to the weaker elements"},
		{"strength", s.SubScores.Strength,
			"the day master is well balanced against its surroundings",
			fmt.Sprintf("the day master is %s", s.Strength.Level),
			strengthRecommendation(s.Strength.Level)},
		{"pattern", s.SubScores.Pattern,
			fmt.Sprintf("the %s structure is clear and stable", s.Pattern.PatternType),
			"the chart structure is mixed or unsettled by clashes",
			"favour steady routines over abrupt changes"},
		{"affinity", s.SubScores.Affinity,
			fmt.Sprintf("the affinity element %s is readily available", s.Affinity.TargetElement),
			fmt.Sprintf("the affinity element %s is scarce", s.Affinity.TargetElement),
			fmt.Sprintf("bring more %s into daily life", s.Affinity.TargetElement)},
	}

	for _, sub := range subs {
		switch {
		case sub.value >= highSubScore:
			strengths = append(strengths, sub.good)
		case sub.value <= lowSubScore:
			weaknesses = append(weaknesses, sub.bad)
			if sub.rec != "" {
				recs = append(recs, sub.rec)
			}
		}
	}

	for _, e := range s.Elements.Excess() {
		weaknesses = append(weaknesses, fmt.Sprintf("%s is excessive (%s)", e, describeRatio(e, s.Elements.Ratio(e))))
		recs = append(recs, fmt.Sprintf("temper %s with %s", e, e.ControlledBy()))
	}
	for _, e := range s.Elements.Lacking() {
		weaknesses = append(weaknesses, fmt.Sprintf("%s is lacking (%s)", e, describeRatio(e, s.Elements.Ratio(e))))
		recs = append(recs, fmt.Sprintf("supplement %s", e))
	}

	if len(recs) == 0 {
		recs = append(recs, fmt.Sprintf("keep favouring %s", s.Affinity.TargetElement))
	}
	return strengths, weaknesses, recs
}

func strengthRecommendation(l Level) string {
	if l.IsStrong() {
		return "channel surplus energy through output and wealth elements"
	}
	return "lean on resource and companion elements for support"
}
