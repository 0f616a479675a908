package scoring

import (
	"fmt"

	"saju-engine/internal/saju"
)

const (
	// presenceSaturation is the element share at which presence reaches 100.
	presenceSaturation = 0.4
	surfacedBonus      = 10.0
	fitNeedWeight      = 0.6
	fitPresenceWeight  = 0.3
)

// AffinityFitScore rates how well target would balance the chart (yongsin).
type AffinityFitScore struct {
	TargetElement        saju.Element `json:"target_element"`
	FitScore             float64      `json:"fit_score"`
	PresenceScore        float64      `json:"presence_score"`
	BonusForSurfacedStem float64      `json:"bonus_for_surfaced_stem"`
	Factors              []Factor     `json:"contributing_factors"`
}

// AffinityFit combines how much the chart needs target with how available it
// already is. A weak chart needs elements that support its day master; a
// strong one needs elements that control, drain or consume it.
func AffinityFit(p saju.Pillars, target saju.Element, strength StrengthScore, balance ElementBalance, _ Params) AffinityFitScore {
	out := AffinityFitScore{TargetElement: target}

	ratio := balance.Ratio(target)
	out.PresenceScore = round2(clamp(ratio/presenceSaturation, 0, 1) * 100)
	out.Factors = append(out.Factors, Factor{
		Name:        "presence",
		Delta:       fitPresenceWeight * out.PresenceScore,
		Description: describeRatio(target, ratio),
	})

	for _, v := range p.VisibleStems(true) {
		if v.Stem.Element() == target {
			out.BonusForSurfacedStem = surfacedBonus
			out.Factors = append(out.Factors, Factor{
				Name:        "surfaced_stem",
				Position:    slotName(v.Pos, false),
				Delta:       surfacedBonus,
				Description: fmt.Sprintf("%s stem %s is visible", target, v.Stem),
			})
			break
		}
	}

	need := 0.5
	if dm, ok := p.DayMaster(); ok {
		if target.Supports(dm.Element()) {
			need = (100 - strength.Total) / 100
		} else {
			need = strength.Total / 100
		}
		out.Factors = append(out.Factors, Factor{
			Name:        "need",
			Delta:       fitNeedWeight * need * 100,
			Description: needDescription(target, dm.Element(), strength.Level),
		})
	} else {
		out.Factors = append(out.Factors, Factor{
			Name:        "need",
			Delta:       fitNeedWeight * need * 100,
			Description: "day master absent; need assumed neutral",
		})
	}

	out.FitScore = round2(clamp100(fitNeedWeight*need*100 + fitPresenceWeight*out.PresenceScore + out.BonusForSurfacedStem))
	return out
}

func needDescription(target, dm saju.Element, level Level) string {
	if target.Supports(dm) {
		return fmt.Sprintf("%s supports the %s day master (%s)", target, dm, level)
	}
	return fmt.Sprintf("%s restrains the %s day master (%s)", target, dm, level)
}

// BestAffinity evaluates every element and returns the best fit. Ties go to
// the earlier element in generation order.
func BestAffinity(p saju.Pillars, strength StrengthScore, balance ElementBalance, params Params) AffinityFitScore {
	var best AffinityFitScore
	for i, e := range saju.Elements {
		s := AffinityFit(p, e, strength, balance, params)
		if i == 0 || s.FitScore > best.FitScore {
			best = s
		}
	}
	return best
}
