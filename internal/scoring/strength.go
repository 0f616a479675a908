package scoring

import (
	"fmt"

	"saju-engine/internal/saju"
)

// Level is the qualitative strength of the day master.
type Level string

const (
	VeryStrong     Level = "very-strong"
	Strong         Level = "strong"
	ModerateStrong Level = "moderate-strong"
	ModerateWeak   Level = "moderate-weak"
	Weak           Level = "weak"
	VeryWeak       Level = "very-weak"
)

// IsStrong reports whether the level sits on the strong half of the scale.
func (l Level) IsStrong() bool {
	return l == VeryStrong || l == Strong || l == ModerateStrong
}

// rootShare is the part of a resisting branch's weight that counts as
// support when the branch stores a stem of the day master's element.
const rootShare = 0.3

// Position weights for the seven slots around the day master.
var strengthSlots = []struct {
	pos    saju.Position
	branch bool
	weight float64
}{
	{saju.MonthPos, true, 30},
	{saju.DayPos, true, 15},
	{saju.MonthPos, false, 15},
	{saju.YearPos, false, 10},
	{saju.YearPos, true, 10},
	{saju.HourPos, false, 10},
	{saju.HourPos, true, 10},
}

// StrengthScore is how well the day master is supported by the rest of the chart.
type StrengthScore struct {
	Total        float64  `json:"total"`
	Level        Level    `json:"level"`
	SupportScore float64  `json:"support_score"`
	ResistScore  float64  `json:"resist_score"`
	Balance      float64  `json:"balance"`
	Factors      []Factor `json:"contributing_factors"`
}

// LevelFor maps a strength total to its level.
func LevelFor(total float64, t StrengthThresholds) Level {
	switch {
	case total >= t.VeryStrong:
		return VeryStrong
	case total >= t.Strong:
		return Strong
	case total >= t.ModerateStrong:
		return ModerateStrong
	case total >= t.ModerateWeak:
		return ModerateWeak
	case total >= t.Weak:
		return Weak
	default:
		return VeryWeak
	}
}

// Strength weighs seasonal support (month branch), rootedness (the day
// master's element stored in branches) and every supporting or resisting
// slot into a 0..100 total. Slots of the same element as the day master or
// of the element generating it support; all others resist.
func Strength(p saju.Pillars, params Params) StrengthScore {
	dm, ok := p.DayMaster()
	if !ok {
		return StrengthScore{
			Total:        50,
			Level:        LevelFor(50, params.Strength),
			SupportScore: 50,
			ResistScore:  50,
			Balance:      0,
			Factors: []Factor{{
				Name:        "day_master",
				Position:    saju.DayPos.String(),
				Description: "day master absent; strength not evaluated",
			}},
		}
	}
	dmEl := dm.Element()

	var support, resist, present float64
	var factors []Factor

	for _, sl := range strengthSlots {
		pl := p.At(sl.pos)
		var el saju.Element
		var label string
		if sl.branch {
			if !pl.Branch.Known() {
				continue
			}
			el, label = pl.Branch.Element(), pl.Branch.String()
		} else {
			if !pl.Stem.Known() {
				continue
			}
			el, label = pl.Stem.Element(), pl.Stem.String()
		}
		present += sl.weight
		where := slotName(sl.pos, sl.branch)

		if el.Supports(dmEl) {
			support += sl.weight
			name := "support"
			if sl.pos == saju.MonthPos && sl.branch {
				name = "seasonal_support"
			}
			factors = append(factors, Factor{
				Name:        name,
				Position:    where,
				Delta:       sl.weight,
				Description: fmt.Sprintf("%s (%s) reinforces %s day master", label, el, dmEl),
			})
			continue
		}

		if sl.branch && pl.Branch.HasHiddenElement(dmEl) {
			root := sl.weight * rootShare
			support += root
			resist += sl.weight - root
			factors = append(factors, Factor{
				Name:        "root",
				Position:    where,
				Delta:       root,
				Description: fmt.Sprintf("%s stores %s; day master is rooted", label, dmEl),
			})
			factors = append(factors, resistFactor(dmEl, el, where, label, sl.weight-root))
			continue
		}

		resist += sl.weight
		factors = append(factors, resistFactor(dmEl, el, where, label, sl.weight))
	}

	if present == 0 {
		return StrengthScore{
			Total:        50,
			Level:        LevelFor(50, params.Strength),
			SupportScore: 50,
			ResistScore:  50,
			Factors: []Factor{{
				Name:        "chart",
				Description: "no positions besides the day master; strength not evaluated",
			}},
		}
	}

	supportScore := round2(support / present * 100)
	resistScore := round2(resist / present * 100)
	return StrengthScore{
		Total:        supportScore,
		Level:        LevelFor(supportScore, params.Strength),
		SupportScore: supportScore,
		ResistScore:  resistScore,
		Balance:      supportScore - resistScore,
		Factors:      factors,
	}
}

func resistFactor(dm, el saju.Element, where, label string, weight float64) Factor {
	name, desc := "consume", "is controlled by"
	switch {
	case el.Controls() == dm:
		name, desc = "control", "controls"
	case dm.Generates() == el:
		name, desc = "drain", "drains"
	}
	return Factor{
		Name:        name,
		Position:    where,
		Delta:       -weight,
		Description: fmt.Sprintf("%s (%s) %s the %s day master", label, el, desc, dm),
	}
}

func slotName(pos saju.Position, branch bool) string {
	if branch {
		return pos.String() + "_branch"
	}
	return pos.String() + "_stem"
}
