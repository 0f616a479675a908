package scoring

import (
	"fmt"

	"saju-engine/internal/saju"
)

// Pattern adjustments.
const (
	purityBase           = 50.0
	puritySurfacedMain   = 25.0
	puritySurfacedOther  = 10.0
	purityMonthClash     = -15.0
	purityMixedOfficers  = -10.0
	stabilityBase        = 50.0
	stabilitySixCombo    = 10.0
	stabilityFullHarmony = 15.0
	stabilityHalfHarmony = 5.0
	stabilityStemCombo   = 5.0
	stabilityClash       = -15.0
	stabilityPunishment  = -10.0
	stabilityHarm        = -5.0
	unknownPatternType   = "unknown"
	patternTypeSuffix    = "-geok"
)

// PatternScore describes the chart's structure (geokguk).
type PatternScore struct {
	PatternType string   `json:"pattern_type"`
	Purity      float64  `json:"purity"`
	Stability   float64  `json:"stability"`
	Factors     []Factor `json:"contributing_factors"`
}

// Pattern classifies the chart by the ten-god relation of the month branch's
// main stored stem. Purity rises when that stem surfaces among the visible
// stems and falls for clashes against the month branch. Stability rises for
// harmonious branch and stem combinations and falls for clashes, punishments
// and harms.
func Pattern(p saju.Pillars, _ Params) PatternScore {
	out := PatternScore{PatternType: unknownPatternType}
	purity := purityBase

	dm, dmOK := p.DayMaster()
	month := p.Month.Branch

	switch {
	case !dmOK:
		out.Factors = append(out.Factors, Factor{
			Name:        "day_master",
			Position:    saju.DayPos.String(),
			Description: "day master absent; pattern type and purity not evaluated",
		})
	case !month.Known():
		out.Factors = append(out.Factors, Factor{
			Name:        "month_branch",
			Position:    saju.MonthPos.String(),
			Description: "month branch absent; pattern type and purity not evaluated",
		})
	default:
		god, _ := saju.TenGodOf(dm, month.MainStem())
		out.PatternType = god.String() + patternTypeSuffix
		purity += purityFactors(p, dm, month, &out.Factors)
	}

	out.Purity = clamp100(purity)
	out.Stability = clamp100(stabilityBase + stabilityFactors(p, &out.Factors))
	return out
}

func purityFactors(p saju.Pillars, dm saju.Stem, month saju.Branch, factors *[]Factor) float64 {
	var delta float64
	visible := p.VisibleStems(true)

	surfaced := func(st saju.Stem) (saju.Slot, bool) {
		for _, v := range visible {
			if v.Stem == st {
				return v, true
			}
		}
		return saju.Slot{}, false
	}

	otherSurfaced := false
	for _, h := range month.HiddenStems() {
		slot, ok := surfaced(h.Stem)
		if !ok {
			continue
		}
		if h.Role == saju.Main {
			delta += puritySurfacedMain
			*factors = append(*factors, Factor{
				Name:        "surfaced_main",
				Position:    slotName(slot.Pos, false),
				Delta:       puritySurfacedMain,
				Description: fmt.Sprintf("month main stem %s surfaces at %s", h.Stem, slot.Pos),
			})
			continue
		}
		if !otherSurfaced {
			otherSurfaced = true
			delta += puritySurfacedOther
			*factors = append(*factors, Factor{
				Name:        "surfaced_secondary",
				Position:    slotName(slot.Pos, false),
				Delta:       puritySurfacedOther,
				Description: fmt.Sprintf("month %s stem %s surfaces at %s", h.Role, h.Stem, slot.Pos),
			})
		}
	}

	for _, b := range p.Branches() {
		if b.Pos == saju.MonthPos || !saju.Clash(month, b.Br) {
			continue
		}
		delta += purityMonthClash
		*factors = append(*factors, Factor{
			Name:        "month_clash",
			Position:    slotName(b.Pos, true),
			Delta:       purityMonthClash,
			Description: fmt.Sprintf("%s clashes with month branch %s", b.Br, month),
		})
	}

	var officer, killer bool
	for _, v := range visible {
		god, ok := saju.TenGodOf(dm, v.Stem)
		if !ok {
			continue
		}
		switch god {
		case saju.Jeonggwan:
			officer = true
		case saju.Pyeongwan:
			killer = true
		}
	}
	if officer && killer {
		delta += purityMixedOfficers
		*factors = append(*factors, Factor{
			Name:        "mixed_officers",
			Delta:       purityMixedOfficers,
			Description: "jeonggwan and pyeongwan both visible",
		})
	}

	return delta
}

func stabilityFactors(p saju.Pillars, factors *[]Factor) float64 {
	var delta float64
	add := func(name, desc string, d float64) {
		delta += d
		*factors = append(*factors, Factor{Name: name, Delta: d, Description: desc})
	}

	branches := p.Branches()
	for i := 0; i < len(branches); i++ {
		for j := i + 1; j < len(branches); j++ {
			a, b := branches[i], branches[j]
			pair := fmt.Sprintf("%s(%s)-%s(%s)", a.Br, a.Pos, b.Br, b.Pos)
			if el, ok := saju.SixCombination(a.Br, b.Br); ok {
				add("six_combination", fmt.Sprintf("%s combine into %s", pair, el), stabilitySixCombo)
			}
			if saju.Clash(a.Br, b.Br) {
				add("clash", pair+" clash", stabilityClash)
			}
			if saju.Punishment(a.Br, b.Br) {
				add("punishment", pair+" punish", stabilityPunishment)
			}
			if saju.Harm(a.Br, b.Br) {
				add("harm", pair+" harm", stabilityHarm)
			}
		}
	}

	brs := make([]saju.Branch, len(branches))
	for i, b := range branches {
		brs[i] = b.Br
	}
	for _, h := range saju.ThreeHarmonies(brs) {
		if h.Full {
			add("three_harmony", fmt.Sprintf("full %s frame", h.Element), stabilityFullHarmony)
		} else {
			add("half_harmony", fmt.Sprintf("half %s frame", h.Element), stabilityHalfHarmony)
		}
	}

	stems := p.VisibleStems(false)
	for i := 0; i < len(stems); i++ {
		for j := i + 1; j < len(stems); j++ {
			if el, ok := saju.StemCombination(stems[i].Stem, stems[j].Stem); ok {
				add("stem_combination",
					fmt.Sprintf("%s(%s)-%s(%s) combine into %s", stems[i].Stem, stems[i].Pos, stems[j].Stem, stems[j].Pos, el),
					stabilityStemCombo)
			}
		}
	}

	return delta
}
