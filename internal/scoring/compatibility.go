package scoring

import (
	"fmt"
	"math"

	"saju-engine/internal/saju"
)

// Compatibility sub-score weights.
const (
	compatWeightElements   = 0.30
	compatWeightDayMaster  = 0.30
	compatWeightDayBranch  = 0.25
	compatWeightYearBranch = 0.15
)

// Relation scores used by compatibility.
const (
	relStemCombination = 100.0
	relGenerates       = 80.0
	relSameElement     = 70.0
	relNeutral         = 60.0
	relControls        = 40.0
	relSixCombination  = 90.0
	relHarmonyFrame    = 80.0
	relHarm            = 40.0
	relPunishment      = 35.0
	relClash           = 20.0
	relUnknown         = 50.0
)

// CompatibilityScore rates two charts against each other.
type CompatibilityScore struct {
	Overall      int      `json:"overall"`
	Grade        Grade    `json:"grade"`
	ElementScore float64  `json:"element_score"`
	DayMaster    float64  `json:"day_master_score"`
	DayBranch    float64  `json:"day_branch_score"`
	YearBranch   float64  `json:"year_branch_score"`
	Factors      []Factor `json:"contributing_factors"`
}

// Compatibility scores how the combined element distribution evens out and
// how the day masters, day branches and year branches relate. It is
// symmetric: Compatibility(a, b) and Compatibility(b, a) score the same.
func Compatibility(a, b saju.Pillars, params Params) CompatibilityScore {
	var out CompatibilityScore

	ea, eb := Elements(a), Elements(b)
	var combined ElementBalance
	for _, e := range saju.Elements {
		combined.Scores[e] = ElementScore{
			Element:         e,
			RawWeight:       ea.Scores[e].RawWeight + eb.Scores[e].RawWeight,
			NormalizedRatio: (ea.Ratio(e) + eb.Ratio(e)) / 2,
		}
	}
	out.ElementScore = round2(balanceScore(combined))
	out.Factors = append(out.Factors, Factor{
		Name:        "element_complement",
		Delta:       out.ElementScore,
		Description: fmt.Sprintf("combined element deviation %.2f", combined.Deviation()),
	})

	out.DayMaster = dayMasterRelation(a, b, &out.Factors)
	out.DayBranch = branchRelation("day_branch", a.Day.Branch, b.Day.Branch, &out.Factors)
	out.YearBranch = branchRelation("year_branch", a.Year.Branch, b.Year.Branch, &out.Factors)

	overall := out.ElementScore*compatWeightElements +
		out.DayMaster*compatWeightDayMaster +
		out.DayBranch*compatWeightDayBranch +
		out.YearBranch*compatWeightYearBranch
	out.Overall = int(math.Round(clamp100(overall)))
	out.Grade = GradeFor(out.Overall, params.Grades)
	return out
}

func dayMasterRelation(a, b saju.Pillars, factors *[]Factor) float64 {
	da, okA := a.DayMaster()
	db, okB := b.DayMaster()
	if !okA || !okB {
		*factors = append(*factors, Factor{
			Name:        "day_master",
			Delta:       relUnknown,
			Description: "day master absent on one side; relation not evaluated",
		})
		return relUnknown
	}

	ea, eb := da.Element(), db.Element()
	var score float64
	var desc string
	if el, ok := saju.StemCombination(da, db); ok {
		score, desc = relStemCombination, fmt.Sprintf("%s and %s combine into %s", da, db, el)
	} else {
		switch {
		case ea == eb:
			score, desc = relSameElement, fmt.Sprintf("%s and %s share %s", da, db, ea)
		case ea.Generates() == eb || eb.Generates() == ea:
			score, desc = relGenerates, fmt.Sprintf("%s and %s nourish each other", ea, eb)
		case ea.Controls() == eb || eb.Controls() == ea:
			score, desc = relControls, fmt.Sprintf("%s and %s restrain each other", ea, eb)
		default:
			score, desc = relNeutral, fmt.Sprintf("%s and %s are neutral", ea, eb)
		}
	}
	*factors = append(*factors, Factor{Name: "day_master", Delta: score, Description: desc})
	return score
}

func branchRelation(name string, a, b saju.Branch, factors *[]Factor) float64 {
	if !a.Known() || !b.Known() {
		*factors = append(*factors, Factor{
			Name:        name,
			Delta:       relUnknown,
			Description: name + " absent on one side; relation not evaluated",
		})
		return relUnknown
	}

	score, desc := relNeutral, fmt.Sprintf("%s and %s are neutral", a, b)
	switch {
	case saju.Clash(a, b):
		score, desc = relClash, fmt.Sprintf("%s and %s clash", a, b)
	case saju.Punishment(a, b):
		score, desc = relPunishment, fmt.Sprintf("%s and %s punish", a, b)
	case saju.Harm(a, b):
		score, desc = relHarm, fmt.Sprintf("%s and %s harm", a, b)
	default:
		if el, ok := saju.SixCombination(a, b); ok {
			score, desc = relSixCombination, fmt.Sprintf("%s and %s combine into %s", a, b, el)
		} else if a != b && saju.ThreeHarmonyElement(a) == saju.ThreeHarmonyElement(b) {
			score, desc = relHarmonyFrame, fmt.Sprintf("%s and %s share the %s frame", a, b, saju.ThreeHarmonyElement(a))
		}
	}
	*factors = append(*factors, Factor{Name: name, Delta: score, Description: desc})
	return score
}
