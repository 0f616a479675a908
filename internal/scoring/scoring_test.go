package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saju-engine/internal/saju"
)

func mustPillars(t *testing.T, s string) saju.Pillars {
	t.Helper()
	p, err := saju.ParsePillars(s)
	require.NoError(t, err)
	return p
}

var sampleCharts = []string{
	"甲寅/甲寅/甲寅/甲寅",
	"庚申/庚申/甲申/庚申",
	"庚午/辛巳/丙子/戊子",
	"癸亥/甲子/戊午/-",
	"-/-/丁卯/-",
	"-/-/-/-",
	"壬辰/癸卯/己酉/乙丑",
}

func TestElementRatiosSumToOne(t *testing.T) {
	for _, c := range sampleCharts {
		t.Run(c, func(t *testing.T) {
			b := Elements(mustPillars(t, c))
			var sum float64
			for _, s := range b.Scores {
				sum += s.NormalizedRatio
			}
			assert.InDelta(t, 1.0, sum, 1e-6)
		})
	}
}

func TestAllWoodChart(t *testing.T) {
	p := mustPillars(t, "甲寅/甲寅/甲寅/甲寅")
	params := DefaultParams()

	b := Elements(p)
	assert.Greater(t, b.Ratio(saju.Wood), 0.4)
	assert.Equal(t, saju.Wood, b.Dominant)
	// 4 stems + 4 branches + seasonal 0.5 + 4 main hidden 0.3 = 9.7 of 10.9
	assert.InDelta(t, 9.7/10.9, b.Ratio(saju.Wood), 1e-9)

	s := Strength(p, params)
	assert.Contains(t, []Level{Strong, VeryStrong}, s.Level)
	assert.Equal(t, 100.0, s.Total)
}

func TestDayMasterSurroundedByControllingElement(t *testing.T) {
	p := mustPillars(t, "庚申/庚申/甲申/庚申")
	s := Strength(p, DefaultParams())

	assert.Contains(t, []Level{Weak, VeryWeak}, s.Level)
	assert.Equal(t, 0.0, s.SupportScore)

	var controls int
	for _, f := range s.Factors {
		if f.Name == "control" {
			controls++
		}
	}
	assert.Equal(t, 7, controls)
}

func TestStrengthBalanceIdentity(t *testing.T) {
	for _, c := range sampleCharts {
		t.Run(c, func(t *testing.T) {
			s := Strength(mustPillars(t, c), DefaultParams())
			assert.Equal(t, s.SupportScore-s.ResistScore, s.Balance)
			assert.GreaterOrEqual(t, s.Total, 0.0)
			assert.LessOrEqual(t, s.Total, 100.0)
		})
	}
}

func TestStrengthRootedness(t *testing.T) {
	// 甲 day master; year 辰 is earth but stores 乙, which roots the day master.
	rooted := Strength(mustPillars(t, "庚辰/庚申/甲申/庚申"), DefaultParams())
	bare := Strength(mustPillars(t, "庚申/庚申/甲申/庚申"), DefaultParams())

	assert.Greater(t, rooted.Total, bare.Total)
	var found bool
	for _, f := range rooted.Factors {
		if f.Name == "root" {
			found = true
			assert.Equal(t, "year_branch", f.Position)
		}
	}
	assert.True(t, found, "expected a root factor")
}

func TestStrengthAbsentDayMaster(t *testing.T) {
	s := Strength(mustPillars(t, "甲寅/甲寅/-/甲寅"), DefaultParams())
	assert.Equal(t, 50.0, s.Total)
	assert.Equal(t, s.SupportScore-s.ResistScore, s.Balance)
	require.Len(t, s.Factors, 1)
	assert.Equal(t, "day_master", s.Factors[0].Name)
}

func TestLevelThresholds(t *testing.T) {
	th := DefaultParams().Strength
	tests := []struct {
		total float64
		want  Level
	}{
		{100, VeryStrong},
		{85, VeryStrong},
		{84.99, Strong},
		{70, Strong},
		{55, ModerateStrong},
		{40, ModerateWeak},
		{25, Weak},
		{24.99, VeryWeak},
		{0, VeryWeak},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFor(tt.total, th), "total %v", tt.total)
	}
}

func TestGradeBoundaries(t *testing.T) {
	bands := DefaultParams().Grades
	tests := []struct {
		score int
		want  Grade
	}{
		{100, GradeS},
		{90, GradeS},
		{89, GradeA},
		{80, GradeA},
		{79, GradeB},
		{70, GradeB},
		{69, GradeC},
		{60, GradeC},
		{59, GradeD},
		{50, GradeD},
		{49, GradeF},
		{0, GradeF},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GradeFor(tt.score, bands), "score %d", tt.score)
	}
}

func TestPatternSurfacedMainStem(t *testing.T) {
	p := mustPillars(t, "甲寅/甲寅/甲寅/甲寅")
	ps := Pattern(p, DefaultParams())

	assert.Equal(t, "bigyeon-geok", ps.PatternType)
	assert.Equal(t, 75.0, ps.Purity)
	assert.Equal(t, 50.0, ps.Stability)
}

func TestPatternClashLowersPurityAndStability(t *testing.T) {
	// month 寅 clashes with year 申 and hour 申
	p := mustPillars(t, "庚申/丙寅/甲子/壬申")
	ps := Pattern(p, DefaultParams())

	assert.Less(t, ps.Purity, 50.0+puritySurfacedOther+1)
	assert.Less(t, ps.Stability, 50.0)

	var clashes int
	for _, f := range ps.Factors {
		if f.Name == "month_clash" {
			clashes++
		}
	}
	assert.Equal(t, 2, clashes)
}

func TestPatternHarmonyRaisesStability(t *testing.T) {
	// 申子辰 full water frame, 子丑 six-combination
	p := mustPillars(t, "壬申/壬子/甲辰/乙丑")
	ps := Pattern(p, DefaultParams())
	assert.Greater(t, ps.Stability, 50.0)

	names := map[string]bool{}
	for _, f := range ps.Factors {
		names[f.Name] = true
	}
	assert.True(t, names["three_harmony"])
	assert.True(t, names["six_combination"])
}

func TestPatternBounds(t *testing.T) {
	for _, c := range sampleCharts {
		ps := Pattern(mustPillars(t, c), DefaultParams())
		assert.GreaterOrEqual(t, ps.Purity, 0.0)
		assert.LessOrEqual(t, ps.Purity, 100.0)
		assert.GreaterOrEqual(t, ps.Stability, 0.0)
		assert.LessOrEqual(t, ps.Stability, 100.0)
	}
}

func TestPatternAbsentDayMasterDegrades(t *testing.T) {
	ps := Pattern(mustPillars(t, "甲寅/甲寅/-/甲寅"), DefaultParams())
	assert.Equal(t, unknownPatternType, ps.PatternType)
	assert.Equal(t, purityBase, ps.Purity)
}

func TestAffinityWeakChartFavoursSupport(t *testing.T) {
	p := mustPillars(t, "庚申/庚申/甲申/庚申")
	params := DefaultParams()
	st := Strength(p, params)
	bal := Elements(p)

	water := AffinityFit(p, saju.Water, st, bal, params)
	metal := AffinityFit(p, saju.Metal, st, bal, params)

	// weak wood day master: water generates wood, metal controls it
	assert.InDelta(t, 60.0+0.3*water.PresenceScore, water.FitScore, 0.01)
	assert.Equal(t, surfacedBonus, metal.BonusForSurfacedStem)
	assert.Equal(t, 0.0, water.BonusForSurfacedStem)
}

func TestAffinitySurfacedBonus(t *testing.T) {
	p := mustPillars(t, "丙寅/甲寅/甲寅/甲寅")
	params := DefaultParams()
	fit := AffinityFit(p, saju.Fire, Strength(p, params), Elements(p), params)
	assert.Equal(t, surfacedBonus, fit.BonusForSurfacedStem)
}

func TestBestAffinityPicksMaximum(t *testing.T) {
	p := mustPillars(t, "庚午/辛巳/丙子/戊子")
	params := DefaultParams()
	st, bal := Strength(p, params), Elements(p)
	best := BestAffinity(p, st, bal, params)
	for _, e := range saju.Elements {
		assert.LessOrEqual(t, AffinityFit(p, e, st, bal, params).FitScore, best.FitScore)
	}
}

func TestComprehensiveScore(t *testing.T) {
	params := DefaultParams()
	for _, c := range sampleCharts {
		t.Run(c, func(t *testing.T) {
			cs := Comprehensive(mustPillars(t, c), Options{}, params)
			assert.GreaterOrEqual(t, cs.Overall, 0)
			assert.LessOrEqual(t, cs.Overall, 100)
			assert.Equal(t, GradeFor(cs.Overall, params.Grades), cs.Grade)
			assert.NotEmpty(t, cs.Recommendations)
		})
	}
}

func TestComprehensiveImbalanceNarrative(t *testing.T) {
	cs := Comprehensive(mustPillars(t, "甲寅/甲寅/甲寅/甲寅"), Options{}, DefaultParams())

	assert.Contains(t, cs.Weaknesses, "wood is excessive (wood at 89%)")
	assert.Contains(t, cs.Recommendations, "temper wood with metal")
	assert.Contains(t, cs.Recommendations, "supplement water")
}

func TestComprehensiveTargetAndTransit(t *testing.T) {
	p := mustPillars(t, "庚午/辛巳/丙子/戊子")
	params := DefaultParams()
	target := saju.Water
	base := Comprehensive(p, Options{Target: &target}, params)
	assert.Equal(t, saju.Water, base.Affinity.TargetElement)
	assert.Nil(t, base.Period)

	// 辛 combines with 丙 day master, 丑 combines with day branch 子
	transit := saju.MustPillar("辛丑")
	withTransit := Comprehensive(p, Options{Target: &target, Transit: &transit}, params)
	require.NotNil(t, withTransit.Period)
	assert.Equal(t, periodStemCombo+periodDayCombo, withTransit.Period.Delta)
	assert.GreaterOrEqual(t, withTransit.Overall, base.Overall)

	// 午 clashes with day branch 子
	clash := saju.MustPillar("甲午")
	withClash := Comprehensive(p, Options{Target: &target, Transit: &clash}, params)
	assert.Equal(t, periodDayClash, withClash.Period.Delta)
}

func TestComprehensiveWeightsProportional(t *testing.T) {
	p := mustPillars(t, "壬辰/癸卯/己酉/乙丑")
	a := DefaultParams()
	b := DefaultParams()
	b.Weights = Weights{Balance: 1, Strength: 1, Pattern: 1, Affinity: 1}
	assert.Equal(t, Comprehensive(p, Options{}, a).Overall, Comprehensive(p, Options{}, b).Overall)
}

func TestCompatibilitySymmetric(t *testing.T) {
	params := DefaultParams()
	for i := range sampleCharts {
		for j := range sampleCharts {
			a, b := mustPillars(t, sampleCharts[i]), mustPillars(t, sampleCharts[j])
			ab, ba := Compatibility(a, b, params), Compatibility(b, a, params)
			assert.Equal(t, ab.Overall, ba.Overall, "%s vs %s", sampleCharts[i], sampleCharts[j])
		}
	}
}

func TestCompatibilityRelations(t *testing.T) {
	params := DefaultParams()
	// 甲己 stem combination, 子丑 six combination on day branches
	good := Compatibility(mustPillars(t, "庚午/辛巳/甲子/-"), mustPillars(t, "庚午/辛巳/己丑/-"), params)
	// 甲庚 controlling day masters, 子午 clash on day branches
	bad := Compatibility(mustPillars(t, "庚午/辛巳/甲子/-"), mustPillars(t, "庚子/辛巳/庚午/-"), params)

	assert.Equal(t, relStemCombination, good.DayMaster)
	assert.Equal(t, relSixCombination, good.DayBranch)
	assert.Equal(t, relControls, bad.DayMaster)
	assert.Equal(t, relClash, bad.DayBranch)
	assert.Greater(t, good.Overall, bad.Overall)
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	p := DefaultParams()
	p.Strength.Strong = 90
	assert.ErrorIs(t, p.Validate(), ErrInvalidParams)

	p = DefaultParams()
	p.Grades.D = 60
	assert.ErrorIs(t, p.Validate(), ErrInvalidParams)

	p = DefaultParams()
	p.Weights = Weights{}
	assert.ErrorIs(t, p.Validate(), ErrInvalidParams)
}

func TestBalanceScoreRange(t *testing.T) {
	even := ElementBalance{}
	for _, e := range saju.Elements {
		even.Scores[e] = ElementScore{Element: e, NormalizedRatio: 0.2}
	}
	assert.InDelta(t, 100.0, balanceScore(even), 1e-9)

	single := ElementBalance{}
	single.Scores[saju.Fire] = ElementScore{Element: saju.Fire, NormalizedRatio: 1}
	assert.InDelta(t, 0.0, balanceScore(single), 1e-9)
	assert.False(t, math.IsNaN(balanceScore(single)))
}
