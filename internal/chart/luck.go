package chart

import (
	"fmt"
	"math"

	"saju-engine/internal/saju"
)

// DefaultLuckPillars is the number of ten-year luck pillars derived when the
// caller does not ask for a count.
const DefaultLuckPillars = 8

// LuckPillar is one ten-year period (daeun).
type LuckPillar struct {
	Index    int         `json:"index"`
	StartAge int         `json:"start_age"`
	Pillar   saju.Pillar `json:"pillar"`
}

// LuckCycle is the sequence of luck pillars of a chart.
type LuckCycle struct {
	Forward  bool         `json:"forward"`
	StartAge int          `json:"start_age"`
	Pillars  []LuckPillar `json:"pillars"`
}

// Luck derives the luck cycle. It runs forward for a yang year stem with a
// male birth or a yin year stem with a female birth, backward otherwise, and
// steps from the month pillar. The start age is the distance in days to the
// next (forward) or previous (backward) solar-month boundary divided by
// three, rounded, and at least 1.
func Luck(in saju.BirthInput, p saju.Pillars, count int) (LuckCycle, error) {
	if !p.Year.Stem.Known() || !p.Month.Known() {
		return LuckCycle{}, fmt.Errorf("%w: year stem and month pillar are required", ErrInvalidInput)
	}
	if in.Date.IsZero() {
		return LuckCycle{}, fmt.Errorf("%w: birth date is required", ErrInvalidInput)
	}
	if count <= 0 {
		count = DefaultLuckPillars
	}

	yang := p.Year.Stem.Polarity() == saju.Yang
	forward := (yang && in.Gender == saju.Male) || (!yang && in.Gender == saju.Female)

	_, start, next := solarMonth(in.Date)
	birth := civil(in.Date)
	var days float64
	if forward {
		days = next.Sub(birth).Hours() / 24
	} else {
		days = birth.Sub(start).Hours() / 24
	}
	startAge := int(math.Round(days / 3))
	if startAge < 1 {
		startAge = 1
	}

	step := 1
	if !forward {
		step = -1
	}
	out := LuckCycle{Forward: forward, StartAge: startAge, Pillars: make([]LuckPillar, count)}
	for i := range out.Pillars {
		out.Pillars[i] = LuckPillar{
			Index:    i + 1,
			StartAge: startAge + 10*i,
			Pillar:   p.Month.Shift(step * (i + 1)),
		}
	}
	return out, nil
}
