package chart

import (
	"context"
	"fmt"

	"saju-engine/internal/saju"
)

// Local derives charts arithmetically on the sexagenary cycle. It supports
// the solar calendar only and treats the birth time as local wall-clock time.
type Local struct{}

// NewLocal returns the in-process provider.
func NewLocal() *Local { return &Local{} }

// SupportsCalendar reports true for the solar calendar only.
func (Local) SupportsCalendar(c saju.CalendarType) bool { return c == saju.Solar }

// ComputeChart derives the four pillars. An unknown hour leaves the hour pillar absent.
func (Local) ComputeChart(ctx context.Context, in saju.BirthInput) (saju.Pillars, error) {
	if err := ctx.Err(); err != nil {
		return saju.Pillars{}, err
	}
	if err := in.Validate(); err != nil {
		return saju.Pillars{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if in.Calendar != saju.Solar {
		return saju.Pillars{}, fmt.Errorf("%w: %s", ErrUnsupportedCalendar, in.Calendar)
	}

	year := yearPillar(in)
	month := monthPillar(in, year.Stem)
	day := dayPillar(in)
	var hour saju.Pillar
	if in.HourKnown() {
		hour = hourPillar(in.Hour, day.Stem)
	}
	return saju.NewPillars(year, month, day, hour), nil
}

// ComputeCharts derives each chart in turn; the first failure aborts the batch.
func (l Local) ComputeCharts(ctx context.Context, in []saju.BirthInput) ([]saju.Pillars, error) {
	out := make([]saju.Pillars, len(in))
	for i, b := range in {
		p, err := l.ComputeChart(ctx, b)
		if err != nil {
			return nil, fmt.Errorf("chart %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

func yearPillar(in saju.BirthInput) saju.Pillar {
	// 4 CE was a 甲子 year.
	return saju.PillarAt(solarYear(in.Date) - 4)
}

func monthPillar(in saju.BirthInput, yearStem saju.Stem) saju.Pillar {
	ordinal, _, _ := solarMonth(in.Date)
	// five tigers: the 寅 month stem follows from the year stem
	first := (yearStem.Index()%5)*2 + 2
	return saju.Pillar{
		Stem:   saju.StemAt(first + ordinal),
		Branch: saju.BranchAt(ordinal + 2),
	}
}

func dayPillar(in saju.BirthInput) saju.Pillar {
	// JDN + 49 puts 2000-01-01 on 戊午.
	return saju.PillarAt(julianDay(civil(in.Date)) + 49)
}

func hourPillar(hour int, dayStem saju.Stem) saju.Pillar {
	// 23:00 opens the next 子 double-hour
	branch := ((hour + 1) / 2) % 12
	// five rats: the 子 hour stem follows from the day stem
	first := (dayStem.Index() % 5) * 2
	return saju.Pillar{
		Stem:   saju.StemAt(first + branch),
		Branch: saju.BranchAt(branch),
	}
}
