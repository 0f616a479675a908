package chart

import (
	"sort"
	"time"
)

// termStarts are the approximate civil start dates of the twelve solar
// months, indexed from the 寅 month (start of spring). Real boundaries drift
// by a day across years; this table is the fixed approximation.
var termStarts = [12]struct {
	month time.Month
	day   int
}{
	{time.February, 4},
	{time.March, 6},
	{time.April, 5},
	{time.May, 6},
	{time.June, 6},
	{time.July, 7},
	{time.August, 8},
	{time.September, 8},
	{time.October, 8},
	{time.November, 7},
	{time.December, 7},
	{time.January, 6},
}

type boundary struct {
	at      time.Time
	ordinal int
}

// civil truncates t to its calendar date in UTC so day arithmetic ignores zones.
func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// solarMonth returns the ordinal (0 = 寅 month) of the solar month containing
// d, together with the boundary that opened it and the one that closes it.
func solarMonth(d time.Time) (ordinal int, start, next time.Time) {
	d = civil(d)
	bs := make([]boundary, 0, 36)
	for y := d.Year() - 1; y <= d.Year()+1; y++ {
		for ord, ts := range termStarts {
			bs = append(bs, boundary{at: time.Date(y, ts.month, ts.day, 0, 0, 0, 0, time.UTC), ordinal: ord})
		}
	}
	sort.Slice(bs, func(i, j int) bool { return bs[i].at.Before(bs[j].at) })

	idx := sort.Search(len(bs), func(i int) bool { return bs[i].at.After(d) }) - 1
	return bs[idx].ordinal, bs[idx].at, bs[idx+1].at
}

// solarYear is the year whose 寅 month contains d.
func solarYear(d time.Time) int {
	d = civil(d)
	spring := time.Date(d.Year(), termStarts[0].month, termStarts[0].day, 0, 0, 0, 0, time.UTC)
	if d.Before(spring) {
		return d.Year() - 1
	}
	return d.Year()
}

// julianDay returns the Julian day number of the civil date d.
func julianDay(d time.Time) int {
	y, m, day := d.Date()
	a := (14 - int(m)) / 12
	yy := y + 4800 - a
	mm := int(m) + 12*a - 3
	return day + (153*mm+2)/5 + 365*yy + yy/4 - yy/100 + yy/400 - 32045
}
