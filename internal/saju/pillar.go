package saju

import (
	"errors"
	"fmt"
	"strings"
)

// ChartVersion is stamped into every Pillars value so cached charts built
// under a different layout can be told apart.
const ChartVersion = 1

var ErrInvalidPillar = errors.New("saju: invalid pillar")

// Pillar is one stem/branch pair. The zero value is an absent pillar.
type Pillar struct {
	Stem   Stem
	Branch Branch
}

// Known reports whether both halves are present.
func (p Pillar) Known() bool { return p.Stem.Known() && p.Branch.Known() }

func (p Pillar) String() string {
	if !p.Known() {
		return ""
	}
	return p.Stem.String() + p.Branch.String()
}

// CycleIndex returns the position of the pair in the sixty-pair cycle (甲子 = 0).
// Pairs of mixed polarity do not occur in the cycle and report false.
func (p Pillar) CycleIndex() (int, bool) {
	if !p.Known() || p.Stem.Polarity() != p.Branch.Polarity() {
		return 0, false
	}
	s, b := p.Stem.Index(), p.Branch.Index()
	for i := s; i < 60; i += stemCount {
		if i%branchCount == b {
			return i, true
		}
	}
	return 0, false
}

// PillarAt returns the pair at position i of the sixty-pair cycle, wrapping.
func PillarAt(i int) Pillar {
	i = mod(i, 60)
	return Pillar{Stem: StemAt(i), Branch: BranchAt(i)}
}

// Shift moves n steps along the sixty-pair cycle. Absent pillars stay absent.
func (p Pillar) Shift(n int) Pillar {
	idx, ok := p.CycleIndex()
	if !ok {
		return Pillar{}
	}
	return PillarAt(idx + n)
}

// ParsePillar parses a two-character label such as "甲寅" or "갑인".
// "-" and the empty string parse to the absent pillar.
func ParsePillar(s string) (Pillar, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return Pillar{}, nil
	}
	runes := []rune(s)
	if len(runes) != 2 {
		return Pillar{}, fmt.Errorf("%w: %q must be two characters", ErrInvalidPillar, s)
	}
	st, err := ParseStem(string(runes[0]))
	if err != nil {
		return Pillar{}, err
	}
	br, err := ParseBranch(string(runes[1]))
	if err != nil {
		return Pillar{}, err
	}
	return Pillar{Stem: st, Branch: br}, nil
}

// MustPillar is ParsePillar for literals in tests and tables.
func MustPillar(s string) Pillar {
	p, err := ParsePillar(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Pillar) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Pillar) UnmarshalText(b []byte) error {
	v, err := ParsePillar(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Position names the four pillar slots.
type Position int

const (
	YearPos Position = iota
	MonthPos
	DayPos
	HourPos
)

func (p Position) String() string {
	switch p {
	case YearPos:
		return "year"
	case MonthPos:
		return "month"
	case DayPos:
		return "day"
	case HourPos:
		return "hour"
	}
	return "unknown"
}

// Pillars is the four-pillar chart. Hour is absent when the birth hour is unknown.
type Pillars struct {
	Version int    `json:"version"`
	Year    Pillar `json:"year"`
	Month   Pillar `json:"month"`
	Day     Pillar `json:"day"`
	Hour    Pillar `json:"hour"`
}

// NewPillars stamps the current chart version.
func NewPillars(year, month, day, hour Pillar) Pillars {
	return Pillars{Version: ChartVersion, Year: year, Month: month, Day: day, Hour: hour}
}

// ParsePillars parses "甲寅/甲寅/甲寅/甲寅" (slash- or space-separated,
// year first). A missing or "-" hour yields an absent hour pillar.
func ParsePillars(s string) (Pillars, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == '/' || r == ' ' || r == ',' })
	if len(fields) < 3 || len(fields) > 4 {
		return Pillars{}, fmt.Errorf("%w: expected 3 or 4 pillars, got %d", ErrInvalidPillar, len(fields))
	}
	var ps [4]Pillar
	for i, f := range fields {
		p, err := ParsePillar(f)
		if err != nil {
			return Pillars{}, err
		}
		ps[i] = p
	}
	return NewPillars(ps[0], ps[1], ps[2], ps[3]), nil
}

// At returns the pillar in the given slot.
func (p Pillars) At(pos Position) Pillar {
	switch pos {
	case YearPos:
		return p.Year
	case MonthPos:
		return p.Month
	case DayPos:
		return p.Day
	case HourPos:
		return p.Hour
	}
	return Pillar{}
}

// DayMaster returns the day stem, the chart's reference point.
func (p Pillars) DayMaster() (Stem, bool) {
	return p.Day.Stem, p.Day.Stem.Known()
}

// Slot is one of the eight stem/branch positions of a chart.
type Slot struct {
	Pos    Position
	Branch bool
	Stem   Stem
	Br     Branch
}

// Element returns the visible element of the slot.
func (s Slot) Element() Element {
	if s.Branch {
		return s.Br.Element()
	}
	return s.Stem.Element()
}

func (s Slot) String() string {
	if s.Branch {
		return s.Pos.String() + " branch " + s.Br.String()
	}
	return s.Pos.String() + " stem " + s.Stem.String()
}

// Slots lists the present stem and branch positions, year first.
func (p Pillars) Slots() []Slot {
	out := make([]Slot, 0, 8)
	for pos := YearPos; pos <= HourPos; pos++ {
		pl := p.At(pos)
		if pl.Stem.Known() {
			out = append(out, Slot{Pos: pos, Stem: pl.Stem})
		}
		if pl.Branch.Known() {
			out = append(out, Slot{Pos: pos, Branch: true, Br: pl.Branch})
		}
	}
	return out
}

// Branches lists the present branches with their positions.
func (p Pillars) Branches() []Slot {
	out := make([]Slot, 0, 4)
	for _, s := range p.Slots() {
		if s.Branch {
			out = append(out, s)
		}
	}
	return out
}

// VisibleStems lists the present stems, optionally skipping the day master.
func (p Pillars) VisibleStems(skipDay bool) []Slot {
	out := make([]Slot, 0, 4)
	for _, s := range p.Slots() {
		if s.Branch || (skipDay && s.Pos == DayPos) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (p Pillars) String() string {
	parts := make([]string, 4)
	for pos := YearPos; pos <= HourPos; pos++ {
		s := p.At(pos).String()
		if s == "" {
			s = "-"
		}
		parts[pos] = s
	}
	return strings.Join(parts, "/")
}

// PillarData is the descriptive view of a pillar returned to API callers.
type PillarData struct {
	Stem        SymbolData   `json:"stem"`
	Branch      SymbolData   `json:"branch"`
	HiddenStems []HiddenStem `json:"hidden_stems"`
}

// SymbolData describes one stem or branch.
type SymbolData struct {
	Name     string   `json:"name"`
	Hangul   string   `json:"hangul"`
	Element  Element  `json:"element"`
	Polarity Polarity `json:"polarity"`
}

// Describe expands a known pillar. ok is false for the absent pillar.
func (p Pillar) Describe() (PillarData, bool) {
	if !p.Known() {
		return PillarData{}, false
	}
	return PillarData{
		Stem: SymbolData{
			Name:     p.Stem.String(),
			Hangul:   p.Stem.Hangul(),
			Element:  p.Stem.Element(),
			Polarity: p.Stem.Polarity(),
		},
		Branch: SymbolData{
			Name:     p.Branch.String(),
			Hangul:   p.Branch.Hangul(),
			Element:  p.Branch.Element(),
			Polarity: p.Branch.Polarity(),
		},
		HiddenStems: p.Branch.HiddenStems(),
	}, true
}
