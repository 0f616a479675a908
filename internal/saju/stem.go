package saju

import "fmt"

// Stem is one of the ten heavenly stems. The zero value is NoStem.
type Stem uint8

const (
	NoStem Stem = iota
	Jia         // 甲
	Yi          // 乙
	Bing        // 丙
	Ding        // 丁
	Wu          // 戊
	Ji          // 己
	Geng        // 庚
	Xin         // 辛
	Ren         // 壬
	Gui         // 癸
)

const stemCount = 10

var stemHanja = [stemCount]string{"甲", "乙", "丙", "丁", "戊", "己", "庚", "辛", "壬", "癸"}
var stemHangul = [stemCount]string{"갑", "을", "병", "정", "무", "기", "경", "신", "임", "계"}

// StemAt returns the stem at position i of the ten-stem cycle (0 = 甲), wrapping.
func StemAt(i int) Stem {
	return Stem(mod(i, stemCount) + 1)
}

func (s Stem) Known() bool { return s >= Jia && s <= Gui }

// Index is the zero-based cycle position. Only meaningful when Known.
func (s Stem) Index() int { return int(s) - 1 }

func (s Stem) Element() Element { return Element(s.Index() / 2) }

func (s Stem) Polarity() Polarity {
	if s.Index()%2 == 0 {
		return Yang
	}
	return Yin
}

func (s Stem) String() string {
	if !s.Known() {
		return ""
	}
	return stemHanja[s.Index()]
}

// Hangul returns the Korean reading, e.g. 갑.
func (s Stem) Hangul() string {
	if !s.Known() {
		return ""
	}
	return stemHangul[s.Index()]
}

func parseStem(r string) (Stem, bool) {
	for i := 0; i < stemCount; i++ {
		if r == stemHanja[i] || r == stemHangul[i] {
			return Stem(i + 1), true
		}
	}
	return NoStem, false
}

// ParseStem accepts a single hanja or hangul stem label.
func ParseStem(s string) (Stem, error) {
	if st, ok := parseStem(s); ok {
		return st, nil
	}
	return NoStem, fmt.Errorf("%w: unknown stem %q", ErrInvalidPillar, s)
}

// HiddenRole ranks a hidden stem inside its branch.
type HiddenRole int

const (
	Residual HiddenRole = iota // 여기
	Middle                     // 중기
	Main                       // 정기
)

func (r HiddenRole) String() string {
	switch r {
	case Main:
		return "main"
	case Middle:
		return "middle"
	default:
		return "residual"
	}
}

func (r HiddenRole) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// HiddenStem is a stem stored inside a branch.
type HiddenStem struct {
	Stem Stem       `json:"stem"`
	Role HiddenRole `json:"role"`
}

func (s Stem) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Stem) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*s = NoStem
		return nil
	}
	v, err := ParseStem(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}
