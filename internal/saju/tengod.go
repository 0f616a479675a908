package saju

// TenGod (십신) is the relation of a stem to the day master.
type TenGod int

const (
	Bigyeon   TenGod = iota // 비견: same element, same polarity
	Geopjae                 // 겁재: same element, other polarity
	Siksin                  // 식신: produced by the day master, same polarity
	Sanggwan                // 상관: produced by the day master, other polarity
	Pyeonjae                // 편재: controlled by the day master, same polarity
	Jeongjae                // 정재: controlled by the day master, other polarity
	Pyeongwan               // 편관: controls the day master, same polarity
	Jeonggwan               // 정관: controls the day master, other polarity
	Pyeonin                 // 편인: produces the day master, same polarity
	Jeongin                 // 정인: produces the day master, other polarity
)

var tenGodNames = [...]string{
	"bigyeon", "geopjae", "siksin", "sanggwan", "pyeonjae",
	"jeongjae", "pyeongwan", "jeonggwan", "pyeonin", "jeongin",
}

var tenGodHangul = [...]string{
	"비견", "겁재", "식신", "상관", "편재",
	"정재", "편관", "정관", "편인", "정인",
}

func (g TenGod) String() string {
	if g < 0 || int(g) >= len(tenGodNames) {
		return "unknown"
	}
	return tenGodNames[g]
}

// Hangul returns the Korean label.
func (g TenGod) Hangul() string {
	if g < 0 || int(g) >= len(tenGodHangul) {
		return ""
	}
	return tenGodHangul[g]
}

func (g TenGod) MarshalText() ([]byte, error) { return []byte(g.String()), nil }

// Family groups the two polarity variants, e.g. Pyeongwan and Jeonggwan are both officers.
func (g TenGod) Family() TenGod { return g - g%2 }

// TenGodOf derives the relation of other to dayMaster. ok is false when either stem is absent.
func TenGodOf(dayMaster, other Stem) (TenGod, bool) {
	if !dayMaster.Known() || !other.Known() {
		return 0, false
	}
	dm, oe := dayMaster.Element(), other.Element()
	var base TenGod
	switch {
	case oe == dm:
		base = Bigyeon
	case dm.Generates() == oe:
		base = Siksin
	case dm.Controls() == oe:
		base = Pyeonjae
	case oe.Controls() == dm:
		base = Pyeongwan
	default:
		base = Pyeonin
	}
	if dayMaster.Polarity() != other.Polarity() {
		base++
	}
	return base, true
}
