package saju

import "fmt"

// Branch is one of the twelve earthly branches. The zero value is NoBranch.
type Branch uint8

const (
	NoBranch Branch = iota
	Rat             // 子
	Ox              // 丑
	Tiger           // 寅
	Rabbit          // 卯
	Dragon          // 辰
	Snake           // 巳
	Horse           // 午
	Goat            // 未
	Monkey          // 申
	Rooster         // 酉
	Dog             // 戌
	Pig             // 亥
)

const branchCount = 12

var branchHanja = [branchCount]string{"子", "丑", "寅", "卯", "辰", "巳", "午", "未", "申", "酉", "戌", "亥"}
var branchHangul = [branchCount]string{"자", "축", "인", "묘", "진", "사", "오", "미", "신", "유", "술", "해"}

var branchElements = [branchCount]Element{
	Water, Earth, Wood, Wood, Earth, Fire,
	Fire, Earth, Metal, Metal, Earth, Water,
}

// hiddenStems lists each branch's stored stems, residual first and main last.
var hiddenStems = [branchCount][]HiddenStem{
	{{Ren, Residual}, {Gui, Main}},
	{{Gui, Residual}, {Xin, Middle}, {Ji, Main}},
	{{Wu, Residual}, {Bing, Middle}, {Jia, Main}},
	{{Jia, Residual}, {Yi, Main}},
	{{Yi, Residual}, {Gui, Middle}, {Wu, Main}},
	{{Wu, Residual}, {Geng, Middle}, {Bing, Main}},
	{{Bing, Residual}, {Ji, Middle}, {Ding, Main}},
	{{Ding, Residual}, {Yi, Middle}, {Ji, Main}},
	{{Wu, Residual}, {Ren, Middle}, {Geng, Main}},
	{{Geng, Residual}, {Xin, Main}},
	{{Xin, Residual}, {Ding, Middle}, {Wu, Main}},
	{{Wu, Residual}, {Jia, Middle}, {Ren, Main}},
}

// BranchAt returns the branch at position i of the twelve-branch cycle (0 = 子), wrapping.
func BranchAt(i int) Branch {
	return Branch(mod(i, branchCount) + 1)
}

func (b Branch) Known() bool { return b >= Rat && b <= Pig }

// Index is the zero-based cycle position. Only meaningful when Known.
func (b Branch) Index() int { return int(b) - 1 }

func (b Branch) Element() Element { return branchElements[b.Index()] }

func (b Branch) Polarity() Polarity {
	if b.Index()%2 == 0 {
		return Yang
	}
	return Yin
}

// HiddenStems returns the stems stored in the branch, residual first.
// The returned slice must not be modified.
func (b Branch) HiddenStems() []HiddenStem {
	if !b.Known() {
		return nil
	}
	return hiddenStems[b.Index()]
}

// MainStem returns the dominant hidden stem (정기).
func (b Branch) MainStem() Stem {
	hs := b.HiddenStems()
	if len(hs) == 0 {
		return NoStem
	}
	return hs[len(hs)-1].Stem
}

// HasHiddenElement reports whether any stored stem carries element e.
func (b Branch) HasHiddenElement(e Element) bool {
	for _, h := range b.HiddenStems() {
		if h.Stem.Element() == e {
			return true
		}
	}
	return false
}

func (b Branch) String() string {
	if !b.Known() {
		return ""
	}
	return branchHanja[b.Index()]
}

// Hangul returns the Korean reading, e.g. 인.
func (b Branch) Hangul() string {
	if !b.Known() {
		return ""
	}
	return branchHangul[b.Index()]
}

func parseBranch(r string) (Branch, bool) {
	for i := 0; i < branchCount; i++ {
		if r == branchHanja[i] || r == branchHangul[i] {
			return Branch(i + 1), true
		}
	}
	return NoBranch, false
}

// ParseBranch accepts a single hanja or hangul branch label.
func ParseBranch(s string) (Branch, error) {
	if b, ok := parseBranch(s); ok {
		return b, nil
	}
	return NoBranch, fmt.Errorf("%w: unknown branch %q", ErrInvalidPillar, s)
}

func (b Branch) MarshalText() ([]byte, error) { return []byte(b.String()), nil }
