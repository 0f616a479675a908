package saju

import (
	"fmt"
	"strings"
)

// Element is one of the five phases.
type Element int

const (
	Wood Element = iota
	Fire
	Earth
	Metal
	Water
)

// ElementCount is the number of five-element buckets.
const ElementCount = 5

// Elements lists the five elements in generation order.
var Elements = [ElementCount]Element{Wood, Fire, Earth, Metal, Water}

var elementNames = [ElementCount]string{"wood", "fire", "earth", "metal", "water"}
var elementHanja = [ElementCount]string{"木", "火", "土", "金", "水"}

func (e Element) Valid() bool { return e >= Wood && e <= Water }

func (e Element) String() string {
	if !e.Valid() {
		return fmt.Sprintf("element(%d)", int(e))
	}
	return elementNames[e]
}

// Hanja returns the single-character label, e.g. 木.
func (e Element) Hanja() string {
	if !e.Valid() {
		return ""
	}
	return elementHanja[e]
}

// Generates returns the element this one feeds (wood -> fire -> earth -> metal -> water -> wood).
func (e Element) Generates() Element { return (e + 1) % ElementCount }

// GeneratedBy returns the element that feeds this one.
func (e Element) GeneratedBy() Element { return (e + ElementCount - 1) % ElementCount }

// Controls returns the element this one restrains (wood -> earth, fire -> metal, ...).
func (e Element) Controls() Element { return (e + 2) % ElementCount }

// ControlledBy returns the element that restrains this one.
func (e Element) ControlledBy() Element { return (e + ElementCount - 2) % ElementCount }

// Supports reports whether e reinforces target: the same element or the one generating it.
func (e Element) Supports(target Element) bool {
	return e == target || e.Generates() == target
}

// ParseElement accepts the English name or the hanja label.
func ParseElement(s string) (Element, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	for i := range Elements {
		if s == elementNames[i] || s == elementHanja[i] {
			return Element(i), nil
		}
	}
	return 0, fmt.Errorf("saju: unknown element %q", s)
}

func (e Element) MarshalText() ([]byte, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("saju: invalid element %d", int(e))
	}
	return []byte(e.String()), nil
}

func (e *Element) UnmarshalText(b []byte) error {
	v, err := ParseElement(string(b))
	if err != nil {
		return err
	}
	*e = v
	return nil
}

// Polarity is the yin/yang attribute of a stem or branch.
type Polarity int

const (
	Yang Polarity = iota
	Yin
)

func (p Polarity) String() string {
	if p == Yin {
		return "yin"
	}
	return "yang"
}

func (p Polarity) MarshalText() ([]byte, error) { return []byte(p.String()), nil }
