package saju

// Fixed pairwise relations between stems and between branches.

// stemCombinationElements is indexed by the lower stem of a combining pair
// (甲己, 乙庚, 丙辛, 丁壬, 戊癸).
var stemCombinationElements = [5]Element{Earth, Metal, Water, Wood, Fire}

// StemCombination reports whether a and b form one of the five stem
// combinations and, if so, the element the pair transforms into.
func StemCombination(a, b Stem) (Element, bool) {
	if !a.Known() || !b.Known() {
		return 0, false
	}
	lo, hi := a.Index(), b.Index()
	if lo > hi {
		lo, hi = hi, lo
	}
	if hi-lo != 5 {
		return 0, false
	}
	return stemCombinationElements[lo], true
}

// sixCombinationElements is indexed by the lower branch of a combining pair
// (子丑, 寅亥, 卯戌, 辰酉, 巳申, 午未).
var sixCombinationElements = map[int]Element{
	0: Earth, 2: Wood, 3: Fire, 4: Metal, 5: Water, 6: Fire,
}

// SixCombination reports whether a and b form a harmonious six-combination.
func SixCombination(a, b Branch) (Element, bool) {
	if !a.Known() || !b.Known() || a == b {
		return 0, false
	}
	ia, ib := a.Index(), b.Index()
	if (ia+ib)%branchCount != 1 {
		return 0, false
	}
	return sixCombinationElements[min(ia, ib)], true
}

// Clash reports whether a and b sit opposite each other on the branch circle.
func Clash(a, b Branch) bool {
	if !a.Known() || !b.Known() {
		return false
	}
	return mod(a.Index()-b.Index(), branchCount) == 6
}

// Harm reports the six-harm relation (子未, 丑午, 寅巳, 卯辰, 申亥, 酉戌).
func Harm(a, b Branch) bool {
	if !a.Known() || !b.Known() || a == b {
		return false
	}
	return (a.Index()+b.Index())%branchCount == 7
}

var (
	punishGroupTiger = map[Branch]bool{Tiger: true, Snake: true, Monkey: true}
	punishGroupOx    = map[Branch]bool{Ox: true, Dog: true, Goat: true}
	selfPunishing    = map[Branch]bool{Dragon: true, Horse: true, Rooster: true, Pig: true}
)

// Punishment reports whether a and b punish each other: two members of
// 寅巳申 or 丑戌未, the 子卯 pair, or a doubled self-punishing branch.
func Punishment(a, b Branch) bool {
	if !a.Known() || !b.Known() {
		return false
	}
	if a == b {
		return selfPunishing[a]
	}
	if punishGroupTiger[a] && punishGroupTiger[b] {
		return true
	}
	if punishGroupOx[a] && punishGroupOx[b] {
		return true
	}
	return (a == Rat && b == Rabbit) || (a == Rabbit && b == Rat)
}

// threeHarmonyElements is indexed by branch index mod 4
// (申子辰 water, 巳酉丑 metal, 寅午戌 fire, 亥卯未 wood).
var threeHarmonyElements = [4]Element{Water, Metal, Fire, Wood}

// ThreeHarmonyElement returns the element of the three-harmony frame the branch belongs to.
func ThreeHarmonyElement(b Branch) Element {
	return threeHarmonyElements[b.Index()%4]
}

// ThreeHarmonyCenter reports whether b is the cardinal (middle) member of its frame.
func ThreeHarmonyCenter(b Branch) bool {
	return b.Known() && b.Index()%3 == 0
}

// Harmony describes a three-harmony frame found among a set of branches.
type Harmony struct {
	Element Element
	Full    bool
}

// ThreeHarmonies finds frames with all three members (Full) or with two
// members including the cardinal branch (half combination).
func ThreeHarmonies(branches []Branch) []Harmony {
	var groups [4]map[Branch]bool
	for _, b := range branches {
		if !b.Known() {
			continue
		}
		g := b.Index() % 4
		if groups[g] == nil {
			groups[g] = make(map[Branch]bool, 3)
		}
		groups[g][b] = true
	}
	var out []Harmony
	for g, members := range groups {
		switch {
		case len(members) == 3:
			out = append(out, Harmony{Element: threeHarmonyElements[g], Full: true})
		case len(members) == 2:
			for b := range members {
				if ThreeHarmonyCenter(b) {
					out = append(out, Harmony{Element: threeHarmonyElements[g]})
					break
				}
			}
		}
	}
	return out
}
