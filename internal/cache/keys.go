package cache

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"saju-engine/internal/saju"
)

// SajuKey identifies a chart computation. Every discriminating input is part
// of the key; an unknown hour is written as "x" so it never collides with 0.
//
//	saju:<YYYY-MM-DD>:<HH|x>:<gender>:<calendar>
func SajuKey(date time.Time, hour int, gender saju.Gender, calendar saju.CalendarType) string {
	h := "x"
	if hour != saju.UnknownHour {
		h = fmt.Sprintf("%02d", hour)
	}
	return fmt.Sprintf("saju:%s:%s:%s:%s", date.Format("2006-01-02"), h, gender, calendar)
}

// BirthKey is SajuKey for a full birth input, suffixed with the timezone when one is set.
func BirthKey(in saju.BirthInput) string {
	key := SajuKey(in.Date, in.Hour, in.Gender, in.Calendar)
	if in.Timezone != "" {
		key += ":" + in.Timezone
	}
	return key
}

// DaeunKey derives the luck-cycle key from a chart key.
func DaeunKey(sajuKey string) string {
	return "daeun:" + sajuKey
}

// CompatibilityKey is order independent: CompatibilityKey(a, b) == CompatibilityKey(b, a).
// The first id is length prefixed so a separator inside an id cannot make
// two different pairs produce the same key.
func CompatibilityKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("compat:%d:%s:%s", len(a), a, b)
}

// ScoreKey addresses a comprehensive score in the result tier.
type ScoreKey struct {
	// Revision is the scoring params revision; bumping it invalidates old results.
	Revision uint64
	// Transit is the period pillar overlay, empty when none.
	Transit string
	// Target is the forced affinity element, empty for automatic selection.
	Target string
	// Subject is the chart key the score was computed for.
	Subject string
}

// String converts the structured key into the final string used in Redis/map.
func (k ScoreKey) String() string {
	// score:<REVISION>:<TRANSIT|->:<TARGET|->:<SUBJECT>
	return fmt.Sprintf("score:%d:%s:%s:%s", k.Revision, orDash(k.Transit), orDash(k.Target), k.Subject)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// ParseScoreKey reverses ScoreKey.String. The subject may itself contain colons.
func ParseScoreKey(key string) (ScoreKey, bool) {
	parts := strings.SplitN(key, ":", 5)
	if len(parts) != 5 || parts[0] != "score" {
		return ScoreKey{}, false
	}
	rev, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return ScoreKey{}, false
	}
	k := ScoreKey{Revision: rev, Subject: parts[4]}
	if parts[2] != "-" {
		k.Transit = parts[2]
	}
	if parts[3] != "-" {
		k.Target = parts[3]
	}
	return k, true
}
