package chart

import (
	"saju-engine/internal/saju"
)

// Request shape sent to the chart service.
type remoteBatchRequest struct {
	Inputs []remoteBirth `json:"inputs"`
}

type remoteBirth struct {
	Date     string `json:"date"` // YYYY-MM-DD
	Hour     *int   `json:"hour,omitempty"`
	Minute   int    `json:"minute"`
	Gender   string `json:"gender"`
	Calendar string `json:"calendar"`
	Timezone string `json:"timezone,omitempty"`
}

func toRemoteBirth(b saju.BirthInput) remoteBirth {
	rb := remoteBirth{
		Date:     b.Date.Format("2006-01-02"),
		Minute:   b.Minute,
		Gender:   string(b.Gender),
		Calendar: string(b.Calendar),
		Timezone: b.Timezone,
	}
	if b.HourKnown() {
		h := b.Hour
		rb.Hour = &h
	}
	return rb
}

// Chart labels as returned by the service; an empty or "-" label is absent.
type remoteChart struct {
	Version int    `json:"version,omitempty"`
	Year    string `json:"year"`
	Month   string `json:"month"`
	Day     string `json:"day"`
	Hour    string `json:"hour,omitempty"`
}

func (c remoteChart) pillars() (saju.Pillars, error) {
	var ps [4]saju.Pillar
	for i, label := range []string{c.Year, c.Month, c.Day, c.Hour} {
		p, err := saju.ParsePillar(label)
		if err != nil {
			return saju.Pillars{}, err
		}
		ps[i] = p
	}
	return saju.NewPillars(ps[0], ps[1], ps[2], ps[3]), nil
}

type remoteBatchResponse struct {
	Charts []remoteChart `json:"charts"`
}

type remoteErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
