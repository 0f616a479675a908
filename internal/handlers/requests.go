package handlers

import (
	"fmt"
	"time"

	"saju-engine/internal/saju"
	"saju-engine/internal/service"
)

const dateLayout = "2006-01-02"

// birthRequest is the wire form of saju.BirthInput. A missing hour means the
// birth time is unknown.
type birthRequest struct {
	Date     string `json:"date"`
	Hour     *int   `json:"hour,omitempty"`
	Minute   int    `json:"minute,omitempty"`
	Gender   string `json:"gender"`
	Calendar string `json:"calendar,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

func (b *birthRequest) input() (saju.BirthInput, error) {
	if b == nil {
		return saju.BirthInput{}, fmt.Errorf("%w: birth is required", errBadRequest)
	}
	date, err := time.Parse(dateLayout, b.Date)
	if err != nil {
		return saju.BirthInput{}, fmt.Errorf("%w: date %q: want YYYY-MM-DD", errBadRequest, b.Date)
	}
	gender, err := saju.ParseGender(b.Gender)
	if err != nil {
		return saju.BirthInput{}, err
	}
	cal, err := saju.ParseCalendar(b.Calendar)
	if err != nil {
		return saju.BirthInput{}, err
	}

	in := saju.BirthInput{
		Date:     date,
		Hour:     saju.UnknownHour,
		Minute:   b.Minute,
		Gender:   gender,
		Calendar: cal,
		Timezone: b.Timezone,
	}
	if b.Hour != nil {
		in.Hour = *b.Hour
	}
	return in, in.Validate()
}

type chartRequest struct {
	Birth *birthRequest `json:"birth"`
}

type chartResponse struct {
	Pillars saju.Pillars `json:"pillars"`
}

type luckRequest struct {
	Birth *birthRequest `json:"birth"`
	Count int           `json:"count,omitempty"`
}

type scoreRequest struct {
	Birth *birthRequest `json:"birth,omitempty"`
	// Pillars is a chart label such as "庚午/辛巳/丙子/戊子".
	Pillars string `json:"pillars,omitempty"`
	Target  string `json:"target,omitempty"`
	Transit string `json:"transit,omitempty"`
}

func (s scoreRequest) toService() (service.ScoreRequest, error) {
	var out service.ScoreRequest
	switch {
	case s.Pillars != "" && s.Birth != nil:
		return out, fmt.Errorf("%w: give either birth or pillars", errBadRequest)
	case s.Pillars != "":
		p, err := saju.ParsePillars(s.Pillars)
		if err != nil {
			return out, err
		}
		out.Pillars = &p
	case s.Birth != nil:
		in, err := s.Birth.input()
		if err != nil {
			return out, err
		}
		out.Birth = &in
	default:
		return out, fmt.Errorf("%w: birth or pillars is required", errBadRequest)
	}

	if s.Target != "" {
		el, err := saju.ParseElement(s.Target)
		if err != nil {
			return out, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		out.Target = &el
	}
	if s.Transit != "" {
		p, err := saju.ParsePillar(s.Transit)
		if err != nil {
			return out, err
		}
		if !p.Known() {
			return out, fmt.Errorf("%w: transit %q is not a pillar", errBadRequest, s.Transit)
		}
		out.Transit = &p
	}
	return out, nil
}

type participantRequest struct {
	ID    string        `json:"id,omitempty"`
	Birth *birthRequest `json:"birth"`
}

func (p participantRequest) toService() (service.Participant, error) {
	in, err := p.Birth.input()
	if err != nil {
		return service.Participant{}, err
	}
	return service.Participant{ID: p.ID, Birth: in}, nil
}

type compatibilityRequest struct {
	A participantRequest `json:"a"`
	B participantRequest `json:"b"`
}
