package saju

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Gender discriminates luck-cycle direction.
type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// CalendarType names the calendar the birth date is expressed in.
type CalendarType string

const (
	Solar CalendarType = "solar"
	Lunar CalendarType = "lunar"
)

// UnknownHour marks a birth time that was not recorded.
const UnknownHour = -1

var ErrInvalidBirth = errors.New("saju: invalid birth input")

// BirthInput is everything the chart collaborator needs to derive a chart.
type BirthInput struct {
	// Date is the civil birth date; only year, month and day are used.
	Date     time.Time    `json:"date"`
	Hour     int          `json:"hour"`
	Minute   int          `json:"minute"`
	Gender   Gender       `json:"gender"`
	Calendar CalendarType `json:"calendar"`
	// Timezone is an IANA name. Empty means the wall clock is taken as given.
	Timezone string `json:"timezone,omitempty"`
}

// HourKnown reports whether a birth hour was supplied.
func (b BirthInput) HourKnown() bool { return b.Hour != UnknownHour }

// Validate checks ranges and enums.
func (b BirthInput) Validate() error {
	if b.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidBirth)
	}
	if b.HourKnown() && (b.Hour < 0 || b.Hour > 23) {
		return fmt.Errorf("%w: hour %d out of range", ErrInvalidBirth, b.Hour)
	}
	if b.Minute < 0 || b.Minute > 59 {
		return fmt.Errorf("%w: minute %d out of range", ErrInvalidBirth, b.Minute)
	}
	switch b.Gender {
	case Male, Female:
	default:
		return fmt.Errorf("%w: unknown gender %q", ErrInvalidBirth, b.Gender)
	}
	switch b.Calendar {
	case Solar, Lunar:
	default:
		return fmt.Errorf("%w: unknown calendar %q", ErrInvalidBirth, b.Calendar)
	}
	if b.Timezone != "" {
		if _, err := time.LoadLocation(b.Timezone); err != nil {
			return fmt.Errorf("%w: timezone %q: %v", ErrInvalidBirth, b.Timezone, err)
		}
	}
	return nil
}

// ParseGender normalises user input.
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return Male, nil
	case "female", "f":
		return Female, nil
	}
	return "", fmt.Errorf("%w: unknown gender %q", ErrInvalidBirth, s)
}

// ParseCalendar normalises user input; empty defaults to Solar.
func ParseCalendar(s string) (CalendarType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "solar":
		return Solar, nil
	case "lunar":
		return Lunar, nil
	}
	return "", fmt.Errorf("%w: unknown calendar %q", ErrInvalidBirth, s)
}
