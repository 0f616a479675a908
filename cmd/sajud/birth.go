package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"saju-engine/internal/config"
	"saju-engine/internal/saju"
)

// birthFlags collects a BirthInput from the command line.
type birthFlags struct {
	date     string
	hour     int
	minute   int
	gender   string
	calendar string
	timezone string
}

func (b *birthFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&b.date, "date", "", "birth date, YYYY-MM-DD")
	f.IntVar(&b.hour, "hour", saju.UnknownHour, "birth hour 0-23, -1 when unknown")
	f.IntVar(&b.minute, "minute", 0, "birth minute")
	f.StringVar(&b.gender, "gender", "", "male or female")
	f.StringVar(&b.calendar, "calendar", string(saju.Solar), "solar or lunar")
	f.StringVar(&b.timezone, "tz", "", "IANA timezone of the birth place")
}

func (b *birthFlags) input() (saju.BirthInput, error) {
	date, err := time.Parse("2006-01-02", b.date)
	if err != nil {
		return saju.BirthInput{}, fmt.Errorf("--date %q: want YYYY-MM-DD", b.date)
	}
	gender, err := saju.ParseGender(b.gender)
	if err != nil {
		return saju.BirthInput{}, err
	}
	cal, err := saju.ParseCalendar(b.calendar)
	if err != nil {
		return saju.BirthInput{}, err
	}
	in := saju.BirthInput{
		Date:     date,
		Hour:     b.hour,
		Minute:   b.minute,
		Gender:   gender,
		Calendar: cal,
		Timezone: b.timezone,
	}
	return in, in.Validate()
}

// oneShot builds a quiet app from the config, runs fn and tears it down.
func oneShot(ctx context.Context, configPath string, fn func(context.Context, *app) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, zap.NewNop())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	return fn(ctx, a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
