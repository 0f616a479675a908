package scoring

import (
	"errors"
	"fmt"
	"math"
)

// StrengthThresholds map a strength total to a Level. Each is the inclusive
// lower bound of its level and they must be strictly descending.
type StrengthThresholds struct {
	VeryStrong     float64 `yaml:"very_strong" json:"very_strong" validate:"gte=0,lte=100"`
	Strong         float64 `yaml:"strong" json:"strong" validate:"gte=0,lte=100"`
	ModerateStrong float64 `yaml:"moderate_strong" json:"moderate_strong" validate:"gte=0,lte=100"`
	ModerateWeak   float64 `yaml:"moderate_weak" json:"moderate_weak" validate:"gte=0,lte=100"`
	Weak           float64 `yaml:"weak" json:"weak" validate:"gte=0,lte=100"`
}

// GradeBands are inclusive lower bounds for S..D; anything lower is F.
type GradeBands struct {
	S int `yaml:"s" json:"s" validate:"gte=0,lte=100"`
	A int `yaml:"a" json:"a" validate:"gte=0,lte=100"`
	B int `yaml:"b" json:"b" validate:"gte=0,lte=100"`
	C int `yaml:"c" json:"c" validate:"gte=0,lte=100"`
	D int `yaml:"d" json:"d" validate:"gte=0,lte=100"`
}

// Weights combine the four sub-scores of a comprehensive score. They are
// normalised by their sum, so only the proportions matter.
type Weights struct {
	Balance  float64 `yaml:"balance" json:"balance" validate:"gte=0"`
	Strength float64 `yaml:"strength" json:"strength" validate:"gte=0"`
	Pattern  float64 `yaml:"pattern" json:"pattern" validate:"gte=0"`
	Affinity float64 `yaml:"affinity" json:"affinity" validate:"gte=0"`
}

func (w Weights) sum() float64 { return w.Balance + w.Strength + w.Pattern + w.Affinity }

// Params are the tunable constants of the engine.
type Params struct {
	Strength StrengthThresholds `yaml:"strength" json:"strength"`
	Grades   GradeBands         `yaml:"grades" json:"grades"`
	Weights  Weights            `yaml:"weights" json:"weights"`
}

// DefaultParams returns the thresholds the product has always used.
func DefaultParams() Params {
	return Params{
		Strength: StrengthThresholds{
			VeryStrong:     85,
			Strong:         70,
			ModerateStrong: 55,
			ModerateWeak:   40,
			Weak:           25,
		},
		Grades: GradeBands{S: 90, A: 80, B: 70, C: 60, D: 50},
		Weights: Weights{
			Balance:  0.25,
			Strength: 0.25,
			Pattern:  0.25,
			Affinity: 0.25,
		},
	}
}

var ErrInvalidParams = errors.New("scoring: invalid params")

// Validate checks the cross-field ordering that struct tags cannot express.
func (p Params) Validate() error {
	s := p.Strength
	if !(s.VeryStrong > s.Strong && s.Strong > s.ModerateStrong &&
		s.ModerateStrong > s.ModerateWeak && s.ModerateWeak > s.Weak) {
		return fmt.Errorf("%w: strength thresholds must be strictly descending", ErrInvalidParams)
	}
	g := p.Grades
	if !(g.S > g.A && g.A > g.B && g.B > g.C && g.C > g.D) {
		return fmt.Errorf("%w: grade bands must be strictly descending", ErrInvalidParams)
	}
	if sum := p.Weights.sum(); sum <= 0 || math.IsInf(sum, 0) || math.IsNaN(sum) {
		return fmt.Errorf("%w: sub-score weights must have a positive sum", ErrInvalidParams)
	}
	return nil
}
