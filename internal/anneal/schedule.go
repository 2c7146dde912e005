package anneal

import (
	"fmt"
	"math"

	"seqforge/internal/model"
)

// Schedule is the Robbins-Monro cooling schedule T(step) = a/(b+step)^gamma.
// Gamma must sit in (0.5, 1]: above the theoretical minimum for asymptotic
// convergence, low enough to keep early exploration hot.
type Schedule struct {
	A     float64
	B     float64
	Gamma float64
}

func NewSchedule(a, b, gamma float64) (Schedule, error) {
	if a <= 0 || math.IsNaN(a) || math.IsInf(a, 0) {
		return Schedule{}, fmt.Errorf("%w: schedule a must be a positive finite value, got %f", model.ErrInvalidConfiguration, a)
	}
	if b <= 0 || math.IsNaN(b) || math.IsInf(b, 0) {
		return Schedule{}, fmt.Errorf("%w: schedule b must be a positive finite value, got %f", model.ErrInvalidConfiguration, b)
	}
	if !(gamma > 0.5 && gamma <= 1) {
		return Schedule{}, fmt.Errorf("%w: gamma %f outside (0.5, 1]", model.ErrInvalidConfiguration, gamma)
	}
	return Schedule{A: a, B: b, Gamma: gamma}, nil
}

func (s Schedule) Temperature(step int) float64 {
	return s.A / math.Pow(s.B+float64(step), s.Gamma)
}
