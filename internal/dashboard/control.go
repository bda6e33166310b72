package dashboard

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidControl is returned when a control value is outside its range or step.
var ErrInvalidControl = errors.New("invalid control value")

// Control describes the numeric "degree range" input that drives the grid size.
type Control struct {
	Label   string  `json:"label"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Step    float64 `json:"step"`
	Default float64 `json:"default"`
}

// GridSizeControl is the single user control of the dashboard.
var GridSizeControl = Control{
	Label:   "Degree range",
	Min:     1.0,
	Max:     20.0,
	Step:    0.5,
	Default: 5.0,
}

// Validate checks that v lies in [Min, Max] on a Step boundary.
func (c Control) Validate(v float64) error {
	if math.IsNaN(v) || v < c.Min || v > c.Max {
		return fmt.Errorf("%w: %s must be between %g and %g, got %g", ErrInvalidControl, c.Label, c.Min, c.Max, v)
	}
	steps := (v - c.Min) / c.Step
	if math.Abs(steps-math.Round(steps)) > 1e-9 {
		return fmt.Errorf("%w: %s must be a multiple of %g from %g, got %g", ErrInvalidControl, c.Label, c.Step, c.Min, v)
	}
	return nil
}
