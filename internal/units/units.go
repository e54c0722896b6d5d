// Package units converts between the canonical stored weight (pounds) and
// the user's display unit.
package units

import (
	"fmt"
	"math"
	"strconv"
)

// LbsPerKg is the conversion factor between pounds and kilograms.
const LbsPerKg = 2.20462

// Unit is a weight display unit.
type Unit string

const (
	Lbs Unit = "lbs"
	Kg  Unit = "kg"
)

// Default is the display unit when none has been chosen.
const Default = Lbs

// ParseUnit validates a unit string. An empty string yields Default.
func ParseUnit(s string) (Unit, error) {
	switch Unit(s) {
	case "":
		return Default, nil
	case Lbs, Kg:
		return Unit(s), nil
	default:
		return "", fmt.Errorf("unknown weight unit %q (want %q or %q)", s, Lbs, Kg)
	}
}

// ToDisplay converts canonical pounds into u, rounded to 0.1.
func ToDisplay(lbs float64, u Unit) float64 {
	if u == Kg {
		return round1(lbs / LbsPerKg)
	}
	return lbs
}

// FromDisplay converts a value entered in u into canonical pounds, rounded to 0.1.
func FromDisplay(v float64, u Unit) float64 {
	if u == Kg {
		return round1(v * LbsPerKg)
	}
	return v
}

// Format renders a canonical weight in u, e.g. "11.3 kg" or "25 lbs".
func Format(lbs float64, u Unit) string {
	return strconv.FormatFloat(ToDisplay(lbs, u), 'f', -1, 64) + " " + string(u)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
