package weather

import (
	"fmt"
	"math"
)

// Unit is the temperature display preference.
type Unit int

const (
	Celsius Unit = iota
	Fahrenheit
)

// Toggle returns the other unit.
func (u Unit) Toggle() Unit {
	if u == Celsius {
		return Fahrenheit
	}
	return Celsius
}

func (u Unit) String() string {
	if u == Fahrenheit {
		return "F"
	}
	return "C"
}

// FormatTemperature renders a Celsius value in the given unit, rounded to a whole degree.
// Halves round up, so 21.5°C shows as 22°C and -0.5°C as 0°C.
func FormatTemperature(celsius float64, u Unit) string {
	if u == Fahrenheit {
		return fmt.Sprintf("%d°F", roundHalfUp(celsius*9/5+32))
	}
	return fmt.Sprintf("%d°C", roundHalfUp(celsius))
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
