package core

// convert.go is the conversion engine: linear factor scaling through an
// implicit base unit, and temperature conversion pivoting through Celsius.
//
// Both functions are pure. They never panic on request input; every
// rejected request comes back as a *ConversionError naming the unit or value
// that caused it. No rounding happens here; precision is a display concern.

import (
	"fmt"
	"math"

	"github.com/JonMunkholm/unitconv/internal/catalog"
)

// Convert dispatches on the category kind.
func Convert(cat catalog.Category, value float64, from, to string) (float64, error) {
	var (
		result float64
		err    error
	)

	switch cat.Kind {
	case catalog.KindLinear:
		result, err = ConvertLinear(value, from, to, cat)
	case catalog.KindTemperature:
		result, err = ConvertTemperature(value, from, to)
	default:
		return 0, fmt.Errorf("category %q: unsupported kind %v", cat.Name, cat.Kind)
	}

	if ce, ok := err.(*ConversionError); ok && ce.Category == "" {
		ce.Category = cat.Name
	}
	return result, err
}

// ConvertLinear converts value between two units of a linear category:
// value * factor(from) / factor(to).
//
// Checks run in order: both units defined (UnknownUnit), identity
// short-circuit, both factors finite (InvalidFactor), target factor
// non-zero (DivisionByZero), then the arithmetic itself (InvalidValue for a
// non-finite input, Overflow for a non-finite result).
func ConvertLinear(value float64, from, to string, cat catalog.Category) (float64, error) {
	fromFactor, ok := cat.Factor(from)
	if !ok {
		e := unknownUnit(from)
		e.Category = cat.Name
		return 0, e
	}
	toFactor, ok := cat.Factor(to)
	if !ok {
		e := unknownUnit(to)
		e.Category = cat.Name
		return 0, e
	}

	// Same unit: no division happens, so degenerate factors don't matter.
	if from == to {
		return value, nil
	}

	if !isFinite(fromFactor) {
		return 0, invalidFactor(from)
	}
	if !isFinite(toFactor) {
		return 0, invalidFactor(to)
	}
	if toFactor == 0 {
		return 0, divisionByZero(to)
	}
	if !isFinite(value) {
		return 0, invalidValue(value)
	}

	base := value * fromFactor
	if !isFinite(base) {
		return 0, overflow(value)
	}
	result := base / toFactor
	if !isFinite(result) {
		return 0, overflow(value)
	}
	return result, nil
}

// ConvertTemperature converts between C, F and K. Unit symbols are
// case-sensitive. Values below absolute zero are accepted.
func ConvertTemperature(value float64, from, to string) (float64, error) {
	if !catalog.IsTemperatureUnit(from) {
		return 0, unknownUnit(from)
	}
	if !catalog.IsTemperatureUnit(to) {
		return 0, unknownUnit(to)
	}

	if from == to {
		return value, nil
	}
	if !isFinite(value) {
		return 0, invalidValue(value)
	}

	var celsius float64
	switch from {
	case catalog.Fahrenheit:
		celsius = (value - 32) * 5 / 9
	case catalog.Kelvin:
		celsius = value - 273.15
	default:
		celsius = value
	}

	var result float64
	switch to {
	case catalog.Fahrenheit:
		result = (celsius * 9 / 5) + 32
	case catalog.Kelvin:
		result = celsius + 273.15
	default:
		result = celsius
	}

	if !isFinite(celsius) || !isFinite(result) {
		return 0, overflow(value)
	}
	return result, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
