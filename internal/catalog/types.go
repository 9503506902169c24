// Package catalog holds the static table of unit categories.
//
// A Catalog is built once from a definition source (a JSON or YAML document,
// or the table embedded in the binary) and is read-only afterwards. All
// schema validation happens while loading, so code holding a *Catalog may
// assume every category in it is well-formed.
package catalog

import (
	"fmt"
	"strings"
)

// Kind selects the conversion algorithm for a category.
type Kind int

const (
	KindLinear Kind = iota
	KindTemperature
)

// String returns the lowercase name used in definition sources.
func (k Kind) String() string {
	switch k {
	case KindLinear:
		return "linear"
	case KindTemperature:
		return "temperature"
	default:
		return "unknown"
	}
}

// MarshalText lets Kind render as its name in JSON responses.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts the same names as the `type` field of a definition.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, ok := parseKind(string(text))
	if !ok {
		return fmt.Errorf("unknown category kind %q", text)
	}
	*k = parsed
	return nil
}

// parseKind maps the `type` field of a definition to a Kind.
// An empty type means linear.
func parseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "linear", "standard":
		return KindLinear, true
	case "temperature":
		return KindTemperature, true
	default:
		return 0, false
	}
}

// Temperature unit symbols. Case-sensitive, no aliases.
const (
	Celsius    = "C"
	Fahrenheit = "F"
	Kelvin     = "K"
)

// TemperatureUnits is the fixed unit set of every temperature category.
var TemperatureUnits = []string{Celsius, Fahrenheit, Kelvin}

// IsTemperatureUnit reports whether s is one of C, F or K.
func IsTemperatureUnit(s string) bool {
	return s == Celsius || s == Fahrenheit || s == Kelvin
}

// Unit is a unit symbol and its factor relative to the category's base unit:
// 1 unit = Factor x base unit.
type Unit struct {
	Symbol string  `json:"symbol"`
	Factor float64 `json:"factor"`
}

// Category is a named group of mutually convertible units.
//
// For temperature categories the factors are meaningless; the engine uses
// fixed formulas and only the symbols matter.
type Category struct {
	Name  string `json:"name"`
	Kind  Kind   `json:"kind"`
	Units []Unit `json:"units"`
}

// Factor returns the factor for symbol.
func (c Category) Factor(symbol string) (float64, bool) {
	for _, u := range c.Units {
		if u.Symbol == symbol {
			return u.Factor, true
		}
	}
	return 0, false
}

// HasUnit reports whether symbol is defined in the category.
func (c Category) HasUnit(symbol string) bool {
	_, ok := c.Factor(symbol)
	return ok
}

// Symbols returns the unit symbols in declaration order.
func (c Category) Symbols() []string {
	out := make([]string, len(c.Units))
	for i, u := range c.Units {
		out[i] = u.Symbol
	}
	return out
}

// clone returns a deep copy so callers can't mutate catalog state.
func (c Category) clone() Category {
	units := make([]Unit, len(c.Units))
	copy(units, c.Units)
	c.Units = units
	return c
}
