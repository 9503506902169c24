package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for classifying conversion failures with errors.Is.
// A *ConversionError matches the sentinel of its Kind.
var (
	ErrUnknownUnit     = errors.New("unknown unit")
	ErrInvalidFactor   = errors.New("invalid conversion factor")
	ErrDivisionByZero  = errors.New("division by zero")
	ErrOverflow        = errors.New("arithmetic overflow")
	ErrInvalidValue    = errors.New("invalid value")
	ErrUnknownCategory = errors.New("unknown category")
)

// ConversionErrorKind identifies which precondition a conversion failed.
type ConversionErrorKind string

const (
	KindUnknownUnit     ConversionErrorKind = "unknown_unit"
	KindInvalidFactor   ConversionErrorKind = "invalid_factor"
	KindDivisionByZero  ConversionErrorKind = "division_by_zero"
	KindOverflow        ConversionErrorKind = "overflow"
	KindInvalidValue    ConversionErrorKind = "invalid_value"
	KindUnknownCategory ConversionErrorKind = "unknown_category"
)

var kindSentinels = map[ConversionErrorKind]error{
	KindUnknownUnit:     ErrUnknownUnit,
	KindInvalidFactor:   ErrInvalidFactor,
	KindDivisionByZero:  ErrDivisionByZero,
	KindOverflow:        ErrOverflow,
	KindInvalidValue:    ErrInvalidValue,
	KindUnknownCategory: ErrUnknownCategory,
}

// ConversionError is returned for any request the engine cannot serve.
// Unit holds the offending unit symbol exactly as the caller sent it;
// escaping for display is the caller's job.
type ConversionError struct {
	Kind     ConversionErrorKind
	Unit     string
	Category string
	Value    float64
}

func (e *ConversionError) Error() string {
	switch e.Kind {
	case KindUnknownUnit:
		if e.Category != "" {
			return fmt.Sprintf("unknown unit %q in category %q", e.Unit, e.Category)
		}
		return fmt.Sprintf("unknown unit %q", e.Unit)
	case KindInvalidFactor:
		return fmt.Sprintf("invalid conversion factor for unit %q", e.Unit)
	case KindDivisionByZero:
		return fmt.Sprintf("division by zero: unit %q has factor 0", e.Unit)
	case KindOverflow:
		return fmt.Sprintf("arithmetic overflow converting %g", e.Value)
	case KindInvalidValue:
		return fmt.Sprintf("invalid value %g: must be a finite number", e.Value)
	case KindUnknownCategory:
		return fmt.Sprintf("unknown category %q", e.Category)
	default:
		return "conversion failed"
	}
}

// Is matches the sentinel for the error's kind.
func (e *ConversionError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

func unknownUnit(unit string) *ConversionError {
	return &ConversionError{Kind: KindUnknownUnit, Unit: unit}
}

func invalidFactor(unit string) *ConversionError {
	return &ConversionError{Kind: KindInvalidFactor, Unit: unit}
}

func divisionByZero(unit string) *ConversionError {
	return &ConversionError{Kind: KindDivisionByZero, Unit: unit}
}

func overflow(value float64) *ConversionError {
	return &ConversionError{Kind: KindOverflow, Value: value}
}

func invalidValue(value float64) *ConversionError {
	return &ConversionError{Kind: KindInvalidValue, Value: value}
}
