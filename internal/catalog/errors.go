package catalog

import (
	"errors"
	"fmt"
)

// Sentinel errors for classifying load failures with errors.Is.
var (
	ErrNotFound  = errors.New("catalog source not found")
	ErrMalformed = errors.New("catalog source malformed")
)

// LoadErrorKind is the coarse reason a catalog failed to load.
type LoadErrorKind string

const (
	LoadNotFound  LoadErrorKind = "not_found"
	LoadMalformed LoadErrorKind = "malformed"
)

// LoadError reports why a definition source could not become a Catalog.
type LoadError struct {
	Kind   LoadErrorKind
	Source string // file path or source name
	Detail string // what was wrong, e.g. `Length.units.km: factor is not finite`
	Err    error
}

func (e *LoadError) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := fmt.Sprintf("catalog %s", e.Kind)
	if e.Source != "" {
		base += fmt.Sprintf(" (source=%s)", e.Source)
	}
	if e.Detail != "" {
		base += ": " + e.Detail
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *LoadError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches the NotFound/Malformed sentinels by kind.
func (e *LoadError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == LoadNotFound
	case ErrMalformed:
		return e.Kind == LoadMalformed
	}
	return false
}

func notFound(source string, err error) *LoadError {
	return &LoadError{Kind: LoadNotFound, Source: source, Err: err}
}

func malformed(source, format string, args ...any) *LoadError {
	return &LoadError{Kind: LoadMalformed, Source: source, Detail: fmt.Sprintf(format, args...)}
}
