// Package check provides small precondition helpers shared across krait.
//
// Each helper returns an error instead of panicking so callers can wrap the
// failure with their own context and exit-code mapping.
package check

import (
	"fmt"
	"reflect"
)

// StateError reports a violated runtime-state requirement.
type StateError struct {
	Message string
}

func (e *StateError) Error() string { return e.Message }

// ArgError reports a violated argument requirement.
type ArgError struct {
	Message string
}

func (e *ArgError) Error() string { return e.Message }

// State returns a StateError when cond is false.
func State(cond bool, msg string) error {
	if !cond {
		return &StateError{Message: msg}
	}
	return nil
}

// Statef is State with a formatted message.
func Statef(cond bool, format string, args ...any) error {
	if !cond {
		return &StateError{Message: fmt.Sprintf(format, args...)}
	}
	return nil
}

// Arg returns an ArgError when cond is false.
func Arg(cond bool, msg string) error {
	if !cond {
		return &ArgError{Message: msg}
	}
	return nil
}

// Argf is Arg with a formatted message.
func Argf(cond bool, format string, args ...any) error {
	if !cond {
		return &ArgError{Message: fmt.Sprintf(format, args...)}
	}
	return nil
}

// NotNil returns an ArgError when v is nil, including interface values that
// wrap a nil pointer, map, slice, channel or function.
func NotNil(v any, name string) error {
	if v == nil {
		return &ArgError{Message: name + " must not be nil"}
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		if rv.IsNil() {
			return &ArgError{Message: name + " must not be nil"}
		}
	}
	return nil
}

// NonEmpty returns an ArgError when s is empty.
func NonEmpty(s, name string) error {
	if s == "" {
		return &ArgError{Message: name + " must not be empty"}
	}
	return nil
}

// One returns the single element of s, or an ArgError when s does not contain
// exactly one element.
func One[T any](s []T) (T, error) {
	var zero T
	switch len(s) {
	case 0:
		return zero, &ArgError{Message: "expected one element, got none"}
	case 1:
		return s[0], nil
	default:
		return zero, &ArgError{Message: fmt.Sprintf("expected one element, got %d", len(s))}
	}
}
