// Package errs defines the coded errors shared by the generation pipeline.
package errs

import (
	"errors"
	"fmt"
)

// Code categorizes pipeline failures so callers can decide whether a run
// must stop or can report partial success.
type Code string

const (
	// ConfigError means the effective configuration could not be resolved.
	ConfigError Code = "ConfigError"
	// DocumentUnavailable means neither the local cache nor the remote
	// source produced a usable description document.
	DocumentUnavailable Code = "DocumentUnavailable"
	// FetchError is a network or auth failure while retrieving a document.
	FetchError Code = "FetchError"
	// SelectorNotFound means a selector matched no operation or schema.
	SelectorNotFound Code = "SelectorNotFound"
	// WriteFailure means an emitted unit or index could not be written.
	WriteFailure Code = "WriteFailure"
	// BackendError means the codegen backend rejected a target.
	BackendError Code = "BackendError"
)

// Fatal reports whether errors with this code abort the invocation.
func (c Code) Fatal() bool {
	return c == ConfigError || c == DocumentUnavailable
}

// Error is a coded error with an optional location (file path, URL or
// selector text).
type Error struct {
	Code     Code
	Message  string
	Location string
	Cause    error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Location != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Location)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns a coded error without a cause.
func New(code Code, location, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Location: location}
}

// Wrap returns a coded error wrapping cause.
func Wrap(code Code, location string, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Location: location, Cause: cause}
}

// CodeOf returns the code of the outermost coded error in err's chain, or
// the empty code.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is reports whether any coded error in err's chain carries code.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}
