/* Apache v2 license
 * Copyright (C) 2019 Intel Corporation
 *
 * SPDX-License-Identifier: Apache-2.0
 */

// Package dlerror defines the single error type returned by the Digital Link
// packages. Every failure carries a Kind (whose String is the error's title),
// the public call it surfaced through, a message, and optionally the error
// that caused it.
package dlerror

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a failure.
type Kind int

const (
	Unclassified = Kind(iota)
	SyntaxError
	InvalidApplicationIdentifier
	InvalidCheckDigit
	InvalidQualifierSequence
	InvalidDigitalLink
	InvalidQueryStringKeyValuePair
	InvalidQueryStringContent
	InvalidFragmentSpecifier
	UnsupportedBinaryCode
)

func (k Kind) String() string {
	switch k {
	case SyntaxError:
		return "Syntax error"
	case InvalidApplicationIdentifier:
		return "Invalid Application Identifier"
	case InvalidCheckDigit:
		return "Invalid check digit"
	case InvalidQualifierSequence:
		return "Invalid qualifier sequence"
	case InvalidDigitalLink:
		return "Invalid GS1 Digital Link"
	case InvalidQueryStringKeyValuePair:
		return "Invalid query string key=value pair"
	case InvalidQueryStringContent:
		return "Invalid query string content"
	case InvalidFragmentSpecifier:
		return "Invalid fragment specifier"
	case UnsupportedBinaryCode:
		return "Unsupported binary code"
	}
	return "Unclassified error"
}

// Error is a classified Digital Link failure.
type Error struct {
	Kind Kind
	// Location is the public API call that reported the error. Lower layers
	// leave it empty; see At.
	Location string
	Message  string
	cause    error
}

// New returns an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error of the given kind caused by err.
func Wrap(err error, kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: err}
}

func (e *Error) Error() string {
	msg := e.Kind.String() + ": " + e.Message
	if e.Location != "" {
		msg += " (in " + e.Location + ")"
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// Cause returns the underlying error, if any, for errors.Cause.
func (e *Error) Cause() error {
	return e.cause
}

func (e *Error) Unwrap() error {
	return e.cause
}

// KindOf returns the Kind of the first *Error in err's chain, or Unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unclassified
}

// Is reports whether err's chain holds an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// At stamps the API location onto err. Errors that aren't already classified
// are wrapped as Unclassified so callers always see an *Error.
func At(err error, location string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Location == "" {
			e.Location = location
		}
		return err
	}
	return &Error{Kind: Unclassified, Location: location,
		Message: "unexpected failure", cause: err}
}
