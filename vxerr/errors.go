// Copyright (C) 2024 Vortex Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package vxerr defines the closed error taxonomy shared by every
// core package: array operations, layout decoding, and the scan driver
// all fail using one of these kinds so that callers can type-switch
// on them instead of matching error strings.
package vxerr

import (
	"errors"
	"fmt"
)

// Kind is one of the closed set of error categories the core reports.
type Kind int

const (
	_ Kind = iota
	// IoError wraps a segment source failure.
	IoError
	// Corrupt indicates footer, DType, layout, or array bytes failed
	// structural validation.
	Corrupt
	// UnsupportedVersion indicates a footer version this reader does
	// not understand.
	UnsupportedVersion
	// UnknownEncoding indicates an encoding id absent from the registry.
	UnknownEncoding
	// TypeMismatch indicates an ill-typed expression/array/scalar
	// combination.
	TypeMismatch
	// OutOfBounds indicates an index, slice, or mask violated a length
	// invariant.
	OutOfBounds
	// Overflow indicates numeric overflow during stats or arithmetic.
	Overflow
	// NotImplemented indicates an encoding does not override an
	// operation; the caller should canonicalize and retry once.
	NotImplemented
	// Cancelled indicates the scan was cancelled externally.
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case IoError:
		return "IoError"
	case Corrupt:
		return "Corrupt"
	case UnsupportedVersion:
		return "UnsupportedVersion"
	case UnknownEncoding:
		return "UnknownEncoding"
	case TypeMismatch:
		return "TypeMismatch"
	case OutOfBounds:
		return "OutOfBounds"
	case Overflow:
		return "Overflow"
	case NotImplemented:
		return "NotImplemented"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Error is a Kind-tagged error with an optional wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, vxerr.ErrIoError) and the other sentinels work:
// it matches any *Error target by Kind alone, ignoring its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs an *Error of the given kind.
func New(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

// Wrap constructs an *Error of the given kind wrapping a cause.
func Wrap(k Kind, err error, format string, args ...any) *Error {
	if err == nil {
		return New(k, format, args...)
	}
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...), Err: err}
}

// sentinel values usable with errors.Is(err, vxerr.ErrOutOfBounds) etc.
var (
	ErrIoError            = &Error{Kind: IoError, Msg: "sentinel"}
	ErrCorrupt            = &Error{Kind: Corrupt, Msg: "sentinel"}
	ErrUnsupportedVersion = &Error{Kind: UnsupportedVersion, Msg: "sentinel"}
	ErrUnknownEncoding    = &Error{Kind: UnknownEncoding, Msg: "sentinel"}
	ErrTypeMismatch       = &Error{Kind: TypeMismatch, Msg: "sentinel"}
	ErrOutOfBounds        = &Error{Kind: OutOfBounds, Msg: "sentinel"}
	ErrOverflow           = &Error{Kind: Overflow, Msg: "sentinel"}
	ErrNotImplemented     = &Error{Kind: NotImplemented, Msg: "sentinel"}
	ErrCancelled          = &Error{Kind: Cancelled, Msg: "sentinel"}
)

// KindOf reports the Kind of err, if err (or something it wraps) is an
// *Error, and false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
