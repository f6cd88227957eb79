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

package vxerr

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestNewIs(t *testing.T) {
	err := New(OutOfBounds, "index %d out of range", 7)
	if !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("errors.Is(%v, ErrOutOfBounds) = false, want true", err)
	}
	if errors.Is(err, ErrCorrupt) {
		t.Fatalf("errors.Is(%v, ErrCorrupt) = true, want false", err)
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := io.ErrUnexpectedEOF
	err := Wrap(IoError, cause, "reading segment %d", 3)
	if !errors.Is(err, ErrIoError) {
		t.Fatalf("errors.Is(err, ErrIoError) = false, want true")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("errors.Is(err, io.ErrUnexpectedEOF) = false, want true: wrapped cause must unwrap")
	}
}

func TestWrapNilCause(t *testing.T) {
	err := Wrap(Corrupt, nil, "bad footer")
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("errors.As failed")
	}
	if e.Err != nil {
		t.Fatalf("Wrap(k, nil, ...).Err = %v, want nil", e.Err)
	}
}

func TestKindOf(t *testing.T) {
	err := New(UnknownEncoding, "encoding %d", 99)
	k, ok := KindOf(err)
	if !ok || k != UnknownEncoding {
		t.Fatalf("KindOf = (%v, %v), want (UnknownEncoding, true)", k, ok)
	}

	if _, ok := KindOf(io.EOF); ok {
		t.Fatalf("KindOf(io.EOF) reported ok=true for a non-vxerr error")
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		IoError:            "IoError",
		Corrupt:            "Corrupt",
		UnsupportedVersion: "UnsupportedVersion",
		UnknownEncoding:    "UnknownEncoding",
		TypeMismatch:       "TypeMismatch",
		OutOfBounds:        "OutOfBounds",
		Overflow:           "Overflow",
		NotImplemented:     "NotImplemented",
		Cancelled:          "Cancelled",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(k), got, want)
		}
	}
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := Wrap(IoError, io.ErrClosedPipe, "segment 5")
	msg := err.Error()
	if !errors.Is(err, ErrIoError) {
		t.Fatalf("sanity: expected IoError kind")
	}
	if msg == "" {
		t.Fatalf("Error() returned empty string")
	}
	if !strings.Contains(msg, io.ErrClosedPipe.Error()) {
		t.Fatalf("Error() = %q, want it to include the cause %q", msg, io.ErrClosedPipe.Error())
	}
}
