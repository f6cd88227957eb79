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

// Package array implements the polymorphic array abstraction of
// spec.md §4.1: an immutable, typed, length-bearing value whose
// physical representation is chosen from a registry of pluggable
// encodings. The registry/dispatch-table shape follows the
// capability-table polymorphism spec.md §9 calls for; the encode/decode
// conventions (ordered buffers, ordered children, opaque metadata) are
// modeled on the teacher's ion.Datum, which plays the analogous role
// for self-describing values in sneller.
package array

import (
	"github.com/vortex-io/vortex/dtype"
	"github.com/vortex-io/vortex/scalar"
	"github.com/vortex-io/vortex/vxbuf"
)

// EncodingID identifies a physical representation by both a stable
// integer (fast registry lookup, equality) and a stable string (human-
// readable, stored on disk for forward compatibility).
type EncodingID struct {
	Int    uint32
	String string
}

// Array is the immutable value described in spec.md §3: a DType, a
// length, named/ordered children, typed buffers, an encoding id,
// opaque metadata, and a sparse statistics set. Arrays are
// value-semantic: copying an Array is O(1) because buffers and
// children are shared, never deep-copied.
type Array struct {
	dt       dtype.Type
	len      int
	enc      EncodingID
	buffers  []vxbuf.Buffer
	children []Array
	metadata []byte
	stats    *StatSet
}

// New constructs an Array. impl must be registered (see Register)
// under enc.Int before any operation is invoked on the array.
func New(dt dtype.Type, length int, enc EncodingID, buffers []vxbuf.Buffer, children []Array, metadata []byte) Array {
	return Array{
		dt:       dt,
		len:      length,
		enc:      enc,
		buffers:  buffers,
		children: children,
		metadata: metadata,
	}
}

// DType returns the logical type of the array.
func (a Array) DType() dtype.Type { return a.dt }

// Len returns the row count of the array.
func (a Array) Len() int { return a.len }

// Encoding returns the array's encoding identifier.
func (a Array) Encoding() EncodingID { return a.enc }

// Buffers returns the array's ordered, encoding-specific buffers.
func (a Array) Buffers() []vxbuf.Buffer { return a.buffers }

// Buffer returns the i-th buffer, or an empty Buffer if out of range.
func (a Array) Buffer(i int) vxbuf.Buffer {
	if i < 0 || i >= len(a.buffers) {
		return vxbuf.Empty()
	}
	return a.buffers[i]
}

// Children returns the array's ordered, encoding-specific children.
func (a Array) Children() []Array { return a.children }

// Child returns the i-th child array, or the zero Array if out of range.
func (a Array) Child(i int) Array {
	if i < 0 || i >= len(a.children) {
		return Array{}
	}
	return a.children[i]
}

// Metadata returns the array's opaque encoding-specific metadata bytes.
func (a Array) Metadata() []byte { return a.metadata }

// WithStats returns a copy of a with its statistics set replaced.
func (a Array) WithStats(s *StatSet) Array {
	a.stats = s
	return a
}

// StatsSet returns the array's currently-known statistics, which may
// be empty (nil StatSet is treated as empty by all its methods).
func (a Array) StatsSet() *StatSet { return a.stats }

// impl looks up the registered Encoding implementation for a,
// failing with UnknownEncoding if none is registered.
func (a Array) impl() (Encoding, error) {
	return Lookup(a.enc.Int)
}

// Scalar is re-exported for convenience so callers operating purely
// within the array package do not need a second import.
type Scalar = scalar.Scalar
