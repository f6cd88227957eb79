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

package array

import (
	"github.com/vortex-io/vortex/scalar"
)

// Encoding is the fixed capability set every physical representation
// must implement, per spec.md §4.1. Every method takes the Array it
// is operating over as its first argument so that a single Encoding
// value (stateless) can be shared by every Array using that encoding
// — mirroring the "dispatch table of operation function pointers"
// description in spec.md §9.
//
// Any method may return a NotImplemented error; the array package's
// fallback machinery (recoverNotImplemented in ops.go) recovers by canonicalizing and
// retrying once on the plain encoding, per spec.md §7.
type Encoding interface {
	// Canonicalize produces the plain (Arrow-equivalent) representation
	// of a. Must be total: it may never return NotImplemented.
	Canonicalize(a Array) (Array, error)

	// ScalarAt returns the i-th value as a Scalar. Fails with
	// OutOfBounds if i is out of [0, a.Len()).
	ScalarAt(a Array, i int) (scalar.Scalar, error)

	// Slice returns the half-open row range [start:end), sharing
	// storage where possible; must be O(1) amortized.
	Slice(a Array, start, end int) (Array, error)

	// Take gathers rows by index; duplicates and arbitrary order are
	// allowed. Fails with OutOfBounds for any out-of-range index.
	Take(a Array, indices []int32) (Array, error)

	// Filter returns the sub-array where mask is true. len(mask) must
	// equal a.Len().
	Filter(a Array, mask []bool) (Array, error)

	// Compare performs an elementwise comparison against rhs (another
	// Array of equal length, or a scalar broadcast), returning a Bool
	// array. May fail with TypeMismatch or NotImplemented.
	Compare(a Array, rhs Rhs, op scalar.Op) (Array, error)

	// IsValid reports whether row i is non-null.
	IsValid(a Array, i int) (bool, error)

	// Validity returns the full null mask (true = valid/non-null).
	Validity(a Array) ([]bool, error)

	// Stats reports known statistics for a, computing and caching
	// lazily as needed.
	Stats(a Array) (*StatSet, error)
}

// Rhs is either another Array or a broadcast Scalar, used as the
// right-hand operand of Compare.
type Rhs struct {
	Array  *Array
	Scalar *scalar.Scalar
}

// ArrayRhs wraps an Array as a Compare operand.
func ArrayRhs(a Array) Rhs { return Rhs{Array: &a} }

// ScalarRhs wraps a Scalar as a Compare operand.
func ScalarRhs(s scalar.Scalar) Rhs { return Rhs{Scalar: &s} }
