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
	"errors"

	"github.com/vortex-io/vortex/scalar"
	"github.com/vortex-io/vortex/vxerr"
)

// Canonicalize produces the plain representation of a. Canonicalize
// must be total for every conforming encoding (spec.md §4.1), so this
// entry point does not itself retry on NotImplemented.
func (a Array) Canonicalize() (Array, error) {
	impl, err := a.impl()
	if err != nil {
		return Array{}, err
	}
	return impl.Canonicalize(a)
}

// recoverNotImplemented is the propagation policy of spec.md §7: a
// NotImplemented failure is recovered locally by canonicalizing and
// retrying the operation once on the plain encoding; a second
// NotImplemented is surfaced to the caller. op is handed the Encoding
// to dispatch through together with the Array to dispatch it against,
// so the retry re-resolves the canonical array's own encoding instead
// of re-invoking the original (unsupported) one.
func recoverNotImplemented[T any](a Array, op func(Encoding, Array) (T, error)) (T, error) {
	impl, err := a.impl()
	if err != nil {
		var zero T
		return zero, err
	}
	v, err := op(impl, a)
	if err == nil || !isNotImplemented(err) {
		return v, err
	}
	plain, cerr := a.Canonicalize()
	if cerr != nil {
		var zero T
		return zero, cerr
	}
	plainImpl, ierr := plain.impl()
	if ierr != nil {
		var zero T
		return zero, ierr
	}
	v, err = op(plainImpl, plain)
	if err != nil && isNotImplemented(err) {
		var zero T
		return zero, vxerr.Wrap(vxerr.NotImplemented, err, "array: operation unsupported even on canonical form")
	}
	return v, err
}

func isNotImplemented(err error) bool {
	return errors.Is(err, vxerr.ErrNotImplemented)
}

// ScalarAt returns the i-th value as a Scalar.
func (a Array) ScalarAt(i int) (scalar.Scalar, error) {
	if i < 0 || i >= a.len {
		return scalar.Scalar{}, vxerr.New(vxerr.OutOfBounds, "array: ScalarAt(%d) out of range for len %d", i, a.len)
	}
	return recoverNotImplemented(a, func(impl Encoding, x Array) (scalar.Scalar, error) {
		return impl.ScalarAt(x, i)
	})
}

// Slice returns the half-open row range [start:end).
func (a Array) Slice(start, end int) (Array, error) {
	if start < 0 || end < start || end > a.len {
		return Array{}, vxerr.New(vxerr.OutOfBounds, "array: Slice(%d,%d) out of range for len %d", start, end, a.len)
	}
	return recoverNotImplemented(a, func(impl Encoding, x Array) (Array, error) {
		return impl.Slice(x, start, end)
	})
}

// Take gathers rows by index.
func (a Array) Take(indices []int32) (Array, error) {
	for _, idx := range indices {
		if idx < 0 || int(idx) >= a.len {
			return Array{}, vxerr.New(vxerr.OutOfBounds, "array: Take index %d out of range for len %d", idx, a.len)
		}
	}
	return recoverNotImplemented(a, func(impl Encoding, x Array) (Array, error) {
		return impl.Take(x, indices)
	})
}

// Filter returns the sub-array where mask is true.
func (a Array) Filter(mask []bool) (Array, error) {
	if len(mask) != a.len {
		return Array{}, vxerr.New(vxerr.OutOfBounds, "array: Filter mask length %d does not match array length %d", len(mask), a.len)
	}
	return recoverNotImplemented(a, func(impl Encoding, x Array) (Array, error) {
		return impl.Filter(x, mask)
	})
}

// Compare performs an elementwise comparison against rhs.
func (a Array) Compare(rhs Rhs, op scalar.Op) (Array, error) {
	return recoverNotImplemented(a, func(impl Encoding, x Array) (Array, error) {
		return impl.Compare(x, rhs, op)
	})
}

// IsValid reports whether row i is non-null.
func (a Array) IsValid(i int) (bool, error) {
	if i < 0 || i >= a.len {
		return false, vxerr.New(vxerr.OutOfBounds, "array: IsValid(%d) out of range for len %d", i, a.len)
	}
	return recoverNotImplemented(a, func(impl Encoding, x Array) (bool, error) {
		return impl.IsValid(x, i)
	})
}

// Validity returns the full null mask (true = valid/non-null).
func (a Array) Validity() ([]bool, error) {
	return recoverNotImplemented(a, func(impl Encoding, x Array) ([]bool, error) {
		return impl.Validity(x)
	})
}

// Stats reports known statistics for a, preferring any already cached
// on the Array value itself over recomputation.
func (a Array) Stats() (*StatSet, error) {
	if a.stats != nil {
		return a.stats, nil
	}
	return recoverNotImplemented(a, func(impl Encoding, x Array) (*StatSet, error) {
		return impl.Stats(x)
	})
}
