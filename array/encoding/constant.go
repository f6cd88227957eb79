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

package encoding

import (
	"github.com/vortex-io/vortex/array"
	"github.com/vortex-io/vortex/dtype"
	"github.com/vortex-io/vortex/scalar"
	"github.com/vortex-io/vortex/vxerr"
)

// Constant is a pluggable, non-canonical encoding representing n
// repetitions of a single value in O(1) memory: children[0] holds a
// single-row array carrying that value. It demonstrates the registry's
// "adding an encoding is adding a table entry" story from spec.md §9 —
// every operation below overrides the Canonicalize-based default for
// performance, except Compare against an array rhs, which returns
// NotImplemented and so goes through the canonicalize-and-retry fallback.
var Constant = EncodingID(16, "vortex.constant")

func init() {
	array.Register(Constant.Int, constantImpl{})
}

// NewConstantArray repeats value n times. value must be a length-1
// canonical array (e.g. built with NewPrimitiveArray etc. and sliced
// to one row).
func NewConstantArray(value array.Array, n int) array.Array {
	return array.New(value.DType(), n, Constant, nil, []array.Array{value}, nil)
}

type constantImpl struct{}

func (constantImpl) Canonicalize(a array.Array) (array.Array, error) {
	single := a.Child(0)
	indices := make([]int32, a.Len())
	return single.Take(indices)
}

func (constantImpl) ScalarAt(a array.Array, i int) (scalar.Scalar, error) {
	if i < 0 || i >= a.Len() {
		return scalar.Scalar{}, vxerr.New(vxerr.OutOfBounds, "constant: index %d out of range", i)
	}
	return a.Child(0).ScalarAt(0)
}

func (constantImpl) Slice(a array.Array, start, end int) (array.Array, error) {
	return NewConstantArray(a.Child(0), end-start), nil
}

func (constantImpl) Take(a array.Array, indices []int32) (array.Array, error) {
	return NewConstantArray(a.Child(0), len(indices)), nil
}

func (constantImpl) Filter(a array.Array, mask []bool) (array.Array, error) {
	return NewConstantArray(a.Child(0), countTrue(mask)), nil
}

func (constantImpl) Compare(a array.Array, rhs array.Rhs, op scalar.Op) (array.Array, error) {
	lv, err := a.Child(0).ScalarAt(0)
	if err != nil {
		return array.Array{}, err
	}
	if rhs.Scalar != nil {
		if lv.IsNull() || rhs.Scalar.IsNull() {
			return NewBoolArray(make([]bool, a.Len()), nil), nil
		}
		ok, err := scalar.Eval(lv, *rhs.Scalar, op)
		if err != nil {
			return array.Array{}, err
		}
		out := make([]bool, a.Len())
		for i := range out {
			out[i] = ok
		}
		return NewBoolArray(out, nil), nil
	}
	// compare against an arbitrary array rhs: fall through to the
	// general per-row path via the default canonicalize/compare.
	return array.Array{}, vxerr.New(vxerr.NotImplemented, "constant: Compare against non-scalar rhs")
}

func (constantImpl) IsValid(a array.Array, i int) (bool, error) {
	if i < 0 || i >= a.Len() {
		return false, vxerr.New(vxerr.OutOfBounds, "constant: index %d out of range", i)
	}
	return a.Child(0).IsValid(0)
}

func (constantImpl) Validity(a array.Array) ([]bool, error) {
	v, err := a.Child(0).IsValid(0)
	if err != nil {
		return nil, err
	}
	out := make([]bool, a.Len())
	for i := range out {
		out[i] = v
	}
	return out, nil
}

func (constantImpl) Stats(a array.Array) (*array.StatSet, error) {
	v, err := a.Child(0).ScalarAt(0)
	if err != nil {
		return nil, err
	}
	st := array.NewStatSet()
	st.Set(array.IsConstant, scalar.Bool(true, false))
	st.Set(array.IsSorted, scalar.Bool(true, false))
	if v.IsNull() {
		st.Set(array.NullCount, scalar.Int(int64(a.Len()), dtype.I64, false))
	} else {
		st.Set(array.NullCount, scalar.Int(0, dtype.I64, false))
		st.Set(array.Min, v)
		st.Set(array.Max, v)
	}
	return st, nil
}
