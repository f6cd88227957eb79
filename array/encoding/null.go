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

// NullEnc is the canonical representation of the Null DType: a
// length-only array with no buffers or children. Every scalar read
// from it is null.
var NullEnc = EncodingID(15, "vortex.null")

func init() {
	array.Register(NullEnc.Int, nullImpl{})
}

// NewNullArray builds a length-only Null array.
func NewNullArray(n int) array.Array {
	return array.New(dtype.NewNull(), n, NullEnc, nil, nil, nil)
}

type nullImpl struct{}

func (nullImpl) Canonicalize(a array.Array) (array.Array, error) { return a, nil }

func (nullImpl) ScalarAt(a array.Array, i int) (scalar.Scalar, error) {
	if i < 0 || i >= a.Len() {
		return scalar.Scalar{}, vxerr.New(vxerr.OutOfBounds, "null: index %d out of range", i)
	}
	return scalar.Null(dtype.NewNull()), nil
}

func (nullImpl) Slice(a array.Array, start, end int) (array.Array, error) {
	return NewNullArray(end - start), nil
}

func (nullImpl) Take(a array.Array, indices []int32) (array.Array, error) {
	return NewNullArray(len(indices)), nil
}

func (nullImpl) Filter(a array.Array, mask []bool) (array.Array, error) {
	return NewNullArray(countTrue(mask)), nil
}

func (nullImpl) Compare(a array.Array, rhs array.Rhs, op scalar.Op) (array.Array, error) {
	return NewBoolArray(make([]bool, a.Len()), nil), nil
}

func (nullImpl) IsValid(a array.Array, i int) (bool, error) {
	if i < 0 || i >= a.Len() {
		return false, vxerr.New(vxerr.OutOfBounds, "null: index %d out of range", i)
	}
	return false, nil
}

func (nullImpl) Validity(a array.Array) ([]bool, error) {
	return make([]bool, a.Len()), nil
}

func (nullImpl) Stats(a array.Array) (*array.StatSet, error) {
	st := array.NewStatSet()
	st.Set(array.NullCount, scalar.Int(int64(a.Len()), dtype.I64, false))
	return st, nil
}
