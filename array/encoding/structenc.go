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
	"github.com/vortex-io/vortex/vxbuf"
	"github.com/vortex-io/vortex/vxerr"
)

// Struct is the canonical representation of a Struct DType: one child
// Array per field, in field order, sharing this array's length, plus
// an optional validity buffer (buffers[0]).
var Struct = EncodingID(13, "vortex.struct")

func init() {
	array.Register(Struct.Int, structImpl{})
}

// NewStructArray builds a canonical Struct array. fields must match
// dt.Fields() in order and length.
func NewStructArray(dt dtype.Type, fields []array.Array, validity []bool) (array.Array, error) {
	if dt.Kind() != dtype.Struct {
		return array.Array{}, vxerr.New(vxerr.TypeMismatch, "struct: dtype is not Struct")
	}
	n := -1
	for _, f := range fields {
		if n == -1 {
			n = f.Len()
		} else if f.Len() != n {
			return array.Array{}, vxerr.New(vxerr.Corrupt, "struct: child length mismatch")
		}
	}
	if n == -1 {
		n = 0
	}
	var bufs []vxbuf.Buffer
	if dt.Nullable() {
		if validity == nil {
			validity = allTrue(n)
		}
		bufs = []vxbuf.Buffer{vxbuf.New(packBits(validity), 1)}
	}
	return array.New(dt, n, Struct, bufs, fields, nil), nil
}

type structImpl struct{}

func (structImpl) Canonicalize(a array.Array) (array.Array, error) {
	fields := make([]array.Array, len(a.Children()))
	for i, c := range a.Children() {
		cc, err := c.Canonicalize()
		if err != nil {
			return array.Array{}, err
		}
		fields[i] = cc
	}
	var validity []bool
	if a.DType().Nullable() {
		v, err := structImpl{}.Validity(a)
		if err != nil {
			return array.Array{}, err
		}
		validity = v
	}
	return NewStructArray(a.DType(), fields, validity)
}

func (s structImpl) ScalarAt(a array.Array, i int) (scalar.Scalar, error) {
	valid, err := s.IsValid(a, i)
	if err != nil {
		return scalar.Scalar{}, err
	}
	if !valid {
		return scalar.Null(a.DType()), nil
	}
	vals := make([]scalar.Scalar, len(a.Children()))
	for j, c := range a.Children() {
		v, err := c.ScalarAt(i)
		if err != nil {
			return scalar.Scalar{}, err
		}
		vals[j] = v
	}
	return scalar.Struct(a.DType(), vals), nil
}

func (structImpl) IsValid(a array.Array, i int) (bool, error) {
	if i < 0 || i >= a.Len() {
		return false, vxerr.New(vxerr.OutOfBounds, "struct: index %d out of range", i)
	}
	if !a.DType().Nullable() || len(a.Buffers()) == 0 {
		return true, nil
	}
	return bitGet(a.Buffer(0), i), nil
}

func (structImpl) Validity(a array.Array) ([]bool, error) {
	if !a.DType().Nullable() || len(a.Buffers()) == 0 {
		return allTrue(a.Len()), nil
	}
	return unpackBits(a.Buffer(0), a.Len()), nil
}

func (s structImpl) Slice(a array.Array, start, end int) (array.Array, error) {
	fields := make([]array.Array, len(a.Children()))
	for i, c := range a.Children() {
		sl, err := c.Slice(start, end)
		if err != nil {
			return array.Array{}, err
		}
		fields[i] = sl
	}
	var validity []bool
	if a.DType().Nullable() {
		v, err := s.Validity(a)
		if err != nil {
			return array.Array{}, err
		}
		validity = v[start:end]
	}
	return NewStructArray(a.DType(), fields, validity)
}

func (s structImpl) Take(a array.Array, indices []int32) (array.Array, error) {
	fields := make([]array.Array, len(a.Children()))
	for i, c := range a.Children() {
		t, err := c.Take(indices)
		if err != nil {
			return array.Array{}, err
		}
		fields[i] = t
	}
	var validity []bool
	if a.DType().Nullable() {
		v, err := s.Validity(a)
		if err != nil {
			return array.Array{}, err
		}
		validity = takeBits(v, indices)
	}
	return NewStructArray(a.DType(), fields, validity)
}

func (s structImpl) Filter(a array.Array, mask []bool) (array.Array, error) {
	fields := make([]array.Array, len(a.Children()))
	for i, c := range a.Children() {
		f, err := c.Filter(mask)
		if err != nil {
			return array.Array{}, err
		}
		fields[i] = f
	}
	var validity []bool
	if a.DType().Nullable() {
		v, err := s.Validity(a)
		if err != nil {
			return array.Array{}, err
		}
		validity = filterBits(v, mask)
	}
	return NewStructArray(a.DType(), fields, validity)
}

func (structImpl) Compare(a array.Array, rhs array.Rhs, op scalar.Op) (array.Array, error) {
	return array.Array{}, vxerr.New(vxerr.NotImplemented, "struct: Compare is not defined over struct values")
}

func (s structImpl) Stats(a array.Array) (*array.StatSet, error) {
	valid, err := s.Validity(a)
	if err != nil {
		return nil, err
	}
	nulls := int64(0)
	for _, v := range valid {
		if !v {
			nulls++
		}
	}
	st := array.NewStatSet()
	st.Set(array.NullCount, scalar.Int(nulls, dtype.I64, false))
	return st, nil
}
