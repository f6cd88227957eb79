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
	"encoding/binary"

	"github.com/vortex-io/vortex/array"
	"github.com/vortex-io/vortex/dtype"
	"github.com/vortex-io/vortex/scalar"
	"github.com/vortex-io/vortex/vxbuf"
	"github.com/vortex-io/vortex/vxerr"
)

// List is the canonical representation of a List DType: (n+1)
// little-endian uint32 offsets into a single flattened element child
// (buffers[0] = offsets, children[0] = elements), plus an optional
// validity buffer (buffers[1]).
var List = EncodingID(14, "vortex.list")

func init() {
	array.Register(List.Int, listImpl{})
}

// NewListArray builds a canonical List array. offsets has length n+1
// and indexes into elements; elements is the flattened child array.
func NewListArray(dt dtype.Type, offsets []uint32, elements array.Array, validity []bool) (array.Array, error) {
	if dt.Kind() != dtype.List {
		return array.Array{}, vxerr.New(vxerr.TypeMismatch, "list: dtype is not List")
	}
	n := len(offsets) - 1
	if n < 0 {
		return array.Array{}, vxerr.New(vxerr.Corrupt, "list: offsets must have length >= 1")
	}
	offBytes := make([]byte, 4*len(offsets))
	for i, o := range offsets {
		binary.LittleEndian.PutUint32(offBytes[4*i:], o)
	}
	bufs := []vxbuf.Buffer{vxbuf.New(offBytes, 4)}
	if dt.Nullable() {
		if validity == nil {
			validity = allTrue(n)
		}
		bufs = append(bufs, vxbuf.New(packBits(validity), 1))
	}
	return array.New(dt, n, List, bufs, []array.Array{elements}, nil), nil
}

type listImpl struct{}

func listOffsets(a array.Array) []uint32 {
	data := a.Buffer(0).Bytes()
	out := make([]uint32, a.Len()+1)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(data[4*i:])
	}
	return out
}

func (listImpl) Canonicalize(a array.Array) (array.Array, error) {
	elem, err := a.Child(0).Canonicalize()
	if err != nil {
		return array.Array{}, err
	}
	var validity []bool
	if a.DType().Nullable() {
		validity, err = listImpl{}.Validity(a)
		if err != nil {
			return array.Array{}, err
		}
	}
	return NewListArray(a.DType(), listOffsets(a), elem, validity)
}

func (l listImpl) ScalarAt(a array.Array, i int) (scalar.Scalar, error) {
	valid, err := l.IsValid(a, i)
	if err != nil {
		return scalar.Scalar{}, err
	}
	if !valid {
		return scalar.Null(a.DType()), nil
	}
	offs := listOffsets(a)
	start, end := offs[i], offs[i+1]
	elem := a.DType().Element()
	vals := make([]scalar.Scalar, 0, end-start)
	for j := start; j < end; j++ {
		v, err := a.Child(0).ScalarAt(int(j))
		if err != nil {
			return scalar.Scalar{}, err
		}
		vals = append(vals, v)
	}
	return scalar.List(elem, vals, a.DType().Nullable()), nil
}

func (listImpl) IsValid(a array.Array, i int) (bool, error) {
	if i < 0 || i >= a.Len() {
		return false, vxerr.New(vxerr.OutOfBounds, "list: index %d out of range", i)
	}
	if !a.DType().Nullable() || len(a.Buffers()) < 2 {
		return true, nil
	}
	return bitGet(a.Buffer(1), i), nil
}

func (listImpl) Validity(a array.Array) ([]bool, error) {
	if !a.DType().Nullable() || len(a.Buffers()) < 2 {
		return allTrue(a.Len()), nil
	}
	return unpackBits(a.Buffer(1), a.Len()), nil
}

func (l listImpl) Slice(a array.Array, start, end int) (array.Array, error) {
	offs := listOffsets(a)
	newOffs := append([]uint32(nil), offs[start:end+1]...)
	var validity []bool
	if a.DType().Nullable() {
		v, err := l.Validity(a)
		if err != nil {
			return array.Array{}, err
		}
		validity = v[start:end]
	}
	return NewListArray(a.DType(), newOffs, a.Child(0), validity)
}

// Take and Filter on List rebuild the offsets and gather every
// selected row's element indices, then Take them from the element
// child in one call.
func (l listImpl) Take(a array.Array, indices []int32) (array.Array, error) {
	offs := listOffsets(a)
	newOffs := make([]uint32, len(indices)+1)
	var elemIdx []int32
	cur := uint32(0)
	for i, idx := range indices {
		newOffs[i] = cur
		s, e := offs[idx], offs[idx+1]
		for j := s; j < e; j++ {
			elemIdx = append(elemIdx, int32(j))
		}
		cur += e - s
	}
	newOffs[len(indices)] = cur
	elems, err := a.Child(0).Take(elemIdx)
	if err != nil {
		return array.Array{}, err
	}
	var validity []bool
	if a.DType().Nullable() {
		v, err := l.Validity(a)
		if err != nil {
			return array.Array{}, err
		}
		validity = takeBits(v, indices)
	}
	return NewListArray(a.DType(), newOffs, elems, validity)
}

func (l listImpl) Filter(a array.Array, mask []bool) (array.Array, error) {
	indices := make([]int32, 0, countTrue(mask))
	for i, keep := range mask {
		if keep {
			indices = append(indices, int32(i))
		}
	}
	return l.Take(a, indices)
}

func (listImpl) Compare(a array.Array, rhs array.Rhs, op scalar.Op) (array.Array, error) {
	return array.Array{}, vxerr.New(vxerr.NotImplemented, "list: Compare is not defined over list values")
}

func (l listImpl) Stats(a array.Array) (*array.StatSet, error) {
	valid, err := l.Validity(a)
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
