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

// Varbin is the canonical representation of Utf8 and Binary DTypes: a
// view array of (n+1) little-endian uint32 offsets into a contiguous
// data buffer (buffers[0] = offsets, buffers[1] = data), plus an
// optional validity buffer (buffers[2]).
var Varbin = EncodingID(12, "vortex.varbin")

func init() {
	array.Register(Varbin.Int, varbinImpl{})
}

// NewUtf8Array builds a canonical Utf8 array from string values and an
// optional validity mask.
func NewUtf8Array(values []string, validity []bool) array.Array {
	return newVarbinArray(dtype.NewUtf8(validity != nil), stringsToBytes(values), validity)
}

// NewBinaryArray builds a canonical Binary array.
func NewBinaryArray(values [][]byte, validity []bool) array.Array {
	return newVarbinArray(dtype.NewBinary(validity != nil), values, validity)
}

func stringsToBytes(ss []string) [][]byte {
	out := make([][]byte, len(ss))
	for i, s := range ss {
		out[i] = []byte(s)
	}
	return out
}

func newVarbinArray(dt dtype.Type, values [][]byte, validity []bool) array.Array {
	offsets := make([]byte, 4*(len(values)+1))
	var data []byte
	cur := uint32(0)
	for i, v := range values {
		binary.LittleEndian.PutUint32(offsets[4*i:], cur)
		data = append(data, v...)
		cur += uint32(len(v))
	}
	binary.LittleEndian.PutUint32(offsets[4*len(values):], cur)
	bufs := []vxbuf.Buffer{vxbuf.New(offsets, 4), vxbuf.New(data, 1)}
	if validity != nil {
		bufs = append(bufs, vxbuf.New(packBits(validity), 1))
	}
	return array.New(dt, len(values), Varbin, bufs, nil, nil)
}

type varbinImpl struct{}

func (varbinImpl) Canonicalize(a array.Array) (array.Array, error) { return a, nil }

func varbinBytesAt(a array.Array, i int) []byte {
	off := a.Buffer(0).Bytes()
	data := a.Buffer(1).Bytes()
	start := binary.LittleEndian.Uint32(off[4*i:])
	end := binary.LittleEndian.Uint32(off[4*(i+1):])
	return data[start:end]
}

func (v varbinImpl) ScalarAt(a array.Array, i int) (scalar.Scalar, error) {
	valid, err := v.IsValid(a, i)
	if err != nil {
		return scalar.Scalar{}, err
	}
	if !valid {
		return scalar.Null(a.DType()), nil
	}
	b := varbinBytesAt(a, i)
	if a.DType().Kind() == dtype.Utf8 {
		return scalar.String(string(b), a.DType().Nullable()), nil
	}
	return scalar.Bytes(b, a.DType().Nullable()), nil
}

func (varbinImpl) IsValid(a array.Array, i int) (bool, error) {
	if i < 0 || i >= a.Len() {
		return false, vxerr.New(vxerr.OutOfBounds, "varbin: index %d out of range", i)
	}
	if !a.DType().Nullable() || len(a.Buffers()) < 3 {
		return true, nil
	}
	return bitGet(a.Buffer(2), i), nil
}

func (v varbinImpl) Validity(a array.Array) ([]bool, error) {
	if !a.DType().Nullable() || len(a.Buffers()) < 3 {
		return allTrue(a.Len()), nil
	}
	return unpackBits(a.Buffer(2), a.Len()), nil
}

func (v varbinImpl) allBytes(a array.Array) [][]byte {
	out := make([][]byte, a.Len())
	for i := range out {
		out[i] = varbinBytesAt(a, i)
	}
	return out
}

func (v varbinImpl) rebuild(a array.Array, vals [][]byte, validity []bool) array.Array {
	return newVarbinArray(a.DType(), vals, validity)
}

func (v varbinImpl) Slice(a array.Array, start, end int) (array.Array, error) {
	vals := v.allBytes(a)[start:end]
	var validity []bool
	if a.DType().Nullable() {
		vd, err := v.Validity(a)
		if err != nil {
			return array.Array{}, err
		}
		validity = vd[start:end]
	}
	return v.rebuild(a, vals, validity), nil
}

func (v varbinImpl) Take(a array.Array, indices []int32) (array.Array, error) {
	vals := v.allBytes(a)
	out := make([][]byte, len(indices))
	for i, idx := range indices {
		out[i] = vals[idx]
	}
	var validity []bool
	if a.DType().Nullable() {
		vd, err := v.Validity(a)
		if err != nil {
			return array.Array{}, err
		}
		validity = takeBits(vd, indices)
	}
	return v.rebuild(a, out, validity), nil
}

func (v varbinImpl) Filter(a array.Array, mask []bool) (array.Array, error) {
	vals := v.allBytes(a)
	out := make([][]byte, 0, countTrue(mask))
	for i, keep := range mask {
		if keep {
			out = append(out, vals[i])
		}
	}
	var validity []bool
	if a.DType().Nullable() {
		vd, err := v.Validity(a)
		if err != nil {
			return array.Array{}, err
		}
		validity = filterBits(vd, mask)
	}
	return v.rebuild(a, out, validity), nil
}

func (v varbinImpl) Compare(a array.Array, rhs array.Rhs, op scalar.Op) (array.Array, error) {
	out := make([]bool, a.Len())
	validity := make([]bool, a.Len())
	anyNull := false
	for i := 0; i < a.Len(); i++ {
		lv, err := v.ScalarAt(a, i)
		if err != nil {
			return array.Array{}, err
		}
		var rv scalar.Scalar
		if rhs.Scalar != nil {
			rv = *rhs.Scalar
		} else {
			rv, err = rhs.Array.ScalarAt(i)
			if err != nil {
				return array.Array{}, err
			}
		}
		if lv.IsNull() || rv.IsNull() {
			anyNull = true
			continue
		}
		validity[i] = true
		ok, err := scalar.Eval(lv, rv, op)
		if err != nil {
			return array.Array{}, err
		}
		out[i] = ok
	}
	if !anyNull {
		return NewBoolArray(out, nil), nil
	}
	return NewBoolArray(out, validity), nil
}

func (v varbinImpl) Stats(a array.Array) (*array.StatSet, error) {
	return computeMinMaxNullStats(a, v)
}
