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
	"math"

	"github.com/vortex-io/vortex/array"
	"github.com/vortex-io/vortex/dtype"
	"github.com/vortex-io/vortex/scalar"
	"github.com/vortex-io/vortex/vxbuf"
	"github.com/vortex-io/vortex/vxerr"
)

// Primitive is the canonical representation of every Primitive DType:
// a contiguous typed buffer (buffers[0]) plus an optional bit-packed
// validity buffer (buffers[1], present iff the DType is nullable).
var Primitive = EncodingID(10, "vortex.primitive")

func init() {
	array.Register(Primitive.Int, primitiveImpl{})
}

// EncodingID is a small constructor shared by every file in this
// package to build an array.EncodingID literal.
func EncodingID(id uint32, name string) array.EncodingID {
	return array.EncodingID{Int: id, String: name}
}

// NewPrimitiveArray builds a canonical Primitive array from raw values and
// an optional validity mask (nil means "all valid", and is only legal
// for non-nullable DTypes).
func NewPrimitiveArray(w dtype.PWidth, nullable bool, values vxbuf.Buffer, validity []bool) array.Array {
	dt := dtype.NewPrimitive(w, nullable)
	bufs := []vxbuf.Buffer{values}
	if nullable && validity != nil {
		bufs = append(bufs, vxbuf.New(packBits(validity), 1))
	}
	n := values.Len() / w.ByteWidth()
	return array.New(dt, n, Primitive, bufs, nil, nil)
}

type primitiveImpl struct{}

func (primitiveImpl) Canonicalize(a array.Array) (array.Array, error) { return a, nil }

func (primitiveImpl) ScalarAt(a array.Array, i int) (scalar.Scalar, error) {
	w := a.DType().Width()
	if valid, err := primitiveIsValid(a, i); err != nil {
		return scalar.Scalar{}, err
	} else if !valid {
		return scalar.Null(a.DType()), nil
	}
	return readPrimitive(a.Buffer(0), w, i, a.DType().Nullable())
}

func readPrimitive(buf vxbuf.Buffer, w dtype.PWidth, i int, nullable bool) (scalar.Scalar, error) {
	data := buf.Bytes()
	off := i * w.ByteWidth()
	if off+w.ByteWidth() > len(data) {
		return scalar.Scalar{}, vxerr.New(vxerr.OutOfBounds, "primitive: index %d out of range", i)
	}
	switch w {
	case dtype.U8:
		return scalar.Uint(uint64(data[off]), w, nullable), nil
	case dtype.I8:
		return scalar.Int(int64(int8(data[off])), w, nullable), nil
	case dtype.U16:
		return scalar.Uint(uint64(le16(data[off:])), w, nullable), nil
	case dtype.I16:
		return scalar.Int(int64(int16(le16(data[off:]))), w, nullable), nil
	case dtype.U32:
		return scalar.Uint(uint64(le32(data[off:])), w, nullable), nil
	case dtype.I32:
		return scalar.Int(int64(int32(le32(data[off:]))), w, nullable), nil
	case dtype.U64:
		return scalar.Uint(le64(data[off:]), w, nullable), nil
	case dtype.I64:
		return scalar.Int(int64(le64(data[off:])), w, nullable), nil
	case dtype.F32:
		return scalar.Float(float64(math.Float32frombits(le32(data[off:]))), w, nullable), nil
	case dtype.F64:
		return scalar.Float(math.Float64frombits(le64(data[off:])), w, nullable), nil
	case dtype.F16:
		return scalar.Float(f16ToF64(le16(data[off:])), w, nullable), nil
	default:
		return scalar.Scalar{}, vxerr.New(vxerr.TypeMismatch, "primitive: unsupported width %v", w)
	}
}

func le16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }
func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
func le64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

// f16ToF64 converts an IEEE-754 binary16 bit pattern to float64.
func f16ToF64(bits uint16) float64 {
	sign := uint32(bits>>15) & 1
	exp := uint32(bits>>10) & 0x1f
	frac := uint32(bits) & 0x3ff
	var f32bits uint32
	switch {
	case exp == 0 && frac == 0:
		f32bits = sign << 31
	case exp == 0x1f:
		f32bits = sign<<31 | 0xff<<23 | frac<<13
	default:
		if exp == 0 {
			// subnormal half -> normalize
			for frac&0x400 == 0 {
				frac <<= 1
				exp--
			}
			exp++
			frac &= 0x3ff
		}
		f32bits = sign<<31 | (exp+112)<<23 | frac<<13
	}
	return float64(math.Float32frombits(f32bits))
}

func primitiveIsValid(a array.Array, i int) (bool, error) {
	if i < 0 || i >= a.Len() {
		return false, vxerr.New(vxerr.OutOfBounds, "primitive: index %d out of range", i)
	}
	if !a.DType().Nullable() || len(a.Buffers()) < 2 {
		return true, nil
	}
	return bitGet(a.Buffer(1), i), nil
}

func (p primitiveImpl) Slice(a array.Array, start, end int) (array.Array, error) {
	w := a.DType().Width()
	vbuf, err := a.Buffer(0).Slice(start*w.ByteWidth(), end*w.ByteWidth())
	if err != nil {
		return array.Array{}, err
	}
	bufs := []vxbuf.Buffer{vbuf}
	if a.DType().Nullable() && len(a.Buffers()) >= 2 {
		validity, err := p.Validity(a)
		if err != nil {
			return array.Array{}, err
		}
		bufs = append(bufs, vxbuf.New(packBits(validity[start:end]), 1))
	}
	return array.New(a.DType(), end-start, Primitive, bufs, nil, nil), nil
}

func (p primitiveImpl) Take(a array.Array, indices []int32) (array.Array, error) {
	w := a.DType().Width()
	data := a.Buffer(0).Bytes()
	width := w.ByteWidth()
	out := make([]byte, len(indices)*width)
	for i, idx := range indices {
		copy(out[i*width:], data[int(idx)*width:int(idx)*width+width])
	}
	bufs := []vxbuf.Buffer{vxbuf.New(out, width)}
	if a.DType().Nullable() {
		validity, err := p.Validity(a)
		if err != nil {
			return array.Array{}, err
		}
		bufs = append(bufs, vxbuf.New(packBits(takeBits(validity, indices)), 1))
	}
	return array.New(a.DType(), len(indices), Primitive, bufs, nil, nil), nil
}

func (p primitiveImpl) Filter(a array.Array, mask []bool) (array.Array, error) {
	w := a.DType().Width()
	data := a.Buffer(0).Bytes()
	width := w.ByteWidth()
	out := make([]byte, 0, countTrue(mask)*width)
	for i, keep := range mask {
		if keep {
			out = append(out, data[i*width:i*width+width]...)
		}
	}
	bufs := []vxbuf.Buffer{vxbuf.New(out, width)}
	n := len(out) / width
	if a.DType().Nullable() {
		validity, err := p.Validity(a)
		if err != nil {
			return array.Array{}, err
		}
		bufs = append(bufs, vxbuf.New(packBits(filterBits(validity, mask)), 1))
	}
	return array.New(a.DType(), n, Primitive, bufs, nil, nil), nil
}

func (p primitiveImpl) Compare(a array.Array, rhs array.Rhs, op scalar.Op) (array.Array, error) {
	out := make([]bool, a.Len())
	validity := make([]bool, a.Len())
	anyNull := false
	for i := 0; i < a.Len(); i++ {
		lv, err := p.ScalarAt(a, i)
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

func (p primitiveImpl) IsValid(a array.Array, i int) (bool, error) { return primitiveIsValid(a, i) }

func (p primitiveImpl) Validity(a array.Array) ([]bool, error) {
	if !a.DType().Nullable() || len(a.Buffers()) < 2 {
		return allTrue(a.Len()), nil
	}
	return unpackBits(a.Buffer(1), a.Len()), nil
}

func (p primitiveImpl) Stats(a array.Array) (*array.StatSet, error) {
	return computeMinMaxNullStats(a, p)
}

// computeMinMaxNullStats is shared by the flat numeric-ish canonical
// encodings (primitive, bool) to derive Min/Max/NullCount/IsConstant
// from ScalarAt + Validity, the default path every encoding without a
// specialized fast stats path uses.
func computeMinMaxNullStats(a array.Array, ops interface {
	ScalarAt(array.Array, int) (scalar.Scalar, error)
	Validity(array.Array) ([]bool, error)
}) (*array.StatSet, error) {
	valid, err := ops.Validity(a)
	if err != nil {
		return nil, err
	}
	st := array.NewStatSet()
	var min, max scalar.Scalar
	haveAny := false
	nulls := int64(0)
	constant := true
	for i := 0; i < a.Len(); i++ {
		if !valid[i] {
			nulls++
			continue
		}
		v, err := ops.ScalarAt(a, i)
		if err != nil {
			return nil, err
		}
		if !haveAny {
			min, max = v, v
			haveAny = true
		} else {
			if !v.Equal(min) {
				constant = false
			}
			if c, _ := scalar.Compare(v, min); c < 0 {
				min = v
			}
			if c, _ := scalar.Compare(v, max); c > 0 {
				max = v
			}
		}
	}
	st.Set(array.NullCount, scalar.Int(nulls, dtype.I64, false))
	if haveAny {
		st.Set(array.Min, min)
		st.Set(array.Max, max)
		st.Set(array.IsConstant, scalar.Bool(constant, false))
	}
	return st, nil
}
