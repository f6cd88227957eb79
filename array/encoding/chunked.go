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

// Chunked is a pluggable, non-canonical array-level encoding: the
// concatenation of same-DType children, none of which are physically
// merged. This is the in-memory counterpart of the on-disk Chunked
// layout node — a scan driver that decodes one segment per chunk can
// hand each decoded chunk straight to a Chunked array without copying.
var Chunked = EncodingID(17, "vortex.chunked")

func init() {
	array.Register(Chunked.Int, chunkedImpl{})
}

// NewChunkedArray concatenates chunks, which must share a DType. An
// empty chunk list is rejected: callers needing an empty array should
// build a length-0 canonical array directly.
func NewChunkedArray(chunks []array.Array) (array.Array, error) {
	if len(chunks) == 0 {
		return array.Array{}, vxerr.New(vxerr.Corrupt, "chunked: at least one chunk is required")
	}
	dt := chunks[0].DType()
	n := 0
	for _, c := range chunks {
		if !c.DType().Equal(dt) {
			return array.Array{}, vxerr.New(vxerr.TypeMismatch, "chunked: chunk dtype mismatch")
		}
		n += c.Len()
	}
	return array.New(dt, n, Chunked, nil, chunks, nil), nil
}

type chunkedImpl struct{}

// locate finds the chunk and offset within it owning global row i.
func locate(a array.Array, i int) (chunk int, offset int) {
	for idx, c := range a.Children() {
		if i < c.Len() {
			return idx, i
		}
		i -= c.Len()
	}
	return -1, -1
}

func (chunkedImpl) Canonicalize(a array.Array) (array.Array, error) {
	children := a.Children()
	canon := make([]array.Array, len(children))
	for i, c := range children {
		cc, err := c.Canonicalize()
		if err != nil {
			return array.Array{}, err
		}
		canon[i] = cc
	}
	if len(canon) == 1 {
		return canon[0], nil
	}
	return concatCanonical(a.DType(), canon, canon[0])
}

// concatCanonical builds one canonical array out of several canonical
// arrays of identical DType and encoding, dispatching to the encoding-
// specific fast path where one exists and otherwise rebuilding through
// per-row ScalarAt/Validity, matching spec.md §4.1's requirement that
// canonical forms are unique per DType.
func concatCanonical(dt dtype.Type, chunks []array.Array, first array.Array) (array.Array, error) {
	switch first.Encoding().Int {
	case Primitive.Int:
		return concatPrimitive(dt, chunks)
	case Bool.Int:
		return concatBool(dt, chunks)
	case Varbin.Int:
		return concatVarbin(dt, chunks)
	case NullEnc.Int:
		n := 0
		for _, c := range chunks {
			n += c.Len()
		}
		return NewNullArray(n), nil
	default:
		return concatGeneric(dt, chunks)
	}
}

func concatPrimitive(dt dtype.Type, chunks []array.Array) (array.Array, error) {
	w := dt.Width()
	width := w.ByteWidth()
	var data []byte
	var validity []bool
	nullable := dt.Nullable()
	for _, c := range chunks {
		data = append(data, c.Buffer(0).Bytes()...)
		if nullable {
			v, err := c.Validity()
			if err != nil {
				return array.Array{}, err
			}
			validity = append(validity, v...)
		}
	}
	return NewPrimitiveArray(w, nullable, vxbuf.New(data, width), validity), nil
}

func concatBool(dt dtype.Type, chunks []array.Array) (array.Array, error) {
	var vals, validity []bool
	nullable := dt.Nullable()
	for _, c := range chunks {
		for i := 0; i < c.Len(); i++ {
			s, err := c.ScalarAt(i)
			if err != nil {
				return array.Array{}, err
			}
			if s.IsNull() {
				vals = append(vals, false)
			} else {
				vals = append(vals, s.AsBool())
			}
		}
		if nullable {
			v, err := c.Validity()
			if err != nil {
				return array.Array{}, err
			}
			validity = append(validity, v...)
		}
	}
	return NewBoolArray(vals, validity), nil
}

func concatVarbin(dt dtype.Type, chunks []array.Array) (array.Array, error) {
	var vals [][]byte
	var validity []bool
	nullable := dt.Nullable()
	for _, c := range chunks {
		for i := 0; i < c.Len(); i++ {
			s, err := c.ScalarAt(i)
			if err != nil {
				return array.Array{}, err
			}
			if s.IsNull() {
				vals = append(vals, nil)
			} else if dt.Kind() == dtype.Utf8 {
				vals = append(vals, []byte(s.AsString()))
			} else {
				vals = append(vals, s.AsBytes())
			}
		}
		if nullable {
			v, err := c.Validity()
			if err != nil {
				return array.Array{}, err
			}
			validity = append(validity, v...)
		}
	}
	return newVarbinArray(dt, vals, validity), nil
}

// concatGeneric is the concatenation path for struct/list (and any
// encoding without a specialized fast path): struct and list
// concatenation compose their own children's concatenation; any other
// DType fails with NotImplemented.
func concatGeneric(dt dtype.Type, chunks []array.Array) (array.Array, error) {
	switch dt.Kind() {
	case dtype.Struct:
		return concatStruct(dt, chunks)
	case dtype.List:
		return concatList(dt, chunks)
	default:
		return array.Array{}, vxerr.New(vxerr.NotImplemented, "chunked: no concatenation path for dtype %v", dt)
	}
}

func concatStruct(dt dtype.Type, chunks []array.Array) (array.Array, error) {
	nFields := len(dt.Fields())
	fieldChunks := make([][]array.Array, nFields)
	var validity []bool
	nullable := dt.Nullable()
	for _, c := range chunks {
		for f := 0; f < nFields; f++ {
			fieldChunks[f] = append(fieldChunks[f], c.Child(f))
		}
		if nullable {
			v, err := c.Validity()
			if err != nil {
				return array.Array{}, err
			}
			validity = append(validity, v...)
		}
	}
	fields := make([]array.Array, nFields)
	for f := 0; f < nFields; f++ {
		merged, err := NewChunkedArray(fieldChunks[f])
		if err != nil {
			return array.Array{}, err
		}
		cc, err := merged.Canonicalize()
		if err != nil {
			return array.Array{}, err
		}
		fields[f] = cc
	}
	return NewStructArray(dt, fields, validity)
}

func concatList(dt dtype.Type, chunks []array.Array) (array.Array, error) {
	var elemChunks []array.Array
	var offsets []uint32
	var validity []bool
	nullable := dt.Nullable()
	cur := uint32(0)
	offsets = append(offsets, 0)
	for _, c := range chunks {
		offs := listOffsets(c)
		base := offs[0]
		for _, o := range offs[1:] {
			cur += o - base
			offsets = append(offsets, cur)
			base = o
		}
		elemChunks = append(elemChunks, c.Child(0))
		if nullable {
			v, err := c.Validity()
			if err != nil {
				return array.Array{}, err
			}
			validity = append(validity, v...)
		}
	}
	merged, err := NewChunkedArray(elemChunks)
	if err != nil {
		return array.Array{}, err
	}
	elems, err := merged.Canonicalize()
	if err != nil {
		return array.Array{}, err
	}
	return NewListArray(dt, offsets, elems, validity)
}

func (chunkedImpl) ScalarAt(a array.Array, i int) (scalar.Scalar, error) {
	ci, off := locate(a, i)
	if ci < 0 {
		return scalar.Scalar{}, vxerr.New(vxerr.OutOfBounds, "chunked: index %d out of range", i)
	}
	return a.Child(ci).ScalarAt(off)
}

func (chunkedImpl) IsValid(a array.Array, i int) (bool, error) {
	ci, off := locate(a, i)
	if ci < 0 {
		return false, vxerr.New(vxerr.OutOfBounds, "chunked: index %d out of range", i)
	}
	return a.Child(ci).IsValid(off)
}

func (chunkedImpl) Validity(a array.Array) ([]bool, error) {
	out := make([]bool, 0, a.Len())
	for _, c := range a.Children() {
		v, err := c.Validity()
		if err != nil {
			return nil, err
		}
		out = append(out, v...)
	}
	return out, nil
}

// Slice returns the requested row range as a new Chunked array sharing
// the underlying chunk storage, trimming and dropping whole chunks
// outside the range rather than materializing a copy.
func (chunkedImpl) Slice(a array.Array, start, end int) (array.Array, error) {
	var kept []array.Array
	pos := 0
	for _, c := range a.Children() {
		cStart, cEnd := pos, pos+c.Len()
		pos = cEnd
		lo, hi := max(start, cStart), min(end, cEnd)
		if lo >= hi {
			continue
		}
		sl, err := c.Slice(lo-cStart, hi-cStart)
		if err != nil {
			return array.Array{}, err
		}
		kept = append(kept, sl)
	}
	if len(kept) == 0 {
		return NewChunkedArray([]array.Array{mustEmptyLike(a.Child(0))})
	}
	return NewChunkedArray(kept)
}

func (chunkedImpl) Take(a array.Array, indices []int32) (array.Array, error) {
	out := make([]scalar.Scalar, len(indices))
	for i, idx := range indices {
		s, err := chunkedImpl{}.ScalarAt(a, int(idx))
		if err != nil {
			return array.Array{}, err
		}
		out[i] = s
	}
	return scalarsToCanonical(a.DType(), out)
}

func (chunkedImpl) Filter(a array.Array, mask []bool) (array.Array, error) {
	indices := make([]int32, 0, countTrue(mask))
	for i, keep := range mask {
		if keep {
			indices = append(indices, int32(i))
		}
	}
	return chunkedImpl{}.Take(a, indices)
}

func (chunkedImpl) Compare(a array.Array, rhs array.Rhs, op scalar.Op) (array.Array, error) {
	return array.Array{}, vxerr.New(vxerr.NotImplemented, "chunked: Compare requires canonicalization")
}

func (chunkedImpl) Stats(a array.Array) (*array.StatSet, error) {
	children := a.Children()
	if len(children) == 0 {
		return array.NewStatSet(), nil
	}
	st, err := children[0].Stats()
	if err != nil {
		return nil, err
	}
	for _, c := range children[1:] {
		cs, err := c.Stats()
		if err != nil {
			return nil, err
		}
		st = array.Merge(st, cs)
	}
	return st, nil
}

func mustEmptyLike(a array.Array) array.Array {
	empty, err := a.Slice(0, 0)
	if err != nil {
		return a
	}
	return empty
}

// scalarsToCanonical rebuilds a canonical array of the given DType from
// materialized scalars, used by Chunked's generic Take/Filter path.
func scalarsToCanonical(dt dtype.Type, vals []scalar.Scalar) (array.Array, error) {
	switch dt.Kind() {
	case dtype.Bool:
		out := make([]bool, len(vals))
		validity := make([]bool, len(vals))
		for i, v := range vals {
			validity[i] = !v.IsNull()
			if !v.IsNull() {
				out[i] = v.AsBool()
			}
		}
		if dt.Nullable() {
			return NewBoolArray(out, validity), nil
		}
		return NewBoolArray(out, nil), nil
	case dtype.Utf8, dtype.Binary:
		out := make([][]byte, len(vals))
		validity := make([]bool, len(vals))
		for i, v := range vals {
			validity[i] = !v.IsNull()
			if v.IsNull() {
				continue
			}
			if dt.Kind() == dtype.Utf8 {
				out[i] = []byte(v.AsString())
			} else {
				out[i] = v.AsBytes()
			}
		}
		if dt.Nullable() {
			return newVarbinArray(dt, out, validity), nil
		}
		return newVarbinArray(dt, out, nil), nil
	case dtype.Primitive:
		return scalarsToPrimitive(dt, vals)
	case dtype.Null:
		return NewNullArray(len(vals)), nil
	default:
		return array.Array{}, vxerr.New(vxerr.NotImplemented, "chunked: no scalar rebuild path for dtype %v", dt)
	}
}

// scalarsToPrimitive rebuilds a canonical Primitive array from
// materialized scalars, used by Chunked's generic Take/Filter path
// when no specialized fast concatenation exists.
func scalarsToPrimitive(dt dtype.Type, vals []scalar.Scalar) (array.Array, error) {
	w := dt.Width()
	width := w.ByteWidth()
	data := make([]byte, width*len(vals))
	validity := make([]bool, len(vals))
	for i, v := range vals {
		validity[i] = !v.IsNull()
		if v.IsNull() {
			continue
		}
		off := i * width
		switch {
		case w.IsFloat():
			putFloatWidth(data[off:off+width], w, v.AsFloat())
		case w.IsSigned():
			putIntWidth(data[off:off+width], w, v.AsInt())
		default:
			putUintWidth(data[off:off+width], w, v.AsUint())
		}
	}
	if dt.Nullable() {
		return NewPrimitiveArray(w, true, vxbuf.New(data, width), validity), nil
	}
	return NewPrimitiveArray(w, false, vxbuf.New(data, width), nil), nil
}

func putUintWidth(b []byte, w dtype.PWidth, v uint64) {
	switch w {
	case dtype.U8:
		b[0] = byte(v)
	case dtype.U16:
		b[0], b[1] = byte(v), byte(v>>8)
	case dtype.U32:
		for i := 0; i < 4; i++ {
			b[i] = byte(v >> (8 * i))
		}
	case dtype.U64:
		for i := 0; i < 8; i++ {
			b[i] = byte(v >> (8 * i))
		}
	}
}

func putIntWidth(b []byte, w dtype.PWidth, v int64) {
	switch w {
	case dtype.I8:
		b[0] = byte(v)
	case dtype.I16:
		putUintWidth(b, dtype.U16, uint64(uint16(v)))
	case dtype.I32:
		putUintWidth(b, dtype.U32, uint64(uint32(v)))
	case dtype.I64:
		putUintWidth(b, dtype.U64, uint64(v))
	}
}

func putFloatWidth(b []byte, w dtype.PWidth, v float64) {
	switch w {
	case dtype.F32:
		putUintWidth(b, dtype.U32, uint64(math.Float32bits(float32(v))))
	case dtype.F64:
		putUintWidth(b, dtype.U64, math.Float64bits(v))
	case dtype.F16:
		putUintWidth(b, dtype.U16, uint64(f64ToF16(v)))
	}
}

// f64ToF16 converts a float64 to an IEEE-754 binary16 bit pattern,
// the inverse of primitive.go's f16ToF64, used only on the rare
// rebuild-from-scalars path (chunked Take/Filter over f16 data).
func f64ToF16(v float64) uint16 {
	bits := math.Float32bits(float32(v))
	sign := uint16(bits>>16) & 0x8000
	exp := int32((bits>>23)&0xff) - 127 + 15
	frac := bits & 0x7fffff
	switch {
	case exp <= 0:
		return sign
	case exp >= 0x1f:
		return sign | 0x7c00
	default:
		return sign | uint16(exp)<<10 | uint16(frac>>13)
	}
}
