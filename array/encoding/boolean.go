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

// Bool is the canonical representation of the Bool DType: a bit-packed
// values buffer (buffers[0]) plus an optional bit-packed validity
// buffer (buffers[1]).
var Bool = EncodingID(11, "vortex.bool")

func init() {
	array.Register(Bool.Int, boolImpl{})
}

// NewBoolArray builds a canonical Bool array. validity of nil means
// "all valid" (array is then non-nullable).
func NewBoolArray(values []bool, validity []bool) array.Array {
	nullable := validity != nil
	dt := dtype.NewBool(nullable)
	bufs := []vxbuf.Buffer{vxbuf.New(packBits(values), 1)}
	if nullable {
		bufs = append(bufs, vxbuf.New(packBits(validity), 1))
	}
	return array.New(dt, len(values), Bool, bufs, nil, nil)
}

type boolImpl struct{}

func (boolImpl) Canonicalize(a array.Array) (array.Array, error) { return a, nil }

func (b boolImpl) ScalarAt(a array.Array, i int) (scalar.Scalar, error) {
	valid, err := b.IsValid(a, i)
	if err != nil {
		return scalar.Scalar{}, err
	}
	if !valid {
		return scalar.Null(a.DType()), nil
	}
	return scalar.Bool(bitGet(a.Buffer(0), i), a.DType().Nullable()), nil
}

func (boolImpl) IsValid(a array.Array, i int) (bool, error) {
	if i < 0 || i >= a.Len() {
		return false, vxerr.New(vxerr.OutOfBounds, "bool: index %d out of range", i)
	}
	if !a.DType().Nullable() || len(a.Buffers()) < 2 {
		return true, nil
	}
	return bitGet(a.Buffer(1), i), nil
}

func (b boolImpl) Validity(a array.Array) ([]bool, error) {
	if !a.DType().Nullable() || len(a.Buffers()) < 2 {
		return allTrue(a.Len()), nil
	}
	return unpackBits(a.Buffer(1), a.Len()), nil
}

func (b boolImpl) values(a array.Array) []bool { return unpackBits(a.Buffer(0), a.Len()) }

func (b boolImpl) Slice(a array.Array, start, end int) (array.Array, error) {
	vals := b.values(a)[start:end]
	var validity []bool
	if a.DType().Nullable() {
		v, err := b.Validity(a)
		if err != nil {
			return array.Array{}, err
		}
		validity = v[start:end]
	}
	return NewBoolArray(vals, validity), nil
}

func (b boolImpl) Take(a array.Array, indices []int32) (array.Array, error) {
	vals := b.values(a)
	out := make([]bool, len(indices))
	for i, idx := range indices {
		out[i] = vals[idx]
	}
	var validity []bool
	if a.DType().Nullable() {
		v, err := b.Validity(a)
		if err != nil {
			return array.Array{}, err
		}
		validity = takeBits(v, indices)
	}
	return NewBoolArray(out, validity), nil
}

func (b boolImpl) Filter(a array.Array, mask []bool) (array.Array, error) {
	vals := filterBits(b.values(a), mask)
	var validity []bool
	if a.DType().Nullable() {
		v, err := b.Validity(a)
		if err != nil {
			return array.Array{}, err
		}
		validity = filterBits(v, mask)
	}
	return NewBoolArray(vals, validity), nil
}

func (b boolImpl) Compare(a array.Array, rhs array.Rhs, op scalar.Op) (array.Array, error) {
	out := make([]bool, a.Len())
	validity := make([]bool, a.Len())
	anyNull := false
	for i := 0; i < a.Len(); i++ {
		lv, err := b.ScalarAt(a, i)
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

func (b boolImpl) Stats(a array.Array) (*array.StatSet, error) {
	st, err := computeMinMaxNullStats(a, b)
	if err != nil {
		return nil, err
	}
	valid, err := b.Validity(a)
	if err != nil {
		return nil, err
	}
	vals := b.values(a)
	trues := int64(0)
	for i, v := range vals {
		if valid[i] && v {
			trues++
		}
	}
	st.Set(array.TrueCount, scalar.Int(trues, dtype.I64, false))
	return st, nil
}

// And applies Kleene three-valued AND between two equal-length,
// possibly-nullable bool arrays, per spec.md §4.4 ("null AND false ->
// false, otherwise null propagates").
func And(a, b array.Array) (array.Array, error) {
	return kleene(a, b, func(x, y bool) bool { return x && y }, false)
}

// Or applies Kleene three-valued OR, per spec.md §4.4.
func Or(a, b array.Array) (array.Array, error) {
	return kleene(a, b, func(x, y bool) bool { return x || y }, true)
}

func kleene(a, b array.Array, combine func(x, y bool) bool, dominant bool) (array.Array, error) {
	if a.Len() != b.Len() {
		return array.Array{}, vxerr.New(vxerr.TypeMismatch, "bool: Kleene op length mismatch %d vs %d", a.Len(), b.Len())
	}
	av, err := a.Validity()
	if err != nil {
		return array.Array{}, err
	}
	bv, err := b.Validity()
	if err != nil {
		return array.Array{}, err
	}
	ab := boolImpl{}
	avals := ab.valuesOrZero(a)
	bvals := ab.valuesOrZero(b)
	n := a.Len()
	out := make([]bool, n)
	validity := make([]bool, n)
	nullable := a.DType().Nullable() || b.DType().Nullable()
	for i := 0; i < n; i++ {
		switch {
		case av[i] && bv[i]:
			out[i] = combine(avals[i], bvals[i])
			validity[i] = true
		case av[i] && avals[i] == dominant:
			out[i] = dominant
			validity[i] = true
		case bv[i] && bvals[i] == dominant:
			out[i] = dominant
			validity[i] = true
		default:
			validity[i] = false
		}
	}
	if !nullable {
		return NewBoolArray(out, nil), nil
	}
	return NewBoolArray(out, validity), nil
}

func (boolImpl) valuesOrZero(a array.Array) []bool {
	if a.Encoding().Int != Bool.Int {
		// best-effort: evaluate via ScalarAt for non-bool-canonical inputs
		out := make([]bool, a.Len())
		for i := range out {
			s, err := a.ScalarAt(i)
			if err == nil && !s.IsNull() {
				out[i] = s.AsBool()
			}
		}
		return out
	}
	return unpackBits(a.Buffer(0), a.Len())
}
