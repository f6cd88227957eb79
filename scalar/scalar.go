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

// Package scalar implements the (DType, ScalarValue) pair described in
// spec.md §3, modeled closely on the teacher's ion.Datum: a tagged union
// with IEEE-respecting float equality but a total order usable by
// statistics (NaN sorts above +Inf).
package scalar

import (
	"fmt"
	"math"

	"github.com/vortex-io/vortex/dtype"
)

// vkind is the tag of the ScalarValue sum.
type vkind uint8

const (
	vNull vkind = iota
	vBool
	vInt
	vUint
	vFloat
	vString
	vBytes
	vList
	vStruct
)

// Scalar is a single typed value: a DType paired with a ScalarValue.
// Scalars are immutable once constructed.
type Scalar struct {
	typ  dtype.Type
	kind vkind
	b    bool
	i    int64
	u    uint64
	f    float64
	s    string
	by   []byte
	list []Scalar
	strc []Scalar
}

// Type returns the DType of the scalar.
func (s Scalar) Type() dtype.Type { return s.typ }

// IsNull reports whether the scalar represents a null value.
func (s Scalar) IsNull() bool { return s.kind == vNull }

// Null returns a null Scalar of the given type.
func Null(t dtype.Type) Scalar { return Scalar{typ: t, kind: vNull} }

// Bool returns a Scalar wrapping a bool value.
func Bool(v bool, nullable bool) Scalar {
	return Scalar{typ: dtype.NewBool(nullable), kind: vBool, b: v}
}

// Int returns a signed-integer Scalar of the given width.
func Int(v int64, w dtype.PWidth, nullable bool) Scalar {
	return Scalar{typ: dtype.NewPrimitive(w, nullable), kind: vInt, i: v}
}

// Uint returns an unsigned-integer Scalar of the given width.
func Uint(v uint64, w dtype.PWidth, nullable bool) Scalar {
	return Scalar{typ: dtype.NewPrimitive(w, nullable), kind: vUint, u: v}
}

// Float returns a floating-point Scalar of the given width.
func Float(v float64, w dtype.PWidth, nullable bool) Scalar {
	return Scalar{typ: dtype.NewPrimitive(w, nullable), kind: vFloat, f: v}
}

// String returns a utf8 Scalar.
func String(v string, nullable bool) Scalar {
	return Scalar{typ: dtype.NewUtf8(nullable), kind: vString, s: v}
}

// Bytes returns a binary Scalar.
func Bytes(v []byte, nullable bool) Scalar {
	return Scalar{typ: dtype.NewBinary(nullable), kind: vBytes, by: append([]byte(nil), v...)}
}

// List returns a Scalar whose value is an ordered list of scalars, all
// of element type elem.
func List(elem dtype.Type, vals []Scalar, nullable bool) Scalar {
	return Scalar{
		typ:  dtype.NewList(elem, nullable),
		kind: vList,
		list: append([]Scalar(nil), vals...),
	}
}

// Struct returns a Scalar whose value is an ordered sequence of field
// scalars matching t, which must be a Struct DType.
func Struct(t dtype.Type, vals []Scalar) Scalar {
	if t.Kind() != dtype.Struct {
		panic("scalar: Struct requires a struct DType")
	}
	return Scalar{typ: t, kind: vStruct, strc: append([]Scalar(nil), vals...)}
}

// AsBool returns the bool payload of the scalar. It panics if the
// scalar is not a bool.
func (s Scalar) AsBool() bool {
	if s.kind != vBool {
		panic("scalar: AsBool on non-bool scalar")
	}
	return s.b
}

// AsInt returns the signed-integer payload of the scalar.
func (s Scalar) AsInt() int64 {
	switch s.kind {
	case vInt:
		return s.i
	case vUint:
		return int64(s.u)
	default:
		panic("scalar: AsInt on non-integer scalar")
	}
}

// AsUint returns the unsigned-integer payload of the scalar.
func (s Scalar) AsUint() uint64 {
	switch s.kind {
	case vUint:
		return s.u
	case vInt:
		return uint64(s.i)
	default:
		panic("scalar: AsUint on non-integer scalar")
	}
}

// AsFloat returns the floating-point payload of the scalar.
func (s Scalar) AsFloat() float64 {
	switch s.kind {
	case vFloat:
		return s.f
	case vInt:
		return float64(s.i)
	case vUint:
		return float64(s.u)
	default:
		panic("scalar: AsFloat on non-numeric scalar")
	}
}

// AsString returns the utf8 payload of the scalar.
func (s Scalar) AsString() string {
	if s.kind != vString {
		panic("scalar: AsString on non-string scalar")
	}
	return s.s
}

// AsBytes returns the binary payload of the scalar.
func (s Scalar) AsBytes() []byte {
	if s.kind != vBytes {
		panic("scalar: AsBytes on non-bytes scalar")
	}
	return s.by
}

// AsList returns the list payload of the scalar.
func (s Scalar) AsList() []Scalar {
	if s.kind != vList {
		panic("scalar: AsList on non-list scalar")
	}
	return s.list
}

// AsStruct returns the struct-field payload of the scalar, in field
// order matching s.Type().Fields().
func (s Scalar) AsStruct() []Scalar {
	if s.kind != vStruct {
		panic("scalar: AsStruct on non-struct scalar")
	}
	return s.strc
}

// Equal reports semantic equality respecting IEEE float semantics:
// NaN is distinct from NaN, matching spec.md §3.
func (s Scalar) Equal(o Scalar) bool {
	if s.kind != o.kind {
		return numericEqualMixed(s, o)
	}
	switch s.kind {
	case vNull:
		return true
	case vBool:
		return s.b == o.b
	case vInt:
		return s.i == o.i
	case vUint:
		return s.u == o.u
	case vFloat:
		return s.f == o.f // NaN != NaN falls out of IEEE ==
	case vString:
		return s.s == o.s
	case vBytes:
		return string(s.by) == string(o.by)
	case vList:
		if len(s.list) != len(o.list) {
			return false
		}
		for i := range s.list {
			if !s.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case vStruct:
		if len(s.strc) != len(o.strc) {
			return false
		}
		for i := range s.strc {
			if !s.strc[i].Equal(o.strc[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func numericEqualMixed(a, b Scalar) bool {
	an, aok := numeric(a)
	bn, bok := numeric(b)
	if !aok || !bok {
		return false
	}
	return an == bn
}

func numeric(s Scalar) (float64, bool) {
	switch s.kind {
	case vInt:
		return float64(s.i), true
	case vUint:
		return float64(s.u), true
	case vFloat:
		return s.f, true
	default:
		return 0, false
	}
}

func (s Scalar) String() string {
	switch s.kind {
	case vNull:
		return "null"
	case vBool:
		return fmt.Sprintf("%t", s.b)
	case vInt:
		return fmt.Sprintf("%d", s.i)
	case vUint:
		return fmt.Sprintf("%d", s.u)
	case vFloat:
		return fmt.Sprintf("%g", s.f)
	case vString:
		return fmt.Sprintf("%q", s.s)
	case vBytes:
		return fmt.Sprintf("%x", s.by)
	case vList:
		return fmt.Sprintf("%v", s.list)
	case vStruct:
		return fmt.Sprintf("%v", s.strc)
	default:
		return "<invalid>"
	}
}

// isNaN reports whether s is a float scalar holding NaN.
func (s Scalar) isNaN() bool {
	return s.kind == vFloat && math.IsNaN(s.f)
}
