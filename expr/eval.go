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

package expr

import (
	"github.com/vortex-io/vortex/array"
	"github.com/vortex-io/vortex/array/encoding"
	"github.com/vortex-io/vortex/dtype"
	"github.com/vortex-io/vortex/scalar"
	"github.com/vortex-io/vortex/vxerr"
)

// Eval performs the tree walk described in spec.md §4.4: against an
// input struct array, it produces a new array with the expression's
// result DType.
func Eval(n Node, input array.Array) (array.Array, error) {
	switch e := n.(type) {
	case Identity:
		return input, nil

	case Literal:
		single, err := encoding.NewScalarArray(e.Value)
		if err != nil {
			return array.Array{}, err
		}
		return encoding.NewConstantArray(single, input.Len()), nil

	case GetItem:
		base, err := Eval(e.Child, input)
		if err != nil {
			return array.Array{}, err
		}
		if base.DType().Kind() != dtype.Struct {
			return array.Array{}, vxerr.New(vxerr.TypeMismatch, "expr: GetItem on non-struct value")
		}
		for i, f := range base.DType().Fields() {
			if f.Name == e.Name {
				return base.Child(i), nil
			}
		}
		return array.Array{}, vxerr.New(vxerr.TypeMismatch, "expr: no field %q in %s", e.Name, base.DType())

	case BinaryOp:
		return evalBinaryOp(e, input)

	case Not:
		child, err := Eval(e.Child, input)
		if err != nil {
			return array.Array{}, err
		}
		return notArray(child)

	case Pack:
		fields := make([]array.Array, len(e.Fields))
		dtFields := make([]dtype.Field, len(e.Fields))
		for i, pf := range e.Fields {
			fv, err := Eval(pf.Expr, input)
			if err != nil {
				return array.Array{}, err
			}
			fields[i] = fv
			dtFields[i] = dtype.Field{Name: pf.Name, Type: fv.DType()}
		}
		dt := dtype.NewStruct(dtFields, false)
		return encoding.NewStructArray(dt, fields, nil)

	default:
		return array.Array{}, vxerr.New(vxerr.TypeMismatch, "expr: unknown node type %T", n)
	}
}

func evalBinaryOp(b BinaryOp, input array.Array) (array.Array, error) {
	lhs, err := Eval(b.Lhs, input)
	if err != nil {
		return array.Array{}, err
	}
	rhs, err := Eval(b.Rhs, input)
	if err != nil {
		return array.Array{}, err
	}
	if b.Op == And || b.Op == Or {
		return evalBoolCombinator(b.Op, lhs, rhs)
	}
	result, err := lhs.Compare(array.ArrayRhs(rhs), b.Op.scalarOp())
	if err != nil {
		return array.Array{}, err
	}
	return result, nil
}

// evalBoolCombinator implements spec.md §4.4's Kleene three-valued
// logic: "null AND false -> false", "null OR true -> true", otherwise
// null propagates.
func evalBoolCombinator(op Op, lhs, rhs array.Array) (array.Array, error) {
	n := lhs.Len()
	out := make([]bool, n)
	validity := make([]bool, n)
	for i := 0; i < n; i++ {
		lv, err := lhs.ScalarAt(i)
		if err != nil {
			return array.Array{}, err
		}
		rv, err := rhs.ScalarAt(i)
		if err != nil {
			return array.Array{}, err
		}
		v, known := kleene(op, lv, rv)
		validity[i] = known
		out[i] = v
	}
	nullable := lhs.DType().Nullable() || rhs.DType().Nullable()
	if !nullable {
		return encoding.NewBoolArray(out, nil), nil
	}
	return encoding.NewBoolArray(out, validity), nil
}

func kleene(op Op, l, r scalar.Scalar) (value bool, known bool) {
	lNull, rNull := l.IsNull(), r.IsNull()
	switch op {
	case And:
		switch {
		case !lNull && !l.AsBool():
			return false, true
		case !rNull && !r.AsBool():
			return false, true
		case lNull || rNull:
			return false, false
		default:
			return l.AsBool() && r.AsBool(), true
		}
	case Or:
		switch {
		case !lNull && l.AsBool():
			return true, true
		case !rNull && r.AsBool():
			return true, true
		case lNull || rNull:
			return false, false
		default:
			return l.AsBool() || r.AsBool(), true
		}
	default:
		return false, false
	}
}

func notArray(a array.Array) (array.Array, error) {
	n := a.Len()
	out := make([]bool, n)
	validity := make([]bool, n)
	for i := 0; i < n; i++ {
		v, err := a.ScalarAt(i)
		if err != nil {
			return array.Array{}, err
		}
		validity[i] = !v.IsNull()
		if !v.IsNull() {
			out[i] = !v.AsBool()
		}
	}
	if !a.DType().Nullable() {
		return encoding.NewBoolArray(out, nil), nil
	}
	return encoding.NewBoolArray(out, validity), nil
}
