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
	"testing"

	"github.com/vortex-io/vortex/array"
	"github.com/vortex-io/vortex/array/encoding"
	"github.com/vortex-io/vortex/dtype"
	"github.com/vortex-io/vortex/scalar"
	"github.com/vortex-io/vortex/vxbuf"
)

func structInput(t *testing.T, fields map[string]array.Array, order []string) array.Array {
	t.Helper()
	arrs := make([]array.Array, len(order))
	dtFields := make([]dtype.Field, len(order))
	for i, name := range order {
		arrs[i] = fields[name]
		dtFields[i] = dtype.Field{Name: name, Type: fields[name].DType()}
	}
	dt := dtype.NewStruct(dtFields, false)
	s, err := encoding.NewStructArray(dt, arrs, nil)
	if err != nil {
		t.Fatalf("NewStructArray: %v", err)
	}
	return s
}

func TestEvalGetItemAndLiteral(t *testing.T) {
	x := encoding.NewPrimitiveArray(dtype.I32, false, i32Buffer(t, 1, 2, 3, 4, 5), nil)
	in := structInput(t, map[string]array.Array{"x": x}, []string{"x"})

	got, err := Eval(aField(Identity{}, "x"), in)
	if err != nil {
		t.Fatalf("Eval(GetItem): %v", err)
	}
	if got.Len() != 5 {
		t.Fatalf("Eval(GetItem) length = %d, want 5", got.Len())
	}

	lit, err := Eval(Literal{Value: scalar.Int(7, dtype.I32, false)}, in)
	if err != nil {
		t.Fatalf("Eval(Literal): %v", err)
	}
	if lit.Len() != in.Len() {
		t.Fatalf("Eval(Literal) length = %d, want broadcast to %d", lit.Len(), in.Len())
	}
	v, _ := lit.ScalarAt(2)
	if v.AsInt() != 7 {
		t.Fatalf("Eval(Literal) value = %d, want 7", v.AsInt())
	}
}

func TestEvalComparisonFiltersNull(t *testing.T) {
	x := encoding.NewPrimitiveArray(dtype.I32, true, i32Buffer(t, 1, 0, 3), []bool{true, false, true})
	in := structInput(t, map[string]array.Array{"x": x}, []string{"x"})

	e := BinaryOp{Lhs: aField(Identity{}, "x"), Rhs: Literal{Value: scalar.Int(2, dtype.I32, false)}, Op: Gt}
	got, err := Eval(e, in)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got.Len() != 3 {
		t.Fatalf("length changed: %d", got.Len())
	}
	v0, _ := got.ScalarAt(0)
	if v0.IsNull() || v0.AsBool() {
		t.Errorf("row 0 (1 > 2) = %v, want false", v0)
	}
	v1, _ := got.ScalarAt(1)
	if !v1.IsNull() {
		t.Errorf("row 1 should be null (source is null), got %v", v1)
	}
	v2, _ := got.ScalarAt(2)
	if v2.IsNull() || !v2.AsBool() {
		t.Errorf("row 2 (3 > 2) = %v, want true", v2)
	}
}

func TestEvalPack(t *testing.T) {
	x := encoding.NewPrimitiveArray(dtype.I32, false, i32Buffer(t, 1, 2, 3), nil)
	in := structInput(t, map[string]array.Array{"x": x}, []string{"x"})

	e := Pack{Fields: []PackField{
		{Name: "y", Expr: aField(Identity{}, "x")},
	}}
	got, err := Eval(e, in)
	if err != nil {
		t.Fatalf("Eval(Pack): %v", err)
	}
	if got.DType().Kind() != dtype.Struct {
		t.Fatalf("Eval(Pack) DType = %s, want struct", got.DType())
	}
	f, ok := got.DType().FieldByName("y")
	if !ok || f.Name != "y" {
		t.Fatalf("Eval(Pack) missing field y")
	}
}

func TestEvalKleeneAnd(t *testing.T) {
	// AND: null AND false -> false.
	lhs := encoding.NewBoolArray([]bool{false, true, false}, []bool{false, true, true})
	rhs := encoding.NewBoolArray([]bool{false, false, true}, []bool{true, true, true})
	got, err := evalBoolCombinator(And, lhs, rhs)
	if err != nil {
		t.Fatalf("evalBoolCombinator: %v", err)
	}
	v0, _ := got.ScalarAt(0)
	if v0.IsNull() || v0.AsBool() {
		t.Errorf("null AND false = %v, want false", v0)
	}
}

func TestEvalGetItemTypeMismatch(t *testing.T) {
	x := encoding.NewPrimitiveArray(dtype.I32, false, i32Buffer(t, 1), nil)
	_, err := Eval(aField(Literal{Value: scalar.Int(1, dtype.I32, false)}, "x"), x)
	if err == nil {
		t.Fatalf("Eval(GetItem on non-struct) should fail")
	}
}

func i32Buffer(t *testing.T, vals ...int32) vxbuf.Buffer {
	t.Helper()
	return vxbuf.FromTyped(vals)
}
