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

	"github.com/vortex-io/vortex/dtype"
	"github.com/vortex-io/vortex/scalar"
)

func fieldX() Node { return aField(Identity{}, "x") }

func TestSimplifyDoubleNegation(t *testing.T) {
	e := Not{Child: Not{Child: fieldX()}}
	got := Simplify(e)
	if !Equal(got, fieldX()) {
		t.Fatalf("Simplify(Not(Not(x))) = %s, want x", got)
	}
}

func TestSimplifyNotPushesThroughComparison(t *testing.T) {
	lit := Literal{Value: scalar.Int(5, dtype.I32, false)}
	e := Not{Child: BinaryOp{Lhs: fieldX(), Rhs: lit, Op: Lt}}
	got := Simplify(e)
	want := BinaryOp{Lhs: fieldX(), Rhs: lit, Op: GtEq}
	if !Equal(got, want) {
		t.Fatalf("Simplify(Not(x < 5)) = %s, want %s", got, want)
	}
}

func TestSimplifyConstantFolding(t *testing.T) {
	e := BinaryOp{
		Lhs: Literal{Value: scalar.Int(1, dtype.I32, false)},
		Rhs: Literal{Value: scalar.Int(2, dtype.I32, false)},
		Op:  Lt,
	}
	got := Simplify(e)
	if !boolLiteral(got, true) {
		t.Fatalf("Simplify(1 < 2) = %s, want literal true", got)
	}
}

func TestSimplifyGetItemOfPack(t *testing.T) {
	e := GetItem{
		Child: Pack{Fields: []PackField{
			{Name: "a", Expr: fieldX()},
			{Name: "b", Expr: Literal{Value: scalar.Int(1, dtype.I32, false)}},
		}},
		Name: "b",
	}
	got := Simplify(e)
	if !Equal(got, Literal{Value: scalar.Int(1, dtype.I32, false)}) {
		t.Fatalf("Simplify(GetItem(Pack, b)) = %s, want literal 1", got)
	}
}

func TestSimplifyAndIdentities(t *testing.T) {
	cases := []struct {
		name string
		in   Node
		want Node
	}{
		{"and-true-lhs", BinaryOp{Lhs: trueLit, Rhs: fieldX(), Op: And}, fieldX()},
		{"and-true-rhs", BinaryOp{Lhs: fieldX(), Rhs: trueLit, Op: And}, fieldX()},
		{"and-false", BinaryOp{Lhs: fieldX(), Rhs: falseLit, Op: And}, falseLit},
		{"or-false-lhs", BinaryOp{Lhs: falseLit, Rhs: fieldX(), Op: Or}, fieldX()},
		{"or-true", BinaryOp{Lhs: fieldX(), Rhs: trueLit, Op: Or}, trueLit},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Simplify(c.in)
			if !Equal(got, c.want) {
				t.Errorf("Simplify(%s) = %s, want %s", c.in, got, c.want)
			}
		})
	}
}

func TestSimplifyIsFixedPointOnAlreadySimpleTree(t *testing.T) {
	e := BinaryOp{Lhs: fieldX(), Rhs: Literal{Value: scalar.Int(5, dtype.I32, false)}, Op: GtEq}
	got := Simplify(e)
	if !Equal(got, e) {
		t.Fatalf("Simplify changed an already-simple expression: %s -> %s", e, got)
	}
}
