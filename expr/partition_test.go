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

func lt(field string, v int64) Node {
	return BinaryOp{Lhs: aField(Identity{}, field), Rhs: Literal{Value: scalar.Int(v, dtype.I32, false)}, Op: Lt}
}

func TestConjunctsFlattensAnd(t *testing.T) {
	e := BinaryOp{Lhs: lt("a", 1), Rhs: BinaryOp{Lhs: lt("b", 2), Rhs: lt("c", 3), Op: And}, Op: And}
	got := Conjuncts(e)
	if len(got) != 3 {
		t.Fatalf("Conjuncts returned %d conjuncts, want 3: %v", len(got), got)
	}
}

func TestConjunctsDropsTrivialTrue(t *testing.T) {
	e := BinaryOp{Lhs: trueLit, Rhs: lt("a", 1), Op: And}
	got := Conjuncts(e)
	if len(got) != 1 || !Equal(got[0], lt("a", 1)) {
		t.Fatalf("Conjuncts(true AND a<1) = %v, want [a<1]", got)
	}
}

func TestConjunctsShortCircuitsFalse(t *testing.T) {
	e := BinaryOp{Lhs: lt("a", 1), Rhs: falseLit, Op: And}
	got := Conjuncts(e)
	if len(got) != 1 || !boolLiteral(got[0], false) {
		t.Fatalf("Conjuncts(a<1 AND false) = %v, want [false]", got)
	}
}

func TestConjunctsEmptyIsTrivialTrue(t *testing.T) {
	got := Conjuncts(trueLit)
	if len(got) != 1 || !boolLiteral(got[0], true) {
		t.Fatalf("Conjuncts(true) = %v, want [true]", got)
	}
}

func TestFieldsReferenced(t *testing.T) {
	e := BinaryOp{Lhs: lt("a", 1), Rhs: lt("b", 2), Op: Or}
	names := FieldsReferenced(e)
	if len(names) != 2 || !names["a"] || !names["b"] {
		t.Fatalf("FieldsReferenced = %v, want {a, b}", names)
	}
}

func TestPartitionByField(t *testing.T) {
	conjuncts := []Node{
		lt("a", 1),
		lt("b", 2),
		BinaryOp{Lhs: lt("a", 1), Rhs: lt("b", 2), Op: Or}, // references both a and b
	}
	p := PartitionByField(conjuncts)

	if len(p.Fields["a"]) != 1 || !Equal(p.Fields["a"][0], lt("a", 1)) {
		t.Errorf("Fields[a] = %v, want [a<1]", p.Fields["a"])
	}
	if len(p.Fields["b"]) != 1 || !Equal(p.Fields["b"][0], lt("b", 2)) {
		t.Errorf("Fields[b] = %v, want [b<2]", p.Fields["b"])
	}
	if len(p.Residual) != 1 {
		t.Errorf("Residual = %v, want the cross-field conjunct", p.Residual)
	}
}

func TestBindField(t *testing.T) {
	e := lt("a", 1)
	bound := BindField(e, "a")
	b, ok := bound.(BinaryOp)
	if !ok {
		t.Fatalf("BindField changed node type: %T", bound)
	}
	if _, ok := b.Lhs.(Identity); !ok {
		t.Fatalf("BindField did not rewrite GetItem(Identity, a) to Identity: %s", b.Lhs)
	}
}

func TestBindFieldLeavesOtherFieldsAlone(t *testing.T) {
	e := BinaryOp{Lhs: lt("a", 1), Rhs: lt("b", 2), Op: Or}
	bound := BindField(e, "a")
	b := bound.(BinaryOp)
	innerA := b.Lhs.(BinaryOp)
	if _, ok := innerA.Lhs.(Identity); !ok {
		t.Errorf("BindField(a) did not bind field a's reference")
	}
	innerB := b.Rhs.(BinaryOp)
	if _, ok := innerB.Lhs.(GetItem); !ok {
		t.Errorf("BindField(a) incorrectly rewrote field b's reference")
	}
}
