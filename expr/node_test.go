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

func aField(child Node, name string) GetItem { return GetItem{Child: child, Name: name} }

func TestEqual(t *testing.T) {
	a := BinaryOp{Lhs: aField(Identity{}, "x"), Rhs: Literal{Value: scalar.Int(5, dtype.I32, false)}, Op: Lt}
	b := BinaryOp{Lhs: aField(Identity{}, "x"), Rhs: Literal{Value: scalar.Int(5, dtype.I32, false)}, Op: Lt}
	c := BinaryOp{Lhs: aField(Identity{}, "y"), Rhs: Literal{Value: scalar.Int(5, dtype.I32, false)}, Op: Lt}

	if !Equal(a, b) {
		t.Fatalf("identical expressions should be Equal")
	}
	if Equal(a, c) {
		t.Fatalf("expressions referencing different fields should not be Equal")
	}
	if !Equal(nil, nil) {
		t.Fatalf("Equal(nil, nil) should be true")
	}
	if Equal(a, nil) || Equal(nil, a) {
		t.Fatalf("Equal with exactly one nil side should be false")
	}
}

func TestWalkVisitsEveryNode(t *testing.T) {
	e := Pack{Fields: []PackField{
		{Name: "a", Expr: aField(Identity{}, "a")},
		{Name: "b", Expr: Not{Child: aField(Identity{}, "b")}},
	}}

	var visited []string
	var v visitorFunc
	v = func(n Node) Visitor {
		if n != nil {
			visited = append(visited, n.String())
		}
		return v
	}
	Walk(v, e)

	// Pack, GetItem a, Identity, Not, GetItem b, Identity.
	if len(visited) != 6 {
		t.Fatalf("Walk visited %d nodes, want 6: %v", len(visited), visited)
	}
}

// visitorFunc adapts a function to the Visitor interface for tests.
type visitorFunc func(Node) Visitor

func (f visitorFunc) Visit(n Node) Visitor { return f(n) }

func TestRewriteReplacesLeaves(t *testing.T) {
	e := BinaryOp{Lhs: aField(Identity{}, "x"), Rhs: Literal{Value: scalar.Int(1, dtype.I32, false)}, Op: Eq}

	out := Rewrite(renameRewriter{from: "x", to: "y"}, e)
	b, ok := out.(BinaryOp)
	if !ok {
		t.Fatalf("Rewrite changed node type: %T", out)
	}
	g, ok := b.Lhs.(GetItem)
	if !ok || g.Name != "y" {
		t.Fatalf("Rewrite did not rename field: %+v", b.Lhs)
	}
}

// renameRewriter renames every GetItem field matching `from` to `to`.
type renameRewriter struct{ from, to string }

func (r renameRewriter) Walk(Node) Rewriter { return r }
func (r renameRewriter) Rewrite(n Node) Node {
	if g, ok := n.(GetItem); ok && g.Name == r.from {
		g.Name = r.to
		return g
	}
	return n
}

func TestOpNegateRoundTrip(t *testing.T) {
	ops := []Op{Eq, NotEq, Lt, LtEq, Gt, GtEq}
	for _, op := range ops {
		if op.negate().negate() != op {
			t.Errorf("negate(negate(%s)) != %s", op, op)
		}
	}
}

func TestStringers(t *testing.T) {
	e := Pack{Fields: []PackField{
		{Name: "a", Expr: aField(Identity{}, "a")},
	}}
	if e.String() == "" {
		t.Fatalf("Pack.String() returned empty string")
	}
	not := Not{Child: aField(Identity{}, "b")}
	if not.String() == "" {
		t.Fatalf("Not.String() returned empty string")
	}
}
