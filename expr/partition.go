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

// Conjuncts normalizes n into the conjunctive form spec.md §4.4 names:
// an ordered sequence of sub-expressions whose AND equals n, with
// trivial true conjuncts dropped and a trivial false short-circuiting
// to a single-element []Node{false}.
func Conjuncts(n Node) []Node {
	var out []Node
	var walk func(Node)
	walk = func(x Node) {
		if b, ok := x.(BinaryOp); ok && b.Op == And {
			walk(b.Lhs)
			walk(b.Rhs)
			return
		}
		if boolLiteral(x, true) {
			return
		}
		out = append(out, x)
	}
	walk(n)
	for _, c := range out {
		if boolLiteral(c, false) {
			return []Node{falseLit}
		}
	}
	if len(out) == 0 {
		return []Node{trueLit}
	}
	return out
}

// fieldCollector gathers the names referenced by GetItem(Identity, name)
// nodes anywhere in a tree.
type fieldCollector struct {
	names map[string]bool
}

func (f *fieldCollector) Visit(n Node) Visitor {
	if n == nil {
		return nil
	}
	if g, ok := n.(GetItem); ok {
		if _, isIdentity := g.Child.(Identity); isIdentity {
			f.names[g.Name] = true
		}
	}
	return f
}

// FieldsReferenced returns the set of top-level field names a
// conjunct reads, per spec.md §4.4's "walk over GetItem nodes rooted
// at Identity" rule.
func FieldsReferenced(n Node) map[string]bool {
	fc := &fieldCollector{names: map[string]bool{}}
	Walk(fc, n)
	return fc.names
}

// Partition is the result of assigning conjuncts to the field each
// refers to exclusively, with everything else held back as a residual
// evaluated after per-field masks are combined (spec.md §4.3 step 2).
type Partition struct {
	Fields   map[string][]Node
	Residual []Node
}

// PartitionByField assigns each conjunct referencing exactly one
// top-level field to that field's bucket; conjuncts referencing zero
// or multiple fields go to Residual.
func PartitionByField(conjuncts []Node) Partition {
	p := Partition{Fields: map[string][]Node{}}
	for _, c := range conjuncts {
		names := FieldsReferenced(c)
		if len(names) == 1 {
			for name := range names {
				p.Fields[name] = append(p.Fields[name], c)
			}
			continue
		}
		p.Residual = append(p.Residual, c)
	}
	return p
}

// fieldBinder rewrites GetItem(Identity, field) into a bare Identity,
// used to push a per-field conjunct down into that field's own layout
// scan: once a sub-expression is known to reference only one field, the
// sub-layout it is handed evaluates that field's own array directly,
// so references to it become the new Identity (spec.md §4.2's "a
// sub-expression whose identity is bound to that field").
type fieldBinder struct {
	field string
}

func (b fieldBinder) Walk(Node) Rewriter { return b }

func (b fieldBinder) Rewrite(n Node) Node {
	if g, ok := n.(GetItem); ok && g.Name == b.field {
		if _, isID := g.Child.(Identity); isID {
			return Identity{}
		}
	}
	return n
}

// BindField rewrites every GetItem(Identity, field) occurrence in n to
// a bare Identity, producing the expression a field's own sub-layout
// can evaluate against its own array.
func BindField(n Node, field string) Node {
	return Rewrite(fieldBinder{field: field}, n)
}
