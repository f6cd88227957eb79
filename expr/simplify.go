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
	"github.com/vortex-io/vortex/dtype"
	"github.com/vortex-io/vortex/scalar"
)

var trueLit = Literal{Value: scalar.Bool(true, false)}
var falseLit = Literal{Value: scalar.Bool(false, false)}

func boolLiteral(n Node, want bool) bool {
	l, ok := n.(Literal)
	return ok && !l.Value.IsNull() && l.Value.Type().Kind() == dtype.Bool && l.Value.AsBool() == want
}

// Simplify applies spec.md §4.4's purely syntactic rewrite rules to n:
// double-negation elimination, constant folding, Not push-down through
// comparisons, GetItem(Pack(...), name) reduction, and And/Or identity
// simplification. It is a fixed point after one pass over any tree this
// package's simplifier produces, since each rule only fires on patterns
// the rules themselves do not reintroduce deeper in the tree; callers
// needing an exhaustive fixed point over externally-built trees can
// call Simplify again until the result stops changing.
func Simplify(n Node) Node {
	return Rewrite(simplifier{}, n)
}

type simplifier struct{}

func (simplifier) Walk(Node) Rewriter { return simplifier{} }

func (simplifier) Rewrite(n Node) Node {
	switch e := n.(type) {
	case Not:
		if inner, ok := e.Child.(Not); ok {
			return inner.Child // double negation
		}
		if b, ok := e.Child.(BinaryOp); ok && b.Op.isComparison() {
			return BinaryOp{Lhs: b.Lhs, Rhs: b.Rhs, Op: b.Op.negate()}
		}
		if boolLiteral(e.Child, true) {
			return falseLit
		}
		if boolLiteral(e.Child, false) {
			return trueLit
		}
		return e

	case GetItem:
		if p, ok := e.Child.(Pack); ok {
			for _, f := range p.Fields {
				if f.Name == e.Name {
					return f.Expr
				}
			}
		}
		return e

	case BinaryOp:
		switch e.Op {
		case And:
			switch {
			case boolLiteral(e.Lhs, true):
				return e.Rhs
			case boolLiteral(e.Rhs, true):
				return e.Lhs
			case boolLiteral(e.Lhs, false), boolLiteral(e.Rhs, false):
				return falseLit
			}
			return e
		case Or:
			switch {
			case boolLiteral(e.Lhs, false):
				return e.Rhs
			case boolLiteral(e.Rhs, false):
				return e.Lhs
			case boolLiteral(e.Lhs, true), boolLiteral(e.Rhs, true):
				return trueLit
			}
			return e
		default:
			ll, lok := e.Lhs.(Literal)
			rl, rok := e.Rhs.(Literal)
			if lok && rok && !ll.Value.IsNull() && !rl.Value.IsNull() {
				v, err := scalar.Eval(ll.Value, rl.Value, e.Op.scalarOp())
				if err == nil {
					return Literal{Value: scalar.Bool(v, false)}
				}
			}
			return e
		}

	default:
		return e
	}
}
