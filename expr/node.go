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

// Package expr implements the small expression algebra of spec.md §4.4:
// Identity, GetItem, Literal, BinaryOp, Not, and Pack, with a
// Visitor/Rewriter tree walk modeled on the teacher's expr.Walk/
// expr.Rewrite, narrowed to exactly the operations pruning and
// projection push-down need.
package expr

import (
	"fmt"
	"strings"

	"github.com/vortex-io/vortex/scalar"
)

// Op is a comparison or boolean combinator, the union spec.md §4.4
// names for BinaryOp.
type Op int

const (
	Eq Op = iota
	NotEq
	Lt
	LtEq
	Gt
	GtEq
	And
	Or
)

func (op Op) String() string {
	switch op {
	case Eq:
		return "="
	case NotEq:
		return "!="
	case Lt:
		return "<"
	case LtEq:
		return "<="
	case Gt:
		return ">"
	case GtEq:
		return ">="
	case And:
		return "AND"
	case Or:
		return "OR"
	default:
		return "?"
	}
}

// isComparison reports whether op is one of the six scalar comparison
// operators (as opposed to And/Or).
func (op Op) isComparison() bool { return op <= GtEq }

// scalarOp converts a comparison Op to its scalar.Op equivalent. It
// panics for And/Or, which callers must handle separately.
func (op Op) scalarOp() scalar.Op {
	switch op {
	case Eq:
		return scalar.Eq
	case NotEq:
		return scalar.NotEq
	case Lt:
		return scalar.Lt
	case LtEq:
		return scalar.LtEq
	case Gt:
		return scalar.Gt
	case GtEq:
		return scalar.GtEq
	default:
		panic("expr: scalarOp called on non-comparison op")
	}
}

// negate returns the comparison operator whose result is the logical
// negation of op's result (used by Not push-down in simplify.go).
func (op Op) negate() Op {
	switch op {
	case Eq:
		return NotEq
	case NotEq:
		return Eq
	case Lt:
		return GtEq
	case LtEq:
		return Gt
	case Gt:
		return LtEq
	case GtEq:
		return Lt
	default:
		panic("expr: negate called on non-comparison op")
	}
}

// Node is an expression AST node. Implementations are limited to this
// package's six node kinds, matching spec.md §4.4's closed algebra.
type Node interface {
	fmt.Stringer

	// Equals reports syntactic equality (same shape, same field
	// names/literals), used by the simplifier to detect no-ops.
	Equals(Node) bool

	walk(Visitor)
}

// nonleaf is implemented by every Node with children, letting Rewrite
// recurse without a type switch.
type nonleaf interface {
	rewrite(Rewriter) Node
}

// Visitor mirrors the teacher's expr.Visitor: Visit is called for each
// node encountered by Walk; a non-nil result continues the walk into
// that node's children.
type Visitor interface {
	Visit(Node) Visitor
}

// Walk traverses n in depth-first order, calling v.Visit for n and
// (if it returns a non-nil Visitor) recursively for n's children.
func Walk(v Visitor, n Node) {
	if n == nil {
		return
	}
	w := v.Visit(n)
	if w != nil {
		n.walk(w)
		w.Visit(nil)
	}
}

// Rewriter rewrites nodes in depth-first order: Walk controls whether
// traversal descends into a node's children (returning nil stops
// descent), and Rewrite produces the replacement for the node itself
// after its children (if visited) have already been rewritten.
type Rewriter interface {
	Rewrite(Node) Node
	Walk(Node) Rewriter
}

// Rewrite recursively applies r to n in depth-first order.
func Rewrite(r Rewriter, n Node) Node {
	if n == nil {
		return nil
	}
	if nl, ok := n.(nonleaf); ok {
		if rc := r.Walk(n); rc != nil {
			n = nl.rewrite(rc)
		}
	}
	return r.Rewrite(n)
}

// Identity is the struct array entering evaluation (spec.md §4.4).
type Identity struct{}

func (Identity) String() string { return "$" }
func (Identity) walk(Visitor)   {}
func (Identity) Equals(o Node) bool {
	_, ok := o.(Identity)
	return ok
}

// Literal wraps a constant Scalar.
type Literal struct {
	Value scalar.Scalar
}

func (l Literal) String() string { return l.Value.String() }
func (Literal) walk(Visitor)     {}
func (l Literal) Equals(o Node) bool {
	ol, ok := o.(Literal)
	return ok && l.Value.Equal(ol.Value)
}

// GetItem extracts a named struct field from Child's evaluation result.
type GetItem struct {
	Child Node
	Name  string
}

func (g GetItem) String() string { return fmt.Sprintf("%s.%s", g.Child, g.Name) }
func (g GetItem) walk(v Visitor) { Walk(v, g.Child) }
func (g GetItem) Equals(o Node) bool {
	og, ok := o.(GetItem)
	return ok && g.Name == og.Name && Equal(g.Child, og.Child)
}
func (g GetItem) rewrite(r Rewriter) Node {
	g.Child = Rewrite(r, g.Child)
	return g
}

// BinaryOp applies a comparison or boolean combinator to Lhs and Rhs.
type BinaryOp struct {
	Lhs, Rhs Node
	Op       Op
}

func (b BinaryOp) String() string { return fmt.Sprintf("(%s %s %s)", b.Lhs, b.Op, b.Rhs) }
func (b BinaryOp) walk(v Visitor) { Walk(v, b.Lhs); Walk(v, b.Rhs) }
func (b BinaryOp) Equals(o Node) bool {
	ob, ok := o.(BinaryOp)
	return ok && b.Op == ob.Op && Equal(b.Lhs, ob.Lhs) && Equal(b.Rhs, ob.Rhs)
}
func (b BinaryOp) rewrite(r Rewriter) Node {
	b.Lhs = Rewrite(r, b.Lhs)
	b.Rhs = Rewrite(r, b.Rhs)
	return b
}

// Not negates a boolean-valued Child, using Kleene logic (null stays null).
type Not struct {
	Child Node
}

func (n Not) String() string { return fmt.Sprintf("NOT %s", n.Child) }
func (n Not) walk(v Visitor) { Walk(v, n.Child) }
func (n Not) Equals(o Node) bool {
	on, ok := o.(Not)
	return ok && Equal(n.Child, on.Child)
}
func (n Not) rewrite(r Rewriter) Node {
	n.Child = Rewrite(r, n.Child)
	return n
}

// PackField is one named member of a Pack expression.
type PackField struct {
	Name string
	Expr Node
}

// Pack builds a struct array out of an ordered sequence of named
// sub-expressions.
type Pack struct {
	Fields []PackField
}

func (p Pack) String() string {
	var b strings.Builder
	b.WriteString("{")
	for i, f := range p.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Name)
		b.WriteString(": ")
		b.WriteString(f.Expr.String())
	}
	b.WriteString("}")
	return b.String()
}
func (p Pack) walk(v Visitor) {
	for _, f := range p.Fields {
		Walk(v, f.Expr)
	}
}
func (p Pack) Equals(o Node) bool {
	op, ok := o.(Pack)
	if !ok || len(p.Fields) != len(op.Fields) {
		return false
	}
	for i := range p.Fields {
		if p.Fields[i].Name != op.Fields[i].Name || !Equal(p.Fields[i].Expr, op.Fields[i].Expr) {
			return false
		}
	}
	return true
}
func (p Pack) rewrite(r Rewriter) Node {
	out := make([]PackField, len(p.Fields))
	for i, f := range p.Fields {
		out[i] = PackField{Name: f.Name, Expr: Rewrite(r, f.Expr)}
	}
	p.Fields = out
	return p
}

// Equal reports whether a and b are equivalent, tolerating either
// being nil.
func Equal(a, b Node) bool {
	if a == nil {
		return b == nil
	}
	return b != nil && a.Equals(b)
}

var (
	_ nonleaf = GetItem{}
	_ nonleaf = BinaryOp{}
	_ nonleaf = Not{}
	_ nonleaf = Pack{}
)
