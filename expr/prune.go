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

import "github.com/vortex-io/vortex/scalar"

// PruneResult is the three-valued outcome of evaluating an expression
// against a statistics snapshot rather than a full array (spec.md §4.4).
type PruneResult int

const (
	Unknown PruneResult = iota
	DefinitelyFalse
	DefinitelyTrue
)

// FieldStats is the statistics snapshot pruning consults for one
// field: min/max (using scalar.Compare's total order) and a null
// count, each independently possibly unknown.
type FieldStats struct {
	Min, Max     scalar.Scalar
	HasMin       bool
	HasMax       bool
	NullCount    int64
	HasNullCount bool
}

// Prune evaluates n against stats (keyed by field name), returning
// DefinitelyFalse when it is safe to skip the corresponding chunk
// entirely, DefinitelyTrue when every row is guaranteed to satisfy n
// without evaluation, and Unknown otherwise.
func Prune(n Node, stats map[string]FieldStats) PruneResult {
	switch e := n.(type) {
	case Not:
		switch Prune(e.Child, stats) {
		case DefinitelyTrue:
			return DefinitelyFalse
		case DefinitelyFalse:
			return DefinitelyTrue
		default:
			return Unknown
		}

	case BinaryOp:
		switch e.Op {
		case And:
			l, r := Prune(e.Lhs, stats), Prune(e.Rhs, stats)
			if l == DefinitelyFalse || r == DefinitelyFalse {
				return DefinitelyFalse
			}
			if l == DefinitelyTrue && r == DefinitelyTrue {
				return DefinitelyTrue
			}
			return Unknown
		case Or:
			l, r := Prune(e.Lhs, stats), Prune(e.Rhs, stats)
			if l == DefinitelyTrue || r == DefinitelyTrue {
				return DefinitelyTrue
			}
			if l == DefinitelyFalse && r == DefinitelyFalse {
				return DefinitelyFalse
			}
			return Unknown
		default:
			return pruneComparison(e, stats)
		}

	default:
		return Unknown
	}
}

// pruneComparison handles the `GetItem(Identity, field) op Literal`
// shape (or its mirror image) via interval arithmetic against the
// field's min/max/null-count statistics, per spec.md §4.4's worked
// example for `<`.
func pruneComparison(b BinaryOp, stats map[string]FieldStats) PruneResult {
	field, k, op, ok := normalizeComparison(b)
	if !ok {
		return Unknown
	}
	st, ok := stats[field]
	if !ok {
		return Unknown
	}

	cmpMin, hasMin := compareOrNo(st.Min, k, st.HasMin)
	cmpMax, hasMax := compareOrNo(st.Max, k, st.HasMax)
	noNulls := st.HasNullCount && st.NullCount == 0

	switch op {
	case Lt: // col < k
		if hasMin && cmpMin >= 0 {
			return DefinitelyFalse
		}
		if hasMax && cmpMax < 0 && noNulls {
			return DefinitelyTrue
		}
	case LtEq:
		if hasMin && cmpMin > 0 {
			return DefinitelyFalse
		}
		if hasMax && cmpMax <= 0 && noNulls {
			return DefinitelyTrue
		}
	case Gt:
		if hasMax && cmpMax <= 0 {
			return DefinitelyFalse
		}
		if hasMin && cmpMin > 0 && noNulls {
			return DefinitelyTrue
		}
	case GtEq:
		if hasMax && cmpMax < 0 {
			return DefinitelyFalse
		}
		if hasMin && cmpMin >= 0 && noNulls {
			return DefinitelyTrue
		}
	case Eq:
		if hasMin && cmpMin > 0 {
			return DefinitelyFalse
		}
		if hasMax && cmpMax < 0 {
			return DefinitelyFalse
		}
		if hasMin && hasMax && cmpMin == 0 && cmpMax == 0 && noNulls {
			return DefinitelyTrue
		}
	case NotEq:
		if hasMin && hasMax && cmpMin == 0 && cmpMax == 0 && noNulls {
			return DefinitelyFalse
		}
		if (hasMin && cmpMin > 0 || hasMax && cmpMax < 0) && noNulls {
			return DefinitelyTrue
		}
	}
	return Unknown
}

// compareOrNo returns scalar.Compare(v, k) and true, or (0, false) if
// v is not known or the comparison itself fails (incomparable types,
// which pruning treats the same as "unknown").
func compareOrNo(v, k scalar.Scalar, known bool) (int, bool) {
	if !known {
		return 0, false
	}
	c, err := scalar.Compare(v, k)
	if err != nil {
		return 0, false
	}
	return c, true
}

// normalizeComparison recognizes `GetItem(Identity, field) op Literal`
// or its mirror `Literal op GetItem(Identity, field)`, returning the
// field name, the literal, and the op oriented as "field op literal".
func normalizeComparison(b BinaryOp) (field string, k scalar.Scalar, op Op, ok bool) {
	if g, isGet := b.Lhs.(GetItem); isGet {
		if _, isID := g.Child.(Identity); isID {
			if lit, isLit := b.Rhs.(Literal); isLit {
				return g.Name, lit.Value, b.Op, true
			}
		}
	}
	if g, isGet := b.Rhs.(GetItem); isGet {
		if _, isID := g.Child.(Identity); isID {
			if lit, isLit := b.Lhs.(Literal); isLit {
				return g.Name, lit.Value, mirror(b.Op), true
			}
		}
	}
	// A bare Identity (as opposed to GetItem(Identity, name)) arises
	// once a per-field conjunct has been bound to its own field's
	// layout via BindField: the column being scanned IS the identity,
	// so it is keyed in the stats map under the empty field name.
	if _, isID := b.Lhs.(Identity); isID {
		if lit, isLit := b.Rhs.(Literal); isLit {
			return "", lit.Value, b.Op, true
		}
	}
	if _, isID := b.Rhs.(Identity); isID {
		if lit, isLit := b.Lhs.(Literal); isLit {
			return "", lit.Value, mirror(b.Op), true
		}
	}
	return "", scalar.Scalar{}, 0, false
}

// mirror reorients a comparison op so that `k op col` becomes
// `col mirror(op) k`.
func mirror(op Op) Op {
	switch op {
	case Lt:
		return Gt
	case LtEq:
		return GtEq
	case Gt:
		return Lt
	case GtEq:
		return LtEq
	default:
		return op // Eq/NotEq are symmetric
	}
}
