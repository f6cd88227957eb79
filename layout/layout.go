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

package layout

import (
	"context"

	"github.com/vortex-io/vortex/dtype"
	"github.com/vortex-io/vortex/expr"
	"github.com/vortex-io/vortex/vxerr"
)

// Layout is the common contract of spec.md §4.2's three tree shapes.
// A query never calls FilterMask/Scan directly on a root without first
// consulting PruningStats: the pair (FilterMask, Scan) is split in two
// so a driver can compute which rows survive a predicate purely from
// statistics and masks -- without reading a single segment -- before
// issuing the reads Scan needs to materialize the surviving rows.
type Layout interface {
	// RowCount is the number of logical rows this layout covers.
	RowCount() int
	// DType is the logical type of the rows this layout covers.
	DType() dtype.Type
	// PruningStats reports what is known about this layout's values
	// without reading any segment. A Flat layout reports its own
	// summary; a Chunked layout reports one summary per chunk; a
	// Struct layout has none of its own (its fields do).
	PruningStats() *StatsSnapshot
	// FilterMask evaluates predicate over [lo,hi) and returns which of
	// those rows survive, consulting PruningStats to skip segment
	// reads for sub-ranges provably false or provably true.
	FilterMask(ctx context.Context, lo, hi int, predicate expr.Node, src SegmentSource) (RowMask, error)
	// Scan materializes [lo,hi) filtered by mask (zero value means
	// "every row survives") and transformed by projection (nil means
	// Identity), emitting it as a lazily-produced ArrayStream. Segments
	// belonging only to rows the mask excludes, or to fields the
	// projection never references, are never read.
	Scan(ctx context.Context, lo, hi int, projection expr.Node, mask RowMask, src SegmentSource) (ArrayStream, error)
}

func checkRange(lo, hi, rows int) error {
	if lo < 0 || hi < lo || hi > rows {
		return vxerr.New(vxerr.OutOfBounds, "layout: range [%d,%d) out of bounds for %d rows", lo, hi, rows)
	}
	return nil
}

// applyMask returns the rows of a surviving mask, choosing Take over
// Filter when the survival rate is low (spec.md §4.3's empirically
// motivated threshold): gathering a sparse set of indices is cheaper
// than branching over every row when few rows survive.
func applyMask(a Array, mask RowMask) (Array, error) {
	if mask.Len() == 0 {
		return a, nil
	}
	n := mask.CountTrue()
	if n == mask.Len() {
		return a, nil
	}
	if mask.Len() > 0 && n*32 < mask.Len() {
		idx := make([]int32, 0, n)
		for i, b := range mask.Bits() {
			if b {
				idx = append(idx, int32(i))
			}
		}
		return a.Take(idx)
	}
	return a.Filter(mask.Bits())
}

// maskToBools evaluates predicate against a and converts the result to
// a plain bool slice, treating null (unknown) as "does not survive" --
// the usual SQL/Kleene convention for a WHERE clause. predicate is
// simplified first so that, e.g., Not pushed against a comparison
// (spec.md §4.4) reaches Eval as the negated comparison rather than as
// a literal Not node wrapping a result whose null rows would otherwise
// flip to "survives" under NOT.
func maskToBools(predicate expr.Node, a Array) ([]bool, error) {
	result, err := expr.Eval(expr.Simplify(predicate), a)
	if err != nil {
		return nil, err
	}
	valid, err := result.Validity()
	if err != nil {
		return nil, err
	}
	out := make([]bool, a.Len())
	for i := range out {
		if !valid[i] {
			continue
		}
		v, err := result.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		out[i] = v.AsBool()
	}
	return out, nil
}
