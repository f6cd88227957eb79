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

	"github.com/vortex-io/vortex/array"
	"github.com/vortex-io/vortex/dtype"
	"github.com/vortex-io/vortex/expr"
	"github.com/vortex-io/vortex/vxerr"
)

// Flat is a leaf layout: a run of rows backed by one or more ordered
// segments that concatenate, once decoded, into a single array. Most
// Flat layouts hold exactly one segment; more than one arises when a
// writer splits a column's encoded bytes across segment boundaries for
// I/O-size reasons.
type Flat struct {
	dt       dtype.Type
	rows     int
	segments []SegmentID
	stats    expr.FieldStats
}

// NewFlat builds a Flat layout over the given segments, carrying the
// statistics summary a writer computed for them at write time.
func NewFlat(dt dtype.Type, rows int, segments []SegmentID, stats expr.FieldStats) *Flat {
	return &Flat{dt: dt, rows: rows, segments: segments, stats: stats}
}

func (f *Flat) RowCount() int         { return f.rows }
func (f *Flat) DType() dtype.Type     { return f.dt }
func (f *Flat) Segments() []SegmentID { return f.segments }

func (f *Flat) PruningStats() *StatsSnapshot {
	st := f.stats
	return &StatsSnapshot{Single: &st}
}

func (f *Flat) materialize(ctx context.Context, src SegmentSource) (Array, error) {
	raw, err := src.Read(ctx, f.segments)
	if err != nil {
		return Array{}, vxerr.Wrap(vxerr.IoError, err, "layout: flat segment read failed")
	}
	var buf []byte
	for _, id := range f.segments {
		b, ok := raw[id]
		if !ok {
			return Array{}, vxerr.New(vxerr.IoError, "layout: segment source omitted segment %d", id)
		}
		buf = append(buf, b...)
	}
	a, _, err := array.Decode(buf)
	if err != nil {
		return Array{}, err
	}
	return a, nil
}

func (f *Flat) FilterMask(ctx context.Context, lo, hi int, predicate expr.Node, src SegmentSource) (RowMask, error) {
	if err := checkRange(lo, hi, f.rows); err != nil {
		return RowMask{}, err
	}
	if isTrueLiteral(predicate) {
		return AllTrue(hi - lo), nil
	}
	a, err := f.materialize(ctx, src)
	if err != nil {
		return RowMask{}, err
	}
	sliced, err := a.Slice(lo, hi)
	if err != nil {
		return RowMask{}, err
	}
	bits, err := maskToBools(predicate, sliced)
	if err != nil {
		return RowMask{}, err
	}
	return NewRowMask(bits), nil
}

func (f *Flat) Scan(ctx context.Context, lo, hi int, projection expr.Node, mask RowMask, src SegmentSource) (ArrayStream, error) {
	if err := checkRange(lo, hi, f.rows); err != nil {
		return nil, err
	}
	eff := effective(mask, hi-lo)
	if eff.CountTrue() == 0 {
		return emptyStream(), nil
	}
	a, err := f.materialize(ctx, src)
	if err != nil {
		return nil, err
	}
	sliced, err := a.Slice(lo, hi)
	if err != nil {
		return nil, err
	}
	filtered, err := applyMask(sliced, eff)
	if err != nil {
		return nil, err
	}
	if projection == nil {
		return newSliceStream(filtered), nil
	}
	if _, isID := projection.(expr.Identity); isID {
		return newSliceStream(filtered), nil
	}
	result, err := expr.Eval(projection, filtered)
	if err != nil {
		return nil, err
	}
	return newSliceStream(result), nil
}

// isTrueLiteral reports whether n is the literal boolean true, the
// form Simplify collapses a vacuous predicate (an empty Conjuncts, or
// an always-true residual) down to.
func isTrueLiteral(n expr.Node) bool {
	lit, ok := n.(expr.Literal)
	return ok && !lit.Value.IsNull() && lit.Value.Type().Kind() == dtype.Bool && lit.Value.AsBool()
}
