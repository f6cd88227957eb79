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

// Chunked is an ordered sequence of sub-layouts covering disjoint,
// contiguous row ranges, all sharing one DType. It is the shape a
// single column takes once its writer breaks it into independently
// prunable pieces; the pieces themselves are usually Flat, but nesting
// (a Chunked of Chunked) is not disallowed.
type Chunked struct {
	dt     dtype.Type
	chunks []Layout
	prefix []int // prefix[i] = sum of RowCount() for chunks[:i]; len = len(chunks)+1
}

// NewChunked builds a Chunked layout over chunks, which must all
// report the same DType.
func NewChunked(dt dtype.Type, chunks []Layout) (*Chunked, error) {
	prefix := make([]int, len(chunks)+1)
	for i, c := range chunks {
		if !c.DType().Equal(dt) {
			return nil, vxerr.New(vxerr.TypeMismatch, "layout: chunk %d DType does not match chunked layout's DType", i)
		}
		prefix[i+1] = prefix[i] + c.RowCount()
	}
	return &Chunked{dt: dt, chunks: chunks, prefix: prefix}, nil
}

func (c *Chunked) RowCount() int     { return c.prefix[len(c.prefix)-1] }
func (c *Chunked) DType() dtype.Type { return c.dt }

func (c *Chunked) PruningStats() *StatsSnapshot {
	per := make([]expr.FieldStats, len(c.chunks))
	for i, ch := range c.chunks {
		per[i] = representative(ch.PruningStats())
	}
	return &StatsSnapshot{PerChunk: per}
}

// overlapping calls visit, in chunk order, for every chunk overlapping
// [lo,hi), passing the chunk's index, its own bounds, and its
// intersection with [lo,hi). It stops at the first chunk starting at or
// past hi, or at the first error visit returns.
func (c *Chunked) overlapping(lo, hi int, visit func(idx, chunkLo, chunkHi, lo2, hi2 int) error) error {
	for i := range c.chunks {
		chunkLo, chunkHi := c.prefix[i], c.prefix[i+1]
		if chunkHi <= lo {
			continue
		}
		if chunkLo >= hi {
			break
		}
		lo2, hi2 := max(lo, chunkLo), min(hi, chunkHi)
		if lo2 >= hi2 {
			continue
		}
		if err := visit(i, chunkLo, chunkHi, lo2, hi2); err != nil {
			return err
		}
	}
	return nil
}

func (c *Chunked) FilterMask(ctx context.Context, lo, hi int, predicate expr.Node, src SegmentSource) (RowMask, error) {
	if err := checkRange(lo, hi, c.RowCount()); err != nil {
		return RowMask{}, err
	}
	out := make([]bool, hi-lo)
	err := c.overlapping(lo, hi, func(i, chunkLo, chunkHi, lo2, hi2 int) error {
		stats := representative(c.chunks[i].PruningStats())
		switch expr.Prune(predicate, map[string]expr.FieldStats{"": stats}) {
		case expr.DefinitelyFalse:
			// leave false (zero value); no read issued for this chunk.
			return nil
		case expr.DefinitelyTrue:
			for r := lo2; r < hi2; r++ {
				out[r-lo] = true
			}
			return nil
		default:
			sub, err := c.chunks[i].FilterMask(ctx, lo2-chunkLo, hi2-chunkLo, predicate, src)
			if err != nil {
				return err
			}
			copy(out[lo2-lo:hi2-lo], sub.Bits())
			return nil
		}
	})
	if err != nil {
		return RowMask{}, err
	}
	return NewRowMask(out), nil
}

func (c *Chunked) Scan(ctx context.Context, lo, hi int, projection expr.Node, mask RowMask, src SegmentSource) (ArrayStream, error) {
	if err := checkRange(lo, hi, c.RowCount()); err != nil {
		return nil, err
	}
	eff := effective(mask, hi-lo)
	var streams []ArrayStream
	err := c.overlapping(lo, hi, func(i, chunkLo, chunkHi, lo2, hi2 int) error {
		local := eff.Slice(lo2-lo, hi2-lo)
		if local.CountTrue() == 0 {
			return nil // provably empty: no read issued for this chunk.
		}
		s, err := c.chunks[i].Scan(ctx, lo2-chunkLo, hi2-chunkLo, projection, local, src)
		if err != nil {
			return err
		}
		streams = append(streams, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(streams) == 0 {
		return emptyStream(), nil
	}
	return &concatStream{streams: streams}, nil
}
