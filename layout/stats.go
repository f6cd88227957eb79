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
	"github.com/vortex-io/vortex/expr"
	"github.com/vortex-io/vortex/scalar"
)

// StatsSnapshot is what PruningStats returns: either a single summary
// (a Flat layout's own min/max/null-count) or one summary per child
// (a Chunked layout's per-chunk summaries, in chunk order). Struct
// layouts have no summary of their own -- pruning is always driven by
// a leaf's or a chunk's statistics, never a struct's.
type StatsSnapshot struct {
	Single   *expr.FieldStats
	PerChunk []expr.FieldStats
}

// representative collapses a snapshot to the single FieldStats Prune
// needs when deciding whether to skip a whole sub-tree: a Flat's own
// stats pass through, while a Chunked's per-chunk stats are merged
// (min-of-mins, max-of-maxes, sum-of-null-counts) into a summary that
// is conservative for the whole range -- any bound present in every
// chunk is present in the merge, and any bound missing from a single
// chunk is dropped, so pruning against it never produces a false
// DefinitelyTrue/DefinitelyFalse.
func representative(sn *StatsSnapshot) expr.FieldStats {
	if sn == nil {
		return expr.FieldStats{}
	}
	if sn.Single != nil {
		return *sn.Single
	}
	if len(sn.PerChunk) == 0 {
		return expr.FieldStats{}
	}
	out := sn.PerChunk[0]
	for _, c := range sn.PerChunk[1:] {
		out = mergeFieldStats(out, c)
	}
	return out
}

func mergeFieldStats(a, b expr.FieldStats) expr.FieldStats {
	out := expr.FieldStats{}
	if a.HasMin && b.HasMin {
		if less(a.Min, b.Min) {
			out.Min, out.HasMin = a.Min, true
		} else {
			out.Min, out.HasMin = b.Min, true
		}
	}
	if a.HasMax && b.HasMax {
		if less(a.Max, b.Max) {
			out.Max, out.HasMax = b.Max, true
		} else {
			out.Max, out.HasMax = a.Max, true
		}
	}
	if a.HasNullCount && b.HasNullCount {
		out.NullCount, out.HasNullCount = a.NullCount+b.NullCount, true
	}
	return out
}

func less(a, b scalar.Scalar) bool {
	c, err := scalar.Compare(a, b)
	if err != nil {
		return false
	}
	return c < 0
}
