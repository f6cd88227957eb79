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

package array

import "github.com/vortex-io/vortex/scalar"

// Stat is one of the closed set of statistics kinds spec.md §3 names.
// A closed enum (rather than an open string-keyed map) lets pruning
// logic exhaustively pattern-match on it, per spec.md §9.
type Stat uint8

const (
	Min Stat = iota
	Max
	NullCount
	TrueCount
	IsConstant
	IsSorted
	IsStrictSorted
	UncompressedSize
	BitWidthFreq // integer encodings only
	RunCount     // run-end encodings only
	numStats
)

// StatSet is a sparse map from Stat to Scalar. Absence of an entry
// means "unknown"; presence carries the invariant that the value is
// correct for the array it is attached to.
type StatSet struct {
	present [numStats]bool
	values  [numStats]scalar.Scalar
}

// NewStatSet returns an empty StatSet.
func NewStatSet() *StatSet { return &StatSet{} }

// Set records a known value for the given statistic.
func (s *StatSet) Set(k Stat, v scalar.Scalar) {
	s.present[k] = true
	s.values[k] = v
}

// Get returns the value of k and whether it is known. A nil receiver
// behaves as an empty set.
func (s *StatSet) Get(k Stat) (scalar.Scalar, bool) {
	if s == nil || !s.present[k] {
		return scalar.Scalar{}, false
	}
	return s.values[k], true
}

// Clone returns a deep copy (scalars are themselves immutable, so
// this is a shallow array copy of the fixed-size backing arrays).
func (s *StatSet) Clone() *StatSet {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

// Merge combines two statistics sets describing contiguous,
// concatenated arrays into one describing their concatenation,
// keeping only statistics mergeable in that way (min -> min of mins,
// max -> max of maxes, null/true counts and uncompressed size sum).
// Constant-ness and sortedness are not merged and are always dropped,
// as are statistics unknown on either side, per spec.md §3
// ("merging two contiguous arrays merges mergeable stats").
func Merge(a, b *StatSet) *StatSet {
	out := NewStatSet()
	if min, ok := minOf(a, b); ok {
		out.Set(Min, min)
	}
	if max, ok := maxOf(a, b); ok {
		out.Set(Max, max)
	}
	if n, ok := sumInt(a, b, NullCount); ok {
		out.Set(NullCount, n)
	}
	if n, ok := sumInt(a, b, TrueCount); ok {
		out.Set(TrueCount, n)
	}
	if n, ok := sumInt(a, b, UncompressedSize); ok {
		out.Set(UncompressedSize, n)
	}
	return out
}

func minOf(a, b *StatSet) (scalar.Scalar, bool) {
	av, aok := a.Get(Min)
	bv, bok := b.Get(Min)
	switch {
	case aok && bok:
		c, err := scalar.Compare(av, bv)
		if err != nil {
			return scalar.Scalar{}, false
		}
		if c <= 0 {
			return av, true
		}
		return bv, true
	default:
		return scalar.Scalar{}, false
	}
}

func maxOf(a, b *StatSet) (scalar.Scalar, bool) {
	av, aok := a.Get(Max)
	bv, bok := b.Get(Max)
	switch {
	case aok && bok:
		c, err := scalar.Compare(av, bv)
		if err != nil {
			return scalar.Scalar{}, false
		}
		if c >= 0 {
			return av, true
		}
		return bv, true
	default:
		return scalar.Scalar{}, false
	}
}

func sumInt(a, b *StatSet, k Stat) (scalar.Scalar, bool) {
	av, aok := a.Get(k)
	bv, bok := b.Get(k)
	if !aok || !bok {
		return scalar.Scalar{}, false
	}
	return scalar.Int(av.AsInt()+bv.AsInt(), av.Type().Width(), false), true
}
