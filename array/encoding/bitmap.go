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

// Package encoding implements the canonical and a handful of
// additional pluggable Array encodings named in spec.md's
// implementation budget (§2): primitive, bool, varbin, struct, list,
// constant, and chunked. Each conforms to the array.Encoding
// capability set; registration happens in each file's init().
package encoding

import "github.com/vortex-io/vortex/vxbuf"

// bitGet reads bit i (0 = false) of a bit-packed validity/boolean
// buffer, matching the canonical "booleans as a bit-packed buffer"
// form spec.md §4.1 requires.
func bitGet(b vxbuf.Buffer, i int) bool {
	data := b.Bytes()
	byteIdx := i >> 3
	if byteIdx >= len(data) {
		return false
	}
	return data[byteIdx]&(1<<uint(i&7)) != 0
}

// packBits bit-packs a []bool into a new byte buffer, little-endian
// within each byte (bit 0 is the lowest-order bit), matching bitGet.
func packBits(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, v := range bits {
		if v {
			out[i>>3] |= 1 << uint(i&7)
		}
	}
	return out
}

// unpackBits expands n bits of a packed buffer into a []bool.
func unpackBits(b vxbuf.Buffer, n int) []bool {
	out := make([]bool, n)
	for i := 0; i < n; i++ {
		out[i] = bitGet(b, i)
	}
	return out
}

// allTrue returns a []bool of length n, every element true — used as
// the implicit validity of non-nullable arrays that carry no explicit
// validity buffer.
func allTrue(n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = true
	}
	return out
}

// takeBits gathers bits from validity at the given indices.
func takeBits(validity []bool, indices []int32) []bool {
	out := make([]bool, len(indices))
	for i, idx := range indices {
		out[i] = validity[idx]
	}
	return out
}

// filterBits keeps bits from validity where mask is true.
func filterBits(validity []bool, mask []bool) []bool {
	out := make([]bool, 0, len(validity))
	for i, keep := range mask {
		if keep {
			out = append(out, validity[i])
		}
	}
	return out
}

func countTrue(mask []bool) int {
	n := 0
	for _, v := range mask {
		if v {
			n++
		}
	}
	return n
}
