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
	"encoding/binary"

	"github.com/vortex-io/vortex/dtype"
	"github.com/vortex-io/vortex/expr"
	"github.com/vortex-io/vortex/scalar"
	"github.com/vortex-io/vortex/vxerr"
)

// Tag bytes identifying which of the three tree shapes (spec.md §4.2)
// a serialized layout node is.
const (
	tagFlat byte = iota
	tagChunked
	tagStruct
)

// EncodeLayout appends the wire representation of l to dst: a tag byte,
// l's DType, and a tag-specific body. This is the on-disk shape of the
// footer's root Layout (spec.md §6) -- in the absence of a flatbuffers
// dependency anywhere in the pack (see DESIGN.md), it reuses the same
// tagged-varint codec as dtype.Type.Encode and array.Array.Encode.
func EncodeLayout(dst []byte, l Layout) ([]byte, error) {
	switch v := l.(type) {
	case *Flat:
		dst = append(dst, tagFlat)
		dst = v.dt.Encode(dst)
		dst = appendUvarint(dst, uint64(v.rows))
		dst = appendUvarint(dst, uint64(len(v.segments)))
		for _, id := range v.segments {
			dst = appendUvarint(dst, uint64(id))
		}
		dst = encodeFieldStats(dst, v.stats)
		return dst, nil

	case *Chunked:
		dst = append(dst, tagChunked)
		dst = v.dt.Encode(dst)
		dst = appendUvarint(dst, uint64(len(v.chunks)))
		for _, c := range v.chunks {
			var err error
			dst, err = EncodeLayout(dst, c)
			if err != nil {
				return nil, err
			}
		}
		return dst, nil

	case *Struct:
		dst = append(dst, tagStruct)
		dst = v.dt.Encode(dst)
		for _, f := range v.fields {
			var err error
			dst, err = EncodeLayout(dst, f)
			if err != nil {
				return nil, err
			}
		}
		return dst, nil

	default:
		return nil, vxerr.New(vxerr.Corrupt, "layout: cannot encode unknown Layout implementation")
	}
}

// DecodeLayout parses a Layout from the head of src, returning the
// layout and the number of bytes consumed.
func DecodeLayout(src []byte) (Layout, int, error) {
	if len(src) == 0 {
		return nil, 0, vxerr.New(vxerr.Corrupt, "layout: empty buffer")
	}
	tag := src[0]
	off := 1
	dt, n, err := dtype.Decode(src[off:])
	if err != nil {
		return nil, 0, err
	}
	off += n

	switch tag {
	case tagFlat:
		rows, m, err := readUvarint(src[off:])
		if err != nil {
			return nil, 0, err
		}
		off += m
		nseg, m, err := readUvarint(src[off:])
		if err != nil {
			return nil, 0, err
		}
		off += m
		segs := make([]SegmentID, nseg)
		for i := range segs {
			id, m, err := readUvarint(src[off:])
			if err != nil {
				return nil, 0, err
			}
			segs[i] = SegmentID(id)
			off += m
		}
		stats, m, err := decodeFieldStats(src[off:])
		if err != nil {
			return nil, 0, err
		}
		off += m
		return NewFlat(dt, int(rows), segs, stats), off, nil

	case tagChunked:
		n, m, err := readUvarint(src[off:])
		if err != nil {
			return nil, 0, err
		}
		off += m
		chunks := make([]Layout, n)
		for i := range chunks {
			c, m, err := DecodeLayout(src[off:])
			if err != nil {
				return nil, 0, err
			}
			chunks[i] = c
			off += m
		}
		cl, err := NewChunked(dt, chunks)
		if err != nil {
			return nil, 0, err
		}
		return cl, off, nil

	case tagStruct:
		fields := dt.Fields()
		subs := make([]Layout, len(fields))
		for i := range subs {
			c, m, err := DecodeLayout(src[off:])
			if err != nil {
				return nil, 0, err
			}
			subs[i] = c
			off += m
		}
		sl, err := NewStruct(dt, subs)
		if err != nil {
			return nil, 0, err
		}
		return sl, off, nil

	default:
		return nil, 0, vxerr.New(vxerr.Corrupt, "layout: unknown tag %d", tag)
	}
}

func encodeFieldStats(dst []byte, st expr.FieldStats) []byte {
	dst = appendFlag(dst, st.HasMin)
	if st.HasMin {
		dst = st.Min.Encode(dst)
	}
	dst = appendFlag(dst, st.HasMax)
	if st.HasMax {
		dst = st.Max.Encode(dst)
	}
	dst = appendFlag(dst, st.HasNullCount)
	if st.HasNullCount {
		dst = appendVarint(dst, st.NullCount)
	}
	return dst
}

func decodeFieldStats(src []byte) (expr.FieldStats, int, error) {
	var st expr.FieldStats
	off := 0
	hasMin, n, err := readFlag(src[off:])
	if err != nil {
		return st, 0, err
	}
	off += n
	st.HasMin = hasMin
	if hasMin {
		v, n, err := scalar.Decode(src[off:])
		if err != nil {
			return st, 0, err
		}
		st.Min = v
		off += n
	}
	hasMax, n, err := readFlag(src[off:])
	if err != nil {
		return st, 0, err
	}
	off += n
	st.HasMax = hasMax
	if hasMax {
		v, n, err := scalar.Decode(src[off:])
		if err != nil {
			return st, 0, err
		}
		st.Max = v
		off += n
	}
	hasNC, n, err := readFlag(src[off:])
	if err != nil {
		return st, 0, err
	}
	off += n
	st.HasNullCount = hasNC
	if hasNC {
		v, n, err := readVarint(src[off:])
		if err != nil {
			return st, 0, err
		}
		st.NullCount = v
		off += n
	}
	return st, off, nil
}

func appendFlag(dst []byte, v bool) []byte {
	if v {
		return append(dst, 1)
	}
	return append(dst, 0)
}

func readFlag(src []byte) (bool, int, error) {
	if len(src) == 0 {
		return false, 0, vxerr.New(vxerr.Corrupt, "layout: truncated flag")
	}
	return src[0] != 0, 1, nil
}

func appendUvarint(dst []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(dst, tmp[:n]...)
}

func appendVarint(dst []byte, v int64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutVarint(tmp[:], v)
	return append(dst, tmp[:n]...)
}

func readUvarint(src []byte) (uint64, int, error) {
	v, n := binary.Uvarint(src)
	if n <= 0 {
		return 0, 0, vxerr.New(vxerr.Corrupt, "layout: invalid uvarint")
	}
	return v, n, nil
}

func appendString(dst []byte, s string) []byte {
	dst = appendUvarint(dst, uint64(len(s)))
	return append(dst, s...)
}

func readString(src []byte) (string, int, error) {
	n, m, err := readUvarint(src)
	if err != nil {
		return "", 0, err
	}
	if uint64(len(src)-m) < n {
		return "", 0, vxerr.New(vxerr.Corrupt, "layout: truncated string")
	}
	return string(src[m : m+int(n)]), m + int(n), nil
}

func readVarint(src []byte) (int64, int, error) {
	v, n := binary.Varint(src)
	if n <= 0 {
		return 0, 0, vxerr.New(vxerr.Corrupt, "layout: invalid varint")
	}
	return v, n, nil
}
