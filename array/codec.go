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

import (
	"encoding/binary"

	"github.com/vortex-io/vortex/dtype"
	"github.com/vortex-io/vortex/vxbuf"
	"github.com/vortex-io/vortex/vxerr"
)

// Encode appends the wire representation of a to dst: a self-describing
// record (encoding id, DType, length, metadata, buffers, children)
// in the same tagged-then-payload spirit as dtype.Type.Encode, used by
// the layout package to turn a decoded array back into segment bytes
// and vice versa. This is the per-segment counterpart of the footer's
// DType-only codec.
func (a Array) Encode(dst []byte) []byte {
	dst = appendUvarint(dst, uint64(a.enc.Int))
	dst = a.dt.Encode(dst)
	dst = appendUvarint(dst, uint64(a.len))
	dst = appendUvarint(dst, uint64(len(a.metadata)))
	dst = append(dst, a.metadata...)
	dst = appendUvarint(dst, uint64(len(a.buffers)))
	for _, b := range a.buffers {
		dst = appendUvarint(dst, uint64(b.Alignment()))
		bs := b.Bytes()
		dst = appendUvarint(dst, uint64(len(bs)))
		dst = append(dst, bs...)
	}
	dst = appendUvarint(dst, uint64(len(a.children)))
	for _, c := range a.children {
		dst = c.Encode(dst)
	}
	return dst
}

// Decode parses an Array from the head of src, returning the array and
// the number of bytes consumed. The returned Array's buffers alias src
// (no copy); callers holding onto src past the Array's lifetime should
// pass a buffer they are willing to share.
func Decode(src []byte) (Array, int, error) {
	id, n, err := readUvarint(src)
	if err != nil {
		return Array{}, 0, err
	}
	off := n
	dt, n, err := dtype.Decode(src[off:])
	if err != nil {
		return Array{}, 0, err
	}
	off += n
	length, n, err := readUvarint(src[off:])
	if err != nil {
		return Array{}, 0, err
	}
	off += n
	metaLen, n, err := readUvarint(src[off:])
	if err != nil {
		return Array{}, 0, err
	}
	off += n
	if uint64(len(src[off:])) < metaLen {
		return Array{}, 0, vxerr.New(vxerr.Corrupt, "array: truncated metadata")
	}
	meta := append([]byte(nil), src[off:off+int(metaLen)]...)
	off += int(metaLen)

	nbufs, n, err := readUvarint(src[off:])
	if err != nil {
		return Array{}, 0, err
	}
	off += n
	buffers := make([]vxbuf.Buffer, nbufs)
	for i := range buffers {
		align, n, err := readUvarint(src[off:])
		if err != nil {
			return Array{}, 0, err
		}
		off += n
		blen, n, err := readUvarint(src[off:])
		if err != nil {
			return Array{}, 0, err
		}
		off += n
		if uint64(len(src[off:])) < blen {
			return Array{}, 0, vxerr.New(vxerr.Corrupt, "array: truncated buffer")
		}
		buffers[i] = vxbuf.New(src[off:off+int(blen)], int(align))
		off += int(blen)
	}

	nchildren, n, err := readUvarint(src[off:])
	if err != nil {
		return Array{}, 0, err
	}
	off += n
	children := make([]Array, nchildren)
	for i := range children {
		c, n, err := Decode(src[off:])
		if err != nil {
			return Array{}, 0, err
		}
		children[i] = c
		off += n
	}

	return New(dt, int(length), EncodingID{Int: uint32(id)}, buffers, children, meta), off, nil
}

func appendUvarint(dst []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(dst, tmp[:n]...)
}

func readUvarint(src []byte) (uint64, int, error) {
	v, n := binary.Uvarint(src)
	if n <= 0 {
		return 0, 0, vxerr.New(vxerr.Corrupt, "array: invalid varint")
	}
	return v, n, nil
}
