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

package vxbuf

import (
	"unsafe"

	"github.com/vortex-io/vortex/vxerr"
)

// Typed is a numeric type that may be borrowed as a reinterpreted view
// over a Buffer's bytes.
type Typed interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

// View reinterprets b's bytes as a slice of T, failing with Corrupt if
// the buffer's required alignment is insufficient for T or its length
// is not a whole multiple of sizeof(T). Callers should construct
// Buffers with Alignment() >= sizeof(T) and call Realign() beforehand
// to avoid the error path.
func View[T Typed](b Buffer) ([]T, error) {
	var zero T
	width := int(unsafe.Sizeof(zero))
	if b.Alignment() < width {
		return nil, vxerr.New(vxerr.Corrupt, "vxbuf: buffer alignment %d insufficient for %d-byte view", b.Alignment(), width)
	}
	if b.len%width != 0 {
		return nil, vxerr.New(vxerr.Corrupt, "vxbuf: buffer length %d is not a multiple of %d", b.len, width)
	}
	if !b.IsAligned() {
		return nil, vxerr.New(vxerr.Corrupt, "vxbuf: buffer is not aligned for typed view; call Realign first")
	}
	data := b.Bytes()
	if len(data) == 0 {
		return nil, nil
	}
	ptr := (*T)(unsafe.Pointer(&data[0]))
	return unsafe.Slice(ptr, len(data)/width), nil
}

// FromTyped builds a Buffer by reinterpreting a slice of T as bytes.
// The slice's backing array is shared, not copied.
func FromTyped[T Typed](vals []T) Buffer {
	var zero T
	width := int(unsafe.Sizeof(zero))
	if len(vals) == 0 {
		return New(nil, width)
	}
	ptr := (*byte)(unsafe.Pointer(&vals[0]))
	data := unsafe.Slice(ptr, len(vals)*width)
	return New(data, width)
}
