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

// Package vxbuf implements the immutable, alignment-aware,
// reference-counted byte region described in spec.md §3. Every array
// buffer and every on-disk segment is ultimately one of these. The
// alignment bookkeeping mirrors the concerns the teacher handles
// ad hoc in ion/blockfmt's mmap support (mmap_linux.go): borrowed
// segment bytes must be realigned by copy before they can be
// reinterpreted as a typed view.
package vxbuf

import (
	"sync/atomic"
	"unsafe"

	"github.com/vortex-io/vortex/vxerr"
)

// Buffer is a shared-ownership, immutable byte region with a required
// alignment. Slicing does not copy; converting to a mutable buffer
// copies iff the reference count is greater than one.
type Buffer struct {
	root  *root
	off   int
	len   int
	align int
}

type root struct {
	data []byte
	refs int32
}

// New wraps data as a fresh Buffer with refcount 1 and the given
// required alignment (must be a power of two, or zero for "none").
func New(data []byte, align int) Buffer {
	if align != 0 && align&(align-1) != 0 {
		panic("vxbuf: alignment must be a power of two")
	}
	return Buffer{
		root:  &root{data: data, refs: 1},
		off:   0,
		len:   len(data),
		align: align,
	}
}

// Empty returns a zero-length Buffer.
func Empty() Buffer { return Buffer{} }

// Len returns the length of the buffer in bytes.
func (b Buffer) Len() int { return b.len }

// Alignment returns the buffer's required alignment.
func (b Buffer) Alignment() int { return b.align }

// Bytes returns the byte contents of the buffer. The returned slice
// must not be mutated; callers needing a mutable copy should use
// AsMutable.
func (b Buffer) Bytes() []byte {
	if b.root == nil {
		return nil
	}
	return b.root.data[b.off : b.off+b.len]
}

// IsAligned reports whether the buffer's start address satisfies its
// required alignment. Slices of a mmap'd segment can drift out of
// alignment even when the root mapping was aligned.
func (b Buffer) IsAligned() bool {
	if b.align == 0 || b.len == 0 {
		return true
	}
	ptr := uintptr(unsafe.Pointer(&b.root.data[b.off]))
	return ptr%uintptr(b.align) == 0
}

// clone bumps the refcount and returns a new handle sharing storage.
func (b Buffer) clone() Buffer {
	if b.root != nil {
		atomic.AddInt32(&b.root.refs, 1)
	}
	return b
}

// Retain returns a new handle sharing this buffer's storage, bumping
// the reference count. Every Retain must be paired with a Release.
func (b Buffer) Retain() Buffer { return b.clone() }

// Release decrements the reference count. It is safe to call on a
// zero Buffer. Once the count reaches zero the backing array becomes
// eligible for garbage collection (Go buffers do not require an
// explicit free, but callers coordinating with pooled allocators may
// use the returned bool to decide whether to return storage to a pool).
func (b Buffer) Release() (last bool) {
	if b.root == nil {
		return false
	}
	return atomic.AddInt32(&b.root.refs, -1) == 0
}

// Refs reports the current reference count, primarily for tests.
func (b Buffer) Refs() int32 {
	if b.root == nil {
		return 0
	}
	return atomic.LoadInt32(&b.root.refs)
}

// Slice returns the half-open byte range [start:end), sharing storage.
// It fails with OutOfBounds if the range is invalid.
func (b Buffer) Slice(start, end int) (Buffer, error) {
	if start < 0 || end < start || end > b.len {
		return Buffer{}, vxerr.New(vxerr.OutOfBounds, "vxbuf: slice [%d:%d) out of range for len %d", start, end, b.len)
	}
	return Buffer{
		root:  b.root,
		off:   b.off + start,
		len:   end - start,
		align: b.align,
	}, nil
}

// AsMutable returns a Buffer whose bytes may be safely mutated by the
// caller, copying the underlying storage iff it is currently shared
// (refcount > 1) or the handle is a sub-slice of a larger allocation.
func (b Buffer) AsMutable() Buffer {
	if b.root == nil {
		return b
	}
	if atomic.LoadInt32(&b.root.refs) <= 1 && b.off == 0 && b.len == len(b.root.data) {
		return b
	}
	cp := make([]byte, b.len)
	copy(cp, b.Bytes())
	return New(cp, b.align)
}

// Realign returns a Buffer satisfying IsAligned, copying the data if
// necessary. Readers that cannot guarantee a segment's required
// alignment must call this before exposing a typed view, per spec.md §3.
func (b Buffer) Realign() Buffer {
	if b.IsAligned() {
		return b
	}
	cp := make([]byte, roundUp(b.len, b.align))
	copy(cp, b.Bytes())
	out := New(cp, b.align)
	out.len = b.len
	return out
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) &^ (align - 1)
}
