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

// Package layout implements the tree of on-disk layouts described in
// spec.md §3/§4.2: Flat (a column's raw segments), Chunked (an ordered
// sequence of sub-layouts, each independently prunable), and Struct (a
// named, ordered sequence of per-field sub-layouts sharing one row
// count). Reading a layout never materializes more than it has to:
// pruning against statistics skips segment reads entirely, and
// projection skips reading fields a query never references.
package layout

import (
	"context"

	"github.com/vortex-io/vortex/array"
	"github.com/vortex-io/vortex/array/encoding"
	"github.com/vortex-io/vortex/dtype"
	"github.com/vortex-io/vortex/vxerr"
)

// SegmentID identifies one physical byte range within a file's segment
// directory, resolved to bytes by a SegmentSource.
type SegmentID uint32

// SegmentSource resolves segment ids to bytes, the seam between a
// layout tree (which only knows ids) and whatever holds the actual
// storage -- a memory-mapped file, a remote object, or a test double.
type SegmentSource interface {
	// Read fetches the bytes for every id in ids. Implementations may
	// coalesce adjacent ids into one underlying I/O; callers must not
	// assume anything about how many underlying reads occurred.
	Read(ctx context.Context, ids []SegmentID) (map[SegmentID][]byte, error)
}

// ArrayStream lazily produces a sequence of arrays, each a contiguous
// slab of the rows a Scan was asked for. Once exhausted, Next returns
// the sentinel errEOF (not io.EOF; it carries the vxerr.Cancelled kind,
// so test for it with EOF rather than by kind); callers drain a stream
// with Next until EOF reports true.
type ArrayStream interface {
	Next(ctx context.Context) (Array, error)
}

// Array is re-exported so callers of this package need not also import
// the array package solely to spell the Next return type.
type Array = array.Array

// errEOF is the sentinel ArrayStream.Next returns once exhausted. It is
// a distinct value (not io.EOF) so layout code never has to import io
// solely for this, and so callers cannot confuse it with an I/O EOF
// bubbling up from a SegmentSource.
var errEOF = vxerr.New(vxerr.Cancelled, "layout: stream exhausted")

// EOF reports whether err is the exhausted-stream sentinel.
func EOF(err error) bool { return err == errEOF }

// sliceStream emits a single array once, then errEOF.
type sliceStream struct {
	arr     Array
	emitted bool
	isEmpty bool // true if the stream should emit nothing at all
}

func newSliceStream(a Array) ArrayStream {
	return &sliceStream{arr: a}
}

func emptyStream() ArrayStream {
	return &sliceStream{isEmpty: true}
}

func (s *sliceStream) Next(ctx context.Context) (Array, error) {
	if s.isEmpty || s.emitted {
		return Array{}, errEOF
	}
	if err := ctx.Err(); err != nil {
		return Array{}, vxerr.Wrap(vxerr.Cancelled, err, "layout: scan cancelled")
	}
	s.emitted = true
	return s.arr, nil
}

// concatStream chains a sequence of streams in order, presenting them
// as one stream -- the mechanism Chunked.Scan uses to preserve
// chunk-index ordering across its surviving chunks.
type concatStream struct {
	streams []ArrayStream
}

func (c *concatStream) Next(ctx context.Context) (Array, error) {
	for len(c.streams) > 0 {
		a, err := c.streams[0].Next(ctx)
		if err == nil {
			return a, nil
		}
		if !EOF(err) {
			return Array{}, err
		}
		c.streams = c.streams[1:]
	}
	return Array{}, errEOF
}

// drainToOne pulls every array out of s and concatenates them into a
// single canonical array, falling back to an empty canonical array of
// dt if the stream produced nothing. Struct.Scan uses this to turn a
// field's own (possibly chunked) stream into the one array a Pack or
// Identity projection evaluates against.
func drainToOne(ctx context.Context, s ArrayStream, dt dtype.Type) (Array, error) {
	var parts []Array
	for {
		a, err := s.Next(ctx)
		if EOF(err) {
			break
		}
		if err != nil {
			return Array{}, err
		}
		parts = append(parts, a)
	}
	switch len(parts) {
	case 0:
		return encoding.EmptyCanonical(dt)
	case 1:
		return parts[0].Canonicalize()
	default:
		chunked, err := encoding.NewChunkedArray(parts)
		if err != nil {
			return Array{}, err
		}
		return chunked.Canonicalize()
	}
}
