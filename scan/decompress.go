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

package scan

import (
	"context"

	"github.com/vortex-io/vortex/compr"
	"github.com/vortex-io/vortex/layout"
	"github.com/vortex-io/vortex/vxerr"
)

// decompressingSource wraps an inner SegmentSource and undoes the
// per-segment Codec spec.md §6's segment directory records, so every
// layer above it (the cache, the layout tree) only ever sees a
// segment's canonical, uncompressed bytes.
type decompressingSource struct {
	inner layout.SegmentSource
	dir   layout.SegmentDirectory
}

// newDecompressingSource wraps inner, resolving each segment's codec
// against dir. A segment directory with no compressed entries makes
// this a transparent passthrough.
func newDecompressingSource(inner layout.SegmentSource, dir layout.SegmentDirectory) layout.SegmentSource {
	return &decompressingSource{inner: inner, dir: dir}
}

func (d *decompressingSource) Read(ctx context.Context, ids []layout.SegmentID) (map[layout.SegmentID][]byte, error) {
	raw, err := d.inner.Read(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[layout.SegmentID][]byte, len(raw))
	for id, bytes := range raw {
		loc, ok := d.dir.Lookup(id)
		if !ok || loc.Codec == "" {
			out[id] = bytes
			continue
		}
		dec := compr.Decompression(loc.Codec)
		if dec == nil {
			return nil, vxerr.New(vxerr.UnsupportedVersion, "scan: unknown segment codec %q", loc.Codec)
		}
		dst := make([]byte, loc.RawLength)
		if err := dec.Decompress(bytes, dst); err != nil {
			return nil, err
		}
		out[id] = dst
	}
	return out, nil
}
