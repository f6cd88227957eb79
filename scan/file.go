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
	"io"

	"github.com/vortex-io/vortex/dtype"
	"github.com/vortex-io/vortex/layout"
	"github.com/vortex-io/vortex/vxerr"
)

// RawSource is the raw byte-range capability a FileReader opens a
// footer from: anything that can report its size and serve byte ranges
// by offset, whether backed by a local file, an object store client, or
// an in-memory slice.
type RawSource interface {
	io.ReaderAt
	Size() (int64, error)
}

// FileReader is an opened container file: its root DType, its root
// Layout tree, and the segment directory the Layout tree's segment ids
// are resolved against. Opening a file reads only the trailer; no
// segment bytes are read until a Scan asks for them.
type FileReader struct {
	dt       dtype.Type
	root     layout.Layout
	segments layout.SegmentDirectory
}

// Open reads src's footer (spec.md §6: trailer length, magic, version,
// checksum, DType, Layout tree, segment directory) and returns a
// FileReader over it. It fails with Corrupt if src is truncated or the
// footer's structural checks fail, and UnsupportedVersion if the footer
// was written by an incompatible format version.
func Open(src RawSource) (*FileReader, error) {
	size, err := src.Size()
	if err != nil {
		return nil, vxerr.Wrap(vxerr.IoError, err, "scan: stat failed")
	}
	if size < int64(layout.TrailerLength) {
		return nil, vxerr.New(vxerr.Corrupt, "scan: file too short to contain a trailer")
	}

	trailer := make([]byte, layout.TrailerLength)
	if _, err := src.ReadAt(trailer, size-int64(layout.TrailerLength)); err != nil {
		return nil, vxerr.Wrap(vxerr.IoError, err, "scan: trailer read failed")
	}
	footerLen, err := layout.DecodeTrailerLength(trailer)
	if err != nil {
		return nil, err
	}
	if footerLen <= 0 || int64(footerLen)+int64(layout.TrailerLength) > size {
		return nil, vxerr.New(vxerr.Corrupt, "scan: footer length %d exceeds file size %d", footerLen, size)
	}

	region := make([]byte, footerLen)
	footerOffset := size - int64(layout.TrailerLength) - int64(footerLen)
	if _, err := src.ReadAt(region, footerOffset); err != nil {
		return nil, vxerr.Wrap(vxerr.IoError, err, "scan: footer read failed")
	}

	footer, err := layout.DecodeFooter(region)
	if err != nil {
		return nil, err
	}
	return &FileReader{dt: footer.DType, root: footer.Root, segments: footer.Segments}, nil
}

// DType returns the logical type of a full row of the file.
func (f *FileReader) DType() dtype.Type { return f.dt }

// RowCount returns the total number of rows in the file.
func (f *FileReader) RowCount() int { return f.root.RowCount() }

// Root returns the file's root Layout.
func (f *FileReader) Root() layout.Layout { return f.root }

// Segments returns the file's segment directory.
func (f *FileReader) Segments() layout.SegmentDirectory { return f.segments }
