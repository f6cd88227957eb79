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

	"golang.org/x/crypto/blake2b"

	"github.com/vortex-io/vortex/dtype"
	"github.com/vortex-io/vortex/vxerr"
)

// magic is the 4-byte sentinel spec.md §6 requires at the start of the
// footer region, the way sneller's own container formats open with a
// fixed byte sequence before trusting anything that follows.
var magic = [4]byte{'V', 'R', 'T', 'X'}

// FormatVersion is the only footer version this reader understands.
// A footer stamped with any other version fails with UnsupportedVersion
// before a single byte of its body is interpreted.
const FormatVersion uint32 = 1

const checksumSize = 32 // blake2b-256 digest

// SegmentLoc is one entry of the footer's segment directory: the byte
// range an I/O driver must read to resolve a SegmentID, the alignment
// a typed reinterpretation of those bytes requires, and the codec (if
// any) its on-disk bytes were compressed with. Codec == "" means the
// segment's bytes are stored uncompressed and RawLength is unused.
type SegmentLoc struct {
	ID        SegmentID
	Offset    uint64
	Length    uint64
	Alignment uint16
	Codec     string
	RawLength uint64
}

// SegmentDirectory maps segment ids (dense, starting at zero per
// spec.md §6) to their on-disk location.
type SegmentDirectory struct {
	entries []SegmentLoc
}

// NewSegmentDirectory builds a directory from entries, which need not
// be presented in id order.
func NewSegmentDirectory(entries []SegmentLoc) SegmentDirectory {
	return SegmentDirectory{entries: append([]SegmentLoc(nil), entries...)}
}

// Len returns the number of segments in the directory.
func (d SegmentDirectory) Len() int { return len(d.entries) }

// Entries returns the directory's entries in storage order.
func (d SegmentDirectory) Entries() []SegmentLoc { return d.entries }

// Lookup returns the location of id, or ok=false if id is not present.
func (d SegmentDirectory) Lookup(id SegmentID) (SegmentLoc, bool) {
	for _, e := range d.entries {
		if e.ID == id {
			return e, true
		}
	}
	return SegmentLoc{}, false
}

// Footer is the fully decoded content of a file's trailer: the root
// DType, the root Layout tree, and the segment directory needed to
// resolve that tree's segment ids to bytes.
type Footer struct {
	DType    dtype.Type
	Root     Layout
	Segments SegmentDirectory
}

// EncodeFooter serializes f into the self-contained footer region
// spec.md §6 describes: magic, version, DType, Layout tree, segment
// directory, and a blake2b-256 checksum over everything preceding it --
// the same checksum algorithm ion/blockfmt's fs.go uses for its ETags,
// reused here as a structural-corruption guard rather than a content
// address. The caller appends the 8-byte little-endian length of the
// returned region as the file's final bytes (see AppendTrailerLength).
func EncodeFooter(f Footer) ([]byte, error) {
	var body []byte
	body = append(body, magic[:]...)
	body = appendUvarint(body, uint64(FormatVersion))
	body = f.DType.Encode(body)
	var err error
	body, err = EncodeLayout(body, f.Root)
	if err != nil {
		return nil, err
	}
	body = appendUvarint(body, uint64(len(f.Segments.entries)))
	for _, e := range f.Segments.entries {
		body = appendUvarint(body, uint64(e.ID))
		body = appendUvarint(body, e.Offset)
		body = appendUvarint(body, e.Length)
		body = appendUvarint(body, uint64(e.Alignment))
		body = appendString(body, e.Codec)
		body = appendUvarint(body, e.RawLength)
	}
	sum := blake2b.Sum256(body)
	body = append(body, sum[:]...)
	return body, nil
}

// DecodeFooter parses a footer region produced by EncodeFooter,
// validating magic, checksum, and version before interpreting any of
// the DType/Layout/segment-directory payload.
func DecodeFooter(region []byte) (Footer, error) {
	if len(region) < len(magic)+checksumSize {
		return Footer{}, vxerr.New(vxerr.Corrupt, "layout: footer region too short")
	}
	payload := region[:len(region)-checksumSize]
	wantSum := region[len(region)-checksumSize:]
	gotSum := blake2b.Sum256(payload)
	if !bytesEqual(gotSum[:], wantSum) {
		return Footer{}, vxerr.New(vxerr.Corrupt, "layout: footer checksum mismatch")
	}

	if len(payload) < len(magic) || [4]byte(payload[:4]) != magic {
		return Footer{}, vxerr.New(vxerr.Corrupt, "layout: bad magic bytes")
	}
	off := len(magic)
	version, n, err := readUvarint(payload[off:])
	if err != nil {
		return Footer{}, err
	}
	off += n
	if uint32(version) != FormatVersion {
		return Footer{}, vxerr.New(vxerr.UnsupportedVersion, "layout: unsupported footer version %d", version)
	}

	dt, n, err := dtype.Decode(payload[off:])
	if err != nil {
		return Footer{}, err
	}
	off += n

	root, n, err := DecodeLayout(payload[off:])
	if err != nil {
		return Footer{}, err
	}
	off += n

	nseg, n, err := readUvarint(payload[off:])
	if err != nil {
		return Footer{}, err
	}
	off += n
	entries := make([]SegmentLoc, nseg)
	for i := range entries {
		id, n, err := readUvarint(payload[off:])
		if err != nil {
			return Footer{}, err
		}
		off += n
		offset, n, err := readUvarint(payload[off:])
		if err != nil {
			return Footer{}, err
		}
		off += n
		length, n, err := readUvarint(payload[off:])
		if err != nil {
			return Footer{}, err
		}
		off += n
		align, n, err := readUvarint(payload[off:])
		if err != nil {
			return Footer{}, err
		}
		off += n
		codec, n, err := readString(payload[off:])
		if err != nil {
			return Footer{}, err
		}
		off += n
		rawLength, n, err := readUvarint(payload[off:])
		if err != nil {
			return Footer{}, err
		}
		off += n
		entries[i] = SegmentLoc{
			ID: SegmentID(id), Offset: offset, Length: length, Alignment: uint16(align),
			Codec: codec, RawLength: rawLength,
		}
	}

	return Footer{DType: dt, Root: root, Segments: NewSegmentDirectory(entries)}, nil
}

// TrailerLength is the width, in bytes, of the fixed-size trailer
// spec.md §6 requires at the very end of the file: the little-endian
// length of the footer region that precedes it.
const TrailerLength = 8

// AppendTrailerLength appends the 8-byte little-endian encoding of
// footerLen to dst, the final bytes of a valid container file.
func AppendTrailerLength(dst []byte, footerLen int) []byte {
	var tmp [TrailerLength]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(footerLen))
	return append(dst, tmp[:]...)
}

// DecodeTrailerLength parses the 8 trailing bytes of a file into the
// length of the footer region that precedes them.
func DecodeTrailerLength(trailer []byte) (int, error) {
	if len(trailer) != TrailerLength {
		return 0, vxerr.New(vxerr.Corrupt, "layout: trailer must be exactly %d bytes", TrailerLength)
	}
	return int(binary.LittleEndian.Uint64(trailer)), nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
