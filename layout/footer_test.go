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
	"testing"

	"github.com/vortex-io/vortex/dtype"
	"github.com/vortex-io/vortex/expr"
)

func TestFooterRoundTrip(t *testing.T) {
	dt := dtype.NewPrimitive(dtype.I64, false)
	flat := NewFlat(dt, 10, []SegmentID{0, 1}, expr.FieldStats{HasNullCount: true, NullCount: 0})
	dir := NewSegmentDirectory([]SegmentLoc{
		{ID: 0, Offset: 0, Length: 40, Alignment: 8},
		{ID: 1, Offset: 40, Length: 20, Alignment: 8, Codec: "zstd", RawLength: 64},
	})
	footer := Footer{DType: dt, Root: flat, Segments: dir}

	region, err := EncodeFooter(footer)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeFooter(region)
	if err != nil {
		t.Fatal(err)
	}
	if !got.DType.Equal(dt) {
		t.Fatalf("DType mismatch: got %s, want %s", got.DType, dt)
	}
	if got.Root.RowCount() != 10 {
		t.Fatalf("RowCount mismatch: got %d", got.Root.RowCount())
	}
	loc, ok := got.Segments.Lookup(1)
	if !ok || loc.Codec != "zstd" || loc.RawLength != 64 {
		t.Fatalf("segment 1 round-trip mismatch: %+v", loc)
	}
}

func TestFooterDetectsChecksumCorruption(t *testing.T) {
	dt := dtype.NewPrimitive(dtype.I64, false)
	flat := NewFlat(dt, 1, []SegmentID{0}, expr.FieldStats{})
	region, err := EncodeFooter(Footer{DType: dt, Root: flat, Segments: NewSegmentDirectory(nil)})
	if err != nil {
		t.Fatal(err)
	}
	region[0] ^= 0xff // corrupt the magic byte
	if _, err := DecodeFooter(region); err == nil {
		t.Fatal("expected DecodeFooter to reject a corrupted region")
	}
}

func TestTrailerLengthRoundTrip(t *testing.T) {
	trailer := AppendTrailerLength(nil, 12345)
	got, err := DecodeTrailerLength(trailer)
	if err != nil {
		t.Fatal(err)
	}
	if got != 12345 {
		t.Fatalf("got %d, want 12345", got)
	}
}
