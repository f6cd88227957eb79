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
	"os"
	"path/filepath"
	"testing"

	"github.com/vortex-io/vortex/layout"
)

func TestMmapSegmentSourceResolvesByteRanges(t *testing.T) {
	data := []byte("hello-segment-one|segment-two-bytes")
	path := filepath.Join(t.TempDir(), "segments.bin")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	dir := layout.NewSegmentDirectory([]layout.SegmentLoc{
		{ID: 0, Offset: 0, Length: 18},
		{ID: 1, Offset: 18, Length: uint64(len(data) - 18)},
	})
	src, err := OpenMmapSegmentSource(path, dir)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	out, err := src.Read(context.Background(), []layout.SegmentID{0, 1})
	if err != nil {
		t.Fatal(err)
	}
	if string(out[0]) != "hello-segment-one|" {
		t.Fatalf("segment 0 mismatch: %q", out[0])
	}
	if string(out[1]) != "segment-two-bytes" {
		t.Fatalf("segment 1 mismatch: %q", out[1])
	}
}

func TestMmapSegmentSourceRejectsUnknownSegment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segments.bin")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	src, err := OpenMmapSegmentSource(path, layout.NewSegmentDirectory(nil))
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	if _, err := src.Read(context.Background(), []layout.SegmentID{99}); err == nil {
		t.Fatal("expected an error for an unknown segment id")
	}
}
