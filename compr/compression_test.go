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

package compr

import (
	"bytes"
	"testing"
)

func testRoundTrip(t *testing.T, name string) {
	t.Helper()
	src := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog"), 100)

	c := Compression(name)
	if c == nil {
		t.Fatalf("no compressor registered for %q", name)
	}
	compressed := c.Compress(src, nil)

	d := Decompression(name)
	if d == nil {
		t.Fatalf("no decompressor registered for %q", name)
	}
	dst := make([]byte, len(src))
	if err := d.Decompress(compressed, dst); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(dst, src) {
		t.Fatalf("%s round trip mismatch", name)
	}
}

func TestZstdRoundTrip(t *testing.T) { testRoundTrip(t, "zstd") }
func TestS2RoundTrip(t *testing.T)   { testRoundTrip(t, "s2") }

func TestUnknownCodecIsNil(t *testing.T) {
	if Compression("lz4") != nil {
		t.Fatal("expected nil for an unregistered codec")
	}
	if Decompression("lz4") != nil {
		t.Fatal("expected nil for an unregistered codec")
	}
}
