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

// Package compr adapts third-party compression libraries to the
// narrow Compressor/Decompressor interface the segment body codec
// (spec.md §6's per-segment Codec tag) needs. A segment's bytes are
// compressed independently of whatever array encoding they decode to,
// the same split sneller draws between ion/blockfmt's block codec and
// the ion values a block holds.
package compr

import (
	"runtime"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"

	"github.com/vortex-io/vortex/vxerr"
)

// Compressor appends the compressed contents of src to dst and returns
// the result.
type Compressor interface {
	Name() string
	Compress(src, dst []byte) []byte
}

// Decompressor decompresses src into dst, failing if dst is not
// exactly large enough to hold the decompressed result -- the segment
// directory always records the exact uncompressed length, so a short
// or long result means the segment (or its directory entry) is
// corrupt.
type Decompressor interface {
	Name() string
	Decompress(src, dst []byte) error
}

type zstdCompressor struct{ enc *zstd.Encoder }

func (z zstdCompressor) Name() string { return "zstd" }

func (z zstdCompressor) Compress(src, dst []byte) []byte { return z.enc.EncodeAll(src, dst) }

var zstdDecoder *zstd.Decoder

func init() {
	z, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(runtime.GOMAXPROCS(0)))
	if err != nil {
		panic(err)
	}
	zstdDecoder = z
}

type zstdDecompressor struct{}

func (zstdDecompressor) Name() string { return "zstd" }

func (zstdDecompressor) Decompress(src, dst []byte) error {
	into := dst[:0:len(dst)]
	ret, err := zstdDecoder.DecodeAll(src, into)
	if err != nil {
		return vxerr.Wrap(vxerr.Corrupt, err, "compr: zstd decompress failed")
	}
	if len(ret) != len(dst) {
		return vxerr.New(vxerr.Corrupt, "compr: zstd decompress: expected %d bytes, got %d", len(dst), len(ret))
	}
	return nil
}

type s2Compressor struct{}

func (s2Compressor) Name() string { return "s2" }

func (s2Compressor) Compress(src, dst []byte) []byte {
	return append(dst, s2.Encode(nil, src)...)
}

func (s2Compressor) Decompress(src, dst []byte) error {
	into := dst[:0:len(dst)]
	ret, err := s2.Decode(into, src)
	if err != nil {
		return vxerr.Wrap(vxerr.Corrupt, err, "compr: s2 decompress failed")
	}
	if len(ret) != len(dst) {
		return vxerr.New(vxerr.Corrupt, "compr: s2 decompress: expected %d bytes, got %d", len(dst), len(ret))
	}
	return nil
}

// Compression selects a Compressor by codec name, or nil if name is
// unrecognized.
func Compression(name string) Compressor {
	switch name {
	case "zstd":
		w, _ := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
		return zstdCompressor{enc: w}
	case "s2":
		return s2Compressor{}
	default:
		return nil
	}
}

// Decompression selects a Decompressor by codec name, or nil if name
// is unrecognized (including the empty string, which callers should
// treat as "uncompressed" rather than route through here).
func Decompression(name string) Decompressor {
	switch name {
	case "zstd":
		return zstdDecompressor{}
	case "s2":
		return s2Compressor{}
	default:
		return nil
	}
}
