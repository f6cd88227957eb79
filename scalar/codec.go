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

package scalar

import (
	"encoding/binary"
	"math"

	"github.com/vortex-io/vortex/dtype"
	"github.com/vortex-io/vortex/vxerr"
)

// Encode appends the wire representation of s to dst: the DType codec
// followed by a null flag and, for non-null values, a payload shaped by
// the DType's kind. This is the format the footer's min/max statistics
// and a Flat layout's stats snapshot use to persist a Scalar, the same
// tagged-then-payload spirit as dtype.Type.Encode and array.Array.Encode.
func (s Scalar) Encode(dst []byte) []byte {
	dst = s.typ.Encode(dst)
	if s.IsNull() {
		return append(dst, 1)
	}
	dst = append(dst, 0)
	switch s.typ.Kind() {
	case dtype.Bool:
		if s.b {
			dst = append(dst, 1)
		} else {
			dst = append(dst, 0)
		}
	case dtype.Primitive:
		w := s.typ.Width()
		switch {
		case w.IsFloat():
			dst = appendFloat(dst, s.f)
		case w.IsSigned():
			dst = appendVarint(dst, s.i)
		default:
			dst = appendUvarint(dst, s.u)
		}
	case dtype.Utf8:
		dst = appendString(dst, s.s)
	case dtype.Binary:
		dst = appendUvarint(dst, uint64(len(s.by)))
		dst = append(dst, s.by...)
	case dtype.List:
		dst = appendUvarint(dst, uint64(len(s.list)))
		for _, v := range s.list {
			dst = v.Encode(dst)
		}
	case dtype.Struct:
		for _, v := range s.strc {
			dst = v.Encode(dst)
		}
	}
	return dst
}

// Decode parses a Scalar from the head of src, returning the scalar and
// the number of bytes consumed.
func Decode(src []byte) (Scalar, int, error) {
	dt, n, err := dtype.Decode(src)
	if err != nil {
		return Scalar{}, 0, err
	}
	off := n
	if off >= len(src) {
		return Scalar{}, 0, vxerr.New(vxerr.Corrupt, "scalar: truncated null flag")
	}
	isNull := src[off]
	off++
	if isNull == 1 {
		return Null(dt), off, nil
	}

	switch dt.Kind() {
	case dtype.Null:
		return Null(dt), off, nil
	case dtype.Bool:
		if off >= len(src) {
			return Scalar{}, 0, vxerr.New(vxerr.Corrupt, "scalar: truncated bool")
		}
		v := src[off] != 0
		off++
		return Bool(v, dt.Nullable()), off, nil
	case dtype.Primitive:
		w := dt.Width()
		switch {
		case w.IsFloat():
			f, m, err := readFloat(src[off:])
			if err != nil {
				return Scalar{}, 0, err
			}
			return Float(f, w, dt.Nullable()), off + m, nil
		case w.IsSigned():
			v, m, err := readVarint(src[off:])
			if err != nil {
				return Scalar{}, 0, err
			}
			return Int(v, w, dt.Nullable()), off + m, nil
		default:
			v, m, err := readUvarint(src[off:])
			if err != nil {
				return Scalar{}, 0, err
			}
			return Uint(v, w, dt.Nullable()), off + m, nil
		}
	case dtype.Utf8:
		v, m, err := readString(src[off:])
		if err != nil {
			return Scalar{}, 0, err
		}
		return String(v, dt.Nullable()), off + m, nil
	case dtype.Binary:
		n, m, err := readUvarint(src[off:])
		if err != nil {
			return Scalar{}, 0, err
		}
		off += m
		if uint64(len(src[off:])) < n {
			return Scalar{}, 0, vxerr.New(vxerr.Corrupt, "scalar: truncated bytes")
		}
		v := append([]byte(nil), src[off:off+int(n)]...)
		return Bytes(v, dt.Nullable()), off + int(n), nil
	case dtype.List:
		n, m, err := readUvarint(src[off:])
		if err != nil {
			return Scalar{}, 0, err
		}
		off += m
		vals := make([]Scalar, n)
		for i := range vals {
			v, m, err := Decode(src[off:])
			if err != nil {
				return Scalar{}, 0, err
			}
			vals[i] = v
			off += m
		}
		return List(dt.Element(), vals, dt.Nullable()), off, nil
	case dtype.Struct:
		fields := dt.Fields()
		vals := make([]Scalar, len(fields))
		for i := range vals {
			v, m, err := Decode(src[off:])
			if err != nil {
				return Scalar{}, 0, err
			}
			vals[i] = v
			off += m
		}
		return Struct(dt, vals), off, nil
	default:
		return Scalar{}, 0, vxerr.New(vxerr.Corrupt, "scalar: unsupported kind %v", dt.Kind())
	}
}

func appendUvarint(dst []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(dst, tmp[:n]...)
}

func appendVarint(dst []byte, v int64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutVarint(tmp[:], v)
	return append(dst, tmp[:n]...)
}

func appendString(dst []byte, s string) []byte {
	dst = appendUvarint(dst, uint64(len(s)))
	return append(dst, s...)
}

func appendFloat(dst []byte, f float64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(f))
	return append(dst, tmp[:]...)
}

func readUvarint(src []byte) (uint64, int, error) {
	v, n := binary.Uvarint(src)
	if n <= 0 {
		return 0, 0, vxerr.New(vxerr.Corrupt, "scalar: invalid uvarint")
	}
	return v, n, nil
}

func readVarint(src []byte) (int64, int, error) {
	v, n := binary.Varint(src)
	if n <= 0 {
		return 0, 0, vxerr.New(vxerr.Corrupt, "scalar: invalid varint")
	}
	return v, n, nil
}

func readFloat(src []byte) (float64, int, error) {
	if len(src) < 8 {
		return 0, 0, vxerr.New(vxerr.Corrupt, "scalar: truncated float")
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(src)), 8, nil
}

func readString(src []byte) (string, int, error) {
	n, m, err := readUvarint(src)
	if err != nil {
		return "", 0, err
	}
	if uint64(len(src[m:])) < n {
		return "", 0, vxerr.New(vxerr.Corrupt, "scalar: truncated string")
	}
	return string(src[m : m+int(n)]), m + int(n), nil
}
