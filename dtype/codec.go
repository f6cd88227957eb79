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

package dtype

import (
	"encoding/binary"

	"github.com/vortex-io/vortex/vxerr"
)

// Encode appends the wire representation of t to dst. This is the
// format embedded in the file footer (spec.md §6): a small tagged
// encoding in the same self-describing spirit as the teacher's ion
// Symtab/Buffer encoding, but scoped to just the DType sum.
func (t Type) Encode(dst []byte) []byte {
	dst = append(dst, byte(t.kind))
	if t.kind == Null {
		return dst
	}
	if t.nullable {
		dst = append(dst, 1)
	} else {
		dst = append(dst, 0)
	}
	switch t.kind {
	case Primitive:
		dst = append(dst, byte(t.width))
	case Struct:
		dst = appendUvarint(dst, uint64(len(t.fields)))
		for _, f := range t.fields {
			dst = appendString(dst, f.Name)
			dst = f.Type.Encode(dst)
		}
	case List:
		dst = t.elem.Encode(dst)
	case Extension:
		dst = appendString(dst, t.extID)
		dst = t.extStorage.Encode(dst)
		dst = appendUvarint(dst, uint64(len(t.extMeta)))
		dst = append(dst, t.extMeta...)
	}
	return dst
}

func appendUvarint(dst []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(dst, tmp[:n]...)
}

func appendString(dst []byte, s string) []byte {
	dst = appendUvarint(dst, uint64(len(s)))
	return append(dst, s...)
}

// Decode parses a Type from the head of src, returning the type and
// the number of bytes consumed. It fails with vxerr.Corrupt if src is
// truncated or structurally invalid.
func Decode(src []byte) (Type, int, error) {
	if len(src) == 0 {
		return Type{}, 0, vxerr.New(vxerr.Corrupt, "dtype: empty buffer")
	}
	kind := Kind(src[0])
	if kind == Null {
		return NewNull(), 1, nil
	}
	off := 1
	if off >= len(src) {
		return Type{}, 0, vxerr.New(vxerr.Corrupt, "dtype: truncated nullability flag")
	}
	nullable := src[off] != 0
	off++
	switch kind {
	case Bool:
		return NewBool(nullable), off, nil
	case Utf8:
		return NewUtf8(nullable), off, nil
	case Binary:
		return NewBinary(nullable), off, nil
	case Primitive:
		if off >= len(src) {
			return Type{}, 0, vxerr.New(vxerr.Corrupt, "dtype: truncated primitive width")
		}
		w := PWidth(src[off])
		if w > F64 {
			return Type{}, 0, vxerr.New(vxerr.Corrupt, "dtype: invalid primitive width %d", w)
		}
		off++
		return NewPrimitive(w, nullable), off, nil
	case Struct:
		n, m, err := readUvarint(src[off:])
		if err != nil {
			return Type{}, 0, err
		}
		off += m
		fields := make([]Field, 0, n)
		for i := uint64(0); i < n; i++ {
			name, m, err := readString(src[off:])
			if err != nil {
				return Type{}, 0, err
			}
			off += m
			ft, m, err := Decode(src[off:])
			if err != nil {
				return Type{}, 0, err
			}
			off += m
			fields = append(fields, Field{Name: name, Type: ft})
		}
		return NewStruct(fields, nullable), off, nil
	case List:
		elem, m, err := Decode(src[off:])
		if err != nil {
			return Type{}, 0, err
		}
		off += m
		return NewList(elem, nullable), off, nil
	case Extension:
		id, m, err := readString(src[off:])
		if err != nil {
			return Type{}, 0, err
		}
		off += m
		storage, m, err := Decode(src[off:])
		if err != nil {
			return Type{}, 0, err
		}
		off += m
		n, m, err := readUvarint(src[off:])
		if err != nil {
			return Type{}, 0, err
		}
		off += m
		if uint64(len(src[off:])) < n {
			return Type{}, 0, vxerr.New(vxerr.Corrupt, "dtype: truncated extension metadata")
		}
		meta := append([]byte(nil), src[off:off+int(n)]...)
		off += int(n)
		t := NewExtension(id, storage, meta)
		t.nullable = storage.nullable // extension nullability tracks storage
		return t, off, nil
	default:
		return Type{}, 0, vxerr.New(vxerr.Corrupt, "dtype: unknown kind tag %d", kind)
	}
}

func readUvarint(src []byte) (uint64, int, error) {
	v, n := binary.Uvarint(src)
	if n <= 0 {
		return 0, 0, vxerr.New(vxerr.Corrupt, "dtype: invalid varint")
	}
	return v, n, nil
}

func readString(src []byte) (string, int, error) {
	n, m, err := readUvarint(src)
	if err != nil {
		return "", 0, err
	}
	if uint64(len(src[m:])) < n {
		return "", 0, vxerr.New(vxerr.Corrupt, "dtype: truncated string (need %d, have %d)", n, len(src[m:]))
	}
	return string(src[m : m+int(n)]), m + int(n), nil
}
