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

import "testing"

func TestEqualRespectsFieldOrder(t *testing.T) {
	a := NewStruct([]Field{
		{Name: "x", Type: NewPrimitive(I32, false)},
		{Name: "y", Type: NewUtf8(true)},
	}, false)
	b := NewStruct([]Field{
		{Name: "y", Type: NewUtf8(true)},
		{Name: "x", Type: NewPrimitive(I32, false)},
	}, false)
	if a.Equal(b) {
		t.Fatal("structs with reordered fields must not be equal")
	}
	if !a.Equal(a) {
		t.Fatal("type must equal itself")
	}
}

func TestDuplicateFieldNamesPanic(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate field name")
		}
	}()
	NewStruct([]Field{
		{Name: "x", Type: NewBool(false)},
		{Name: "x", Type: NewBool(false)},
	}, false)
}

func TestNullabilityIsPartOfType(t *testing.T) {
	a := NewPrimitive(I64, false)
	b := NewPrimitive(I64, true)
	if a.Equal(b) {
		t.Fatal("nullable and non-nullable primitives must differ")
	}
}

func TestRoundTripEncode(t *testing.T) {
	cases := []Type{
		NewNull(),
		NewBool(true),
		NewPrimitive(F64, false),
		NewUtf8(true),
		NewBinary(false),
		NewList(NewPrimitive(I32, true), false),
		NewStruct([]Field{
			{Name: "a", Type: NewPrimitive(I64, false)},
			{Name: "b", Type: NewUtf8(true)},
			{Name: "c", Type: NewList(NewBool(false), false)},
		}, true),
		NewExtension("vortex.timestamp", NewPrimitive(I64, false), []byte("us")),
	}
	for _, want := range cases {
		buf := want.Encode(nil)
		got, n, err := Decode(buf)
		if err != nil {
			t.Fatalf("decode %s: %v", want, err)
		}
		if n != len(buf) {
			t.Fatalf("decode consumed %d of %d bytes for %s", n, len(buf), want)
		}
		if !got.Equal(want) {
			t.Fatalf("round-trip mismatch: want %s got %s", want, got)
		}
	}
}

func TestDecodeTruncatedIsCorrupt(t *testing.T) {
	full := NewStruct([]Field{{Name: "a", Type: NewPrimitive(I32, false)}}, false).Encode(nil)
	for i := 0; i < len(full); i++ {
		if _, _, err := Decode(full[:i]); err == nil {
			t.Fatalf("expected error decoding truncated buffer of length %d", i)
		}
	}
}
