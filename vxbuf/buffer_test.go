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

package vxbuf

import "testing"

func TestSliceIsZeroCopy(t *testing.T) {
	data := []byte("0123456789")
	b := New(data, 1)
	s, err := b.Slice(2, 5)
	if err != nil {
		t.Fatal(err)
	}
	if string(s.Bytes()) != "234" {
		t.Fatalf("got %q", s.Bytes())
	}
	// mutate through the root and observe the slice sees it (shared storage)
	data[2] = 'X'
	if s.Bytes()[0] != 'X' {
		t.Fatal("slice should share storage with the original buffer")
	}
}

func TestSliceOutOfBounds(t *testing.T) {
	b := New([]byte("abc"), 1)
	if _, err := b.Slice(0, 4); err == nil {
		t.Fatal("expected out-of-bounds error")
	}
	if _, err := b.Slice(-1, 2); err == nil {
		t.Fatal("expected out-of-bounds error")
	}
	if _, err := b.Slice(2, 1); err == nil {
		t.Fatal("expected out-of-bounds error")
	}
}

func TestAsMutableCopiesWhenShared(t *testing.T) {
	b := New([]byte("abc"), 1)
	shared := b.Retain()
	defer shared.Release()

	m := b.AsMutable()
	m.Bytes()[0] = 'Z'
	if b.Bytes()[0] == 'Z' {
		t.Fatal("AsMutable should have copied because refcount > 1")
	}
}

func TestTypedViewRoundTrip(t *testing.T) {
	vals := []int32{1, 2, 3, 4}
	b := FromTyped(vals)
	got, err := View[int32](b)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 || got[2] != 3 {
		t.Fatalf("got %v", got)
	}
}

func TestViewRejectsMisalignedLength(t *testing.T) {
	b := New([]byte{1, 2, 3}, 4) // 3 bytes, not a multiple of 4
	if _, err := View[int32](b); err == nil {
		t.Fatal("expected error for non-multiple-of-width length")
	}
}
