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

package encoding

import (
	"testing"

	"github.com/vortex-io/vortex/array"
	"github.com/vortex-io/vortex/dtype"
	"github.com/vortex-io/vortex/scalar"
	"github.com/vortex-io/vortex/vxbuf"
)

func i32Buf(vals ...int32) vxbuf.Buffer {
	return vxbuf.FromTyped(vals)
}

// checkProperties exercises the cross-encoding invariants every
// Array implementation must hold, regardless of physical
// representation: length agreement, slice/take/filter consistency
// with ScalarAt, and a canonicalize round trip that preserves every
// value. Each encoding test below builds a handful of arrays and
// hands them to this one shared harness instead of repeating the
// assertions per encoding.
func checkProperties(t *testing.T, a array.Array) {
	t.Helper()

	want := make([]scalar.Scalar, a.Len())
	for i := 0; i < a.Len(); i++ {
		v, err := a.ScalarAt(i)
		if err != nil {
			t.Fatalf("ScalarAt(%d): %v", i, err)
		}
		want[i] = v
	}

	canon, err := a.Canonicalize()
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	if canon.Len() != a.Len() {
		t.Fatalf("Canonicalize changed length: %d -> %d", a.Len(), canon.Len())
	}
	for i, w := range want {
		got, err := canon.ScalarAt(i)
		if err != nil {
			t.Fatalf("canonical ScalarAt(%d): %v", i, err)
		}
		if !got.Equal(w) && !(got.IsNull() && w.IsNull()) {
			t.Errorf("canonical row %d = %v, want %v", i, got, w)
		}
	}

	if a.Len() >= 2 {
		mid := a.Len() / 2
		sl, err := a.Slice(0, mid)
		if err != nil {
			t.Fatalf("Slice: %v", err)
		}
		if sl.Len() != mid {
			t.Fatalf("Slice length = %d, want %d", sl.Len(), mid)
		}
		for i := 0; i < mid; i++ {
			got, err := sl.ScalarAt(i)
			if err != nil {
				t.Fatalf("sliced ScalarAt(%d): %v", i, err)
			}
			if !got.Equal(want[i]) && !(got.IsNull() && want[i].IsNull()) {
				t.Errorf("sliced row %d = %v, want %v", i, got, want[i])
			}
		}
	}

	if a.Len() > 0 {
		indices := make([]int32, a.Len())
		for i := range indices {
			indices[i] = int32(a.Len() - 1 - i)
		}
		tk, err := a.Take(indices)
		if err != nil {
			t.Fatalf("Take: %v", err)
		}
		if tk.Len() != len(indices) {
			t.Fatalf("Take length = %d, want %d", tk.Len(), len(indices))
		}
		for i, idx := range indices {
			got, err := tk.ScalarAt(i)
			if err != nil {
				t.Fatalf("taken ScalarAt(%d): %v", i, err)
			}
			w := want[idx]
			if !got.Equal(w) && !(got.IsNull() && w.IsNull()) {
				t.Errorf("taken row %d = %v, want %v", i, got, w)
			}
		}

		mask := make([]bool, a.Len())
		for i := range mask {
			mask[i] = i%2 == 0
		}
		f, err := a.Filter(mask)
		if err != nil {
			t.Fatalf("Filter: %v", err)
		}
		wantLen := 0
		for _, keep := range mask {
			if keep {
				wantLen++
			}
		}
		if f.Len() != wantLen {
			t.Fatalf("Filter length = %d, want %d", f.Len(), wantLen)
		}
		fi := 0
		for i, keep := range mask {
			if !keep {
				continue
			}
			got, err := f.ScalarAt(fi)
			if err != nil {
				t.Fatalf("filtered ScalarAt(%d): %v", fi, err)
			}
			if !got.Equal(want[i]) && !(got.IsNull() && want[i].IsNull()) {
				t.Errorf("filtered row %d = %v, want %v", fi, got, want[i])
			}
			fi++
		}
	}

	valid, err := a.Validity()
	if err != nil {
		t.Fatalf("Validity: %v", err)
	}
	if len(valid) != a.Len() {
		t.Fatalf("Validity length = %d, want %d", len(valid), a.Len())
	}
	for i, v := range valid {
		if v == want[i].IsNull() {
			t.Errorf("Validity[%d] = %v, ScalarAt nullness = %v, disagree", i, v, want[i].IsNull())
		}
	}

	st, err := a.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if nc, ok := st.Get(array.NullCount); ok {
		count := int64(0)
		for _, w := range want {
			if w.IsNull() {
				count++
			}
		}
		if nc.AsInt() != count {
			t.Errorf("NullCount stat = %d, want %d", nc.AsInt(), count)
		}
	}
}

func TestPropertiesPrimitive(t *testing.T) {
	a := NewPrimitiveArray(dtype.I32, false, i32Buf(1, 2, 3, 4, 5), nil)
	checkProperties(t, a)

	an := NewPrimitiveArray(dtype.I32, true, i32Buf(1, 2, 3, 4, 5), []bool{true, false, true, false, true})
	checkProperties(t, an)
}

func TestPropertiesBool(t *testing.T) {
	a := NewBoolArray([]bool{true, false, true, true, false}, nil)
	checkProperties(t, a)

	an := NewBoolArray([]bool{true, false, true, true, false}, []bool{true, true, false, true, false})
	checkProperties(t, an)
}

func TestPropertiesVarbin(t *testing.T) {
	a := NewUtf8Array([]string{"a", "bb", "ccc", "", "ddddd"}, nil)
	checkProperties(t, a)

	an := NewUtf8Array([]string{"a", "bb", "ccc", "", "ddddd"}, []bool{true, false, true, true, false})
	checkProperties(t, an)
}

func TestPropertiesNull(t *testing.T) {
	checkProperties(t, NewNullArray(4))
}

func TestPropertiesStruct(t *testing.T) {
	ints := NewPrimitiveArray(dtype.I32, false, i32Buf(1, 2, 3), nil)
	strs := NewUtf8Array([]string{"x", "y", "z"}, nil)
	dt := dtype.NewStruct([]dtype.Field{
		{Name: "n", Type: ints.DType()},
		{Name: "s", Type: strs.DType()},
	}, false)
	a, err := NewStructArray(dt, []array.Array{ints, strs}, nil)
	if err != nil {
		t.Fatalf("NewStructArray: %v", err)
	}
	checkProperties(t, a)
}

func TestPropertiesList(t *testing.T) {
	elems := NewPrimitiveArray(dtype.I32, false, i32Buf(10, 20, 30, 40, 50), nil)
	a, err := NewListArray(dtype.NewList(elems.DType(), false), []uint32{0, 2, 2, 5}, elems, nil)
	if err != nil {
		t.Fatalf("NewListArray: %v", err)
	}
	checkProperties(t, a)
}

func TestPropertiesConstant(t *testing.T) {
	single := NewPrimitiveArray(dtype.I32, false, i32Buf(7), nil)
	a := NewConstantArray(single, 5)
	checkProperties(t, a)
}

func TestPropertiesChunked(t *testing.T) {
	c1 := NewPrimitiveArray(dtype.I32, false, i32Buf(1, 2, 3), nil)
	c2 := NewPrimitiveArray(dtype.I32, false, i32Buf(4, 5), nil)
	a, err := NewChunkedArray([]array.Array{c1, c2})
	if err != nil {
		t.Fatalf("NewChunkedArray: %v", err)
	}
	checkProperties(t, a)
}
