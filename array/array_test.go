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

package array

import (
	"errors"
	"testing"

	"github.com/vortex-io/vortex/dtype"
	"github.com/vortex-io/vortex/scalar"
	"github.com/vortex-io/vortex/vxerr"
)

func dtypeI32() dtype.Type { return dtype.NewPrimitive(dtype.I32, false) }

func TestLookupUnknownEncoding(t *testing.T) {
	_, err := Lookup(0xdeadbeef)
	if err == nil {
		t.Fatalf("Lookup(unregistered id) should fail")
	}
	if k, ok := vxerr.KindOf(err); !ok || k != vxerr.UnknownEncoding {
		t.Fatalf("Lookup(unregistered id) kind = %v, want UnknownEncoding", k)
	}
}

// recordingEncoding counts calls and lets a test force a NotImplemented
// error from any operation, to exercise the canonicalize-and-retry
// policy in ops.go's recoverNotImplemented.
type recordingEncoding struct {
	canon    Array
	notImpl  bool
	attempts int
}

func (e *recordingEncoding) Canonicalize(a Array) (Array, error) { return e.canon, nil }

func (e *recordingEncoding) ScalarAt(a Array, i int) (scalar.Scalar, error) {
	e.attempts++
	if e.notImpl {
		return scalar.Scalar{}, vxerr.New(vxerr.NotImplemented, "recordingEncoding: ScalarAt")
	}
	return scalar.Int(int64(i), a.dt.Width(), false), nil
}

func (e *recordingEncoding) Slice(a Array, start, end int) (Array, error) {
	return Array{}, vxerr.New(vxerr.NotImplemented, "recordingEncoding: Slice")
}
func (e *recordingEncoding) Take(a Array, indices []int32) (Array, error) {
	return Array{}, vxerr.New(vxerr.NotImplemented, "recordingEncoding: Take")
}
func (e *recordingEncoding) Filter(a Array, mask []bool) (Array, error) {
	return Array{}, vxerr.New(vxerr.NotImplemented, "recordingEncoding: Filter")
}
func (e *recordingEncoding) Compare(a Array, rhs Rhs, op scalar.Op) (Array, error) {
	return Array{}, vxerr.New(vxerr.NotImplemented, "recordingEncoding: Compare")
}
func (e *recordingEncoding) IsValid(a Array, i int) (bool, error) { return true, nil }
func (e *recordingEncoding) Validity(a Array) ([]bool, error) {
	return make([]bool, a.len), nil
}
func (e *recordingEncoding) Stats(a Array) (*StatSet, error) { return NewStatSet(), nil }

const testEncodingID = 0xfeedface

func TestRecoverNotImplementedFallsBackToCanonical(t *testing.T) {
	canon := &recordingEncoding{notImpl: false}
	canonID := EncodingID{Int: testEncodingID, String: "test-canon"}
	Register(canonID.Int, canon)
	canon.canon = New(dtypeI32(), 3, canonID, nil, nil, nil)

	faulty := &recordingEncoding{notImpl: true, canon: canon.canon}
	faultyID := EncodingID{Int: testEncodingID + 1, String: "test-faulty"}
	Register(faultyID.Int, faulty)

	a := New(dtypeI32(), 3, faultyID, nil, nil, nil)
	v, err := a.ScalarAt(1)
	if err != nil {
		t.Fatalf("ScalarAt should recover via canonicalize fallback, got error: %v", err)
	}
	if v.AsInt() != 1 {
		t.Fatalf("ScalarAt(1) = %d, want 1 (from canonical encoding)", v.AsInt())
	}
	if faulty.attempts == 0 {
		t.Fatalf("faulty encoding's ScalarAt was never attempted")
	}
}

func TestStatSetGetAbsentIsUnknown(t *testing.T) {
	s := NewStatSet()
	if _, ok := s.Get(Min); ok {
		t.Fatalf("Get on empty StatSet reported present")
	}
	var nilSet *StatSet
	if _, ok := nilSet.Get(Min); ok {
		t.Fatalf("Get on nil StatSet reported present")
	}
}

func TestStatSetMerge(t *testing.T) {
	a := NewStatSet()
	a.Set(Min, scalar.Int(1, dtypeI32().Width(), false))
	a.Set(Max, scalar.Int(10, dtypeI32().Width(), false))
	a.Set(NullCount, scalar.Int(2, dtypeI32().Width(), false))

	b := NewStatSet()
	b.Set(Min, scalar.Int(-5, dtypeI32().Width(), false))
	b.Set(Max, scalar.Int(20, dtypeI32().Width(), false))
	b.Set(NullCount, scalar.Int(3, dtypeI32().Width(), false))

	merged := Merge(a, b)
	min, ok := merged.Get(Min)
	if !ok || min.AsInt() != -5 {
		t.Errorf("Merge Min = %v, want -5", min)
	}
	max, ok := merged.Get(Max)
	if !ok || max.AsInt() != 20 {
		t.Errorf("Merge Max = %v, want 20", max)
	}
	nc, ok := merged.Get(NullCount)
	if !ok || nc.AsInt() != 5 {
		t.Errorf("Merge NullCount = %v, want 5 (sum)", nc)
	}
}

func TestStatSetClone(t *testing.T) {
	s := NewStatSet()
	s.Set(Min, scalar.Int(1, dtypeI32().Width(), false))
	c := s.Clone()
	c.Set(Max, scalar.Int(9, dtypeI32().Width(), false))
	if _, ok := s.Get(Max); ok {
		t.Fatalf("mutating clone affected original StatSet")
	}
}

func TestArrayScalarAtOutOfBoundsKind(t *testing.T) {
	canonID := EncodingID{Int: testEncodingID + 2, String: "test-oob"}
	impl := &recordingEncoding{}
	Register(canonID.Int, impl)
	a := New(dtypeI32(), 3, canonID, nil, nil, nil)

	_, err := a.ScalarAt(5)
	if err == nil {
		t.Fatalf("ScalarAt(5) on a length-3 array should fail")
	}
	var ve *vxerr.Error
	if !errors.As(err, &ve) {
		t.Fatalf("ScalarAt error is not a *vxerr.Error: %v", err)
	}
	if k, ok := vxerr.KindOf(err); !ok || k != vxerr.OutOfBounds {
		t.Fatalf("ScalarAt(5) kind = %v, want OutOfBounds", k)
	}
}

func TestArrayChildOutOfRangeReturnsZeroValue(t *testing.T) {
	canonID := EncodingID{Int: testEncodingID + 3, String: "test-child"}
	Register(canonID.Int, &recordingEncoding{})
	a := New(dtypeI32(), 3, canonID, nil, nil, nil)

	if c := a.Child(0); c.Len() != 0 {
		t.Fatalf("Child(0) on a childless array = %+v, want zero Array", c)
	}
}
