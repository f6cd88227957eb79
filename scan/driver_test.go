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
	"testing"
	"time"

	"github.com/vortex-io/vortex/array/encoding"
	"github.com/vortex-io/vortex/dtype"
	"github.com/vortex-io/vortex/expr"
	"github.com/vortex-io/vortex/layout"
	"github.com/vortex-io/vortex/scalar"
	"github.com/vortex-io/vortex/vxbuf"
)

func int64Flat(t *testing.T, vals []int64, stats expr.FieldStats) (*layout.Flat, layout.SegmentID, []byte) {
	t.Helper()
	dt := dtype.NewPrimitive(dtype.I64, false)
	arr := encoding.NewPrimitiveArray(dtype.I64, false, vxbuf.FromTyped(vals), nil)
	seg := arr.Encode(nil)
	id := layout.SegmentID(nextSegID())
	return layout.NewFlat(dt, len(vals), []layout.SegmentID{id}, stats), id, seg
}

var segCounter int

func nextSegID() int {
	segCounter++
	return segCounter
}

func openFooter(t *testing.T, root layout.Layout) *FileReader {
	t.Helper()
	footer := layout.Footer{
		DType:    root.DType(),
		Root:     root,
		Segments: layout.NewSegmentDirectory(nil),
	}
	region, err := layout.EncodeFooter(footer)
	if err != nil {
		t.Fatal(err)
	}
	blob := append(append([]byte(nil), region...), layout.AppendTrailerLength(nil, len(region))...)
	reader, err := Open(NewMemSource(blob))
	if err != nil {
		t.Fatal(err)
	}
	return reader
}

func drainAll(t *testing.T, ctx context.Context, it *Iterator) []int64 {
	t.Helper()
	var out []int64
	for {
		arr, ok, err := it.Next(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		for i := 0; i < arr.Len(); i++ {
			v, err := arr.ScalarAt(i)
			if err != nil {
				t.Fatal(err)
			}
			if !v.IsNull() {
				out = append(out, v.AsInt())
			}
		}
	}
	if err := it.Close(); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestRoundTripPrimitiveArray(t *testing.T) {
	flat, id, seg := int64Flat(t, []int64{1, 2, 3, 4, 5}, expr.FieldStats{})
	reader := openFooter(t, flat)
	src := NewMemSegmentSource(map[layout.SegmentID][]byte{id: seg})

	drv := NewDriver(reader, src, NewConfig())
	got := drainAll(t, context.Background(), drv.Run(context.Background()))
	want := []int64{1, 2, 3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func structDType(fields ...dtype.Field) dtype.Type { return dtype.NewStruct(fields, false) }

func TestPruningSkipsFalseChunkSegments(t *testing.T) {
	lowFlat, lowID, lowSeg := int64Flat(t, []int64{1, 2, 3}, expr.FieldStats{
		Min: scalar.Int(1, dtype.I64, false), HasMin: true,
		Max: scalar.Int(3, dtype.I64, false), HasMax: true,
	})
	highFlat, highID, highSeg := int64Flat(t, []int64{150, 160}, expr.FieldStats{
		Min: scalar.Int(150, dtype.I64, false), HasMin: true,
		Max: scalar.Int(160, dtype.I64, false), HasMax: true,
	})
	chunked, err := layout.NewChunked(lowFlat.DType(), []layout.Layout{lowFlat, highFlat})
	if err != nil {
		t.Fatal(err)
	}
	root, err := layout.NewStruct(structDType(dtype.Field{Name: "x", Type: lowFlat.DType()}), []layout.Layout{chunked})
	if err != nil {
		t.Fatal(err)
	}
	reader := openFooter(t, root)
	src := NewMemSegmentSource(map[layout.SegmentID][]byte{lowID: lowSeg, highID: highSeg})

	filter := expr.BinaryOp{
		Lhs: expr.GetItem{Child: expr.Identity{}, Name: "x"},
		Rhs: expr.Literal{Value: scalar.Int(100, dtype.I64, false)},
		Op:  expr.Gt,
	}
	drv := NewDriver(reader, src, NewConfig(WithFilter(filter)))
	it := drv.Run(context.Background())
	for {
		_, ok, err := it.Next(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
	}
	if err := it.Close(); err != nil {
		t.Fatal(err)
	}

	if n := src.ReadCount(lowID); n != 0 {
		t.Fatalf("pruned chunk's segment was read %d times, want 0", n)
	}
	if n := src.ReadCount(highID); n == 0 {
		t.Fatal("surviving chunk's segment was never read")
	}
}

func TestProjectionReordersFieldsAndSkipsUnreadFields(t *testing.T) {
	aFlat, aID, aSeg := int64Flat(t, []int64{1, 2}, expr.FieldStats{})
	bFlat, bID, bSeg := int64Flat(t, []int64{10, 20}, expr.FieldStats{})
	cFlat, cID, cSeg := int64Flat(t, []int64{100, 200}, expr.FieldStats{})
	root, err := layout.NewStruct(structDType(
		dtype.Field{Name: "a", Type: aFlat.DType()},
		dtype.Field{Name: "b", Type: bFlat.DType()},
		dtype.Field{Name: "c", Type: cFlat.DType()},
	), []layout.Layout{aFlat, bFlat, cFlat})
	if err != nil {
		t.Fatal(err)
	}
	reader := openFooter(t, root)
	src := NewMemSegmentSource(map[layout.SegmentID][]byte{aID: aSeg, bID: bSeg, cID: cSeg})

	drv := NewDriver(reader, src, NewConfig(WithProjection("b", "a")))
	it := drv.Run(context.Background())
	arr, ok, err := it.Next(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected one partition")
	}
	if err := it.Close(); err != nil {
		t.Fatal(err)
	}

	fields := arr.DType().Fields()
	if len(fields) != 2 || fields[0].Name != "b" || fields[1].Name != "a" {
		t.Fatalf("projection did not preserve field order: %v", fields)
	}
	if n := src.ReadCount(cID); n != 0 {
		t.Fatalf("unreferenced field c was read %d times, want 0", n)
	}
}

func TestNullRowsDroppedByComparisonFilter(t *testing.T) {
	dt := dtype.NewPrimitive(dtype.I64, true)
	arr := encoding.NewPrimitiveArray(dtype.I64, true, vxbuf.FromTyped([]int64{1, 2, 3, 0}), []bool{true, true, true, false})
	seg := arr.Encode(nil)
	id := layout.SegmentID(nextSegID())
	flat := layout.NewFlat(dt, 4, []layout.SegmentID{id}, expr.FieldStats{})

	reader := openFooter(t, flat)
	src := NewMemSegmentSource(map[layout.SegmentID][]byte{id: seg})

	filter := expr.BinaryOp{Lhs: expr.Identity{}, Rhs: expr.Literal{Value: scalar.Int(2, dtype.I64, false)}, Op: expr.Gt}
	drv := NewDriver(reader, src, NewConfig(WithFilter(filter)))
	got := drainAll(t, context.Background(), drv.Run(context.Background()))
	if len(got) != 1 || got[0] != 3 {
		t.Fatalf("got %v, want [3]", got)
	}
}

func TestNotOverComparisonKeepsNullRowsDropped(t *testing.T) {
	dt := dtype.NewPrimitive(dtype.I64, true)
	arr := encoding.NewPrimitiveArray(dtype.I64, true, vxbuf.FromTyped([]int64{1, 0, 3}), []bool{true, false, true})
	seg := arr.Encode(nil)
	id := layout.SegmentID(nextSegID())
	flat := layout.NewFlat(dt, 3, []layout.SegmentID{id}, expr.FieldStats{})

	reader := openFooter(t, flat)
	src := NewMemSegmentSource(map[layout.SegmentID][]byte{id: seg})

	gt := expr.BinaryOp{Lhs: expr.Identity{}, Rhs: expr.Literal{Value: scalar.Int(2, dtype.I64, false)}, Op: expr.Gt}
	filter := expr.Not{Child: gt}
	drv := NewDriver(reader, src, NewConfig(WithFilter(filter)))
	got := drainAll(t, context.Background(), drv.Run(context.Background()))
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("Not(x > 2) over [1, null, 3] = %v, want [1]: null stays unknown under NOT and must not survive", got)
	}
}

func TestCancellationStopsDelivery(t *testing.T) {
	flat, id, seg := int64Flat(t, []int64{1, 2, 3}, expr.FieldStats{})
	reader := openFooter(t, flat)
	src := NewMemSegmentSource(map[layout.SegmentID][]byte{id: seg})

	ctx, cancel := context.WithCancel(context.Background())
	drv := NewDriver(reader, src, NewConfig())
	it := drv.Run(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		it.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not return within a second of cancellation")
	}
}

func TestOpenRejectsTruncatedFooter(t *testing.T) {
	flat, _, _ := int64Flat(t, []int64{1}, expr.FieldStats{})
	footer := layout.Footer{DType: flat.DType(), Root: flat, Segments: layout.NewSegmentDirectory(nil)}
	region, err := layout.EncodeFooter(footer)
	if err != nil {
		t.Fatal(err)
	}
	blob := append(append([]byte(nil), region...), layout.AppendTrailerLength(nil, len(region))...)
	blob = blob[:len(blob)-10] // truncate into the checksum

	if _, err := Open(NewMemSource(blob)); err == nil {
		t.Fatal("expected Open to reject a truncated footer")
	}
}
