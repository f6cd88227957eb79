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
	"math"
	"testing"

	"github.com/vortex-io/vortex/dtype"
)

func TestNaNNotEqualToItself(t *testing.T) {
	a := Float(math.NaN(), dtype.F64, false)
	b := Float(math.NaN(), dtype.F64, false)
	if a.Equal(b) {
		t.Fatal("NaN must not equal NaN")
	}
}

func TestNaNOrdersAboveInf(t *testing.T) {
	nan := Float(math.NaN(), dtype.F64, false)
	inf := Float(math.Inf(1), dtype.F64, false)
	c, err := Compare(nan, inf)
	if err != nil {
		t.Fatal(err)
	}
	if c <= 0 {
		t.Fatalf("expected NaN to order above +Inf in total order, got cmp=%d", c)
	}
}

func TestEvalNaNComparisonsAreFalse(t *testing.T) {
	nan := Float(math.NaN(), dtype.F64, false)
	one := Float(1, dtype.F64, false)
	for _, op := range []Op{Eq, Lt, LtEq, Gt, GtEq} {
		ok, err := Eval(nan, one, op)
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Fatalf("op %d against NaN should be false", op)
		}
	}
	ok, err := Eval(nan, one, NotEq)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("NotEq against NaN should be true")
	}
}

func TestMixedIntFloatEquality(t *testing.T) {
	i := Int(3, dtype.I32, false)
	f := Float(3.0, dtype.F64, false)
	if !i.Equal(f) {
		t.Fatal("3 (int) should equal 3.0 (float)")
	}
}

func TestStructScalarOrdersLexicographically(t *testing.T) {
	mk := func(a, b int64) Scalar {
		ft := dtype.NewStruct([]dtype.Field{
			{Name: "a", Type: dtype.NewPrimitive(dtype.I64, false)},
			{Name: "b", Type: dtype.NewPrimitive(dtype.I64, false)},
		}, false)
		return Struct(ft, []Scalar{Int(a, dtype.I64, false), Int(b, dtype.I64, false)})
	}
	c, err := Compare(mk(1, 5), mk(1, 9))
	if err != nil {
		t.Fatal(err)
	}
	if c >= 0 {
		t.Fatalf("expected (1,5) < (1,9), got %d", c)
	}
}
