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
	"bytes"
	"math"

	"github.com/vortex-io/vortex/vxerr"
)

// Op is an elementwise comparison operator.
type Op int

const (
	Eq Op = iota
	NotEq
	Lt
	LtEq
	Gt
	GtEq
)

// Compare establishes the total order spec.md §3 requires statistics
// to use: numeric types compare by value except that NaN sorts above
// +Inf (and so above every other float), matching the teacher's
// ion.Datum ordering used for min/max bookkeeping. It returns -1, 0, or
// 1, or a TypeMismatch error if the two scalars are not comparable.
func Compare(a, b Scalar) (int, error) {
	if a.IsNull() || b.IsNull() {
		if a.IsNull() && b.IsNull() {
			return 0, nil
		}
		if a.IsNull() {
			return -1, nil
		}
		return 1, nil
	}
	an, aNum := numeric(a)
	bn, bNum := numeric(b)
	if aNum && bNum {
		return compareFloatTotal(an, bn), nil
	}
	if a.kind != b.kind {
		return 0, vxerr.New(vxerr.TypeMismatch, "scalar: cannot compare %s and %s", a.typ, b.typ)
	}
	switch a.kind {
	case vBool:
		if a.b == b.b {
			return 0, nil
		}
		if !a.b {
			return -1, nil
		}
		return 1, nil
	case vString:
		return cmpString(a.s, b.s), nil
	case vBytes:
		return bytes.Compare(a.by, b.by), nil
	case vList:
		return compareSlices(a.list, b.list)
	case vStruct:
		return compareSlices(a.strc, b.strc)
	default:
		return 0, vxerr.New(vxerr.TypeMismatch, "scalar: uncomparable scalar kind")
	}
}

func compareSlices(a, b []Scalar) (int, error) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		c, err := Compare(a[i], b[i])
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return c, nil
		}
	}
	switch {
	case len(a) < len(b):
		return -1, nil
	case len(a) > len(b):
		return 1, nil
	default:
		return 0, nil
	}
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareFloatTotal imposes a total order over float64 where NaN
// compares as greater than +Inf, per spec.md §3.
func compareFloatTotal(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Eval applies op to a and b using ordinary (IEEE, for floats)
// comparison semantics — distinct from Compare's total order, which
// exists only to give statistics (min/max) a well-defined ordering
// even in the presence of NaN. Any comparison against NaN other than
// NotEq reports false, matching IEEE 754.
func Eval(a, b Scalar, op Op) (bool, error) {
	if !a.IsNull() && !b.IsNull() {
		if af, aok := numeric(a); aok {
			if bf, bok := numeric(b); bok {
				if math.IsNaN(af) || math.IsNaN(bf) {
					switch op {
					case Eq:
						return false, nil
					case NotEq:
						return true, nil
					default:
						return false, nil
					}
				}
				return evalOrdered(ieeeCompare(af, bf), op)
			}
		}
	}
	c, err := Compare(a, b)
	if err != nil {
		return false, err
	}
	if op == Eq {
		return a.Equal(b), nil
	}
	if op == NotEq {
		return !a.Equal(b), nil
	}
	return evalOrdered(c, op)
}

func ieeeCompare(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func evalOrdered(c int, op Op) (bool, error) {
	switch op {
	case Eq:
		return c == 0, nil
	case NotEq:
		return c != 0, nil
	case Lt:
		return c < 0, nil
	case LtEq:
		return c <= 0, nil
	case Gt:
		return c > 0, nil
	case GtEq:
		return c >= 0, nil
	default:
		return false, vxerr.New(vxerr.TypeMismatch, "scalar: unknown op %d", op)
	}
}
