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
	"github.com/vortex-io/vortex/array"
	"github.com/vortex-io/vortex/dtype"
	"github.com/vortex-io/vortex/scalar"
)

// NewScalarArray builds a length-1 canonical array holding a single
// value, the building block the expr package's Literal evaluation uses
// together with NewConstantArray to broadcast a literal over a batch
// without materializing it n times.
func NewScalarArray(s scalar.Scalar) (array.Array, error) {
	return scalarsToCanonical(s.Type(), []scalar.Scalar{s})
}

// EmptyCanonical builds a length-0 canonical array of the given DType,
// used by the layout package when a scan's row range yields no
// surviving rows for a field but a typed placeholder is still needed
// to assemble the projected struct.
func EmptyCanonical(dt dtype.Type) (array.Array, error) {
	switch dt.Kind() {
	case dtype.Struct:
		fields := make([]array.Array, len(dt.Fields()))
		for i, f := range dt.Fields() {
			fa, err := EmptyCanonical(f.Type)
			if err != nil {
				return array.Array{}, err
			}
			fields[i] = fa
		}
		return NewStructArray(dt, fields, nil)
	case dtype.List:
		elem, err := EmptyCanonical(dt.Element())
		if err != nil {
			return array.Array{}, err
		}
		return NewListArray(dt, []uint32{0}, elem, nil)
	default:
		return scalarsToCanonical(dt, nil)
	}
}
