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

package layout

import (
	"context"

	"github.com/vortex-io/vortex/array/encoding"
	"github.com/vortex-io/vortex/dtype"
	"github.com/vortex-io/vortex/expr"
	"github.com/vortex-io/vortex/scalar"
	"github.com/vortex-io/vortex/vxerr"
)

// Struct is a named, ordered sequence of per-field sub-layouts that
// all share one row count: the layout shape a row group (or the whole
// file) takes. Predicate evaluation is pushed down per field where a
// conjunct references exactly one field (spec.md §4.3 step 2);
// projection reads only the fields a query actually asks for.
type Struct struct {
	dt     dtype.Type
	fields []Layout // one per dt.Fields(), same order
	rows   int
}

// NewStruct builds a Struct layout. fields must match dt.Fields() in
// order and share one row count.
func NewStruct(dt dtype.Type, fields []Layout) (*Struct, error) {
	if dt.Kind() != dtype.Struct {
		return nil, vxerr.New(vxerr.TypeMismatch, "layout: NewStruct requires a Struct DType")
	}
	dtFields := dt.Fields()
	if len(dtFields) != len(fields) {
		return nil, vxerr.New(vxerr.Corrupt, "layout: field count mismatch: dtype has %d, got %d layouts", len(dtFields), len(fields))
	}
	rows := -1
	for i, f := range fields {
		if !f.DType().Equal(dtFields[i].Type) {
			return nil, vxerr.New(vxerr.TypeMismatch, "layout: field %q DType mismatch", dtFields[i].Name)
		}
		if rows == -1 {
			rows = f.RowCount()
		} else if f.RowCount() != rows {
			return nil, vxerr.New(vxerr.Corrupt, "layout: field %q row count mismatch", dtFields[i].Name)
		}
	}
	if rows == -1 {
		rows = 0
	}
	return &Struct{dt: dt, fields: fields, rows: rows}, nil
}

func (s *Struct) RowCount() int     { return s.rows }
func (s *Struct) DType() dtype.Type { return s.dt }

// PruningStats is always nil for a Struct: a struct has no value of
// its own to summarize, only its fields do.
func (s *Struct) PruningStats() *StatsSnapshot { return nil }

func (s *Struct) fieldIndex(name string) int {
	for i, f := range s.dt.Fields() {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// FilterMask partitions predicate's conjuncts by the single field each
// refers to (spec.md §4.3 step 2), evaluates each field's bucket
// against that field's own layout (bound so the field's array is its
// own Identity), intersects the per-field masks, then evaluates
// whatever is left over -- conjuncts touching more than one field, or
// none -- against the materialized struct itself.
func (s *Struct) FilterMask(ctx context.Context, lo, hi int, predicate expr.Node, src SegmentSource) (RowMask, error) {
	if err := checkRange(lo, hi, s.rows); err != nil {
		return RowMask{}, err
	}
	if isTrueLiteral(predicate) {
		return AllTrue(hi - lo), nil
	}
	conjuncts := expr.Conjuncts(predicate)
	part := expr.PartitionByField(conjuncts)

	combined := AllTrue(hi - lo)
	for name, cs := range part.Fields {
		idx := s.fieldIndex(name)
		if idx < 0 {
			return RowMask{}, vxerr.New(vxerr.TypeMismatch, "layout: predicate references unknown field %q", name)
		}
		bound := expr.BindField(andAll(cs), name)
		sub, err := s.fields[idx].FilterMask(ctx, lo, hi, bound, src)
		if err != nil {
			return RowMask{}, err
		}
		combined = combined.And(sub)
	}

	if len(part.Residual) > 0 {
		residual := andAll(part.Residual)
		proj := projectionFor(expr.FieldsReferenced(residual))
		stream, err := s.Scan(ctx, lo, hi, proj, combined, src)
		if err != nil {
			return RowMask{}, err
		}
		rows, err := drainToOne(ctx, stream, projectedDType(s.dt, proj))
		if err != nil {
			return RowMask{}, err
		}
		bits, err := maskToBools(residual, rows)
		if err != nil {
			return RowMask{}, err
		}
		// bits is indexed over the already-masked subset; scatter it
		// back against combined's true positions.
		scattered := make([]bool, hi-lo)
		j := 0
		for i, keep := range combined.Bits() {
			if !keep {
				continue
			}
			scattered[i] = bits[j]
			j++
		}
		combined = NewRowMask(scattered)
	}

	return combined, nil
}

// Scan reads only the fields projection actually references (all of
// them for a bare Identity projection), applies mask, and evaluates
// projection against the reconstructed struct of just those fields.
func (s *Struct) Scan(ctx context.Context, lo, hi int, projection expr.Node, mask RowMask, src SegmentSource) (ArrayStream, error) {
	if err := checkRange(lo, hi, s.rows); err != nil {
		return nil, err
	}
	if projection == nil {
		projection = expr.Identity{}
	}
	eff := effective(mask, hi-lo)
	if eff.CountTrue() == 0 {
		return emptyStream(), nil
	}

	var names []string
	if _, isID := projection.(expr.Identity); isID {
		for _, f := range s.dt.Fields() {
			names = append(names, f.Name)
		}
	} else {
		refs := expr.FieldsReferenced(projection)
		if len(refs) == 0 {
			for _, f := range s.dt.Fields() {
				names = append(names, f.Name)
			}
		} else {
			for name := range refs {
				names = append(names, name)
			}
		}
	}

	var structFields []Array
	var structDTFields []dtype.Field
	for _, f := range s.dt.Fields() {
		if !containsName(names, f.Name) {
			continue
		}
		idx := s.fieldIndex(f.Name)
		stream, err := s.fields[idx].Scan(ctx, lo, hi, expr.Identity{}, eff, src)
		if err != nil {
			return nil, err
		}
		arr, err := drainToOne(ctx, stream, f.Type)
		if err != nil {
			return nil, err
		}
		structFields = append(structFields, arr)
		structDTFields = append(structDTFields, f)
	}

	input, err := encoding.NewStructArray(dtype.NewStruct(structDTFields, s.dt.Nullable()), structFields, nil)
	if err != nil {
		return nil, err
	}
	result, err := expr.Eval(projection, input)
	if err != nil {
		return nil, err
	}
	return newSliceStream(result), nil
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// projectionFor builds the minimal projection expression that reads
// exactly the named fields, so evaluating a residual predicate against
// it never pulls in a field the predicate does not mention.
func projectionFor(names map[string]bool) expr.Node {
	if len(names) == 0 {
		return expr.Identity{}
	}
	var fields []expr.PackField
	for name := range names {
		fields = append(fields, expr.PackField{Name: name, Expr: expr.GetItem{Child: expr.Identity{}, Name: name}})
	}
	return expr.Pack{Fields: fields}
}

// projectedDType returns the DType proj would produce when evaluated
// against a row of dt: dt itself for an Identity projection, or the
// sub-struct of just the packed fields otherwise.
func projectedDType(dt dtype.Type, proj expr.Node) dtype.Type {
	pack, ok := proj.(expr.Pack)
	if !ok {
		return dt
	}
	fields := make([]dtype.Field, len(pack.Fields))
	for i, pf := range pack.Fields {
		f, _ := dt.FieldByName(pf.Name)
		fields[i] = f
	}
	return dtype.NewStruct(fields, dt.Nullable())
}

func trueScalar() scalar.Scalar { return scalar.Bool(true, false) }

// andAll folds conjuncts into a single expression with BinaryOp/And,
// the inverse of expr.Conjuncts.
func andAll(conjuncts []expr.Node) expr.Node {
	if len(conjuncts) == 0 {
		return expr.Literal{Value: trueScalar()}
	}
	out := conjuncts[0]
	for _, c := range conjuncts[1:] {
		out = expr.BinaryOp{Lhs: out, Rhs: c, Op: expr.And}
	}
	return out
}
