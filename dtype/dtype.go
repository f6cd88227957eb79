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

// Package dtype implements the logical type system shared by arrays,
// scalars, expressions, and layouts: a tagged sum over null, bool,
// fixed-width primitives, utf8/binary, struct, list, and extension types.
package dtype

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// Kind identifies which member of the DType sum a Type represents.
type Kind uint8

const (
	Null Kind = iota
	Bool
	Primitive
	Utf8
	Binary
	Struct
	List
	Extension
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Primitive:
		return "primitive"
	case Utf8:
		return "utf8"
	case Binary:
		return "binary"
	case Struct:
		return "struct"
	case List:
		return "list"
	case Extension:
		return "extension"
	default:
		return "unknown"
	}
}

// PWidth is the physical width of a Primitive DType.
type PWidth uint8

const (
	U8 PWidth = iota
	U16
	U32
	U64
	I8
	I16
	I32
	I64
	F16
	F32
	F64
)

func (w PWidth) String() string {
	names := [...]string{"u8", "u16", "u32", "u64", "i8", "i16", "i32", "i64", "f16", "f32", "f64"}
	if int(w) < len(names) {
		return names[w]
	}
	return "invalid"
}

// ByteWidth returns the storage width in bytes of the physical type.
func (w PWidth) ByteWidth() int {
	switch w {
	case U8, I8:
		return 1
	case U16, I16, F16:
		return 2
	case U32, I32, F32:
		return 4
	case U64, I64, F64:
		return 8
	default:
		return 0
	}
}

// IsFloat reports whether w is one of f16/f32/f64.
func (w PWidth) IsFloat() bool {
	return w == F16 || w == F32 || w == F64
}

// IsSigned reports whether w is a signed integer width.
func (w PWidth) IsSigned() bool {
	switch w {
	case I8, I16, I32, I64:
		return true
	default:
		return false
	}
}

// Field is one named member of a Struct DType. Order is significant:
// two Struct DTypes are equal only if their fields appear in the same
// order, matching spec semantics ("Equality respects order of fields").
type Field struct {
	Name string
	Type Type
}

// Type is the DType tagged sum described in spec.md §3. The zero Type
// is not valid; construct with the exported constructors below.
type Type struct {
	kind       Kind
	nullable   bool
	width      PWidth
	fields     []Field // Struct
	elem       *Type   // List
	extID      string  // Extension
	extStorage *Type   // Extension
	extMeta    []byte  // Extension
}

// NewNull returns the Null DType. Null values are always "missing";
// nullability is not separately tracked for it.
func NewNull() Type { return Type{kind: Null} }

// NewBool returns a Bool DType with the given nullability.
func NewBool(nullable bool) Type { return Type{kind: Bool, nullable: nullable} }

// NewPrimitive returns a Primitive DType of the given width and nullability.
func NewPrimitive(w PWidth, nullable bool) Type {
	return Type{kind: Primitive, width: w, nullable: nullable}
}

// NewUtf8 returns a Utf8 DType with the given nullability.
func NewUtf8(nullable bool) Type { return Type{kind: Utf8, nullable: nullable} }

// NewBinary returns a Binary DType with the given nullability.
func NewBinary(nullable bool) Type { return Type{kind: Binary, nullable: nullable} }

// NewStruct returns a Struct DType over the given ordered fields. It
// panics if two fields share a name, since field names within a struct
// must be unique.
func NewStruct(fields []Field, nullable bool) Type {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, dup := seen[f.Name]; dup {
			panic(fmt.Sprintf("dtype: duplicate struct field %q", f.Name))
		}
		seen[f.Name] = struct{}{}
	}
	return Type{kind: Struct, fields: slices.Clone(fields), nullable: nullable}
}

// NewList returns a List DType over the given element type.
func NewList(elem Type, nullable bool) Type {
	e := elem
	return Type{kind: List, elem: &e, nullable: nullable}
}

// NewExtension returns an Extension DType identified by id, backed by
// the given storage DType and carrying opaque metadata bytes. Its
// nullability is that of the storage DType.
func NewExtension(id string, storage Type, metadata []byte) Type {
	s := storage
	return Type{
		kind:       Extension,
		nullable:   storage.Nullable(),
		extID:      id,
		extStorage: &s,
		extMeta:    slices.Clone(metadata),
	}
}

// Kind returns which member of the sum this Type represents.
func (t Type) Kind() Kind { return t.kind }

// Nullable reports whether this DType admits nulls. Null itself and
// Extension report the nullability of their relevant sub-component.
func (t Type) Nullable() bool {
	if t.kind == Extension {
		return t.extStorage.Nullable()
	}
	return t.nullable
}

// WithNullable returns a copy of t with nullability set to n. It is a
// no-op for Null.
func (t Type) WithNullable(n bool) Type {
	if t.kind == Null {
		return t
	}
	t.nullable = n
	return t
}

// Width returns the physical width of a Primitive DType. It panics if
// t is not Primitive.
func (t Type) Width() PWidth {
	if t.kind != Primitive {
		panic("dtype: Width called on non-primitive type " + t.kind.String())
	}
	return t.width
}

// Fields returns the ordered fields of a Struct DType. It panics if t
// is not Struct.
func (t Type) Fields() []Field {
	if t.kind != Struct {
		panic("dtype: Fields called on non-struct type " + t.kind.String())
	}
	return t.fields
}

// FieldByName returns the field with the given name and whether it
// was found. It panics if t is not Struct.
func (t Type) FieldByName(name string) (Field, bool) {
	for _, f := range t.Fields() {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Element returns the element DType of a List DType. It panics if t is
// not List.
func (t Type) Element() Type {
	if t.kind != List {
		panic("dtype: Element called on non-list type " + t.kind.String())
	}
	return *t.elem
}

// ExtensionID returns the stable identifier of an Extension DType. It
// panics if t is not Extension.
func (t Type) ExtensionID() string {
	if t.kind != Extension {
		panic("dtype: ExtensionID called on non-extension type " + t.kind.String())
	}
	return t.extID
}

// Storage returns the underlying storage DType of an Extension DType.
// It panics if t is not Extension.
func (t Type) Storage() Type {
	if t.kind != Extension {
		panic("dtype: Storage called on non-extension type " + t.kind.String())
	}
	return *t.extStorage
}

// Metadata returns the opaque metadata bytes of an Extension DType. It
// panics if t is not Extension.
func (t Type) Metadata() []byte {
	if t.kind != Extension {
		panic("dtype: Metadata called on non-extension type " + t.kind.String())
	}
	return t.extMeta
}

// IsNumeric reports whether t (or, for Extension, its storage type) is
// a Primitive DType.
func (t Type) IsNumeric() bool {
	if t.kind == Extension {
		return t.extStorage.IsNumeric()
	}
	return t.kind == Primitive
}

// Equal reports whether t and other describe the same logical type,
// including nullability and, for Struct, field order.
func (t Type) Equal(other Type) bool {
	if t.kind != other.kind || t.nullable != other.nullable {
		return false
	}
	switch t.kind {
	case Primitive:
		return t.width == other.width
	case Struct:
		if len(t.fields) != len(other.fields) {
			return false
		}
		for i := range t.fields {
			if t.fields[i].Name != other.fields[i].Name ||
				!t.fields[i].Type.Equal(other.fields[i].Type) {
				return false
			}
		}
		return true
	case List:
		return t.elem.Equal(*other.elem)
	case Extension:
		return t.extID == other.extID &&
			t.extStorage.Equal(*other.extStorage) &&
			slicesEqualBytes(t.extMeta, other.extMeta)
	default:
		return true
	}
}

func slicesEqualBytes(a, b []byte) bool {
	return slices.Equal(a, b)
}

// String renders a human-readable, parser-independent representation
// useful for error messages and test diffs.
func (t Type) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t Type) write(b *strings.Builder) {
	switch t.kind {
	case Null:
		b.WriteString("null")
		return
	case Bool:
		b.WriteString("bool")
	case Primitive:
		b.WriteString(t.width.String())
	case Utf8:
		b.WriteString("utf8")
	case Binary:
		b.WriteString("binary")
	case Struct:
		b.WriteString("struct{")
		for i, f := range t.fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Name)
			b.WriteString(": ")
			f.Type.write(b)
		}
		b.WriteString("}")
	case List:
		b.WriteString("list<")
		t.elem.write(b)
		b.WriteString(">")
	case Extension:
		b.WriteString("ext<")
		b.WriteString(t.extID)
		b.WriteString(", ")
		t.extStorage.write(b)
		b.WriteString(">")
	}
	if t.nullable {
		b.WriteString("?")
	}
}
