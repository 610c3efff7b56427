// Package binparse implements the declarative, schema-driven reader for
// Davis Vantage's packed little-endian binary records (LOOP1, LOOP2,
// HILOW). A Schema is a recursive tree of Node values built once at
// package-init time by pkg/schema and shared read-only across every parse.
package binparse

// PrimitiveType is a fixed-width (or sub-byte) wire type a Field can read.
type PrimitiveType int

const (
	U8 PrimitiveType = iota
	U16LE
	U16BE
	U32LE
	U32BE
	I8
	I16LE
	I16BE
	I32LE
	I32BE
	Bit
)

// byteWidth returns the number of whole bytes a PrimitiveType occupies.
// Bit occupies a single byte (its position is fractional: the integer part
// selects the byte).
func (t PrimitiveType) byteWidth() int {
	switch t {
	case U8, I8, Bit:
		return 1
	case U16LE, U16BE, I16LE, I16BE:
		return 2
	case U32LE, U32BE, I32LE, I32BE:
		return 4
	default:
		return 1
	}
}

// TransformFunc maps a non-nil parsed value to another value, possibly of a
// different type (e.g. raw clicks -> inches, or raw tenths -> a formatted
// string). Transforms never see a nil input: the parser applies the
// nullable mask first and short-circuits to nil without invoking any
// transform in the pipeline.
type TransformFunc func(v any) any

// ArrayKind selects how successive array entries advance their base offset.
type ArrayKind int

const (
	// PropertyBased advances a repeated Field by sizeof(type)*index.
	PropertyBased ArrayKind = iota
	// EntryBased advances the whole element's base offset by
	// entryStride*index, for records whose fields are non-contiguous.
	EntryBased
)

// Node is implemented by every schema tree node: Field, CopyOf, Array and
// Object. It exists purely to make the sum type exhaustive and checkable
// with a type switch instead of ad hoc "does this have key X" probing.
type Node interface {
	node()
}

// Field reads a single primitive value out of the buffer.
type Field struct {
	Type      PrimitiveType
	Position  float64 // byte offset; fractional part selects a bit for Bit
	Nullables []int64
	Transform []TransformFunc
	DependsOn string
}

func (*Field) node() {}

// CopyOf resolves to a sibling's pre-transform raw value, then applies its
// own nullable/transform pipeline independently of the source's.
type CopyOf struct {
	Source    string
	Nullables []int64
	Transform []TransformFunc
	DependsOn string
}

func (*CopyOf) node() {}

// Array repeats Element Length times. If Element is a *Field the array
// yields a []any of primitives; otherwise it yields a []any whose entries
// are Record values.
type Array struct {
	Element     Node
	Length      int
	Kind        ArrayKind
	EntryStride int
}

func (*Array) node() {}

// Object is an ordered mapping from property name to child node. Order is
// the source order properties are declared in and is authoritative for the
// copy-of deferral pass described in package binparse's Parse.
type Object struct {
	Order  []string
	Fields map[string]Node
}

func (*Object) node() {}

// Pair is a single named schema entry, used to build an Object with
// NewObject while preserving declaration order (a plain Go map has none).
type Pair struct {
	Name string
	Node Node
}

// NewObject builds an ordered Object from a sequence of Pairs.
func NewObject(pairs ...Pair) *Object {
	obj := &Object{
		Order:  make([]string, 0, len(pairs)),
		Fields: make(map[string]Node, len(pairs)),
	}
	for _, p := range pairs {
		obj.Order = append(obj.Order, p.Name)
		obj.Fields[p.Name] = p.Node
	}
	return obj
}
