package binparse

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/daviswx/vantage-driver/pkg/vanterr"
)

// Record is the parsed output of a schema: a tree of primitives, []any
// arrays and nested Record maps mirroring the schema tree.
type Record = map[string]any

// outOfRangeGuard bounds how far past the buffer a read may land before a
// single missing byte ("no data here") is escalated to a sizing bug.
const outOfRangeGuard = 8

// pending wraps a field's pipeline output until the dependency-resolution
// pass at the end of the owning level can decide whether DependsOn forces
// it to nil.
type pending struct {
	value     any
	dependsOn string
}

// arrayCursor is the array context propagated into Field reads while
// walking one Array's elements (and into any Object nested directly inside
// that element: nested objects share the outer index arithmetic).
type arrayCursor struct {
	kind        ArrayKind
	index       int
	entryStride int
}

// Parse walks schema depth-first against buf starting at baseOffset and
// returns the fully resolved record.
func Parse(schema *Object, buf []byte, baseOffset int) (Record, error) {
	return parseObject(schema, buf, baseOffset, nil)
}

func parseObject(obj *Object, buf []byte, base int, arr *arrayCursor) (Record, error) {
	result := make(Record, len(obj.Order))
	raw := make(map[string]any, len(obj.Order))

	queue := append([]string(nil), obj.Order...)
	for len(queue) > 0 {
		var next []string
		for _, name := range queue {
			deferred, err := parseProperty(obj, name, buf, base, arr, result, raw)
			if err != nil {
				return nil, err
			}
			if deferred {
				next = append(next, name)
			}
		}
		if len(next) == len(queue) {
			return nil, vanterr.New(vanterr.InvalidSchema, fmt.Sprintf("binparse.Parse: unresolved copyof target(s) %v", next))
		}
		queue = next
	}

	if err := resolveLevel(result); err != nil {
		return nil, err
	}
	return result, nil
}

// parseProperty processes a single named property. It returns deferred=true
// when the property is a CopyOf whose source has not yet been parsed at
// this visit (the caller re-queues it for the next pass over this level).
func parseProperty(obj *Object, name string, buf []byte, base int, arr *arrayCursor, result Record, raw map[string]any) (deferred bool, err error) {
	switch n := obj.Fields[name].(type) {
	case *Field:
		rawVal, err := readField(buf, n, base, arr)
		if err != nil {
			return false, vanterr.Wrap(vanterr.ParserError, fmt.Sprintf("binparse: field %q", name), err)
		}
		raw[name] = rawVal
		result[name] = pipeline(rawVal, n.Nullables, n.Transform, n.DependsOn)
		return false, nil

	case *CopyOf:
		srcRaw, ok := raw[n.Source]
		if !ok {
			return true, nil
		}
		raw[name] = srcRaw
		result[name] = pipeline(srcRaw, n.Nullables, n.Transform, n.DependsOn)
		return false, nil

	case *Array:
		vals, err := parseArray(n, buf, base)
		if err != nil {
			return false, vanterr.Wrap(vanterr.ParserError, fmt.Sprintf("binparse: array %q", name), err)
		}
		raw[name] = vals
		result[name] = vals
		return false, nil

	case *Object:
		nested, err := parseObject(n, buf, base, arr)
		if err != nil {
			return false, err
		}
		raw[name] = nested
		result[name] = nested
		return false, nil

	default:
		return false, vanterr.New(vanterr.InvalidSchema, fmt.Sprintf("binparse: property %q has unknown node type %T", name, n))
	}
}

func parseArray(a *Array, buf []byte, base int) ([]any, error) {
	entries := make([]any, a.Length)
	for i := 0; i < a.Length; i++ {
		cursor := &arrayCursor{kind: a.Kind, index: i, entryStride: a.EntryStride}
		switch el := a.Element.(type) {
		case *Field:
			rawVal, err := readField(buf, el, base, cursor)
			if err != nil {
				return nil, err
			}
			entries[i] = pipeline(rawVal, el.Nullables, el.Transform, el.DependsOn)
		case *Object:
			nested, err := parseObject(el, buf, base, cursor)
			if err != nil {
				return nil, err
			}
			entries[i] = nested
		case *Array:
			nested, err := parseArray(el, buf, base)
			if err != nil {
				return nil, err
			}
			entries[i] = nested
		default:
			return nil, vanterr.New(vanterr.InvalidSchema, fmt.Sprintf("binparse: array element has unsupported node type %T", el))
		}
	}
	return entries, nil
}

// pipeline applies nullable-masking then the transform chain, wrapping the
// result in a pending sentinel when dependsOn is set so the level's final
// resolution pass can null it out later.
func pipeline(rawVal any, nullables []int64, transforms []TransformFunc, dependsOn string) any {
	val := maskNullable(rawVal, nullables)
	if val != nil {
		for _, t := range transforms {
			val = t(val)
		}
	}
	if dependsOn != "" {
		return &pending{value: val, dependsOn: dependsOn}
	}
	return val
}

func maskNullable(rawVal any, nullables []int64) any {
	if rawVal == nil || len(nullables) == 0 {
		return rawVal
	}
	n, ok := toInt64(rawVal)
	if !ok {
		return rawVal
	}
	for _, sentinel := range nullables {
		if n == sentinel {
			return nil
		}
	}
	return rawVal
}

// resolveLevel walks this level's properties once, collapsing every pending
// sentinel to either its held value or nil (if its dependsOn target
// resolved to nil), following dependency chains within the level.
func resolveLevel(level Record) error {
	var resolve func(name string, stack map[string]bool) (any, error)
	resolve = func(name string, stack map[string]bool) (any, error) {
		v, ok := level[name]
		if !ok {
			return nil, vanterr.New(vanterr.InvalidSchema, fmt.Sprintf("binparse: dependsOn target %q not found in level", name))
		}
		p, isPending := v.(*pending)
		if !isPending {
			return v, nil
		}
		if stack[name] {
			return nil, vanterr.New(vanterr.InvalidSchema, fmt.Sprintf("binparse: dependency cycle detected at %q", name))
		}
		stack[name] = true
		depVal, err := resolve(p.dependsOn, stack)
		if err != nil {
			return nil, err
		}
		final := p.value
		if depVal == nil {
			final = nil
		}
		level[name] = final
		return final, nil
	}

	for name := range level {
		if _, err := resolve(name, map[string]bool{}); err != nil {
			return err
		}
	}

	// Field elements of an array at this level carry their own pending
	// sentinels; their dependsOn targets are siblings of the array.
	for _, v := range level {
		arr, ok := v.([]any)
		if !ok {
			continue
		}
		for i, el := range arr {
			if p, isPending := el.(*pending); isPending {
				depVal, err := resolve(p.dependsOn, map[string]bool{})
				if err != nil {
					return err
				}
				arr[i] = p.value
				if depVal == nil {
					arr[i] = nil
				}
			}
		}
	}
	return nil
}

// readField reads one primitive out of buf at Position+base, honoring the
// active array cursor's advance rule. Out-of-range reads return (nil, nil)
// unless they run far enough past the buffer to indicate a sizing bug.
func readField(buf []byte, f *Field, base int, arr *arrayCursor) (any, error) {
	pos := f.Position
	if arr != nil {
		switch arr.kind {
		case EntryBased:
			pos += float64(arr.entryStride * arr.index)
		default:
			pos += float64(f.Type.byteWidth() * arr.index)
		}
	}

	if f.Type == Bit {
		byteIdx := base + int(math.Floor(pos))
		bitIdx := int(math.Round((pos-math.Floor(pos))*8)) % 8
		if byteIdx < 0 {
			return nil, vanterr.New(vanterr.MalformedData, "binparse: negative byte offset")
		}
		if byteIdx >= len(buf) {
			if byteIdx >= len(buf)+outOfRangeGuard {
				return nil, vanterr.New(vanterr.MalformedData, "binparse: bit read far past buffer end")
			}
			return nil, nil
		}
		bit := (buf[byteIdx] >> uint(7-bitIdx)) & 1
		return int(bit), nil
	}

	byteIdx := base + int(math.Round(pos))
	if byteIdx < 0 {
		return nil, vanterr.New(vanterr.MalformedData, "binparse: negative byte offset")
	}
	width := f.Type.byteWidth()
	if byteIdx+width > len(buf) {
		if byteIdx >= len(buf)+outOfRangeGuard {
			return nil, vanterr.New(vanterr.MalformedData, "binparse: read far past buffer end")
		}
		return nil, nil
	}

	slice := buf[byteIdx : byteIdx+width]
	switch f.Type {
	case U8:
		return uint8(slice[0]), nil
	case I8:
		return int8(slice[0]), nil
	case U16LE:
		return binary.LittleEndian.Uint16(slice), nil
	case U16BE:
		return binary.BigEndian.Uint16(slice), nil
	case U32LE:
		return binary.LittleEndian.Uint32(slice), nil
	case U32BE:
		return binary.BigEndian.Uint32(slice), nil
	case I16LE:
		return int16(binary.LittleEndian.Uint16(slice)), nil
	case I16BE:
		return int16(binary.BigEndian.Uint16(slice)), nil
	case I32LE:
		return int32(binary.LittleEndian.Uint32(slice)), nil
	case I32BE:
		return int32(binary.BigEndian.Uint32(slice)), nil
	default:
		return nil, vanterr.New(vanterr.InvalidSchema, fmt.Sprintf("binparse: unknown primitive type %v", f.Type))
	}
}

// toInt64 widens any of the primitive numeric types readField can produce
// to int64 for comparison against a Nullables sentinel list.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}
