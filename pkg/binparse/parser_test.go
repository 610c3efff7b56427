package binparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviswx/vantage-driver/pkg/vanterr"
)

func doubleTransform(v any) any {
	n, _ := toInt64(v)
	return n * 2
}

func TestParseSimpleFields(t *testing.T) {
	schema := NewObject(
		Pair{"a", &Field{Type: U8, Position: 0}},
		Pair{"b", &Field{Type: U16LE, Position: 1}},
	)
	buf := []byte{0x2A, 0x01, 0x02}

	rec, err := Parse(schema, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x2A), rec["a"])
	assert.Equal(t, uint16(0x0201), rec["b"])
}

func TestParseIsIdempotent(t *testing.T) {
	schema := NewObject(
		Pair{"temp", &Field{Type: I16LE, Position: 0, Transform: []TransformFunc{doubleTransform}}},
		Pair{"hum", &Field{Type: U8, Position: 2, Nullables: []int64{0xFF}}},
	)
	buf := []byte{0x0A, 0x00, 0xFF}

	first, err := Parse(schema, buf, 0)
	require.NoError(t, err)
	second, err := Parse(schema, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNullableSentinelMasksValueAndSkipsTransform(t *testing.T) {
	schema := NewObject(
		Pair{"v", &Field{Type: U16LE, Position: 0, Nullables: []int64{0x7FFF}, Transform: []TransformFunc{doubleTransform}}},
	)

	nonNull, err := Parse(schema, []byte{0x10, 0x00}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0x20), nonNull["v"])

	null, err := Parse(schema, []byte{0xFF, 0x7F}, 0)
	require.NoError(t, err)
	assert.Nil(t, null["v"])
}

func TestDependsOnPropagatesNull(t *testing.T) {
	schema := NewObject(
		Pair{"rate", &Field{Type: U8, Position: 0, Nullables: []int64{0xFF}}},
		Pair{"derived", &Field{Type: U8, Position: 1, DependsOn: "rate"}},
	)

	rec, err := Parse(schema, []byte{0xFF, 0x05}, 0)
	require.NoError(t, err)
	assert.Nil(t, rec["rate"])
	assert.Nil(t, rec["derived"], "derived must be null because its dependsOn target is null, regardless of its own raw byte")

	rec2, err := Parse(schema, []byte{0x01, 0x05}, 0)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x05), rec2["derived"])
}

func TestArrayStridePropertyBased(t *testing.T) {
	schema := NewObject(
		Pair{"samples", &Array{
			Element: &Field{Type: U8, Position: 10},
			Length:  4,
			Kind:    PropertyBased,
		}},
	)
	buf := make([]byte, 20)
	for i := 10; i < 14; i++ {
		buf[i] = byte(i)
	}

	rec, err := Parse(schema, buf, 0)
	require.NoError(t, err)
	samples := rec["samples"].([]any)
	require.Len(t, samples, 4)
	for i, v := range samples {
		assert.Equal(t, uint8(10+i), v)
	}
}

func TestArrayStrideEntryBased(t *testing.T) {
	element := NewObject(
		Pair{"id", &Field{Type: U8, Position: 0}},
		Pair{"value", &Field{Type: U16LE, Position: 1}},
	)
	schema := NewObject(
		Pair{"entries", &Array{
			Element:     element,
			Length:      3,
			Kind:        EntryBased,
			EntryStride: 4,
		}},
	)
	buf := make([]byte, 12)
	for i := 0; i < 3; i++ {
		base := i * 4
		buf[base] = byte(i)
		buf[base+1] = byte(i * 10)
		buf[base+2] = 0
	}

	rec, err := Parse(schema, buf, 0)
	require.NoError(t, err)
	entries := rec["entries"].([]any)
	require.Len(t, entries, 3)
	for i, raw := range entries {
		entry := raw.(Record)
		assert.Equal(t, uint8(i), entry["id"])
		assert.Equal(t, uint16(i*10), entry["value"])
	}
}

func TestCopyOfSharesPreTransformRawValue(t *testing.T) {
	schema := NewObject(
		Pair{"source", &Field{Type: U16LE, Position: 0, Transform: []TransformFunc{doubleTransform}}},
		Pair{"alias", &CopyOf{Source: "source"}},
	)
	buf := []byte{0x05, 0x00}

	rec, err := Parse(schema, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(10), rec["source"])
	assert.Equal(t, uint16(5), rec["alias"], "copy-of must adopt the source's pre-transform raw value, not its transformed result")
}

func TestCopyOfDeferredUntilSourceParsed(t *testing.T) {
	schema := NewObject(
		Pair{"alias", &CopyOf{Source: "source"}},
		Pair{"source", &Field{Type: U8, Position: 0}},
	)
	rec, err := Parse(schema, []byte{0x42}, 0)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x42), rec["alias"])
	assert.Equal(t, uint8(0x42), rec["source"])
}

func TestUnresolvedCopyOfIsInvalidSchema(t *testing.T) {
	schema := NewObject(
		Pair{"alias", &CopyOf{Source: "missing"}},
	)
	_, err := Parse(schema, []byte{0x00}, 0)
	require.Error(t, err)
	assert.True(t, vanterr.Is(err, vanterr.InvalidSchema))
}

func TestBitFieldReadsMSBFirst(t *testing.T) {
	schema := NewObject(
		Pair{"bit0", &Field{Type: Bit, Position: 0.0}},
		Pair{"bit7", &Field{Type: Bit, Position: 0.875}},
	)
	// 0x80 = 1000_0000: MSB (bit index 0) is 1, LSB (bit index 7) is 0.
	rec, err := Parse(schema, []byte{0x80}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, rec["bit0"])
	assert.Equal(t, 0, rec["bit7"])
}

func TestOutOfRangeReadYieldsNilNotError(t *testing.T) {
	schema := NewObject(
		Pair{"missing", &Field{Type: U16LE, Position: 5}},
	)
	rec, err := Parse(schema, []byte{0x01, 0x02}, 0)
	require.NoError(t, err)
	assert.Nil(t, rec["missing"])
}

func TestFarOutOfRangeReadIsMalformedData(t *testing.T) {
	schema := NewObject(
		Pair{"missing", &Field{Type: U16LE, Position: 500}},
	)
	_, err := Parse(schema, []byte{0x01, 0x02}, 0)
	require.Error(t, err)
	assert.True(t, vanterr.Is(err, vanterr.MalformedData))
}

func TestNestedObjectParsesIndependentLevel(t *testing.T) {
	inner := NewObject(
		Pair{"raw", &Field{Type: U8, Position: 0, Nullables: []int64{0xFF}}},
		Pair{"derived", &Field{Type: U8, Position: 0, DependsOn: "raw"}},
	)
	schema := NewObject(Pair{"nested", inner})

	rec, err := Parse(schema, []byte{0xFF}, 0)
	require.NoError(t, err)
	nested := rec["nested"].(Record)
	assert.Nil(t, nested["raw"])
	assert.Nil(t, nested["derived"])
}
