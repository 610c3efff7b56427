// Package schema hosts the concrete LOOP1, LOOP2 and HILOW field tables:
// data-only binparse.Object trees describing the byte layout of each
// Vantage packet, kept separate from the protocol/parser core they
// describe.
package schema

import (
	"github.com/daviswx/vantage-driver/pkg/binparse"
	"github.com/daviswx/vantage-driver/pkg/units"
)

const nullU8 int64 = 0xFF
const nullU16 int64 = 0x7FFF

// LOOP1 describes the classic 99-byte LOOP packet common to every
// Vantage model. Offsets follow the Davis serial protocol manual's
// published LOOP layout; unexercised trailer bytes (line feed, CR) are
// framing, not data, and are intentionally left out of the schema.
var LOOP1 = binparse.NewObject(
	binparse.Pair{Name: "barTrend", Node: &binparse.Field{Type: binparse.I8, Position: 3}},
	binparse.Pair{Name: "packageType", Node: &binparse.Field{Type: binparse.U8, Position: 4}},
	binparse.Pair{Name: "nextArchiveRecord", Node: &binparse.Field{Type: binparse.U16LE, Position: 5}},

	binparse.Pair{Name: "barometer", Node: binparse.NewObject(
		binparse.Pair{Name: "value", Node: &binparse.Field{Type: binparse.U16LE, Position: 7, Transform: []binparse.TransformFunc{units.TenthsInchesMercury}}},
	)},

	binparse.Pair{Name: "temperature", Node: binparse.NewObject(
		binparse.Pair{Name: "inside", Node: &binparse.Field{Type: binparse.I16LE, Position: 9, Nullables: []int64{nullU16}, Transform: []binparse.TransformFunc{units.TenthsFahrenheit}}},
		binparse.Pair{Name: "out", Node: &binparse.Field{Type: binparse.I16LE, Position: 12, Nullables: []int64{nullU16}, Transform: []binparse.TransformFunc{units.TenthsFahrenheit}}},
		binparse.Pair{Name: "extra", Node: &binparse.Array{
			Element: &binparse.Field{Type: binparse.U8, Position: 18, Nullables: []int64{nullU8}, Transform: []binparse.TransformFunc{units.OffsetFahrenheit(90)}},
			Length:  7,
			Kind:    binparse.PropertyBased,
		}},
	)},

	binparse.Pair{Name: "humidity", Node: binparse.NewObject(
		binparse.Pair{Name: "inside", Node: &binparse.Field{Type: binparse.U8, Position: 11, Nullables: []int64{nullU8}, Transform: []binparse.TransformFunc{units.PercentHumidity}}},
		binparse.Pair{Name: "outside", Node: &binparse.Field{Type: binparse.U8, Position: 33, Nullables: []int64{nullU8}, Transform: []binparse.TransformFunc{units.PercentHumidity}}},
		binparse.Pair{Name: "extra", Node: &binparse.Array{
			Element: &binparse.Field{Type: binparse.U8, Position: 26, Nullables: []int64{nullU8}, Transform: []binparse.TransformFunc{units.PercentHumidity}},
			Length:  7,
			Kind:    binparse.PropertyBased,
		}},
	)},

	binparse.Pair{Name: "wind", Node: binparse.NewObject(
		binparse.Pair{Name: "speed", Node: &binparse.Field{Type: binparse.U8, Position: 14, Transform: []binparse.TransformFunc{units.MPH}}},
		binparse.Pair{Name: "avg10Min", Node: &binparse.Field{Type: binparse.U8, Position: 15, Transform: []binparse.TransformFunc{units.MPH}}},
		binparse.Pair{Name: "direction", Node: &binparse.Field{Type: binparse.U16LE, Position: 16}},
	)},

	binparse.Pair{Name: "rain", Node: binparse.NewObject(
		binparse.Pair{Name: "rate", Node: &binparse.Field{Type: binparse.U16LE, Position: 33, Transform: []binparse.TransformFunc{units.RainClicks(units.BucketSize001In)}}},
		binparse.Pair{Name: "storm", Node: &binparse.Field{Type: binparse.U16LE, Position: 38, Nullables: []int64{0}, Transform: []binparse.TransformFunc{units.RainClicks(units.BucketSize001In)}}},
		binparse.Pair{Name: "stormStartDate", Node: &binparse.Field{Type: binparse.U16LE, Position: 40, Nullables: []int64{-1, 0xFFFF}}},
		binparse.Pair{Name: "day", Node: &binparse.Field{Type: binparse.U16LE, Position: 42, Transform: []binparse.TransformFunc{units.RainClicks(units.BucketSize001In)}}},
		binparse.Pair{Name: "month", Node: &binparse.Field{Type: binparse.U16LE, Position: 44, Transform: []binparse.TransformFunc{units.RainClicks(units.BucketSize001In)}}},
		binparse.Pair{Name: "year", Node: &binparse.Field{Type: binparse.U16LE, Position: 46, Transform: []binparse.TransformFunc{units.RainClicks(units.BucketSize001In)}}},
	)},

	binparse.Pair{Name: "et", Node: binparse.NewObject(
		binparse.Pair{Name: "day", Node: &binparse.Field{Type: binparse.U16LE, Position: 48, Transform: []binparse.TransformFunc{func(v any) any {
			n, _ := v.(uint16)
			return float64(n) / 1000.0
		}}}},
		binparse.Pair{Name: "month", Node: &binparse.Field{Type: binparse.U16LE, Position: 50, Transform: []binparse.TransformFunc{units.TenthsInchesMercury}}},
		binparse.Pair{Name: "year", Node: &binparse.Field{Type: binparse.U16LE, Position: 52, Transform: []binparse.TransformFunc{units.TenthsInchesMercury}}},
	)},

	binparse.Pair{Name: "soil", Node: binparse.NewObject(
		binparse.Pair{Name: "moisture", Node: &binparse.Array{
			Element: &binparse.Field{Type: binparse.U8, Position: 54, Nullables: []int64{nullU8}},
			Length:  4,
			Kind:    binparse.PropertyBased,
		}},
		binparse.Pair{Name: "leafWetness", Node: &binparse.Array{
			Element: &binparse.Field{Type: binparse.U8, Position: 58, Nullables: []int64{nullU8}},
			Length:  4,
			Kind:    binparse.PropertyBased,
		}},
	)},

	binparse.Pair{Name: "alarms", Node: binparse.NewObject(
		binparse.Pair{Name: "inside", Node: &binparse.Field{Type: binparse.U8, Position: 62}},
		binparse.Pair{Name: "rain", Node: &binparse.Field{Type: binparse.U8, Position: 63}},
		binparse.Pair{Name: "outside", Node: &binparse.Field{Type: binparse.U16LE, Position: 64}},
		binparse.Pair{Name: "extra", Node: &binparse.Field{Type: binparse.U16LE, Position: 66}},
		binparse.Pair{Name: "soilLeaf", Node: &binparse.Array{
			Element: &binparse.Field{Type: binparse.U8, Position: 68},
			Length:  6,
			Kind:    binparse.PropertyBased,
		}},
	)},

	binparse.Pair{Name: "battery", Node: binparse.NewObject(
		binparse.Pair{Name: "transmitterStatus", Node: &binparse.Field{Type: binparse.U8, Position: 74}},
		binparse.Pair{Name: "consoleVoltage", Node: &binparse.Field{Type: binparse.U16LE, Position: 75, Transform: []binparse.TransformFunc{units.ConsoleBatteryVolts}}},
	)},

	binparse.Pair{Name: "forecast", Node: binparse.NewObject(
		binparse.Pair{Name: "iconRain", Node: &binparse.Field{Type: binparse.Bit, Position: 77.0}},
		binparse.Pair{Name: "iconSun", Node: &binparse.Field{Type: binparse.Bit, Position: 77.125}},
		binparse.Pair{Name: "ruleNumber", Node: &binparse.Field{Type: binparse.U8, Position: 78}},
	)},

	binparse.Pair{Name: "sun", Node: binparse.NewObject(
		binparse.Pair{Name: "rise", Node: &binparse.Field{Type: binparse.U16LE, Position: 79, Transform: []binparse.TransformFunc{units.PackedClockTime}}},
		binparse.Pair{Name: "set", Node: &binparse.Field{Type: binparse.U16LE, Position: 81, Transform: []binparse.TransformFunc{units.PackedClockTime}}},
	)},
)
