package schema

import (
	"github.com/daviswx/vantage-driver/pkg/binparse"
	"github.com/daviswx/vantage-driver/pkg/units"
)

// HILOW describes the 436-byte HILOWS packet returned by the HILOWS
// command: today's and all-time high/low extremes for the console's
// tracked channels. Only the fields a RealtimeContainer consumer plausibly
// cares about are modeled; the remainder of the packet (per-month and
// per-year extremes for soil/leaf/extra sensors) is out of scope as a
// single well-known reading shape.
var HILOW = binparse.NewObject(
	binparse.Pair{Name: "barometer", Node: binparse.NewObject(
		binparse.Pair{Name: "dayLow", Node: &binparse.Field{Type: binparse.U16LE, Position: 0, Transform: []binparse.TransformFunc{units.TenthsInchesMercury}}},
		binparse.Pair{Name: "dayHigh", Node: &binparse.Field{Type: binparse.U16LE, Position: 2, Transform: []binparse.TransformFunc{units.TenthsInchesMercury}}},
	)},

	binparse.Pair{Name: "wind", Node: binparse.NewObject(
		binparse.Pair{Name: "dayHighSpeed", Node: &binparse.Field{Type: binparse.U8, Position: 6, Transform: []binparse.TransformFunc{units.MPH}}},
	)},

	binparse.Pair{Name: "temperature", Node: binparse.NewObject(
		binparse.Pair{Name: "insideDayLow", Node: &binparse.Field{Type: binparse.I16LE, Position: 9, Nullables: []int64{nullU16}, Transform: []binparse.TransformFunc{units.TenthsFahrenheit}}},
		binparse.Pair{Name: "insideDayHigh", Node: &binparse.Field{Type: binparse.I16LE, Position: 11, Nullables: []int64{nullU16}, Transform: []binparse.TransformFunc{units.TenthsFahrenheit}}},
		binparse.Pair{Name: "outDayLow", Node: &binparse.Field{Type: binparse.I16LE, Position: 13, Nullables: []int64{nullU16}, Transform: []binparse.TransformFunc{units.TenthsFahrenheit}}},
		binparse.Pair{Name: "outDayHigh", Node: &binparse.Field{Type: binparse.I16LE, Position: 15, Nullables: []int64{nullU16}, Transform: []binparse.TransformFunc{units.TenthsFahrenheit}}},
	)},

	binparse.Pair{Name: "humidity", Node: binparse.NewObject(
		binparse.Pair{Name: "insideDayLow", Node: &binparse.Field{Type: binparse.U8, Position: 17, Nullables: []int64{nullU8}, Transform: []binparse.TransformFunc{units.PercentHumidity}}},
		binparse.Pair{Name: "insideDayHigh", Node: &binparse.Field{Type: binparse.U8, Position: 18, Nullables: []int64{nullU8}, Transform: []binparse.TransformFunc{units.PercentHumidity}}},
		binparse.Pair{Name: "outDayLow", Node: &binparse.Field{Type: binparse.U8, Position: 19, Nullables: []int64{nullU8}, Transform: []binparse.TransformFunc{units.PercentHumidity}}},
		binparse.Pair{Name: "outDayHigh", Node: &binparse.Field{Type: binparse.U8, Position: 20, Nullables: []int64{nullU8}, Transform: []binparse.TransformFunc{units.PercentHumidity}}},
	)},

	binparse.Pair{Name: "rain", Node: binparse.NewObject(
		binparse.Pair{Name: "dayHighRate", Node: &binparse.Field{Type: binparse.U16LE, Position: 21, Transform: []binparse.TransformFunc{units.RainClicks(units.BucketSize001In)}}},
		binparse.Pair{Name: "hourHigh", Node: &binparse.Field{Type: binparse.U16LE, Position: 23, Transform: []binparse.TransformFunc{units.RainClicks(units.BucketSize001In)}}},
	)},
)
