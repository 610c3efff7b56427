package schema

import (
	"github.com/daviswx/vantage-driver/pkg/binparse"
	"github.com/daviswx/vantage-driver/pkg/units"
)

// LOOP2 describes the extended 99-byte LOOP2 packet (firmware date code
// newer than 2002-04-24 only). It carries a 2-minute wind average,
// 10-minute gust readings, and graph pointers absent from LOOP1.
var LOOP2 = binparse.NewObject(
	binparse.Pair{Name: "packageType", Node: &binparse.Field{Type: binparse.U8, Position: 4}},

	binparse.Pair{Name: "barometer", Node: binparse.NewObject(
		binparse.Pair{Name: "value", Node: &binparse.Field{Type: binparse.U16LE, Position: 7, Transform: []binparse.TransformFunc{units.TenthsInchesMercury}}},
	)},

	binparse.Pair{Name: "temperature", Node: binparse.NewObject(
		binparse.Pair{Name: "inside", Node: &binparse.Field{Type: binparse.I16LE, Position: 9, Nullables: []int64{nullU16}, Transform: []binparse.TransformFunc{units.TenthsFahrenheit}}},
		binparse.Pair{Name: "out", Node: &binparse.Field{Type: binparse.I16LE, Position: 12, Nullables: []int64{nullU16}, Transform: []binparse.TransformFunc{units.TenthsFahrenheit}}},
	)},

	binparse.Pair{Name: "humidity", Node: binparse.NewObject(
		binparse.Pair{Name: "inside", Node: &binparse.Field{Type: binparse.U8, Position: 11, Nullables: []int64{nullU8}, Transform: []binparse.TransformFunc{units.PercentHumidity}}},
		binparse.Pair{Name: "outside", Node: &binparse.Field{Type: binparse.U8, Position: 33, Nullables: []int64{nullU8}, Transform: []binparse.TransformFunc{units.PercentHumidity}}},
	)},

	binparse.Pair{Name: "wind", Node: binparse.NewObject(
		binparse.Pair{Name: "speed", Node: &binparse.Field{Type: binparse.U8, Position: 14, Transform: []binparse.TransformFunc{units.MPH}}},
		binparse.Pair{Name: "direction", Node: &binparse.Field{Type: binparse.U16LE, Position: 16}},
		binparse.Pair{Name: "avg10Min", Node: &binparse.Field{Type: binparse.U16LE, Position: 18, Transform: []binparse.TransformFunc{units.MPH}}},
		binparse.Pair{Name: "avg2Min", Node: &binparse.Field{Type: binparse.U16LE, Position: 20, Transform: []binparse.TransformFunc{units.MPH}}},
		binparse.Pair{Name: "gust10Min", Node: &binparse.Field{Type: binparse.U16LE, Position: 22, Transform: []binparse.TransformFunc{units.MPH}}},
		binparse.Pair{Name: "gustDirection10Min", Node: &binparse.Field{Type: binparse.U16LE, Position: 24}},
	)},

	binparse.Pair{Name: "rain", Node: binparse.NewObject(
		binparse.Pair{Name: "rate", Node: &binparse.Field{Type: binparse.U16LE, Position: 33, Transform: []binparse.TransformFunc{units.RainClicks(units.BucketSize001In)}}},
		binparse.Pair{Name: "storm", Node: &binparse.Field{Type: binparse.U16LE, Position: 46, Nullables: []int64{0}, Transform: []binparse.TransformFunc{units.RainClicks(units.BucketSize001In)}}},
		binparse.Pair{Name: "stormStartDate", Node: &binparse.Field{Type: binparse.U16LE, Position: 48, Nullables: []int64{-1, 0xFFFF}}},
		binparse.Pair{Name: "last15Min", Node: &binparse.Field{Type: binparse.U16LE, Position: 52, Transform: []binparse.TransformFunc{units.RainClicks(units.BucketSize001In)}}},
		binparse.Pair{Name: "lastHour", Node: &binparse.Field{Type: binparse.U16LE, Position: 54, Transform: []binparse.TransformFunc{units.RainClicks(units.BucketSize001In)}}},
		binparse.Pair{Name: "day", Node: &binparse.Field{Type: binparse.U16LE, Position: 56, Transform: []binparse.TransformFunc{units.RainClicks(units.BucketSize001In)}}},
		binparse.Pair{Name: "last24Hours", Node: &binparse.Field{Type: binparse.U16LE, Position: 58, Transform: []binparse.TransformFunc{units.RainClicks(units.BucketSize001In)}}},
	)},

	binparse.Pair{Name: "et", Node: binparse.NewObject(
		binparse.Pair{Name: "day", Node: &binparse.Field{Type: binparse.U16LE, Position: 62, Transform: []binparse.TransformFunc{func(v any) any {
			n, _ := v.(uint16)
			return float64(n) / 1000.0
		}}}},
	)},

	binparse.Pair{Name: "graphPointers", Node: binparse.NewObject(
		binparse.Pair{Name: "next10MinWindAvg", Node: &binparse.Field{Type: binparse.U8, Position: 73}},
		binparse.Pair{Name: "next15MinWindAvg", Node: &binparse.Field{Type: binparse.U8, Position: 74}},
		binparse.Pair{Name: "nextHourlyWindAvg", Node: &binparse.Field{Type: binparse.U8, Position: 75}},
		binparse.Pair{Name: "nextDailyWindAvg", Node: &binparse.Field{Type: binparse.U8, Position: 76}},
		binparse.Pair{Name: "nextMinuteRain", Node: &binparse.Field{Type: binparse.U8, Position: 77}},
		binparse.Pair{Name: "nextRainStorm", Node: &binparse.Field{Type: binparse.U16LE, Position: 78}},
		binparse.Pair{Name: "nextMonthlyRain", Node: &binparse.Field{Type: binparse.U8, Position: 80}},
		binparse.Pair{Name: "nextYearlyRain", Node: &binparse.Field{Type: binparse.U8, Position: 81}},
		binparse.Pair{Name: "nextSeasonalRain", Node: &binparse.Field{Type: binparse.U8, Position: 82}},
	)},
)
