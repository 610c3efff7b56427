// Package units holds the concrete transform functions schema fields
// reference from their Transform pipelines: small, pure, allocation-free
// functions mapping raw wire values to engineering units.
package units

import (
	"fmt"

	"github.com/daviswx/vantage-driver/pkg/binparse"
)

// BucketSize is the rain-gauge tip resolution a console was configured
// with, needed to turn raw tipping-bucket "clicks" into a depth.
type BucketSize float64

const (
	BucketSize001In BucketSize = 0.01
	BucketSize02Mm  BucketSize = 0.2 / 25.4
	BucketSize1Mm   BucketSize = 1.0 / 25.4
)

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// RainClicks converts a raw tipping-bucket click count to inches of rain.
func RainClicks(bucket BucketSize) binparse.TransformFunc {
	return func(v any) any {
		n, ok := toFloat(v)
		if !ok {
			return v
		}
		return n * float64(bucket)
	}
}

// TenthsFahrenheit converts a raw value in tenths of a degree Fahrenheit
// (Davis's wire encoding for most temperature fields) to whole degrees.
func TenthsFahrenheit(v any) any {
	n, ok := toFloat(v)
	if !ok {
		return v
	}
	return n / 10.0
}

// TenthsInchesMercury converts a raw value in thousandths of an inch of
// mercury to inHg.
func TenthsInchesMercury(v any) any {
	n, ok := toFloat(v)
	if !ok {
		return v
	}
	return n / 1000.0
}

// MPH passes wind speed through unchanged: Davis already reports it in
// whole miles per hour for LOOP fields. Present for schema symmetry and as
// the attachment point for a future unit system.
func MPH(v any) any {
	return v
}

// WindRunMiles converts an accumulated-wind-run raw counter, sampled every
// minutes minutes, into a miles figure.
func WindRunMiles(minutes int) binparse.TransformFunc {
	return func(v any) any {
		n, ok := toFloat(v)
		if !ok {
			return v
		}
		return n * float64(minutes) / 60.0
	}
}

// PercentHumidity clamps a raw relative-humidity value into 0-100: negative
// values become 0 and values above 100 become 100.
func PercentHumidity(v any) any {
	n, ok := toFloat(v)
	if !ok {
		return v
	}
	if n < 0 {
		n = 0
	}
	if n > 100 {
		n = 100
	}
	return n
}

// ConsoleBatteryVolts converts the raw console battery ADC reading (per
// the Davis serial protocol manual's documented divider/scale) to volts.
func ConsoleBatteryVolts(v any) any {
	n, ok := toFloat(v)
	if !ok {
		return v
	}
	return n * 300.0 / 512.0 / 100.0
}

// OffsetFahrenheit shifts a raw value by a fixed number of degrees, used for
// the extra-temperature-sensor fields Davis encodes as "actual temp + 90"
// so the wire byte is never negative.
func OffsetFahrenheit(offset float64) binparse.TransformFunc {
	return func(v any) any {
		n, ok := toFloat(v)
		if !ok {
			return v
		}
		return n - offset
	}
}

// PackedClockTime unpacks a Davis "packed time" u16 (encoded as hour*100 +
// minute) into an "HH:MM" string.
func PackedClockTime(v any) any {
	n, ok := toFloat(v)
	if !ok {
		return v
	}
	raw := int(n)
	return fmt.Sprintf("%02d:%02d", raw/100, raw%100)
}

// FormatDirection turns a raw 0-360 degree heading into a compass string;
// one of the transforms whose result is a wider type than its input.
func FormatDirection(v any) any {
	n, ok := toFloat(v)
	if !ok {
		return v
	}
	dirs := [16]string{"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE", "S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW"}
	idx := int((n+11.25)/22.5) % 16
	if idx < 0 {
		idx += 16
	}
	return fmt.Sprintf("%.0f° %s", n, dirs[idx])
}
