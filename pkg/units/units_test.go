package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRainClicksConvertsToInches(t *testing.T) {
	transform := RainClicks(BucketSize001In)
	assert.Equal(t, 0.25, transform(uint16(25)))
}

func TestTenthsFahrenheit(t *testing.T) {
	assert.Equal(t, 72.0, TenthsFahrenheit(int16(720)))
}

func TestWindRunMilesScalesByInterval(t *testing.T) {
	transform := WindRunMiles(5)
	assert.InDelta(t, 1.0, transform(uint8(12)).(float64), 0.0001)
}

func TestPercentHumidityClamps(t *testing.T) {
	assert.Equal(t, 100.0, PercentHumidity(uint8(150)))
	assert.Equal(t, 0.0, PercentHumidity(int8(-5)))
}

func TestOffsetFahrenheitShiftsExtraSensorEncoding(t *testing.T) {
	transform := OffsetFahrenheit(90)
	assert.Equal(t, -18.0, transform(uint8(72)))
}

func TestPackedClockTimeFormatsHHMM(t *testing.T) {
	assert.Equal(t, "06:32", PackedClockTime(uint16(632)))
}

func TestFormatDirectionWidensToString(t *testing.T) {
	assert.Equal(t, "0° N", FormatDirection(uint16(0)))
	assert.Equal(t, "90° E", FormatDirection(uint16(90)))
}
