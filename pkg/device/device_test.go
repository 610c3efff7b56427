package device

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviswx/vantage-driver/pkg/crc16"
	"github.com/daviswx/vantage-driver/pkg/protocol"
	"github.com/daviswx/vantage-driver/pkg/transport"
	"github.com/daviswx/vantage-driver/pkg/vanterr"
)

func framedReply(payload []byte) []byte {
	crc := crc16.Compute(payload)
	out := append([]byte{0x06}, payload...)
	out = append(out, byte(crc>>8), byte(crc))
	return out
}

func newDeviceHarness(t *testing.T, model Model) (*Device, *transport.Mock) {
	t.Helper()
	m := transport.NewMock()
	require.NoError(t, m.Open(context.Background()))
	t.Cleanup(func() { m.Close() })
	return New(model, m, protocol.Config{ReadTimeout: 200 * time.Millisecond}), m
}

func TestModelProRejectsLOOP2AndFirmwareVersion(t *testing.T) {
	d, _ := newDeviceHarness(t, ModelPro)

	_, err := d.GetLOOP2(context.Background())
	require.Error(t, err)
	assert.True(t, vanterr.Is(err, vanterr.UnsupportedDeviceModel))

	_, err = d.GetFirmwareVersion(context.Background())
	require.Error(t, err)
	assert.True(t, vanterr.Is(err, vanterr.UnsupportedDeviceModel))
}

func TestModelPro2RichMergeDropsListedKeysAndUnifiesRain(t *testing.T) {
	d, m := newDeviceHarness(t, ModelPro2)

	loop1 := make([]byte, 99)
	loop1[4] = 0
	loop1[42], loop1[43] = 10, 0 // day rain raw = 10 clicks

	loop2 := make([]byte, 99)
	loop2[4] = 1
	loop2[56], loop2[57] = 20, 0 // day rain raw = 20 clicks (LOOP2 wins)

	m.OnWrite = func(mock *transport.Mock, data []byte) {
		switch string(data) {
		case "LPS 1 1\n":
			mock.Feed(framedReply(loop1))
		case "LPS 2 1\n":
			// The console sends LOOP2 in two bursts.
			full := framedReply(loop2)
			mock.Feed(full[:50])
			go func() {
				time.Sleep(10 * time.Millisecond)
				mock.Feed(full[50:])
			}()
		}
	}

	rec, err := d.GetRichRealtimeData(context.Background())
	require.NoError(t, err)

	for _, dropped := range []string{"alarms", "packageType", "nextArchiveRecord", "graphPointers"} {
		_, ok := rec[dropped]
		assert.Falsef(t, ok, "expected %q to be dropped from rich merge", dropped)
	}

	rain := rec["rain"].(map[string]any)
	assert.Equal(t, 0.2, rain["day"])
}
