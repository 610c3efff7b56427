package protocol

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviswx/vantage-driver/pkg/crc16"
	"github.com/daviswx/vantage-driver/pkg/transport"
	"github.com/daviswx/vantage-driver/pkg/vanterr"
)

func framedReply(payload []byte) []byte {
	crc := crc16.Compute(payload)
	out := append([]byte{ack}, payload...)
	out = append(out, byte(crc>>8), byte(crc))
	return out
}

func newHarness(t *testing.T) (*Engine, *transport.Mock) {
	t.Helper()
	m := transport.NewMock()
	require.NoError(t, m.Open(context.Background()))
	t.Cleanup(func() { m.Close() })
	return New(m, Config{ReadTimeout: 200 * time.Millisecond}), m
}

func TestWakeUpSucceedsOnFirstTry(t *testing.T) {
	e, m := newHarness(t)
	m.OnWrite = func(mock *transport.Mock, data []byte) {
		if string(data) == "\n" {
			mock.Feed([]byte{0x0A, 0x0D})
		}
	}

	require.NoError(t, e.WakeUp(context.Background()))
}

func TestWakeUpRetriesThenFailsAfterThreeAttempts(t *testing.T) {
	e, m := newHarness(t)
	attempts := 0
	m.OnWrite = func(mock *transport.Mock, data []byte) {
		attempts++
		// Never reply: every WaitForBuffer call times out.
	}
	e.cfg.ReadTimeout = 5 * time.Millisecond

	start := time.Now()
	err := e.WakeUp(context.Background())
	require.Error(t, err)
	assert.Equal(t, wakeUpRetries, attempts)
	assert.GreaterOrEqual(t, time.Since(start), 2*wakeUpBackoff)
}

func TestGetLOOP1ParsesFramedPayload(t *testing.T) {
	e, m := newHarness(t)
	payload := make([]byte, 99)
	payload[4] = 0 // LOOP1 marker
	payload[11] = 55

	m.OnWrite = func(mock *transport.Mock, data []byte) {
		if string(data) == "LPS 1 1\n" {
			mock.Feed(framedReply(payload))
		}
	}

	rec, err := e.GetLOOP1(context.Background())
	require.NoError(t, err)
	humidity := rec["humidity"].(map[string]any)
	assert.Equal(t, 55.0, humidity["inside"])
}

func TestGetLOOP2ReassemblesTwoBursts(t *testing.T) {
	e, m := newHarness(t)
	payload := make([]byte, 99)
	payload[4] = 1 // LOOP2 marker
	full := framedReply(payload)
	split := len(full) / 2

	m.OnWrite = func(mock *transport.Mock, data []byte) {
		if string(data) == "LPS 2 1\n" {
			mock.Feed(full[:split])
			go func() {
				time.Sleep(10 * time.Millisecond)
				mock.Feed(full[split:])
			}()
		}
	}

	rec, err := e.GetLOOP2(context.Background())
	require.NoError(t, err)
	assert.Contains(t, rec, "wind")
}

func TestGetLOOP2TimesOutWithoutSecondBurst(t *testing.T) {
	e, m := newHarness(t)
	e.cfg.ReadTimeout = 20 * time.Millisecond
	payload := make([]byte, 99)
	payload[4] = 1
	full := framedReply(payload)
	split := len(full) / 2

	m.OnWrite = func(mock *transport.Mock, data []byte) {
		if string(data) == "LPS 2 1\n" {
			mock.Feed(full[:split])
		}
	}

	_, err := e.GetLOOP2(context.Background())
	require.Error(t, err)
	assert.True(t, vanterr.Is(err, vanterr.Timeout))
}

func TestFrameRejectsNAK(t *testing.T) {
	_, err := frame([]byte{nak, 0x00, 0x00})
	require.Error(t, err)
	assert.True(t, vanterr.Is(err, vanterr.FailedToSendCommand))
}

func TestFrameRejectsCRCMismatch(t *testing.T) {
	payload := []byte{1, 2, 3}
	bad := append([]byte{ack}, payload...)
	bad = append(bad, 0x00, 0x00)

	_, err := frame(bad)
	require.Error(t, err)
	assert.True(t, vanterr.Is(err, vanterr.MalformedData))
}
