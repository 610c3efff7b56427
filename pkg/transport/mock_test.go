package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviswx/vantage-driver/pkg/vanterr"
)

func TestMockWaitForBufferReturnsFedBytes(t *testing.T) {
	m := NewMock()
	require.NoError(t, m.Open(context.Background()))
	defer m.Close()

	go func() {
		time.Sleep(5 * time.Millisecond)
		m.Feed([]byte{0x0A, 0x0D})
	}()

	buf, err := m.WaitForBuffer(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0A, 0x0D}, buf)
}

func TestMockWaitForBufferTimesOut(t *testing.T) {
	m := NewMock()
	require.NoError(t, m.Open(context.Background()))
	defer m.Close()

	_, err := m.WaitForBuffer(context.Background(), 10*time.Millisecond)
	require.Error(t, err)
	assert.True(t, vanterr.Is(err, vanterr.Timeout))
}

func TestMockWriteRecordsPayloadsAndRunsHook(t *testing.T) {
	m := NewMock()
	require.NoError(t, m.Open(context.Background()))
	defer m.Close()

	m.OnWrite = func(mock *Mock, data []byte) {
		if string(data) == "\n" {
			mock.Feed([]byte{0x0A, 0x0D})
		}
	}

	require.NoError(t, m.Write(context.Background(), []byte("\n")))
	assert.Equal(t, [][]byte{[]byte("\n")}, m.Written())

	buf, err := m.WaitForBuffer(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0A, 0x0D}, buf)
}

func TestMockClosedConnectionSurfacedToWaiters(t *testing.T) {
	m := NewMock()
	require.NoError(t, m.Open(context.Background()))

	errCh := make(chan error, 1)
	go func() {
		_, err := m.WaitForBuffer(context.Background(), time.Second)
		errCh <- err
	}()

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, m.Close())

	err := <-errCh
	require.Error(t, err)
	assert.True(t, vanterr.Is(err, vanterr.ClosedConnection))
}
