// Package transport abstracts the bidirectional byte stream a
// protocol.Engine drives a Vantage console over. ByteTransport is
// implemented by a real serial port (serialport.go) and by an in-memory
// Mock (mock.go) used throughout the protocol and realtime test suites.
package transport

import (
	"context"
	"time"

	"github.com/daviswx/vantage-driver/pkg/vanterr"
)

// Config describes how to open a serial connection to a console.
type Config struct {
	Path string
	Baud int
}

// DefaultBaud is the Vantage family's out-of-the-box serial speed.
const DefaultBaud = 19200

// ByteTransport is the abstract byte stream a protocol.Engine is built on.
// It is single-owner: concurrent calls to Write are undefined behavior,
// since a console physically cannot multiplex — callers serialize through
// protocol.Engine's own mutex instead of this interface.
type ByteTransport interface {
	// Open establishes the underlying connection. Calling Open on an
	// already-open transport is a no-op.
	Open(ctx context.Context) error
	// Close tears down the connection and stops the reader goroutine.
	// Close on an already-closed transport is a no-op.
	Close() error
	// Write sends bytes to the console.
	Write(ctx context.Context, data []byte) error
	// Read returns whatever bytes have been buffered since the last Read
	// call. It never blocks and may return an empty, non-nil slice.
	Read() ([]byte, error)
	// Readable signals (by receiving a value) whenever at least one byte
	// has arrived since the last drain. The channel is buffered with
	// capacity 1 so a signal is never lost if nobody is listening the
	// instant it fires.
	Readable() <-chan struct{}
	// WaitForBuffer blocks until Read would return a non-empty slice, or
	// until deadline elapses (vanterr.Timeout), the transport closes
	// (vanterr.ClosedConnection) or ctx is done (vanterr.ClosedConnection
	// wrapping ctx.Err()).
	WaitForBuffer(ctx context.Context, deadline time.Duration) ([]byte, error)
}

// waitForBuffer is the shared polling loop used by both ByteTransport
// implementations: it drains Read() through Readable() signals until
// non-empty, the deadline elapses, or ctx/closeCh fires.
func waitForBuffer(ctx context.Context, deadline time.Duration, readable <-chan struct{}, closeCh <-chan struct{}, read func() ([]byte, error), op string) ([]byte, error) {
	if buf, err := read(); err != nil {
		return nil, err
	} else if len(buf) > 0 {
		return buf, nil
	}

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	for {
		select {
		case <-readable:
			buf, err := read()
			if err != nil {
				return nil, err
			}
			if len(buf) > 0 {
				return buf, nil
			}
		case <-timer.C:
			return nil, vanterr.New(vanterr.Timeout, op)
		case <-closeCh:
			return nil, vanterr.New(vanterr.ClosedConnection, op)
		case <-ctx.Done():
			return nil, vanterr.Wrap(vanterr.ClosedConnection, op, ctx.Err())
		}
	}
}
