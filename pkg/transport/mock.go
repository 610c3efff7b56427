package transport

import (
	"context"
	"sync"
	"time"

	"github.com/daviswx/vantage-driver/pkg/vanterr"
)

// Mock is an in-memory ByteTransport used by the protocol, device and
// realtime test suites in place of a real serial port, following this
// module's lineage's preference for small hand-rolled fakes over generated
// mocks. Tests script console behavior with OnWrite and push bytes "from
// the console" with Feed.
type Mock struct {
	mu       sync.Mutex
	open     bool
	buf      []byte
	readable chan struct{}
	closeCh  chan struct{}
	written  [][]byte

	// OnWrite, if set, is invoked synchronously from Write after recording
	// it, letting a test script a response (typically by calling m.Feed,
	// which never blocks, so the reply is buffered before Write returns).
	OnWrite func(m *Mock, data []byte)
}

// NewMock returns an unopened Mock transport.
func NewMock() *Mock {
	return &Mock{readable: make(chan struct{}, 1)}
}

func (m *Mock) Open(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.open {
		return nil
	}
	m.open = true
	m.closeCh = make(chan struct{})
	return nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return nil
	}
	m.open = false
	close(m.closeCh)
	return nil
}

func (m *Mock) Write(ctx context.Context, data []byte) error {
	m.mu.Lock()
	if !m.open {
		m.mu.Unlock()
		return vanterr.New(vanterr.ClosedConnection, "transport.Mock.Write")
	}
	cp := append([]byte(nil), data...)
	m.written = append(m.written, cp)
	hook := m.OnWrite
	m.mu.Unlock()

	if hook != nil {
		hook(m, cp)
	}
	return nil
}

func (m *Mock) Read() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return nil, vanterr.New(vanterr.ClosedConnection, "transport.Mock.Read")
	}
	out := m.buf
	m.buf = nil
	if out == nil {
		out = []byte{}
	}
	return out, nil
}

func (m *Mock) Readable() <-chan struct{} {
	return m.readable
}

func (m *Mock) WaitForBuffer(ctx context.Context, deadline time.Duration) ([]byte, error) {
	m.mu.Lock()
	closeCh := m.closeCh
	open := m.open
	m.mu.Unlock()
	if !open {
		return nil, vanterr.New(vanterr.ClosedConnection, "transport.Mock.WaitForBuffer")
	}
	return waitForBuffer(ctx, deadline, m.readable, closeCh, m.Read, "transport.Mock.WaitForBuffer")
}

// Feed simulates bytes arriving from the console, signalling Readable.
func (m *Mock) Feed(data []byte) {
	m.mu.Lock()
	if !m.open {
		m.mu.Unlock()
		return
	}
	m.buf = append(m.buf, data...)
	m.mu.Unlock()

	select {
	case m.readable <- struct{}{}:
	default:
	}
}

// Written returns every payload passed to Write so far, in order.
func (m *Mock) Written() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.written))
	copy(out, m.written)
	return out
}
