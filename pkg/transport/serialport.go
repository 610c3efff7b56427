package transport

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/daviswx/vantage-driver/pkg/vanterr"
)

// SerialPort is the production ByteTransport, backed by go.bug.st/serial.
// A single background goroutine performs blocking reads and appends to an
// internal buffer, mirroring the read-loop-goroutine-plus-mutex shape the
// rest of this module's lineage uses for its own serial reader, batched
// instead of byte-at-a-time for throughput on a 19200+ baud weather feed.
type SerialPort struct {
	cfg Config

	mu       sync.Mutex
	port     serial.Port
	buf      []byte
	readable chan struct{}
	closeCh  chan struct{}
	wg       sync.WaitGroup
}

// NewSerialPort builds a SerialPort for cfg. The underlying port is not
// opened until Open is called.
func NewSerialPort(cfg Config) *SerialPort {
	if cfg.Baud == 0 {
		cfg.Baud = DefaultBaud
	}
	return &SerialPort{
		cfg:      cfg,
		readable: make(chan struct{}, 1),
	}
}

func (s *SerialPort) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port != nil {
		return nil
	}

	mode := &serial.Mode{
		BaudRate: s.cfg.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(s.cfg.Path, mode)
	if err != nil {
		return vanterr.Wrap(vanterr.SerialConnectionError, "transport.Open", err)
	}

	s.port = port
	s.closeCh = make(chan struct{})
	s.wg.Add(1)
	go s.readLoop(port, s.closeCh)
	return nil
}

func (s *SerialPort) readLoop(port serial.Port, closeCh chan struct{}) {
	defer s.wg.Done()
	chunk := make([]byte, 256)
	for {
		n, err := port.Read(chunk)
		select {
		case <-closeCh:
			return
		default:
		}
		if err != nil {
			if err != io.EOF {
				time.Sleep(10 * time.Millisecond)
			}
			continue
		}
		if n == 0 {
			continue
		}

		s.mu.Lock()
		s.buf = append(s.buf, chunk[:n]...)
		s.mu.Unlock()

		select {
		case s.readable <- struct{}{}:
		default:
		}
	}
}

func (s *SerialPort) Close() error {
	s.mu.Lock()
	port := s.port
	closeCh := s.closeCh
	s.port = nil
	s.mu.Unlock()

	if port == nil {
		return nil
	}
	close(closeCh)
	err := port.Close()
	s.wg.Wait()
	if err != nil {
		return vanterr.Wrap(vanterr.SerialConnectionError, "transport.Close", err)
	}
	return nil
}

func (s *SerialPort) Write(ctx context.Context, data []byte) error {
	s.mu.Lock()
	port := s.port
	s.mu.Unlock()
	if port == nil {
		return vanterr.New(vanterr.ClosedConnection, "transport.Write")
	}
	if _, err := port.Write(data); err != nil {
		return vanterr.Wrap(vanterr.FailedToWrite, "transport.Write", err)
	}
	return nil
}

func (s *SerialPort) Read() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil, vanterr.New(vanterr.ClosedConnection, "transport.Read")
	}
	out := s.buf
	s.buf = nil
	if out == nil {
		out = []byte{}
	}
	return out, nil
}

func (s *SerialPort) Readable() <-chan struct{} {
	return s.readable
}

func (s *SerialPort) WaitForBuffer(ctx context.Context, deadline time.Duration) ([]byte, error) {
	s.mu.Lock()
	closeCh := s.closeCh
	s.mu.Unlock()
	if closeCh == nil {
		return nil, vanterr.New(vanterr.ClosedConnection, "transport.WaitForBuffer")
	}
	return waitForBuffer(ctx, deadline, s.readable, closeCh, s.Read, fmt.Sprintf("transport.WaitForBuffer(%s)", s.cfg.Path))
}
