// Package protocol implements the Davis Vantage console command/response
// protocol over a transport.ByteTransport: wake-up handshake, ACK/CRC
// framing, and the LOOP1/LOOP2/HILOWS commands.
package protocol

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/daviswx/vantage-driver/pkg/binparse"
	"github.com/daviswx/vantage-driver/pkg/crc16"
	"github.com/daviswx/vantage-driver/pkg/schema"
	"github.com/daviswx/vantage-driver/pkg/transport"
	"github.com/daviswx/vantage-driver/pkg/vanterr"
)

const (
	ack    byte = 0x06
	nak    byte = 0x15
	cancel byte = 0x18
)

const (
	wakeUpRetries    = 3
	wakeUpBackoff    = 1200 * time.Millisecond
	loop2GapDeadline = 2 * time.Second
)

// Config tunes timing the console itself doesn't dictate.
type Config struct {
	// ReadTimeout bounds how long a single framed command waits for its
	// response (and, for LOOP2, how long the second burst may lag the
	// first) before failing with vanterr.Timeout.
	ReadTimeout time.Duration
}

// DefaultConfig matches the console's own command turnaround expectations.
func DefaultConfig() Config {
	return Config{ReadTimeout: loop2GapDeadline}
}

// Engine drives the request/response protocol over one ByteTransport. Only
// one command may be outstanding at a time, enforced by mu.
type Engine struct {
	transport transport.ByteTransport
	cfg       Config

	mu sync.Mutex
}

func New(t transport.ByteTransport, cfg Config) *Engine {
	return &Engine{transport: t, cfg: cfg}
}

func (e *Engine) Open(ctx context.Context) error {
	return e.transport.Open(ctx)
}

func (e *Engine) Close() error {
	return e.transport.Close()
}

// WakeUp sends the console wake sequence, retrying up to wakeUpRetries
// times. The console sleeps after roughly two minutes of inactivity; every
// burst of commands must be preceded by a successful WakeUp.
func (e *Engine) WakeUp(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < wakeUpRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return vanterr.Wrap(vanterr.Timeout, "protocol.WakeUp", ctx.Err())
			case <-time.After(wakeUpBackoff):
			}
		}

		if err := e.transport.Write(ctx, []byte("\n")); err != nil {
			lastErr = vanterr.Wrap(vanterr.FailedToWrite, "protocol.WakeUp", err)
			continue
		}
		buf, err := e.transport.WaitForBuffer(ctx, e.cfg.ReadTimeout)
		if err != nil {
			lastErr = err
			continue
		}
		if len(buf) == 2 && buf[0] == 0x0A && buf[1] == 0x0D {
			return nil
		}
		lastErr = vanterr.New(vanterr.FailedToSendCommand, "protocol.WakeUp: unexpected wake response")
	}
	return lastErr
}

// ValidateConnection confirms the console answers the TEST command with the
// literal string "TEST".
func (e *Engine) ValidateConnection(ctx context.Context) error {
	buf, err := e.command(ctx, "TEST\n")
	if err != nil {
		return err
	}
	if len(buf) < 6 || string(buf[2:6]) != "TEST" {
		return vanterr.New(vanterr.FailedToSendCommand, "protocol.ValidateConnection: unexpected response")
	}
	return nil
}

// GetFirmwareDateCode returns the console's firmware date code, e.g. "Apr 24 2002".
func (e *Engine) GetFirmwareDateCode(ctx context.Context) (string, error) {
	return e.textCommand(ctx, "VER\n")
}

// GetFirmwareVersion returns the console's firmware version, prefixed "v".
func (e *Engine) GetFirmwareVersion(ctx context.Context) (string, error) {
	text, err := e.textCommand(ctx, "NVER\n")
	if err != nil {
		return "", err
	}
	return "v" + text, nil
}

// textCommand sends a plain-text command and returns the payload following
// the console's literal "OK" marker.
func (e *Engine) textCommand(ctx context.Context, cmd string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.transport.Write(ctx, []byte(cmd)); err != nil {
		return "", vanterr.Wrap(vanterr.FailedToWrite, "protocol.textCommand", err)
	}
	buf, err := e.transport.WaitForBuffer(ctx, e.cfg.ReadTimeout)
	if err != nil {
		return "", err
	}
	const marker = "OK"
	idx := indexOf(buf, marker)
	if idx < 0 {
		return "", vanterr.New(vanterr.FailedToSendCommand, "protocol.textCommand: missing OK marker")
	}
	return trimCRLF(string(buf[idx+len(marker):])), nil
}

// GetHighsAndLows fetches and parses the HILOWS packet.
func (e *Engine) GetHighsAndLows(ctx context.Context) (binparse.Record, error) {
	payload, err := e.framedCommand(ctx, "HILOWS\n")
	if err != nil {
		return nil, err
	}
	return binparse.Parse(schema.HILOW, payload, 0)
}

// GetLOOP1 fetches and parses a single LOOP1 packet.
func (e *Engine) GetLOOP1(ctx context.Context) (binparse.Record, error) {
	payload, err := e.framedCommand(ctx, "LPS 1 1\n")
	if err != nil {
		return nil, err
	}
	if len(payload) < 5 || payload[4] != 0 {
		return nil, vanterr.New(vanterr.MalformedData, "protocol.GetLOOP1: packageType byte is not LOOP1")
	}
	return binparse.Parse(schema.LOOP1, payload, 0)
}

// GetLOOP2 fetches and parses a LOOP2 packet, which the console always
// transmits as two serial bursts with a short gap between them.
func (e *Engine) GetLOOP2(ctx context.Context) (binparse.Record, error) {
	payload, err := e.framedCommandTwoBurst(ctx, "LPS 2 1\n")
	if err != nil {
		return nil, err
	}
	if len(payload) < 5 || payload[4] == 0 {
		return nil, vanterr.New(vanterr.MalformedData, "protocol.GetLOOP2: packageType byte is not LOOP2")
	}
	return binparse.Parse(schema.LOOP2, payload, 0)
}

// SupportsLOOP2Packages reports whether the console's firmware is new
// enough to answer LPS 2 1 (firmware date code after Apr 24 2002).
func (e *Engine) SupportsLOOP2Packages(ctx context.Context) (bool, error) {
	dateCode, err := e.GetFirmwareDateCode(ctx)
	if err != nil {
		return false, err
	}
	cutoff, err := time.Parse("Jan _2 2006", "Apr 24 2002")
	if err != nil {
		return false, vanterr.Wrap(vanterr.ParserError, "protocol.SupportsLOOP2Packages", err)
	}
	parsed, err := time.Parse("Jan _2 2006", dateCode)
	if err != nil {
		return false, vanterr.Wrap(vanterr.ParserError, "protocol.SupportsLOOP2Packages: unparseable firmware date", err)
	}
	return parsed.After(cutoff), nil
}

// command sends cmd and returns whatever the console replies with, applying
// no framing. Used by operations whose response isn't ACK/CRC-framed.
func (e *Engine) command(ctx context.Context, cmd string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.transport.Write(ctx, []byte(cmd)); err != nil {
		return nil, vanterr.Wrap(vanterr.FailedToWrite, "protocol.command", err)
	}
	return e.transport.WaitForBuffer(ctx, e.cfg.ReadTimeout)
}

// framedCommand sends cmd and returns the ACK-framed, CRC-verified payload.
func (e *Engine) framedCommand(ctx context.Context, cmd string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.transport.Write(ctx, []byte(cmd)); err != nil {
		return nil, vanterr.Wrap(vanterr.FailedToWrite, "protocol.framedCommand", err)
	}
	buf, err := e.transport.WaitForBuffer(ctx, e.cfg.ReadTimeout)
	if err != nil {
		return nil, err
	}
	return frame(buf)
}

// framedCommandTwoBurst is framedCommand's LOOP2 sibling: it awaits a second
// readable event and concatenates before framing, since the console splits
// LOOP2 across two bursts.
func (e *Engine) framedCommandTwoBurst(ctx context.Context, cmd string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.transport.Write(ctx, []byte(cmd)); err != nil {
		return nil, vanterr.Wrap(vanterr.FailedToWrite, "protocol.framedCommandTwoBurst", err)
	}
	first, err := e.transport.WaitForBuffer(ctx, e.cfg.ReadTimeout)
	if err != nil {
		return nil, err
	}
	second, err := e.transport.WaitForBuffer(ctx, e.cfg.ReadTimeout)
	if err != nil {
		return nil, vanterr.Wrap(vanterr.Timeout, "protocol.framedCommandTwoBurst: second burst did not arrive", err)
	}
	return frame(append(first, second...))
}

// frame validates ACK framing and CRC, returning the payload with the
// leading ACK byte and trailing CRC stripped.
func frame(buf []byte) ([]byte, error) {
	if len(buf) < 3 {
		return nil, vanterr.New(vanterr.MalformedData, "protocol.frame: response too short to frame")
	}
	switch buf[0] {
	case ack:
		// fall through
	case nak, cancel:
		return nil, vanterr.New(vanterr.FailedToSendCommand, fmt.Sprintf("protocol.frame: console returned 0x%02X", buf[0]))
	default:
		return nil, vanterr.New(vanterr.FailedToSendCommand, fmt.Sprintf("protocol.frame: unexpected lead byte 0x%02X", buf[0]))
	}

	body := buf[1:]
	if len(body) < 2 {
		return nil, vanterr.New(vanterr.MalformedData, "protocol.frame: response missing CRC trailer")
	}
	payload := body[:len(body)-2]
	crcBytes := body[len(body)-2:]
	expected := uint16(crcBytes[0])<<8 | uint16(crcBytes[1])
	if !crc16.Verify(payload, expected) {
		return nil, vanterr.New(vanterr.MalformedData, "protocol.frame: CRC mismatch")
	}
	return payload, nil
}

func indexOf(buf []byte, marker string) int {
	for i := 0; i+len(marker) <= len(buf); i++ {
		if string(buf[i:i+len(marker)]) == marker {
			return i
		}
	}
	return -1
}

func trimCRLF(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r' || s[len(s)-1] == ' ') {
		s = s[:len(s)-1]
	}
	for len(s) > 0 && (s[0] == '\n' || s[0] == '\r' || s[0] == ' ') {
		s = s[1:]
	}
	return s
}
