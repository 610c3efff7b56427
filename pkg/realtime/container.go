// Package realtime supervises a device.Device through periodic fetches,
// exposing an observable lifecycle (open/update/valid-update/close) and
// recovering from transport faults with a backoff reconnect loop.
package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/daviswx/vantage-driver/pkg/binparse"
	"github.com/daviswx/vantage-driver/pkg/device"
	"github.com/daviswx/vantage-driver/pkg/protocol"
	"github.com/daviswx/vantage-driver/pkg/transport"
	"github.com/daviswx/vantage-driver/pkg/vanterr"
)

// Gate controls how long Open blocks before returning control to the caller.
type Gate int

const (
	// DoNothing returns immediately; the device opens in the background.
	DoNothing Gate = iota
	// WaitUntilOpen blocks until the transport has opened (or failed to).
	WaitUntilOpen
	// WaitForFirstUpdate blocks until the first fetch cycle completes,
	// regardless of outcome.
	WaitForFirstUpdate
	// WaitForFirstValidUpdate blocks until the first successful fetch cycle.
	WaitForFirstValidUpdate
)

type state int

const (
	stateIdle state = iota
	stateOpening
	stateRunning
	stateFetching
)

// Settings configures a Container's device and fetch cadence.
type Settings struct {
	DevicePath     string
	BaudRate       int
	Model          device.Model
	UpdateInterval time.Duration
	OnCreate       Gate

	// ReconnectBackoff is how long to wait before retrying after a failed
	// open or a fetch-cycle error. Defaults to 30s.
	ReconnectBackoff time.Duration
}

// NewTransportFunc builds a fresh ByteTransport for a Container's device.
// Tests substitute a func returning a *transport.Mock; production code
// wires in transport.NewSerialPort.
type NewTransportFunc func(cfg transport.Config) transport.ByteTransport

// Container supervises a single live device across its lifetime,
// recreating it (and all timers) on every Open call.
type Container struct {
	mu           sync.Mutex
	settings     Settings
	newTransport NewTransportFunc
	state        state
	dev          *device.Device
	cancel       context.CancelFunc
	opening      bool

	events chan Event

	updateWaiters []chan EventUpdate
	validWaiters  []chan EventValidUpdate
}

// New builds an idle Container. newTransport is called once per connection
// generation (i.e. once per Open) to obtain a fresh ByteTransport.
func New(settings Settings, newTransport NewTransportFunc) *Container {
	if settings.ReconnectBackoff == 0 {
		settings.ReconnectBackoff = 30 * time.Second
	}
	if settings.UpdateInterval == 0 {
		settings.UpdateInterval = 60 * time.Second
	}
	return &Container{
		settings:     settings,
		newTransport: newTransport,
		state:        stateIdle,
		events:       make(chan Event, 16),
	}
}

// Events returns the Container's lifecycle event stream.
func (c *Container) Events() <-chan Event {
	return c.events
}

// Open starts a new connection generation, first synchronously closing any
// existing one so exactly one device is ever live at a time. The gate
// configured in Settings.OnCreate determines how long Open blocks. A second
// Open call racing against one still in its startup sequence is rejected
// with vanterr.DeviceStillConnected rather than allowed to race Close.
func (c *Container) Open(ctx context.Context) error {
	c.mu.Lock()
	if c.opening {
		c.mu.Unlock()
		return vanterr.New(vanterr.DeviceStillConnected, "realtime.Open")
	}
	c.opening = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.opening = false
		c.mu.Unlock()
	}()

	c.Close()

	if c.settings.DevicePath == "" {
		return vanterr.New(vanterr.MissingDevicePath, "realtime.Open")
	}

	runCtx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	c.cancel = cancel
	c.state = stateOpening
	c.mu.Unlock()

	openResult := make(chan error, 1)
	firstUpdate := make(chan struct{})
	firstValid := make(chan struct{})

	go c.run(runCtx, openResult, firstUpdate, firstValid)

	switch c.settings.OnCreate {
	case WaitUntilOpen:
		select {
		case err := <-openResult:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	case WaitForFirstUpdate:
		select {
		case <-firstUpdate:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	case WaitForFirstValidUpdate:
		select {
		case <-firstValid:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	default: // DoNothing
		return nil
	}
}

// Close tears down the current connection generation, if any, and blocks
// until its EventClose has been emitted.
func (c *Container) Close() error {
	c.mu.Lock()
	cancel := c.cancel
	active := c.state != stateIdle
	c.mu.Unlock()

	if !active || cancel == nil {
		return nil
	}
	cancel()

	for {
		c.mu.Lock()
		idle := c.state == stateIdle
		c.mu.Unlock()
		if idle {
			return nil
		}
		time.Sleep(time.Millisecond)
	}
}

// WaitForUpdate blocks for the next EventUpdate (successful or not).
func (c *Container) WaitForUpdate(ctx context.Context) (EventUpdate, error) {
	ch := make(chan EventUpdate, 1)
	c.mu.Lock()
	c.updateWaiters = append(c.updateWaiters, ch)
	c.mu.Unlock()

	select {
	case ev := <-ch:
		return ev, nil
	case <-ctx.Done():
		return EventUpdate{}, ctx.Err()
	}
}

// WaitForValidUpdate blocks for the next successful fetch cycle's data.
func (c *Container) WaitForValidUpdate(ctx context.Context) (binparse.Record, error) {
	ch := make(chan EventValidUpdate, 1)
	c.mu.Lock()
	c.validWaiters = append(c.validWaiters, ch)
	c.mu.Unlock()

	select {
	case ev := <-ch:
		return ev.Data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// run owns the reconnect policy end to end: it opens a device, drives its
// fetch cycles through runConnected, and — whenever that returns because a
// cycle failed (not because ctx was cancelled) — waits ReconnectBackoff and
// opens a fresh device on a fresh transport, exactly as it does for a
// failed first Open. Only the very first iteration reports into openResult;
// the firstUpdate/firstValid gates are closed by the first cycle that
// completes (or, for firstUpdate, by a failed first open), whichever
// iteration that cycle runs in.
func (c *Container) run(ctx context.Context, openResult chan<- error, firstUpdate, firstValid chan struct{}) {
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.settings.ReconnectBackoff):
			}
		}

		t := c.newTransport(transport.Config{Path: c.settings.DevicePath, Baud: c.settings.BaudRate})
		dev := device.New(c.settings.Model, t, protocol.DefaultConfig())
		err := dev.Open(ctx)

		if attempt == 0 {
			select {
			case openResult <- err:
			default:
			}
		}

		if err != nil {
			c.mu.Lock()
			c.state = stateIdle
			c.mu.Unlock()
			c.emit(EventUpdate{Err: err})
			if attempt == 0 {
				closeOnce(firstUpdate)
			}
			continue
		}

		c.mu.Lock()
		c.dev = dev
		c.state = stateRunning
		c.mu.Unlock()
		c.emit(EventOpen{})

		if !c.runConnected(ctx, dev, firstUpdate, firstValid) {
			return
		}
	}
}

// runConnected drives the periodic fetch loop for an already-open device.
// It reports false when ctx was cancelled (the device was closed and
// EventClose emitted; the caller should stop) or true when a cycle failed
// (the device was closed and EventClose emitted; the caller should
// reconnect per the same policy used for a failed initial Open).
func (c *Container) runConnected(ctx context.Context, dev *device.Device, firstUpdate, firstValid chan struct{}) bool {
	ticker := time.NewTicker(c.settings.UpdateInterval)
	defer ticker.Stop()

	if err := c.cycle(ctx, dev, firstUpdate, firstValid); err != nil {
		c.closeDevice(dev)
		return true
	}

	for {
		select {
		case <-ctx.Done():
			c.closeDevice(dev)
			return false
		case <-ticker.C:
			if err := c.cycle(ctx, dev, firstUpdate, firstValid); err != nil {
				c.closeDevice(dev)
				return true
			}
		}
	}
}

// closeDevice tears down dev and emits EventClose, whether the teardown was
// requested (ctx cancelled) or forced by a failed fetch cycle; run's loop
// tells the two apart by its own return value, not by anything closeDevice
// does differently.
func (c *Container) closeDevice(dev *device.Device) {
	dev.Close()
	c.emit(EventClose{})
	c.mu.Lock()
	c.state = stateIdle
	c.dev = nil
	c.mu.Unlock()
}

func (c *Container) cycle(ctx context.Context, dev *device.Device, firstUpdate, firstValid chan struct{}) error {
	c.mu.Lock()
	c.state = stateFetching
	c.mu.Unlock()

	data, err := c.fetch(ctx, dev)

	c.mu.Lock()
	if c.state == stateFetching {
		c.state = stateRunning
	}
	c.mu.Unlock()

	c.emit(EventUpdate{Err: err})
	closeOnce(firstUpdate)
	if err == nil {
		c.emit(EventValidUpdate{Data: data})
		closeOnce(firstValid)
	}
	return err
}

func (c *Container) fetch(ctx context.Context, dev *device.Device) (binparse.Record, error) {
	if err := dev.WakeUp(ctx); err != nil {
		return nil, err
	}
	if dev.Model == device.ModelPro2 {
		return dev.GetRichRealtimeData(ctx)
	}
	return dev.GetLOOP1(ctx)
}

func (c *Container) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	switch typed := ev.(type) {
	case EventUpdate:
		for _, ch := range c.updateWaiters {
			select {
			case ch <- typed:
			default:
			}
		}
		c.updateWaiters = nil
	case EventValidUpdate:
		for _, ch := range c.validWaiters {
			select {
			case ch <- typed:
			default:
			}
		}
		c.validWaiters = nil
	}
}

func closeOnce(ch chan struct{}) {
	select {
	case <-ch:
	default:
		close(ch)
	}
}
