package realtime

import "github.com/daviswx/vantage-driver/pkg/binparse"

// Event is the discriminated union of lifecycle events a Container emits
// in order, per connection generation: EventOpen, zero or more pairs of
// (EventUpdate, optionally EventValidUpdate), and EventClose. A generation
// whose transport fails to open emits only an EventUpdate carrying the
// open error.
type Event interface {
	event()
}

// EventOpen fires once the transport has been opened successfully.
type EventOpen struct{}

func (EventOpen) event() {}

// EventUpdate fires after every fetch cycle, successful or not.
type EventUpdate struct {
	Err error
}

func (EventUpdate) event() {}

// EventValidUpdate fires in addition to EventUpdate when a cycle succeeds.
type EventValidUpdate struct {
	Data binparse.Record
}

func (EventValidUpdate) event() {}

// EventClose fires once the transport has been closed and all timers for
// that connection generation are cleared.
type EventClose struct{}

func (EventClose) event() {}
