package timing

import (
	"time"

	"github.com/rs/xid"
)

// An Event is something going to happen in the future.
type Event interface {
	// Time returns the time that the event is due.
	Time() time.Time

	// Handler returns the handler that should handle the event.
	Handler() Handler
}

// A Handler defines a domain for the events.
//
// One event is always constraint to one Handler, which means the event can
// only be scheduled by one handler and can only directly modify that handler.
type Handler interface {
	Handle(e Event) error
}

// EventBase provides the basic fields and getters for other events
type EventBase struct {
	ID      string
	time    time.Time
	handler Handler
}

// NewEventBase creates a new EventBase
func NewEventBase(t time.Time, handler Handler) *EventBase {
	return &EventBase{
		ID:      xid.New().String(),
		time:    t,
		handler: handler,
	}
}

// Time return the time that the event is going to happen
func (e EventBase) Time() time.Time {
	return e.time
}

// Handler returns the handler to handle the event.
func (e EventBase) Handler() Handler {
	return e.handler
}

// Schedule arranges for an event to be delivered to its handler once delay
// has passed on the clock. The error returned by the handler is passed to
// onErr if onErr is not nil.
func Schedule(
	clock Clock,
	delay time.Duration,
	evt Event,
	onErr func(Event, error),
) Timer {
	return clock.AfterFunc(delay, func() {
		err := evt.Handler().Handle(evt)
		if err != nil && onErr != nil {
			onErr(evt, err)
		}
	})
}
