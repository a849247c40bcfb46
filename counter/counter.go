// Package counter models a single service counter as an immutable value.
//
// A counter is either idle or busy serving exactly one client. Every
// transition returns a new Counter; the receiver is never modified, and the
// returned value never shares its history with the receiver, so snapshots
// handed to observers cannot change under their feet.
package counter

import (
	"fmt"
	"strconv"
	"time"
)

// State is either idle or busy with one client. Client IDs start from 1, so
// the zero State is idle.
type State struct {
	clientID int
}

// Idle is the state of a counter that serves nobody.
var Idle = State{}

// Busy returns the state of a counter serving the given client.
func Busy(clientID int) State {
	if clientID < 1 {
		panic(fmt.Sprintf("client ID must be positive, got %d", clientID))
	}

	return State{clientID: clientID}
}

// IsIdle tells if the counter is idle.
func (s State) IsIdle() bool {
	return s.clientID == 0
}

// ClientID returns the client in service and true, or 0 and false if idle.
func (s State) ClientID() (int, bool) {
	return s.clientID, s.clientID != 0
}

// String returns "idle" or the number of the client in service.
func (s State) String() string {
	if s.IsIdle() {
		return "idle"
	}

	return strconv.Itoa(s.clientID)
}

// MarshalText encodes the state the way String prints it.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Counter is one server of the pool.
type Counter struct {
	ID             int   `json:"id"`
	State          State `json:"state"`
	History        []int `json:"history"`
	ServiceSeconds int   `json:"service_seconds"`
}

// New creates an idle counter with an empty history.
func New(id, serviceSeconds int) Counter {
	if id < 1 {
		panic(fmt.Sprintf("counter ID must be positive, got %d", id))
	}

	if serviceSeconds < 1 {
		panic(fmt.Sprintf("service time must be positive, got %d",
			serviceSeconds))
	}

	return Counter{
		ID:             id,
		State:          Idle,
		History:        []int{},
		ServiceSeconds: serviceSeconds,
	}
}

// ServiceDuration returns the time one service takes on this counter.
func (c Counter) ServiceDuration() time.Duration {
	return time.Duration(c.ServiceSeconds) * time.Second
}

// Begin starts serving a client. The counter must be idle.
func (c Counter) Begin(clientID int) Counter {
	if !c.State.IsIdle() {
		panic(fmt.Sprintf("counter %d cannot serve client %d, busy with %s",
			c.ID, clientID, c.State))
	}

	next := c.Clone()
	next.State = Busy(clientID)

	return next
}

// Finish completes the service of the given client. The counter goes back to
// idle and the client is appended to the history in the same value.
func (c Counter) Finish(clientID int) Counter {
	serving, busy := c.State.ClientID()
	if !busy || serving != clientID {
		panic(fmt.Sprintf("counter %d cannot finish client %d, state is %s",
			c.ID, clientID, c.State))
	}

	if c.HasServed(clientID) {
		panic(fmt.Sprintf("counter %d already served client %d",
			c.ID, clientID))
	}

	next := c.Clone()
	next.State = Idle
	next.History = append(next.History, clientID)

	return next
}

// WithServiceSeconds changes the duration of future services. Only an idle
// counter can be reconfigured.
func (c Counter) WithServiceSeconds(serviceSeconds int) Counter {
	if !c.State.IsIdle() {
		panic(fmt.Sprintf("counter %d cannot be reconfigured while busy",
			c.ID))
	}

	if serviceSeconds < 1 {
		panic(fmt.Sprintf("service time must be positive, got %d",
			serviceSeconds))
	}

	next := c.Clone()
	next.ServiceSeconds = serviceSeconds

	return next
}

// Reset returns the counter to idle with an empty history.
func (c Counter) Reset() Counter {
	return New(c.ID, c.ServiceSeconds)
}

// HasServed tells if the client is in the history.
func (c Counter) HasServed(clientID int) bool {
	for _, id := range c.History {
		if id == clientID {
			return true
		}
	}

	return false
}

// Clone returns a copy that does not share its history with c.
func (c Counter) Clone() Counter {
	history := make([]int, len(c.History), len(c.History)+1)
	copy(history, c.History)
	c.History = history

	return c
}
