// Package pool holds a fixed set of counters and the timers of the services
// they are running.
//
// Each service completion is tagged with the epoch the pool was in when the
// service started. Reset moves the pool to a new epoch, so a completion that
// slips past the timer cancellation is recognized as stale and discarded.
//
// A Pool is not goroutine-safe. Its owner must serialize every call,
// including the delivery of ServiceDoneEvents.
package pool

import (
	"fmt"

	"github.com/sarchlab/countersim/counter"
	"github.com/sarchlab/countersim/sim/timing"
)

// ServiceDoneEvent is delivered to the handler given to Assign when a
// counter's service time has elapsed.
type ServiceDoneEvent struct {
	*timing.EventBase

	CounterID int
	ClientID  int
	Epoch     uint64
}

// Pool is an ordered, fixed-size collection of counters.
type Pool struct {
	clock    timing.Clock
	counters []counter.Counter
	timers   map[int]timing.Timer
	epoch    uint64

	lastClientID int
	onErr        func(timing.Event, error)
}

// New creates a pool with one idle counter per service duration, numbered
// from 1 in the given order.
func New(clock timing.Clock, serviceSeconds []int) *Pool {
	if len(serviceSeconds) == 0 {
		panic("a pool needs at least one counter")
	}

	p := &Pool{
		clock:    clock,
		counters: make([]counter.Counter, len(serviceSeconds)),
		timers:   make(map[int]timing.Timer),
		epoch:    1,
	}

	for i, s := range serviceSeconds {
		p.counters[i] = counter.New(i+1, s)
	}

	return p
}

// OnHandlerError registers a function that receives the errors returned by
// the handler of a ServiceDoneEvent.
func (p *Pool) OnHandlerError(f func(timing.Event, error)) {
	p.onErr = f
}

// Size returns the number of counters.
func (p *Pool) Size() int {
	return len(p.counters)
}

// Epoch returns the current epoch.
func (p *Pool) Epoch() uint64 {
	return p.epoch
}

// Counters returns copies of the counters in ID order. Changing them does
// not change the pool.
func (p *Pool) Counters() []counter.Counter {
	counters := make([]counter.Counter, len(p.counters))
	for i, c := range p.counters {
		counters[i] = c.Clone()
	}

	return counters
}

// Counter returns a copy of the counter at the given index.
func (p *Pool) Counter(index int) counter.Counter {
	return p.counters[index].Clone()
}

// NumBusy returns the number of counters serving a client.
func (p *Pool) NumBusy() int {
	n := 0
	for _, c := range p.counters {
		if !c.State.IsIdle() {
			n++
		}
	}

	return n
}

// NumPending returns the number of service timers not yet fired or canceled.
func (p *Pool) NumPending() int {
	return len(p.timers)
}

// FindIdle returns the index of the idle counter with the lowest ID.
func (p *Pool) FindIdle() (int, bool) {
	for i, c := range p.counters {
		if c.State.IsIdle() {
			return i, true
		}
	}

	return -1, false
}

// Assign starts serving a client on the counter at index. The handler
// receives a ServiceDoneEvent when the counter's service time has elapsed.
//
// The counter must be idle and the client ID must be greater than every ID
// assigned before in this epoch.
func (p *Pool) Assign(index, clientID int, handler timing.Handler) {
	if clientID <= p.lastClientID {
		panic(fmt.Sprintf(
			"client %d assigned out of order, last assigned client is %d",
			clientID, p.lastClientID))
	}

	c := p.counters[index].Begin(clientID)
	p.counters[index] = c
	p.lastClientID = clientID

	delay := c.ServiceDuration()
	evt := &ServiceDoneEvent{
		EventBase: timing.NewEventBase(p.clock.Now().Add(delay), handler),
		CounterID: c.ID,
		ClientID:  clientID,
		Epoch:     p.epoch,
	}

	p.timers[index] = timing.Schedule(p.clock, delay, evt, p.onErr)
}

// Complete applies a service completion. It returns the updated counter and
// true, or false if the event belongs to an earlier epoch, in which case
// nothing changes.
func (p *Pool) Complete(evt *ServiceDoneEvent) (counter.Counter, bool) {
	if evt.Epoch != p.epoch {
		return counter.Counter{}, false
	}

	index := evt.CounterID - 1
	if index < 0 || index >= len(p.counters) {
		panic(fmt.Sprintf("completion for unknown counter %d", evt.CounterID))
	}

	c := p.counters[index].Finish(evt.ClientID)
	p.counters[index] = c
	delete(p.timers, index)

	return c, true
}

// SetServiceSeconds changes the service time of the idle counter at index.
func (p *Pool) SetServiceSeconds(index, serviceSeconds int) {
	p.counters[index] = p.counters[index].WithServiceSeconds(serviceSeconds)
}

// Reset cancels every pending service and returns all counters to idle with
// an empty history. If serviceSeconds is not nil, it supplies the new service
// time of each counter and must have one entry per counter.
func (p *Pool) Reset(serviceSeconds []int) {
	if serviceSeconds != nil && len(serviceSeconds) != len(p.counters) {
		panic(fmt.Sprintf("got %d service times for %d counters",
			len(serviceSeconds), len(p.counters)))
	}

	for index, timer := range p.timers {
		timer.Stop()
		delete(p.timers, index)
	}

	p.epoch++
	p.lastClientID = 0

	for i, c := range p.counters {
		c = c.Reset()
		if serviceSeconds != nil {
			c = c.WithServiceSeconds(serviceSeconds[i])
		}

		p.counters[i] = c
	}
}
