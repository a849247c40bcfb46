// Package admission decides which waiting client goes to which idle counter.
//
// The Controller owns the waiting line and the counter pool. Arrivals,
// service completions and reinitializations are each applied as one atomic
// step under the controller's lock. After every step the controller tries to
// admit one waiting client to the idle counter with the lowest ID. An
// admission is itself a state change, so it is followed by another attempt,
// until either the line is empty or no counter is idle.
//
// Observers subscribe with AcceptHook. Hooks run inside the step that
// triggered them and receive the Snapshot taken right after that step in
// HookCtx.Detail. Hooks must not call back into the controller.
package admission

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/countersim/pool"
	"github.com/sarchlab/countersim/sim/hooking"
	"github.com/sarchlab/countersim/sim/timing"
)

// HookPosArrival marks that a client joined the line. The item is an
// Arrival.
var HookPosArrival = &hooking.HookPos{Name: "Arrival"}

// HookPosReinit marks that the controller was reinitialized. The item is a
// Reinit.
var HookPosReinit = &hooking.HookPos{Name: "Reinit"}

// Arrival is the hook item of HookPosArrival.
type Arrival struct {
	Ticket int
}

// Reinit is the hook item of HookPosReinit.
type Reinit struct {
	Epoch          uint64
	ServiceSeconds []int
	QueueLength    int
}

// TaskKindService is the kind of the tasks the controller reports to hooks.
// One task covers the service of one client on one counter.
const TaskKindService = "service"

// Controller is the admission controller of a counter pool.
type Controller struct {
	hooking.HookableBase
	sync.Mutex

	name   string
	pool   *pool.Pool
	bounds ServiceBounds
	logger logrus.FieldLogger

	waiting      int
	next         int
	arrivals     int
	initialQueue int
}

// Name returns the name of the controller.
func (c *Controller) Name() string {
	return c.name
}

// NumCounters returns the number of counters in the pool.
func (c *Controller) NumCounters() int {
	return c.pool.Size()
}

// Bounds returns the accepted range of service times.
func (c *Controller) Bounds() ServiceBounds {
	return c.bounds
}

// CounterName returns the name used for a counter in task locations.
func (c *Controller) CounterName(counterID int) string {
	return fmt.Sprintf("%s.Counter%d", c.name, counterID)
}

// EnqueueArrival adds a client to the line. It returns the ticket number of
// the next client to be served, as it was before this arrival.
func (c *Controller) EnqueueArrival() int {
	c.Lock()
	defer c.Unlock()

	ticket := c.next
	c.waiting++
	c.arrivals++

	c.logger.WithFields(logrus.Fields{
		"ticket":  ticket,
		"waiting": c.waiting,
	}).Debug("client arrived")

	c.notify(HookPosArrival, Arrival{Ticket: ticket})
	c.dispatch()

	return ticket
}

// Handle applies the events delivered by the counter timers.
func (c *Controller) Handle(e timing.Event) error {
	c.Lock()
	defer c.Unlock()

	switch e := e.(type) {
	case *pool.ServiceDoneEvent:
		c.completeService(e)
	default:
		return fmt.Errorf("cannot handle event of type %s", reflect.TypeOf(e))
	}

	return nil
}

func (c *Controller) completeService(evt *pool.ServiceDoneEvent) {
	logger := c.logger.WithFields(logrus.Fields{
		"counter": evt.CounterID,
		"client":  evt.ClientID,
		"epoch":   evt.Epoch,
	})

	if _, applied := c.pool.Complete(evt); !applied {
		logger.Debug("discarding completion from an earlier epoch")
		return
	}

	logger.Debug("service completed")

	c.notify(hooking.HookPosTaskEnd, hooking.TaskEnd{
		ID: taskID(evt.Epoch, evt.ClientID),
	})
	c.dispatch()
}

// Reinitialize cancels every service in progress, empties all counter
// histories, applies one service time per counter and sets the line to
// queueLength waiting clients, numbered again from 1. Invalid input is
// rejected with a *ValidationError and changes nothing.
func (c *Controller) Reinitialize(serviceSeconds []int, queueLength int) error {
	err := c.validate(serviceSeconds, queueLength)
	if err != nil {
		return err
	}

	durations := make([]int, len(serviceSeconds))
	copy(durations, serviceSeconds)

	c.Lock()
	defer c.Unlock()

	c.abortServices()

	c.pool.Reset(durations)
	c.waiting = queueLength
	c.next = 1
	c.arrivals = 0
	c.initialQueue = queueLength

	c.logger.WithFields(logrus.Fields{
		"epoch":   c.pool.Epoch(),
		"service": durations,
		"queue":   queueLength,
	}).Info("reinitialized")

	c.notify(HookPosReinit, Reinit{
		Epoch:          c.pool.Epoch(),
		ServiceSeconds: durations,
		QueueLength:    queueLength,
	})
	c.dispatch()

	return nil
}

func (c *Controller) abortServices() {
	epoch := c.pool.Epoch()

	for _, cnt := range c.pool.Counters() {
		clientID, busy := cnt.State.ClientID()
		if !busy {
			continue
		}

		c.notify(hooking.HookPosTaskAbort, hooking.TaskAbort{
			ID:     taskID(epoch, clientID),
			Reason: "reinitialized",
		})
	}
}

// SetServiceSeconds changes the service time of one idle counter. It only
// affects services that start afterwards.
func (c *Controller) SetServiceSeconds(counterID, serviceSeconds int) error {
	c.Lock()
	defer c.Unlock()

	if counterID < 1 || counterID > c.pool.Size() {
		return &ValidationError{
			Field: "counter", Index: -1, Value: counterID,
			Reason: fmt.Sprintf("must be between 1 and %d", c.pool.Size()),
		}
	}

	if !c.bounds.Contains(serviceSeconds) {
		return &ValidationError{
			Field: "service_seconds", Index: counterID - 1,
			Value: serviceSeconds, Reason: c.bounds.String(),
		}
	}

	if !c.pool.Counter(counterID - 1).State.IsIdle() {
		return &ValidationError{
			Field: "counter", Index: -1, Value: counterID,
			Reason: "is serving a client",
		}
	}

	c.pool.SetServiceSeconds(counterID-1, serviceSeconds)

	c.logger.WithFields(logrus.Fields{
		"counter": counterID,
		"service": serviceSeconds,
	}).Info("service time changed")

	return nil
}

// Snapshot returns a consistent view of the controller.
func (c *Controller) Snapshot() Snapshot {
	c.Lock()
	defer c.Unlock()

	return c.snapshot()
}

func (c *Controller) snapshot() Snapshot {
	return Snapshot{
		Epoch:        c.pool.Epoch(),
		Counters:     c.pool.Counters(),
		WaitingCount: c.waiting,
		NextClientID: c.next,
		InitialQueue: c.initialQueue,
		Arrivals:     c.arrivals,
	}
}

// dispatch runs admissions until one finds nothing to do. Each admission
// moves at most one client; the next one runs because the previous one
// changed the line.
func (c *Controller) dispatch() {
	for c.admit() {
	}

	c.mustBeConsistent()
}

func (c *Controller) admit() bool {
	if c.waiting <= 0 {
		return false
	}

	index, found := c.pool.FindIdle()
	if !found {
		return false
	}

	clientID := c.next
	c.pool.Assign(index, clientID, c)
	c.waiting--
	c.next++

	cnt := c.pool.Counter(index)
	c.logger.WithFields(logrus.Fields{
		"counter": cnt.ID,
		"client":  clientID,
		"epoch":   c.pool.Epoch(),
		"waiting": c.waiting,
	}).Debug("client admitted")

	c.notify(hooking.HookPosTaskStart, hooking.TaskStart{
		ID:    taskID(c.pool.Epoch(), clientID),
		Kind:  TaskKindService,
		What:  fmt.Sprintf("client %d", clientID),
		Where: c.CounterName(cnt.ID),
	})

	return true
}

// mustBeConsistent checks that no client was lost or duplicated: every
// client that entered the line in this epoch is either still waiting, in
// service, or served, and every admitted client is in service or served
// exactly once.
func (c *Controller) mustBeConsistent() {
	entered := c.initialQueue + c.arrivals
	admitted := c.next - 1

	if c.waiting < 0 || entered != c.waiting+admitted {
		c.logger.Panicf("%d clients entered but %d wait and %d were admitted",
			entered, c.waiting, admitted)
	}

	inService := make(map[int]bool)
	served := 0

	for _, cnt := range c.pool.Counters() {
		served += len(cnt.History)

		clientID, busy := cnt.State.ClientID()
		if !busy {
			continue
		}

		if inService[clientID] || clientID >= c.next {
			c.logger.Panicf("client %d is in service twice or too early",
				clientID)
		}

		inService[clientID] = true
	}

	if admitted != len(inService)+served {
		c.logger.Panicf("%d clients admitted, %d in service, %d served",
			admitted, len(inService), served)
	}
}

func (c *Controller) notify(pos *hooking.HookPos, item interface{}) {
	if c.NumHooks() == 0 {
		return
	}

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    pos,
		Item:   item,
		Detail: c.snapshot(),
	})
}

func (c *Controller) validate(serviceSeconds []int, queueLength int) error {
	if len(serviceSeconds) != c.pool.Size() {
		return &ValidationError{
			Field: "service_seconds", Index: -1, Value: len(serviceSeconds),
			Reason: fmt.Sprintf("need one service time for each of the %d "+
				"counters", c.pool.Size()),
		}
	}

	for i, s := range serviceSeconds {
		if !c.bounds.Contains(s) {
			return &ValidationError{
				Field: "service_seconds", Index: i, Value: s,
				Reason: c.bounds.String(),
			}
		}
	}

	if queueLength < 0 {
		return &ValidationError{
			Field: "queue_length", Index: -1, Value: queueLength,
			Reason: "must not be negative",
		}
	}

	return nil
}

func taskID(epoch uint64, clientID int) string {
	return fmt.Sprintf("%d-%d", epoch, clientID)
}
