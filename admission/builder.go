package admission

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/countersim/pool"
	"github.com/sarchlab/countersim/sim/timing"
)

// ServiceBounds is the inclusive range of accepted service times in seconds.
type ServiceBounds struct {
	Min int
	Max int
}

// Contains tells if s is within the bounds.
func (b ServiceBounds) Contains(s int) bool {
	return s >= b.Min && s <= b.Max
}

func (b ServiceBounds) String() string {
	return fmt.Sprintf("must be between %d and %d seconds", b.Min, b.Max)
}

// Builder can build admission controllers.
type Builder struct {
	clock          timing.Clock
	serviceSeconds []int
	bounds         ServiceBounds
	initialQueue   int
	logger         logrus.FieldLogger
}

// MakeBuilder creates a builder with the default parameters: four counters
// serving in 2 seconds, service times between 2 and 5 seconds, and an empty
// line.
func MakeBuilder() Builder {
	return Builder{
		serviceSeconds: []int{2, 2, 2, 2},
		bounds:         ServiceBounds{Min: 2, Max: 5},
	}
}

// WithClock sets the clock that times the services.
func (b Builder) WithClock(clock timing.Clock) Builder {
	b.clock = clock
	return b
}

// WithServiceSeconds sets the number of counters and their service times.
func (b Builder) WithServiceSeconds(serviceSeconds ...int) Builder {
	b.serviceSeconds = append([]int(nil), serviceSeconds...)
	return b
}

// WithServiceBounds sets the accepted range of service times.
func (b Builder) WithServiceBounds(minSeconds, maxSeconds int) Builder {
	b.bounds = ServiceBounds{Min: minSeconds, Max: maxSeconds}
	return b
}

// WithInitialQueue sets the number of clients waiting when the controller is
// built.
func (b Builder) WithInitialQueue(n int) Builder {
	b.initialQueue = n
	return b
}

// WithLogger sets the logger. Without one, nothing is logged.
func (b Builder) WithLogger(logger logrus.FieldLogger) Builder {
	b.logger = logger
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.bounds.Min < 1 || b.bounds.Max < b.bounds.Min {
		panic(fmt.Sprintf("invalid service bounds %d..%d",
			b.bounds.Min, b.bounds.Max))
	}

	if len(b.serviceSeconds) == 0 {
		panic("at least one counter is required")
	}

	for i, s := range b.serviceSeconds {
		if !b.bounds.Contains(s) {
			panic(fmt.Sprintf("service time of counter %d %s", i+1, b.bounds))
		}
	}

	if b.initialQueue < 0 {
		panic("initial queue must not be negative")
	}
}

// Build creates a controller with the given name.
func (b Builder) Build(name string) *Controller {
	b.parametersMustBeValid()

	clock := b.clock
	if clock == nil {
		clock = timing.NewRealClock()
	}

	logger := b.logger
	if logger == nil {
		silent := logrus.New()
		silent.SetOutput(io.Discard)
		logger = silent
	}

	c := &Controller{
		name:         name,
		pool:         pool.New(clock, b.serviceSeconds),
		bounds:       b.bounds,
		logger:       logger.WithField("component", name),
		waiting:      b.initialQueue,
		next:         1,
		initialQueue: b.initialQueue,
	}

	c.pool.OnHandlerError(func(evt timing.Event, err error) {
		c.logger.WithError(err).Errorf("failed to handle %T", evt)
	})

	c.Lock()
	c.dispatch()
	c.Unlock()

	return c
}
