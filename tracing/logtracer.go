package tracing

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/countersim/sim/timing"
)

// LogTracer logs every task at debug level.
type LogTracer struct {
	timeTeller timing.TimeTeller
	logger     logrus.FieldLogger

	lock   sync.Mutex
	starts map[string]Task
}

// NewLogTracer creates a LogTracer that writes to logger.
func NewLogTracer(
	timeTeller timing.TimeTeller,
	logger logrus.FieldLogger,
) *LogTracer {
	return &LogTracer{
		timeTeller: timeTeller,
		logger:     logger,
		starts:     make(map[string]Task),
	}
}

// StartTask logs the start of a task.
func (t *LogTracer) StartTask(task Task) {
	task.StartTime = t.timeTeller.Now()

	t.lock.Lock()
	t.starts[task.ID] = task
	t.lock.Unlock()

	t.logger.WithFields(logrus.Fields{
		"task":  task.ID,
		"kind":  task.Kind,
		"what":  task.What,
		"where": task.Where,
	}).Debug("task started")
}

// EndTask logs the end of a task and how long it took.
func (t *LogTracer) EndTask(task Task) {
	entry, ok := t.entry(task.ID)
	if !ok {
		return
	}

	entry.Debug("task ended")
}

// AbortTask logs a dropped task.
func (t *LogTracer) AbortTask(task Task) {
	entry, ok := t.entry(task.ID)
	if !ok {
		return
	}

	entry.WithField("reason", task.AbortReason).Debug("task aborted")
}

func (t *LogTracer) entry(id string) (*logrus.Entry, bool) {
	now := t.timeTeller.Now()

	t.lock.Lock()
	start, ok := t.starts[id]
	delete(t.starts, id)
	t.lock.Unlock()

	if !ok {
		return nil, false
	}

	return t.logger.WithFields(logrus.Fields{
		"task":     id,
		"where":    start.Where,
		"duration": now.Sub(start.StartTime).Round(time.Millisecond),
	}), true
}
