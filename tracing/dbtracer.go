package tracing

import (
	"sync"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/countersim/sim/timing"
)

// DBTracer stamps tasks with the time they start and finish and hands every
// finished task to a TraceWriter. Writers can store the tasks in different
// places, such as CSV files or SQLite databases.
type DBTracer struct {
	mu         sync.Mutex
	timeTeller timing.TimeTeller
	backend    TraceWriter

	tracingTasks map[string]Task
	terminated   bool
}

// NewDBTracer creates a new DBTracer. The backend is initialized, and the
// tasks still running at exit are written as aborted.
func NewDBTracer(
	timeTeller timing.TimeTeller,
	backend TraceWriter,
) *DBTracer {
	t := &DBTracer{
		timeTeller:   timeTeller,
		backend:      backend,
		tracingTasks: make(map[string]Task),
	}

	backend.Init()

	atexit.Register(func() {
		t.Terminate()
	})

	return t
}

// StartTask marks the start of a task.
func (t *DBTracer) StartTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.startingTaskMustBeValid(task)

	task.StartTime = t.timeTeller.Now()
	t.tracingTasks[task.ID] = task
}

func (t *DBTracer) startingTaskMustBeValid(task Task) {
	if task.ID == "" {
		panic("task ID must be set")
	}

	if task.Kind == "" {
		panic("task kind must be set")
	}

	if task.What == "" {
		panic("task what must be set")
	}

	if task.Where == "" {
		panic("task where must be set")
	}
}

// EndTask marks the end of a task.
func (t *DBTracer) EndTask(task Task) {
	t.finish(task.ID, false, "")
}

// AbortTask marks that a task was dropped before it could end.
func (t *DBTracer) AbortTask(task Task) {
	t.finish(task.ID, true, task.AbortReason)
}

func (t *DBTracer) finish(id string, aborted bool, reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	originalTask, ok := t.tracingTasks[id]
	if !ok || t.terminated {
		return
	}

	originalTask.EndTime = t.timeTeller.Now()
	originalTask.Aborted = aborted
	originalTask.AbortReason = reason

	t.backend.Write(originalTask)
	delete(t.tracingTasks, id)
}

// Terminate writes the running tasks as aborted and flushes the backend.
// Nothing is traced afterwards.
func (t *DBTracer) Terminate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.terminated {
		return
	}

	now := t.timeTeller.Now()
	for id, task := range t.tracingTasks {
		task.EndTime = now
		task.Aborted = true
		task.AbortReason = "terminated"
		t.backend.Write(task)
		delete(t.tracingTasks, id)
	}

	t.terminated = true
	t.backend.Flush()
}
