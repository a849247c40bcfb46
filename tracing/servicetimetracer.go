package tracing

import (
	"sort"
	"sync"
	"time"

	"github.com/sarchlab/countersim/sim/timing"
)

// ServiceStats summarizes the completed tasks of one location.
type ServiceStats struct {
	Where   string        `json:"where"`
	Count   uint64        `json:"count"`
	Total   time.Duration `json:"total"`
	Average time.Duration `json:"average"`
}

// ServiceTimeTracer counts the completed tasks of each location and the time
// spent on them. Aborted tasks are not counted.
type ServiceTimeTracer struct {
	timeTeller    timing.TimeTeller
	filter        TaskFilter
	lock          sync.Mutex
	inflightTasks map[string]Task
	stats         map[string]*ServiceStats
}

// NewServiceTimeTracer creates a new ServiceTimeTracer. A nil filter accepts
// every task.
func NewServiceTimeTracer(
	timeTeller timing.TimeTeller,
	filter TaskFilter,
) *ServiceTimeTracer {
	return &ServiceTimeTracer{
		timeTeller:    timeTeller,
		filter:        filter,
		inflightTasks: make(map[string]Task),
		stats:         make(map[string]*ServiceStats),
	}
}

// StartTask records the task start time
func (t *ServiceTimeTracer) StartTask(task Task) {
	task.StartTime = t.timeTeller.Now()

	if t.filter != nil && !t.filter(task) {
		return
	}

	t.lock.Lock()
	t.inflightTasks[task.ID] = task
	t.lock.Unlock()
}

// EndTask records the end of the task
func (t *ServiceTimeTracer) EndTask(task Task) {
	now := t.timeTeller.Now()

	t.lock.Lock()
	defer t.lock.Unlock()

	originalTask, ok := t.inflightTasks[task.ID]
	if !ok {
		return
	}

	delete(t.inflightTasks, task.ID)

	s, ok := t.stats[originalTask.Where]
	if !ok {
		s = &ServiceStats{Where: originalTask.Where}
		t.stats[originalTask.Where] = s
	}

	s.Count++
	s.Total += now.Sub(originalTask.StartTime)
	s.Average = s.Total / time.Duration(s.Count)
}

// AbortTask forgets the task.
func (t *ServiceTimeTracer) AbortTask(task Task) {
	t.lock.Lock()
	delete(t.inflightTasks, task.ID)
	t.lock.Unlock()
}

// Stats returns the statistics of every location that completed a task,
// sorted by location.
func (t *ServiceTimeTracer) Stats() []ServiceStats {
	t.lock.Lock()
	defer t.lock.Unlock()

	stats := make([]ServiceStats, 0, len(t.stats))
	for _, s := range t.stats {
		stats = append(stats, *s)
	}

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Where < stats[j].Where
	})

	return stats
}

// TotalCount returns the number of completed tasks.
func (t *ServiceTimeTracer) TotalCount() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	var n uint64
	for _, s := range t.stats {
		n += s.Count
	}

	return n
}

// AverageTime returns the average duration of all completed tasks.
func (t *ServiceTimeTracer) AverageTime() time.Duration {
	t.lock.Lock()
	defer t.lock.Unlock()

	var (
		n     uint64
		total time.Duration
	)

	for _, s := range t.stats {
		n += s.Count
		total += s.Total
	}

	if n == 0 {
		return 0
	}

	return total / time.Duration(n)
}
