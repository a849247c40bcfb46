package tracing

import (
	"sort"
	"sync"
	"time"

	"github.com/sarchlab/countersim/sim/timing"
)

// Utilization is the share of time a location spent on tasks.
type Utilization struct {
	Where    string        `json:"where"`
	BusyTime time.Duration `json:"busy_time"`
	Ratio    float64       `json:"ratio"`
}

// UtilizationTracer measures how long each location is busy. Aborted tasks
// count until they are aborted. If the tasks of one location overlap, the
// overlapped time is only counted once.
type UtilizationTracer struct {
	timeTeller timing.TimeTeller
	filter     TaskFilter
	since      time.Time

	lock          sync.Mutex
	inflightTasks map[string]Task
	busyTime      map[string]time.Duration

	// busySince is when the oldest running task of a location started and
	// running is how many tasks of the location are running.
	busySince map[string]time.Time
	running   map[string]int
}

// NewUtilizationTracer creates a UtilizationTracer that starts measuring now.
// A nil filter accepts every task.
func NewUtilizationTracer(
	timeTeller timing.TimeTeller,
	filter TaskFilter,
) *UtilizationTracer {
	return &UtilizationTracer{
		timeTeller:    timeTeller,
		filter:        filter,
		since:         timeTeller.Now(),
		inflightTasks: make(map[string]Task),
		busyTime:      make(map[string]time.Duration),
		busySince:     make(map[string]time.Time),
		running:       make(map[string]int),
	}
}

// StartTask records the task start time
func (t *UtilizationTracer) StartTask(task Task) {
	task.StartTime = t.timeTeller.Now()

	if t.filter != nil && !t.filter(task) {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	t.inflightTasks[task.ID] = task

	if t.running[task.Where] == 0 {
		t.busySince[task.Where] = task.StartTime
	}
	t.running[task.Where]++

	if _, ok := t.busyTime[task.Where]; !ok {
		t.busyTime[task.Where] = 0
	}
}

// EndTask records the end of the task
func (t *UtilizationTracer) EndTask(task Task) {
	t.finish(task.ID)
}

// AbortTask records the end of the task at the time it was aborted.
func (t *UtilizationTracer) AbortTask(task Task) {
	t.finish(task.ID)
}

func (t *UtilizationTracer) finish(id string) {
	now := t.timeTeller.Now()

	t.lock.Lock()
	defer t.lock.Unlock()

	task, ok := t.inflightTasks[id]
	if !ok {
		return
	}

	delete(t.inflightTasks, id)

	t.running[task.Where]--
	if t.running[task.Where] == 0 {
		t.busyTime[task.Where] += now.Sub(t.busySince[task.Where])
		delete(t.busySince, task.Where)
	}
}

// BusyTime returns how long a location has been busy, including the running
// tasks up to now.
func (t *UtilizationTracer) BusyTime(where string) time.Duration {
	now := t.timeTeller.Now()

	t.lock.Lock()
	defer t.lock.Unlock()

	return t.busyTimeAt(where, now)
}

func (t *UtilizationTracer) busyTimeAt(where string, now time.Time) time.Duration {
	busy := t.busyTime[where]
	if since, ok := t.busySince[where]; ok {
		busy += now.Sub(since)
	}

	return busy
}

// Utilizations returns the utilization of every location seen so far,
// sorted by location.
func (t *UtilizationTracer) Utilizations() []Utilization {
	now := t.timeTeller.Now()

	t.lock.Lock()
	defer t.lock.Unlock()

	elapsed := now.Sub(t.since)
	utils := make([]Utilization, 0, len(t.busyTime))

	for where := range t.busyTime {
		u := Utilization{
			Where:    where,
			BusyTime: t.busyTimeAt(where, now),
		}

		if elapsed > 0 {
			u.Ratio = float64(u.BusyTime) / float64(elapsed)
		}

		utils = append(utils, u)
	}

	sort.Slice(utils, func(i, j int) bool {
		return utils[i].Where < utils[j].Where
	})

	return utils
}
