package tracing

import "time"

// A Task is the service of one client on one counter.
type Task struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	What        string    `json:"what"`
	Where       string    `json:"where"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Aborted     bool      `json:"aborted"`
	AbortReason string    `json:"abort_reason,omitempty"`
}

// Duration returns how long the task took. It is zero for a task that has not
// ended.
func (t Task) Duration() time.Duration {
	if t.EndTime.IsZero() {
		return 0
	}

	return t.EndTime.Sub(t.StartTime)
}

// TaskFilter is a function that can filter interesting tasks. If this function
// returns true, the task is considered useful.
type TaskFilter func(t Task) bool

// KindIs returns a filter that keeps the tasks of one kind.
func KindIs(kind string) TaskFilter {
	return func(t Task) bool {
		return t.Kind == kind
	}
}
