package tracing

// A Tracer can collect task traces.
//
// StartTask receives the ID, kind, what and where of a task. EndTask and
// AbortTask only receive the ID and, for aborts, the reason. Tracers stamp
// the times themselves.
type Tracer interface {
	StartTask(task Task)
	EndTask(task Task)
	AbortTask(task Task)
}

// A TraceWriter persists finished tasks.
type TraceWriter interface {
	Init()
	Write(task Task)
	Flush()
}
