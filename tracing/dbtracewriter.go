package tracing

import (
	"time"

	"github.com/sarchlab/countersim/datarecording"
)

type taskTableEntry struct {
	ID          string
	Kind        string
	What        string
	Location    string
	StartTime   float64
	EndTime     float64
	Aborted     bool
	AbortReason string
}

// DBTraceWriter writes tasks as rows of a table through a DataRecorder.
type DBTraceWriter struct {
	recorder  datarecording.DataRecorder
	tableName string
	origin    time.Time
}

// NewDBTraceWriter creates a DBTraceWriter that stores the tasks in the
// given table. Task times are stored as seconds since origin.
func NewDBTraceWriter(
	recorder datarecording.DataRecorder,
	tableName string,
	origin time.Time,
) *DBTraceWriter {
	return &DBTraceWriter{
		recorder:  recorder,
		tableName: tableName,
		origin:    origin,
	}
}

// Init creates the task table.
func (w *DBTraceWriter) Init() {
	w.recorder.CreateTable(w.tableName, taskTableEntry{})
}

// Write buffers a task in the recorder.
func (w *DBTraceWriter) Write(task Task) {
	w.recorder.InsertData(w.tableName, taskTableEntry{
		ID:          task.ID,
		Kind:        task.Kind,
		What:        task.What,
		Location:    task.Where,
		StartTime:   task.StartTime.Sub(w.origin).Seconds(),
		EndTime:     task.EndTime.Sub(w.origin).Seconds(),
		Aborted:     task.Aborted,
		AbortReason: task.AbortReason,
	})
}

// Flush writes the buffered tasks into the database.
func (w *DBTraceWriter) Flush() {
	w.recorder.Flush()
}
