package tracing

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// CSVTraceWriter is a task tracer that can store the tasks into a CSV file.
type CSVTraceWriter struct {
	path   string
	file   *os.File
	writer *csv.Writer
	origin time.Time

	tasks      []Task
	bufferSize int
}

// NewCSVTraceWriter creates a new CSVTraceWriter. Task times are written as
// seconds since origin.
func NewCSVTraceWriter(path string, origin time.Time) *CSVTraceWriter {
	return &CSVTraceWriter{
		path:       path,
		origin:     origin,
		bufferSize: 1000,
	}
}

// Path returns the name of the CSV file, once Init has been called.
func (t *CSVTraceWriter) Path() string {
	return t.path + ".csv"
}

// Init creates the tracing csv file. It panics if the file already exists.
func (t *CSVTraceWriter) Init() {
	if t.path == "" {
		t.path = "countersim_trace_" + xid.New().String()
	}

	filename := t.Path()
	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	file, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	t.file = file
	t.writer = csv.NewWriter(file)

	t.mustWrite([]string{
		"ID", "Kind", "What", "Where", "Start", "End", "Aborted", "Reason",
	})

	atexit.Register(func() {
		t.Flush()
		err := t.file.Close()
		if err != nil {
			panic(err)
		}
	})
}

// Write writes a task to the CSV file.
func (t *CSVTraceWriter) Write(task Task) {
	t.tasks = append(t.tasks, task)
	if len(t.tasks) >= t.bufferSize {
		t.Flush()
	}
}

// Flush flushes the tasks to the CSV file.
func (t *CSVTraceWriter) Flush() {
	for _, task := range t.tasks {
		t.mustWrite([]string{
			task.ID,
			task.Kind,
			task.What,
			task.Where,
			t.seconds(task.StartTime),
			t.seconds(task.EndTime),
			strconv.FormatBool(task.Aborted),
			task.AbortReason,
		})
	}

	t.tasks = nil

	t.writer.Flush()
	if err := t.writer.Error(); err != nil {
		panic(err)
	}
}

func (t *CSVTraceWriter) seconds(at time.Time) string {
	return strconv.FormatFloat(at.Sub(t.origin).Seconds(), 'f', 3, 64)
}

func (t *CSVTraceWriter) mustWrite(record []string) {
	if err := t.writer.Write(record); err != nil {
		panic(err)
	}
}
