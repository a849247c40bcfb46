// Package monitoring turns a running counter pool into a web server that can
// be watched and driven from a browser or with curl.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/shirou/gopsutil/process"
	"github.com/sirupsen/logrus"
	"github.com/syifan/goseth"

	"github.com/sarchlab/countersim/admission"
	"github.com/sarchlab/countersim/monitoring/web"
	"github.com/sarchlab/countersim/tracing"
)

// A Scheduler accepts arrivals and reinitializations and reports its state.
type Scheduler interface {
	EnqueueArrival() int
	Reinitialize(serviceSeconds []int, queueLength int) error
	Snapshot() admission.Snapshot
}

// Monitor can turn a counter pool into a server and allows external
// monitoring and controlling of the pool.
type Monitor struct {
	scheduler   Scheduler
	serviceTime *tracing.ServiceTimeTracer
	utilization *tracing.UtilizationTracer
	portNumber  int
	openBrowser bool
	logger      logrus.FieldLogger

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	server   *http.Server
	listener net.Listener
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		logger: logrus.StandardLogger(),
	}
}

// WithPortNumber sets the port number of the monitor. Port 0 and the
// reserved ports below 1000 select a random port.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		m.logger.Warnf("Port number %d is assigned to the monitoring server, "+
			"which is not allowed. Using a random port instead.", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes StartServer open the monitoring page in a browser.
func (m *Monitor) WithBrowser(open bool) *Monitor {
	m.openBrowser = open
	return m
}

// WithLogger sets the logger.
func (m *Monitor) WithLogger(logger logrus.FieldLogger) *Monitor {
	m.logger = logger
	return m
}

// RegisterScheduler registers the scheduler that the monitor drives.
func (m *Monitor) RegisterScheduler(s Scheduler) {
	m.scheduler = s
}

// RegisterServiceTimeTracer makes the service statistics available.
func (m *Monitor) RegisterServiceTimeTracer(t *tracing.ServiceTimeTracer) {
	m.serviceTime = t
}

// RegisterUtilizationTracer makes the counter utilization available.
func (m *Monitor) RegisterUtilizationTracer(t *tracing.UtilizationTracer) {
	m.utilization = t
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        xid.New().String(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Router returns the HTTP routes of the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/snapshot", m.snapshot).Methods(http.MethodGet)
	r.HandleFunc("/api/arrival", m.arrival).Methods(http.MethodPost)
	r.HandleFunc("/api/reinit", m.reinit).Methods(http.MethodPost)
	r.HandleFunc("/api/counter/{id}", m.counterDetails).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", m.stats).Methods(http.MethodGet)
	r.HandleFunc("/api/progress", m.listProgressBars).Methods(http.MethodGet)
	r.HandleFunc("/api/resource", m.listResources).Methods(http.MethodGet)
	r.HandleFunc("/api/profile", m.collectProfile).Methods(http.MethodGet)
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts the monitor as a web server and returns once it is
// listening.
func (m *Monitor) StartServer() error {
	if m.scheduler == nil {
		return errors.New("no scheduler registered")
	}

	listener, err := net.Listen("tcp", ":"+strconv.Itoa(m.portNumber))
	if err != nil {
		return errors.Wrap(err, "starting monitoring server")
	}

	m.listener = listener
	m.server = &http.Server{
		Handler:           m.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	m.logger.WithField("url", url).Info("monitoring server started")

	go func() {
		err := m.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.WithError(err).Error("monitoring server stopped")
		}
	}()

	if m.openBrowser {
		browser.Stdout = io.Discard
		if err := browser.OpenURL(url); err != nil {
			m.logger.WithError(err).Warn("cannot open browser")
		}
	}

	return nil
}

// Addr returns the address the server listens on, or nil before
// StartServer.
func (m *Monitor) Addr() net.Addr {
	if m.listener == nil {
		return nil
	}

	return m.listener.Addr()
}

// Shutdown stops the server.
func (m *Monitor) Shutdown(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	return m.server.Shutdown(ctx)
}

func (m *Monitor) snapshot(w http.ResponseWriter, _ *http.Request) {
	m.writeJSON(w, http.StatusOK, m.scheduler.Snapshot())
}

type arrivalRsp struct {
	Ticket int `json:"ticket"`
}

func (m *Monitor) arrival(w http.ResponseWriter, _ *http.Request) {
	ticket := m.scheduler.EnqueueArrival()
	m.writeJSON(w, http.StatusOK, arrivalRsp{Ticket: ticket})
}

type reinitReq struct {
	Durations   []int `json:"durations"`
	QueueLength int   `json:"queue_length"`
}

type errorRsp struct {
	Error string `json:"error"`
}

func (m *Monitor) reinit(w http.ResponseWriter, r *http.Request) {
	req := reinitReq{}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	err := decoder.Decode(&req)
	if err != nil {
		m.writeJSON(w, http.StatusBadRequest,
			errorRsp{Error: "invalid request: " + err.Error()})
		return
	}

	err = m.scheduler.Reinitialize(req.Durations, req.QueueLength)

	var verr *admission.ValidationError
	switch {
	case errors.As(err, &verr):
		m.writeJSON(w, http.StatusBadRequest, errorRsp{Error: verr.Error()})
		return
	case err != nil:
		m.writeJSON(w, http.StatusInternalServerError,
			errorRsp{Error: err.Error()})
		return
	}

	m.writeJSON(w, http.StatusOK, m.scheduler.Snapshot())
}

func (m *Monitor) counterDetails(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		m.writeJSON(w, http.StatusBadRequest,
			errorRsp{Error: "counter ID must be a number"})
		return
	}

	counter, found := m.scheduler.Snapshot().Counter(id)
	if !found {
		m.writeJSON(w, http.StatusNotFound,
			errorRsp{Error: "counter not found"})
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(&counter)
	serializer.SetMaxDepth(2)

	w.Header().Set("Content-Type", "application/json")

	err = serializer.Serialize(w)
	if err != nil {
		m.logger.WithError(err).Error("cannot serialize counter")
	}
}

type statsRsp struct {
	Service     []tracing.ServiceStats `json:"service"`
	Utilization []tracing.Utilization  `json:"utilization"`
}

func (m *Monitor) stats(w http.ResponseWriter, _ *http.Request) {
	rsp := statsRsp{
		Service:     []tracing.ServiceStats{},
		Utilization: []tracing.Utilization{},
	}

	if m.serviceTime != nil {
		rsp.Service = m.serviceTime.Stats()
	}

	if m.utilization != nil {
		rsp.Utilization = m.utilization.Utilizations()
	}

	m.writeJSON(w, http.StatusOK, rsp)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]*ProgressBar, len(m.progressBars))
	copy(bars, m.progressBars)
	m.progressBarsLock.Unlock()

	m.writeJSON(w, http.StatusOK, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	rsp, err := currentResources()
	if err != nil {
		m.writeJSON(w, http.StatusInternalServerError,
			errorRsp{Error: err.Error()})
		return
	}

	m.writeJSON(w, http.StatusOK, rsp)
}

func currentResources() (resourceRsp, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return resourceRsp{}, errors.Wrap(err, "inspecting process")
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		return resourceRsp{}, errors.Wrap(err, "reading CPU usage")
	}

	memory, err := proc.MemoryInfo()
	if err != nil {
		return resourceRsp{}, errors.Wrap(err, "reading memory usage")
	}

	return resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memory.RSS,
	}, nil
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		m.writeJSON(w, http.StatusConflict, errorRsp{Error: err.Error()})
		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		m.writeJSON(w, http.StatusInternalServerError,
			errorRsp{Error: err.Error()})
		return
	}

	m.writeJSON(w, http.StatusOK, prof)
}

func (m *Monitor) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		m.logger.WithError(err).Error("cannot encode response")
		w.WriteHeader(http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_, err = w.Write(data)
	if err != nil {
		m.logger.WithError(err).Debug("cannot write response")
	}
}
