package cmd

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/countersim/admission"
	"github.com/sarchlab/countersim/config"
	"github.com/sarchlab/countersim/datarecording"
	"github.com/sarchlab/countersim/monitoring"
	"github.com/sarchlab/countersim/sim/timing"
	"github.com/sarchlab/countersim/tracing"
)

// A session is a controller with the tracers, trace writers and monitor
// asked for by the configuration.
type session struct {
	clock       timing.Clock
	logger      *logrus.Logger
	controller  *admission.Controller
	serviceTime *tracing.ServiceTimeTracer
	utilization *tracing.UtilizationTracer
	traceDBs    []*tracing.DBTracer
	monitor     *monitoring.Monitor
}

func newSession(
	cfg *config.Config,
	clock timing.Clock,
	logOutput io.Writer,
	withMonitor bool,
) (*session, error) {
	logger := logrus.New()
	logger.SetOutput(logOutput)
	logger.SetLevel(cfg.LogLevel)

	s := &session{
		clock:  clock,
		logger: logger,
	}

	durations := cfg.ServiceDurations()
	s.controller = admission.MakeBuilder().
		WithClock(clock).
		WithServiceBounds(cfg.MinServiceSeconds, cfg.MaxServiceSeconds).
		WithServiceSeconds(durations...).
		WithLogger(logger).
		Build("Bank")

	s.attachTracers(cfg)

	if withMonitor {
		err := s.startMonitor(cfg)
		if err != nil {
			return nil, err
		}
	}

	if cfg.InitialQueue > 0 {
		err := s.controller.Reinitialize(durations, cfg.InitialQueue)
		if err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *session) attachTracers(cfg *config.Config) {
	isService := tracing.KindIs(admission.TaskKindService)

	s.serviceTime = tracing.NewServiceTimeTracer(s.clock, isService)
	tracing.CollectTrace(s.controller, s.serviceTime)

	s.utilization = tracing.NewUtilizationTracer(s.clock, isService)
	tracing.CollectTrace(s.controller, s.utilization)

	if s.logger.IsLevelEnabled(logrus.DebugLevel) {
		tracing.CollectTrace(s.controller, tracing.NewLogTracer(
			s.clock, s.logger.WithField("component", "tracer")))
	}

	origin := s.clock.Now()

	if cfg.TraceCSV != "" {
		writer := tracing.NewCSVTraceWriter(cfg.TraceCSV, origin)
		s.addTraceWriter(writer)
		s.logger.WithField("file", writer.Path()).Info("tracing to CSV")
	}

	if cfg.TraceDB != "" {
		recorder := datarecording.New(cfg.TraceDB)
		s.addTraceWriter(
			tracing.NewDBTraceWriter(recorder, "service_tasks", origin))

		atexit.Register(func() {
			err := recorder.Close()
			if err != nil {
				s.logger.WithError(err).Error("cannot close trace database")
			}
		})

		s.logger.WithField("file", cfg.TraceDB+".sqlite3").
			Info("tracing to SQLite")
	}
}

func (s *session) addTraceWriter(writer tracing.TraceWriter) {
	tracer := tracing.NewDBTracer(s.clock, writer)
	tracing.CollectTrace(s.controller, tracer)
	s.traceDBs = append(s.traceDBs, tracer)
}

func (s *session) startMonitor(cfg *config.Config) error {
	s.monitor = monitoring.NewMonitor().
		WithLogger(s.logger).
		WithPortNumber(cfg.MonitorPort).
		WithBrowser(cfg.OpenBrowser)

	s.monitor.RegisterScheduler(s.controller)
	s.monitor.RegisterServiceTimeTracer(s.serviceTime)
	s.monitor.RegisterUtilizationTracer(s.utilization)

	bar := s.monitor.CreateProgressBar("Clients", 0)
	s.controller.AcceptHook(monitoring.NewProgressHook(bar))

	return s.monitor.StartServer()
}

// close writes out the traces of the services still running.
func (s *session) close() {
	for _, t := range s.traceDBs {
		t.Terminate()
	}
}
