package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/countersim/admission"
	"github.com/sarchlab/countersim/counter"
	"github.com/sarchlab/countersim/sim/timing"
	"github.com/sarchlab/countersim/tracing"
)

func sampleSnapshot() admission.Snapshot {
	return admission.Snapshot{
		Epoch: 1,
		Counters: []counter.Counter{
			counter.New(1, 2).Begin(5),
			counter.New(2, 3),
		},
		WaitingCount: 2,
		NextClientID: 6,
		InitialQueue: 6,
		Arrivals:     1,
	}
}

var _ = Describe("Monitor", func() {
	var (
		mockCtrl  *gomock.Controller
		scheduler *MockScheduler
		logger    *logrus.Logger
		m         *Monitor
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		scheduler = NewMockScheduler(mockCtrl)
		logger, _ = logtest.NewNullLogger()

		m = NewMonitor().WithLogger(logger)
		m.RegisterScheduler(scheduler)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	serve := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		rec := httptest.NewRecorder()
		m.Router().ServeHTTP(rec, req)

		return rec
	}

	decode := func(rec *httptest.ResponseRecorder) map[string]any {
		out := map[string]any{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &out)).To(Succeed())

		return out
	}

	It("should replace reserved port numbers with a random port", func() {
		Expect(m.WithPortNumber(80).portNumber).To(Equal(0))
		Expect(m.WithPortNumber(8080).portNumber).To(Equal(8080))
	})

	It("should serve the snapshot", func() {
		scheduler.EXPECT().Snapshot().Return(sampleSnapshot())

		rec := serve(http.MethodGet, "/api/snapshot", "")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Content-Type")).To(Equal("application/json"))
		out := decode(rec)
		Expect(out).To(HaveKeyWithValue("waiting_count", BeNumerically("==", 2)))
		Expect(out).To(HaveKeyWithValue("next_client_id", BeNumerically("==", 6)))

		counters := out["counters"].([]any)
		Expect(counters[0]).To(HaveKeyWithValue("state", "5"))
		Expect(counters[1]).To(HaveKeyWithValue("state", "idle"))
	})

	It("should not serve unknown paths", func() {
		rec := serve(http.MethodGet, "/api/unknown", "")

		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("should enqueue arrivals", func() {
		scheduler.EXPECT().EnqueueArrival().Return(5)

		rec := serve(http.MethodPost, "/api/arrival", "")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(MatchJSON(`{"ticket":5}`))
	})

	It("should reinitialize", func() {
		scheduler.EXPECT().Reinitialize([]int{2, 3, 4, 5}, 10).Return(nil)
		scheduler.EXPECT().Snapshot().Return(sampleSnapshot())

		rec := serve(http.MethodPost, "/api/reinit",
			`{"durations":[2,3,4,5],"queue_length":10}`)

		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("should reject malformed reinitializations", func() {
		rec := serve(http.MethodPost, "/api/reinit", `{"durations":"fast"}`)

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(decode(rec)["error"]).To(HavePrefix("invalid request"))
	})

	It("should report validation errors", func() {
		scheduler.EXPECT().Reinitialize([]int{2, 9}, 0).Return(
			&admission.ValidationError{
				Field: "service_seconds", Index: 1, Value: 9,
				Reason: "must be between 2 and 5 seconds",
			})

		rec := serve(http.MethodPost, "/api/reinit",
			`{"durations":[2,9],"queue_length":0}`)

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(decode(rec)["error"]).To(ContainSubstring("between 2 and 5"))
	})

	It("should report other errors as server errors", func() {
		scheduler.EXPECT().Reinitialize(gomock.Any(), gomock.Any()).
			Return(errors.New("broken"))

		rec := serve(http.MethodPost, "/api/reinit",
			`{"durations":[2,2],"queue_length":0}`)

		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
	})

	It("should serialize one counter", func() {
		scheduler.EXPECT().Snapshot().Return(sampleSnapshot())

		rec := serve(http.MethodGet, "/api/counter/1", "")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.Len()).To(BeNumerically(">", 0))
	})

	It("should report unknown counters", func() {
		scheduler.EXPECT().Snapshot().Return(sampleSnapshot())

		Expect(serve(http.MethodGet, "/api/counter/3", "").Code).
			To(Equal(http.StatusNotFound))
		Expect(serve(http.MethodGet, "/api/counter/first", "").Code).
			To(Equal(http.StatusBadRequest))
	})

	It("should serve empty statistics without tracers", func() {
		rec := serve(http.MethodGet, "/api/stats", "")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(MatchJSON(`{"service":[],"utilization":[]}`))
	})

	It("should serve tracer statistics", func() {
		clock := timing.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		service := tracing.NewServiceTimeTracer(clock, nil)
		util := tracing.NewUtilizationTracer(clock, nil)
		m.RegisterServiceTimeTracer(service)
		m.RegisterUtilizationTracer(util)

		service.StartTask(tracing.Task{ID: "1-1", Where: "Bank.Counter1"})
		util.StartTask(tracing.Task{ID: "1-1", Where: "Bank.Counter1"})
		clock.Advance(2 * time.Second)
		service.EndTask(tracing.Task{ID: "1-1"})
		util.EndTask(tracing.Task{ID: "1-1"})

		rec := serve(http.MethodGet, "/api/stats", "")

		out := decode(rec)
		Expect(out["service"]).To(HaveLen(1))
		Expect(out["utilization"].([]any)[0]).To(
			HaveKeyWithValue("ratio", BeNumerically("==", 1)))
	})

	It("should list progress bars", func() {
		bar := m.CreateProgressBar("clients", 10)
		bar.IncrementInProgress(3)
		bar.MoveInProgressToFinished(1)

		rec := serve(http.MethodGet, "/api/progress", "")

		var bars []map[string]any
		Expect(json.Unmarshal(rec.Body.Bytes(), &bars)).To(Succeed())
		Expect(bars).To(HaveLen(1))
		Expect(bars[0]).To(HaveKeyWithValue("name", "clients"))
		Expect(bars[0]).To(HaveKeyWithValue("total", BeNumerically("==", 10)))
		Expect(bars[0]).To(HaveKeyWithValue("finished", BeNumerically("==", 1)))
		Expect(bars[0]).To(HaveKeyWithValue("in_progress", BeNumerically("==", 2)))

		m.CompleteProgressBar(bar)

		rec = serve(http.MethodGet, "/api/progress", "")
		Expect(rec.Body.String()).To(MatchJSON(`[]`))
	})

	It("should report resource usage", func() {
		rec := serve(http.MethodGet, "/api/resource", "")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(decode(rec)).To(HaveKey("memory_size"))
	})

	It("should not start without a scheduler", func() {
		Expect(NewMonitor().WithLogger(logger).StartServer()).NotTo(Succeed())
	})

	It("should serve over HTTP", func() {
		scheduler.EXPECT().EnqueueArrival().Return(1)

		Expect(m.StartServer()).To(Succeed())
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			Expect(m.Shutdown(ctx)).To(Succeed())
		}()

		port := m.Addr().(*net.TCPAddr).Port
		rsp, err := http.Post(
			fmt.Sprintf("http://127.0.0.1:%d/api/arrival", port),
			"application/json", nil)
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()

		body, err := io.ReadAll(rsp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(body)).To(MatchJSON(`{"ticket":1}`))

		page, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/", port))
		Expect(err).NotTo(HaveOccurred())
		defer page.Body.Close()
		Expect(page.StatusCode).To(Equal(http.StatusOK))
	})
})
