package tracing

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/countersim/admission"
	"github.com/sarchlab/countersim/sim/timing"
)

var _ = Describe("CollectTrace", func() {
	var (
		clock      *timing.ManualClock
		controller *admission.Controller
		service    *ServiceTimeTracer
		util       *UtilizationTracer
	)

	BeforeEach(func() {
		clock = timing.NewManualClock(origin)
		controller = admission.MakeBuilder().
			WithClock(clock).
			WithServiceSeconds(2, 4).
			Build("Bank")

		service = NewServiceTimeTracer(clock, KindIs(admission.TaskKindService))
		util = NewUtilizationTracer(clock, nil)
		CollectTrace(controller, service)
		CollectTrace(controller, util)
	})

	It("should refuse to attach a tracer twice", func() {
		Expect(func() { CollectTrace(controller, service) }).To(Panic())
	})

	It("should trace the services of each counter", func() {
		for i := 0; i < 4; i++ {
			controller.EnqueueArrival()
		}
		clock.Advance(8 * time.Second)

		Expect(service.Stats()).To(Equal([]ServiceStats{
			{
				Where: "Bank.Counter1", Count: 2,
				Total: 4 * time.Second, Average: 2 * time.Second,
			},
			{
				Where: "Bank.Counter2", Count: 2,
				Total: 8 * time.Second, Average: 4 * time.Second,
			},
		}))
		Expect(util.Utilizations()).To(Equal([]Utilization{
			{Where: "Bank.Counter1", BusyTime: 4 * time.Second, Ratio: 0.5},
			{Where: "Bank.Counter2", BusyTime: 8 * time.Second, Ratio: 1},
		}))
	})

	It("should stop busy time when services are aborted", func() {
		controller.EnqueueArrival()
		clock.Advance(time.Second)

		Expect(controller.Reinitialize([]int{2, 2}, 0)).To(Succeed())
		clock.Advance(3 * time.Second)

		Expect(service.Stats()).To(BeEmpty())
		Expect(util.BusyTime("Bank.Counter1")).To(Equal(time.Second))
	})

	It("should stop tracing once detached", func() {
		StopTrace(controller, service)

		controller.EnqueueArrival()
		clock.Advance(2 * time.Second)

		Expect(service.TotalCount()).To(BeZero())
		Expect(util.BusyTime("Bank.Counter1")).To(Equal(2 * time.Second))
	})
})
