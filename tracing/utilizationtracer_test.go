package tracing

import (
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("UtilizationTracer", func() {
	var (
		mockCtrl   *gomock.Controller
		timeTeller *MockTimeTeller
		t          *UtilizationTracer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		timeTeller = NewMockTimeTeller(mockCtrl)

		timeTeller.EXPECT().Now().Return(at(0))
		t = NewUtilizationTracer(timeTeller, nil)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should track busy time, one task", func() {
		timeTeller.EXPECT().Now().Return(at(1))
		t.StartTask(Task{ID: "1", Where: "c1"})

		timeTeller.EXPECT().Now().Return(at(2))
		t.EndTask(Task{ID: "1"})

		timeTeller.EXPECT().Now().Return(at(4))
		Expect(t.BusyTime("c1")).To(Equal(time.Second))
	})

	It("should track busy time, two tasks adjacent", func() {
		timeTeller.EXPECT().Now().Return(at(1))
		t.StartTask(Task{ID: "1", Where: "c1"})
		timeTeller.EXPECT().Now().Return(at(2))
		t.EndTask(Task{ID: "1"})

		timeTeller.EXPECT().Now().Return(at(2))
		t.StartTask(Task{ID: "2", Where: "c1"})
		timeTeller.EXPECT().Now().Return(at(3))
		t.EndTask(Task{ID: "2"})

		timeTeller.EXPECT().Now().Return(at(3))
		Expect(t.BusyTime("c1")).To(Equal(2 * time.Second))
	})

	It("should track busy time, two tasks overlap", func() {
		timeTeller.EXPECT().Now().Return(at(1))
		t.StartTask(Task{ID: "1", Where: "c1"})

		timeTeller.EXPECT().Now().Return(at(1.5))
		t.StartTask(Task{ID: "2", Where: "c1"})

		timeTeller.EXPECT().Now().Return(at(2))
		t.EndTask(Task{ID: "1"})

		timeTeller.EXPECT().Now().Return(at(2.5))
		t.EndTask(Task{ID: "2"})

		timeTeller.EXPECT().Now().Return(at(3))
		Expect(t.BusyTime("c1")).To(Equal(1500 * time.Millisecond))
	})

	It("should count running and aborted tasks", func() {
		timeTeller.EXPECT().Now().Return(at(0))
		t.StartTask(Task{ID: "1", Where: "c1"})
		timeTeller.EXPECT().Now().Return(at(1))
		t.StartTask(Task{ID: "2", Where: "c2"})

		timeTeller.EXPECT().Now().Return(at(1.5))
		t.AbortTask(Task{ID: "1"})

		timeTeller.EXPECT().Now().Return(at(2))
		Expect(t.Utilizations()).To(Equal([]Utilization{
			{Where: "c1", BusyTime: 1500 * time.Millisecond, Ratio: 0.75},
			{Where: "c2", BusyTime: time.Second, Ratio: 0.5},
		}))
	})

	It("should skip filtered tasks", func() {
		t.filter = KindIs("service")

		timeTeller.EXPECT().Now().Return(at(1)).Times(3)
		t.StartTask(Task{ID: "1", Kind: "other", Where: "c1"})
		t.EndTask(Task{ID: "1"})

		Expect(t.Utilizations()).To(BeEmpty())
	})

	It("should handle many tasks", func() {
		for i := 0; i < 10000; i++ {
			taskID := fmt.Sprintf("%d", i)

			timeTeller.EXPECT().Now().Return(at(float64(i * 2)))
			t.StartTask(Task{ID: taskID, Where: "c1"})

			timeTeller.EXPECT().Now().Return(at(float64(i*2 + 1)))
			t.EndTask(Task{ID: taskID})
		}

		timeTeller.EXPECT().Now().Return(at(20000))
		Expect(t.BusyTime("c1")).To(Equal(10000 * time.Second))
	})
})
