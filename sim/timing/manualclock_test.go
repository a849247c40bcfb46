package timing

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var start = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

type recordingHandler struct {
	clock  *ManualClock
	events []Event
	seenAt []time.Time
	err    error
}

func (h *recordingHandler) Handle(e Event) error {
	h.events = append(h.events, e)
	h.seenAt = append(h.seenAt, h.clock.Now())

	return h.err
}

var _ = Describe("ManualClock", func() {
	var (
		clock *ManualClock
	)

	BeforeEach(func() {
		clock = NewManualClock(start)
	})

	It("should not fire before the delay", func() {
		fired := false
		clock.AfterFunc(2*time.Second, func() { fired = true })

		clock.Advance(1999 * time.Millisecond)

		Expect(fired).To(BeFalse())
		Expect(clock.NumPending()).To(Equal(1))
		Expect(clock.Now()).To(Equal(start.Add(1999 * time.Millisecond)))
	})

	It("should fire in time order, then in schedule order", func() {
		var order []string
		clock.AfterFunc(3*time.Second, func() { order = append(order, "c") })
		clock.AfterFunc(2*time.Second, func() { order = append(order, "a") })
		clock.AfterFunc(2*time.Second, func() { order = append(order, "b") })

		clock.Advance(5 * time.Second)

		Expect(order).To(Equal([]string{"a", "b", "c"}))
		Expect(clock.NumPending()).To(Equal(0))
		Expect(clock.Now()).To(Equal(start.Add(5 * time.Second)))
	})

	It("should report the due time while a callback runs", func() {
		var seen time.Time
		clock.AfterFunc(2*time.Second, func() { seen = clock.Now() })

		clock.Advance(10 * time.Second)

		Expect(seen).To(Equal(start.Add(2 * time.Second)))
	})

	It("should run callbacks scheduled by callbacks within the same advance", func() {
		count := 0
		var chain func()
		chain = func() {
			count++
			clock.AfterFunc(time.Second, chain)
		}
		clock.AfterFunc(time.Second, chain)

		clock.Advance(3 * time.Second)

		Expect(count).To(Equal(3))
		Expect(clock.NumPending()).To(Equal(1))
	})

	It("should stop a timer", func() {
		fired := false
		timer := clock.AfterFunc(time.Second, func() { fired = true })

		Expect(timer.Stop()).To(BeTrue())
		Expect(timer.Stop()).To(BeFalse())

		clock.Advance(2 * time.Second)

		Expect(fired).To(BeFalse())
		Expect(clock.NumPending()).To(Equal(0))
	})

	It("should not stop a timer that already fired", func() {
		timer := clock.AfterFunc(time.Second, func() {})

		clock.Advance(time.Second)

		Expect(timer.Stop()).To(BeFalse())
	})
})

var _ = Describe("Schedule", func() {
	It("should deliver the event to its handler", func() {
		clock := NewManualClock(start)
		handler := &recordingHandler{clock: clock}
		evt := NewEventBase(start.Add(2*time.Second), handler)

		Schedule(clock, 2*time.Second, evt, nil)
		clock.Advance(2 * time.Second)

		Expect(handler.events).To(ConsistOf(evt))
		Expect(handler.seenAt).To(ConsistOf(evt.Time()))
		Expect(evt.ID).NotTo(BeEmpty())
	})

	It("should report handler errors", func() {
		clock := NewManualClock(start)
		handler := &recordingHandler{clock: clock, err: errors.New("boom")}
		evt := NewEventBase(start.Add(time.Second), handler)

		var reported error
		Schedule(clock, time.Second, evt, func(_ Event, err error) {
			reported = err
		})
		clock.Advance(time.Second)

		Expect(reported).To(MatchError("boom"))
	})
})
