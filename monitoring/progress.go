package monitoring

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sarchlab/countersim/admission"
	"github.com/sarchlab/countersim/sim/hooking"
)

// A ProgressBar is a tracker of the progress
type ProgressBar struct {
	sync.Mutex
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
}

type progressBarJSON struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
}

// MarshalJSON encodes the bar as it is at the time of the call.
func (b *ProgressBar) MarshalJSON() ([]byte, error) {
	b.Lock()
	defer b.Unlock()

	return json.Marshal(progressBarJSON{
		ID:         b.ID,
		Name:       b.Name,
		StartTime:  b.StartTime,
		Total:      b.Total,
		Finished:   b.Finished,
		InProgress: b.InProgress,
	})
}

// IncrementTotal adds to the number of elements to process.
func (b *ProgressBar) IncrementTotal(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Total += amount
}

// IncrementInProgress adds the number of in-progress element.
func (b *ProgressBar) IncrementInProgress(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.InProgress += amount
}

// MoveInProgressToFinished reduces the number of in progress item by a certain
// amount and increase the finished item by the same amount.
func (b *ProgressBar) MoveInProgressToFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.InProgress -= amount
	b.Finished += amount
}

// DropInProgress removes in-progress items that will never finish.
func (b *ProgressBar) DropInProgress(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.InProgress -= amount
}

// Restart clears the bar and sets a new total.
func (b *ProgressBar) Restart(total uint64) {
	b.Lock()
	defer b.Unlock()

	b.Total = total
	b.Finished = 0
	b.InProgress = 0
	b.StartTime = time.Now()
}

// Counts returns the total, finished and in-progress numbers.
func (b *ProgressBar) Counts() (total, finished, inProgress uint64) {
	b.Lock()
	defer b.Unlock()

	return b.Total, b.Finished, b.InProgress
}

// ProgressHook drives a progress bar from the clients of an admission
// controller. Every client that enters the line adds to the total. A client
// is in progress while being served and finished once served.
type ProgressHook struct {
	bar *ProgressBar
}

// NewProgressHook creates a hook that updates bar.
func NewProgressHook(bar *ProgressBar) *ProgressHook {
	return &ProgressHook{bar: bar}
}

// Func updates the bar.
func (h *ProgressHook) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case admission.HookPosArrival:
		h.bar.IncrementTotal(1)
	case admission.HookPosReinit:
		h.bar.Restart(uint64(ctx.Item.(admission.Reinit).QueueLength))
	case hooking.HookPosTaskStart:
		h.bar.IncrementInProgress(1)
	case hooking.HookPosTaskEnd:
		h.bar.MoveInProgressToFinished(1)
	case hooking.HookPosTaskAbort:
		h.bar.DropInProgress(1)
	}
}
