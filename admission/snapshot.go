package admission

import "github.com/sarchlab/countersim/counter"

// Snapshot is a consistent, read-only view of the controller. Counters are
// immutable values, so a snapshot never changes after it is taken.
type Snapshot struct {
	Epoch        uint64            `json:"epoch"`
	Counters     []counter.Counter `json:"counters"`
	WaitingCount int               `json:"waiting_count"`
	NextClientID int               `json:"next_client_id"`

	// InitialQueue is the queue length set by the last reinitialization and
	// Arrivals counts the arrivals since then.
	InitialQueue int `json:"initial_queue"`
	Arrivals     int `json:"arrivals"`
}

// NumBusy returns the number of counters serving a client.
func (s Snapshot) NumBusy() int {
	n := 0
	for _, c := range s.Counters {
		if !c.State.IsIdle() {
			n++
		}
	}

	return n
}

// NumServed returns the number of completed services in this epoch.
func (s Snapshot) NumServed() int {
	n := 0
	for _, c := range s.Counters {
		n += len(c.History)
	}

	return n
}

// IsDrained tells if nobody is waiting and every counter is idle.
func (s Snapshot) IsDrained() bool {
	return s.WaitingCount == 0 && s.NumBusy() == 0
}

// Counter returns the counter with the given ID.
func (s Snapshot) Counter(id int) (counter.Counter, bool) {
	if id < 1 || id > len(s.Counters) {
		return counter.Counter{}, false
	}

	return s.Counters[id-1], true
}
