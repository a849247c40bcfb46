package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/sarchlab/countersim/admission"
	"github.com/sarchlab/countersim/sim/hooking"
	"github.com/sarchlab/countersim/tracing"
)

// renderSnapshot prints the line and one row per counter.
func renderSnapshot(w io.Writer, s admission.Snapshot) {
	fmt.Fprintf(w, "Next: %d  Waiting: %d\n", s.NextClientID, s.WaitingCount)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COUNTER\tSTATE\tSERVICE\tSERVED")

	for _, c := range s.Counters {
		served := make([]string, len(c.History))
		for i, id := range c.History {
			served[i] = strconv.Itoa(id)
		}

		fmt.Fprintf(tw, "%d\t%s\t%ds\t%s\n",
			c.ID, c.State, c.ServiceSeconds, strings.Join(served, ","))
	}

	tw.Flush()
}

// renderStats prints what the tracers measured.
func renderStats(
	w io.Writer,
	service []tracing.ServiceStats,
	utilization []tracing.Utilization,
) {
	busy := make(map[string]tracing.Utilization, len(utilization))
	for _, u := range utilization {
		busy[u.Where] = u
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHERE\tSERVED\tAVERAGE\tBUSY\tUTILIZATION")

	for _, s := range service {
		u := busy[s.Where]
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%.1f%%\n",
			s.Where, s.Count, s.Average, u.BusyTime, u.Ratio*100)
	}

	tw.Flush()
}

// A tableRenderer prints the counter table whenever the controller changes.
type tableRenderer struct {
	lock sync.Mutex
	out  io.Writer
}

func (r *tableRenderer) Func(ctx hooking.HookCtx) {
	snapshot, ok := ctx.Detail.(admission.Snapshot)
	if !ok {
		return
	}

	switch ctx.Pos {
	case admission.HookPosArrival:
		// The admission that may follow prints the table.
		if snapshot.NumBusy() < len(snapshot.Counters) {
			return
		}
	case hooking.HookPosTaskAbort:
		return
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	fmt.Fprintln(r.out)
	renderSnapshot(r.out, snapshot)
}
