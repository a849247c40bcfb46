package cmd

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sarchlab/countersim/sim/timing"
)

// drainStep is how often the line is checked while waiting for it to drain.
const drainStep = 50 * time.Millisecond

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Feed a number of clients and wait until all are served.",
		Long: "Feed a number of clients at a fixed interval, wait until the " +
			"line is empty and every counter is idle, then print the " +
			"counters and the service statistics.",
		Args: cobra.NoArgs,
		RunE: runSimulate,
	}

	cmd.Flags().Int("arrivals", 10, "number of clients that arrive")
	cmd.Flags().Duration("interval", 500*time.Millisecond,
		"time between two arrivals")
	cmd.Flags().Bool("fast", false,
		"run on a manual clock instead of waiting in real time")

	return cmd
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	arrivals, _ := cmd.Flags().GetInt("arrivals")
	interval, _ := cmd.Flags().GetDuration("interval")
	fast, _ := cmd.Flags().GetBool("fast")

	if arrivals < 0 || interval < 0 {
		return errors.New("arrivals and interval must not be negative")
	}

	var (
		clock timing.Clock
		wait  func(time.Duration)
	)

	if fast {
		manual := timing.NewManualClock(time.Now())
		clock, wait = manual, manual.Advance
	} else {
		clock, wait = timing.NewRealClock(), time.Sleep
	}

	s, err := newSession(cfg, clock, cmd.ErrOrStderr(), monitorWanted(cmd, cfg))
	if err != nil {
		return err
	}
	defer s.close()

	start := clock.Now()

	for i := 0; i < arrivals; i++ {
		if i > 0 {
			wait(interval)
		}

		s.controller.EnqueueArrival()
	}

	for !s.controller.Snapshot().IsDrained() {
		wait(drainStep)
	}

	out := cmd.OutOrStdout()
	renderSnapshot(out, s.controller.Snapshot())
	fmt.Fprintf(out, "\nAll clients served after %s.\n\n",
		clock.Now().Sub(start).Round(time.Millisecond))
	renderStats(out, s.serviceTime.Stats(), s.utilization.Utilizations())

	return nil
}
