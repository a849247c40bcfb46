package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/countersim/sim/timing"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Serve clients interactively.",
		Long: "Serve clients interactively. Type `next` when a client " +
			"arrives. The counters are printed after every change.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			s, err := newSession(cfg, timing.NewRealClock(), cmd.ErrOrStderr(),
				monitorWanted(cmd, cfg))
			if err != nil {
				return err
			}
			defer s.close()

			out := cmd.OutOrStdout()
			s.controller.AcceptHook(&tableRenderer{out: out})

			renderSnapshot(out, s.controller.Snapshot())
			fmt.Fprint(out, "Type help for the commands.\n")

			c := &console{scheduler: s.controller, out: out}

			return c.run(cmd.InOrStdin())
		},
	}
}
