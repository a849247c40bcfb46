// Package cmd provides the command-line interface of countersim.
package cmd

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/countersim/config"
)

// newRootCmd creates the base command. Subcommands share its flags.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "countersim",
		Short: "countersim serves a line of clients with a pool of counters.",
		Long: `countersim serves a line of clients with a pool of counters. ` +
			`Clients are admitted in arrival order to the idle counter with ` +
			`the lowest number, and each counter takes a fixed time per client.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.Int("counters", 4, "number of counters")
	flags.String("durations", "",
		"comma separated service seconds, one per counter (e.g. 2,3,4,5)")
	flags.Int("queue", 0, "number of clients waiting at start")
	flags.Int("min-service", 2, "shortest accepted service time in seconds")
	flags.Int("max-service", 5, "longest accepted service time in seconds")
	flags.Bool("monitor", false, "serve the monitoring web page")
	flags.Int("monitor-port", 0, "port of the monitoring server, 0 for random")
	flags.Bool("open-browser", false, "open the monitoring page in a browser")
	flags.String("trace-csv", "", "write service traces to this CSV file")
	flags.String("trace-db", "", "write service traces to this SQLite file")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("env-file", "", "load COUNTERSIM_* settings from this file")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newSimulateCmd())

	return rootCmd
}

// Execute runs the command line and exits. Registered exit handlers, such as
// the trace writers, run before the process ends.
func Execute() {
	err := newRootCmd().Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

// loadConfig reads the environment and applies the flags that were set on
// the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()

	envFile, _ := flags.GetString("env-file")

	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}

	if flags.Changed("counters") {
		cfg.NumCounters, _ = flags.GetInt("counters")
		cfg.ServiceSeconds = nil
	}

	if flags.Changed("durations") {
		value, _ := flags.GetString("durations")

		cfg.ServiceSeconds, err = config.ParseDurations(value)
		if err != nil {
			return nil, errors.Wrap(err, "parsing --durations")
		}
	}

	if flags.Changed("queue") {
		cfg.InitialQueue, _ = flags.GetInt("queue")
	}

	if flags.Changed("min-service") {
		cfg.MinServiceSeconds, _ = flags.GetInt("min-service")
	}

	if flags.Changed("max-service") {
		cfg.MaxServiceSeconds, _ = flags.GetInt("max-service")
	}

	if flags.Changed("monitor-port") {
		cfg.MonitorPort, _ = flags.GetInt("monitor-port")
	}

	if flags.Changed("open-browser") {
		cfg.OpenBrowser, _ = flags.GetBool("open-browser")
	}

	if flags.Changed("trace-csv") {
		cfg.TraceCSV, _ = flags.GetString("trace-csv")
	}

	if flags.Changed("trace-db") {
		cfg.TraceDB, _ = flags.GetString("trace-db")
	}

	if flags.Changed("log-level") {
		value, _ := flags.GetString("log-level")

		cfg.LogLevel, err = logrus.ParseLevel(value)
		if err != nil {
			return nil, errors.Wrap(err, "parsing --log-level")
		}
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func monitorWanted(cmd *cobra.Command, cfg *config.Config) bool {
	monitor, _ := cmd.Flags().GetBool("monitor")

	return monitor || cfg.MonitorPort != 0 || cfg.OpenBrowser
}
