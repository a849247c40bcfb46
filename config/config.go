// Package config collects the settings of a counter pool run from defaults,
// an optional .env file and COUNTERSIM_* environment variables.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// EnvPrefix is the prefix of the environment variables read by Load.
const EnvPrefix = "COUNTERSIM_"

// Config holds the settings of a run.
type Config struct {
	NumCounters           int
	DefaultServiceSeconds int
	MinServiceSeconds     int
	MaxServiceSeconds     int

	// ServiceSeconds, if set, gives each counter its own service time and
	// overrides NumCounters and DefaultServiceSeconds.
	ServiceSeconds []int
	InitialQueue   int

	MonitorPort int
	OpenBrowser bool
	TraceCSV    string
	TraceDB     string
	LogLevel    logrus.Level
}

// Default returns four counters serving in 2 seconds, service times between
// 2 and 5 seconds, and an empty line.
func Default() *Config {
	return &Config{
		NumCounters:           4,
		DefaultServiceSeconds: 2,
		MinServiceSeconds:     2,
		MaxServiceSeconds:     5,
		LogLevel:              logrus.InfoLevel,
	}
}

// Load returns the default configuration overridden by the environment. If
// envFile is not empty, the file is loaded into the environment first.
// Variables that are already set win over the file. The result is not
// validated, so that command-line flags can still change it. Call Validate
// once everything is applied.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		err := godotenv.Load(envFile)
		if err != nil {
			return nil, errors.Wrapf(err, "loading %s", envFile)
		}
	}

	c := Default()

	err := c.applyEnv()
	if err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) applyEnv() error {
	ints := []struct {
		name  string
		field *int
	}{
		{"COUNTERS", &c.NumCounters},
		{"SERVICE_SECONDS", &c.DefaultServiceSeconds},
		{"MIN_SERVICE_SECONDS", &c.MinServiceSeconds},
		{"MAX_SERVICE_SECONDS", &c.MaxServiceSeconds},
		{"QUEUE", &c.InitialQueue},
		{"MONITOR_PORT", &c.MonitorPort},
	}

	for _, v := range ints {
		value, ok := lookup(v.name)
		if !ok {
			continue
		}

		n, err := strconv.Atoi(value)
		if err != nil {
			return errors.Wrapf(err, "parsing %s%s", EnvPrefix, v.name)
		}

		*v.field = n
	}

	if value, ok := lookup("DURATIONS"); ok {
		durations, err := ParseDurations(value)
		if err != nil {
			return errors.Wrapf(err, "parsing %sDURATIONS", EnvPrefix)
		}

		c.ServiceSeconds = durations
	}

	if value, ok := lookup("OPEN_BROWSER"); ok {
		open, err := strconv.ParseBool(value)
		if err != nil {
			return errors.Wrapf(err, "parsing %sOPEN_BROWSER", EnvPrefix)
		}

		c.OpenBrowser = open
	}

	if value, ok := lookup("TRACE_CSV"); ok {
		c.TraceCSV = value
	}

	if value, ok := lookup("TRACE_DB"); ok {
		c.TraceDB = value
	}

	if value, ok := lookup("LOG_LEVEL"); ok {
		level, err := logrus.ParseLevel(value)
		if err != nil {
			return errors.Wrapf(err, "parsing %sLOG_LEVEL", EnvPrefix)
		}

		c.LogLevel = level
	}

	return nil
}

func lookup(name string) (string, bool) {
	value, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}

	return strings.TrimSpace(value), true
}

// ParseDurations parses a comma separated list of service times in seconds,
// such as "2,3,4,5".
func ParseDurations(s string) ([]int, error) {
	fields := strings.Split(s, ",")
	durations := make([]int, 0, len(fields))

	for _, f := range fields {
		d, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, errors.Errorf("invalid service time %q", f)
		}

		durations = append(durations, d)
	}

	return durations, nil
}

// ServiceDurations returns the service time of each counter.
func (c *Config) ServiceDurations() []int {
	if len(c.ServiceSeconds) > 0 {
		return append([]int(nil), c.ServiceSeconds...)
	}

	durations := make([]int, c.NumCounters)
	for i := range durations {
		durations[i] = c.DefaultServiceSeconds
	}

	return durations
}

// Validate checks that the configuration describes a runnable pool.
func (c *Config) Validate() error {
	if c.MinServiceSeconds < 1 || c.MaxServiceSeconds < c.MinServiceSeconds {
		return errors.Errorf("invalid service time bounds %d..%d",
			c.MinServiceSeconds, c.MaxServiceSeconds)
	}

	if len(c.ServiceSeconds) == 0 && c.NumCounters < 1 {
		return errors.New("at least one counter is required")
	}

	for i, s := range c.ServiceDurations() {
		if s < c.MinServiceSeconds || s > c.MaxServiceSeconds {
			return errors.Errorf(
				"service time of counter %d must be between %d and %d seconds",
				i+1, c.MinServiceSeconds, c.MaxServiceSeconds)
		}
	}

	if c.InitialQueue < 0 {
		return errors.New("initial queue must not be negative")
	}

	if c.MonitorPort < 0 || c.MonitorPort > 65535 {
		return errors.Errorf("invalid monitor port %d", c.MonitorPort)
	}

	return nil
}
