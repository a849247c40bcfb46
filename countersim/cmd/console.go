package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/sarchlab/countersim/monitoring"
)

const consoleHelp = `Commands:
  next                 a client arrives
  init d1 .. dN queue  set the service seconds of every counter and the
                       number of waiting clients, and start over
  show                 print the counters
  help                 print this help
  quit                 leave
`

// A console reads commands from a terminal and applies them to a scheduler.
type console struct {
	scheduler monitoring.Scheduler
	out       io.Writer
}

// run executes commands until quit or the end of the input.
func (c *console) run(in io.Reader) error {
	scanner := bufio.NewScanner(in)

	for scanner.Scan() {
		quit, err := c.execute(scanner.Text())
		if err != nil {
			fmt.Fprintf(c.out, "error: %s\n", err)
		}

		if quit {
			return nil
		}
	}

	return errors.Wrap(scanner.Err(), "reading commands")
}

// execute runs one command line. It reports whether the console should stop.
func (c *console) execute(line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	switch strings.ToLower(fields[0]) {
	case "next", "n":
		ticket := c.scheduler.EnqueueArrival()
		fmt.Fprintf(c.out, "client arrived, next ticket was %d\n", ticket)
	case "init", "i":
		return false, c.reinitialize(fields[1:])
	case "show", "s":
		renderSnapshot(c.out, c.scheduler.Snapshot())
	case "help", "h", "?":
		fmt.Fprint(c.out, consoleHelp)
	case "quit", "exit", "q":
		return true, nil
	default:
		return false, errors.Errorf("unknown command %q, try help", fields[0])
	}

	return false, nil
}

func (c *console) reinitialize(args []string) error {
	numCounters := len(c.scheduler.Snapshot().Counters)
	if len(args) != numCounters+1 {
		return errors.Errorf(
			"init needs %d service times and a queue length", numCounters)
	}

	values := make([]int, len(args))
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return errors.Errorf("%q is not a number", a)
		}

		values[i] = v
	}

	return c.scheduler.Reinitialize(values[:numCounters], values[numCounters])
}
