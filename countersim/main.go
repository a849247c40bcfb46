// Command countersim runs a pool of service counters fed by a FIFO line.
package main

import "github.com/sarchlab/countersim/countersim/cmd"

func main() {
	cmd.Execute()
}
