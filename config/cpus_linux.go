package config

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// AvailableCPUs returns the number of CPUs this process may run on.
func AvailableCPUs() int {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return runtime.NumCPU()
	}
	if n := set.Count(); n > 0 {
		return n
	}
	return runtime.NumCPU()
}
