//go:build !linux

package config

import "runtime"

// AvailableCPUs returns the number of CPUs this process may run on.
func AvailableCPUs() int {
	return runtime.NumCPU()
}
