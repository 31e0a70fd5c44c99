//go:build windows

package comm

import "os"

// newDriver selects the worker backend: Windows has no readiness
// polling that applies to anonymous pipe handles, so one goroutine per
// stream feeds a shared rendezvous channel instead.
func newDriver(stdin, stdout, stderr *os.File, input []byte) driver {
	return newWorkerDriver(stdin, stdout, stderr, input)
}
