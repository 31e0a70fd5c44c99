//go:build unix

package comm

import "os"

// newDriver selects the readiness-polling backend: on POSIX-like
// systems poll(2) multiplexes pipe handles from a single goroutine.
func newDriver(stdin, stdout, stderr *os.File, input []byte) driver {
	return newPollDriver(stdin, stdout, stderr, input)
}
