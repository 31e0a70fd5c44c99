// Package comm implements deadlock-free, resumable bidirectional
// communication with a child process over its standard stream pipes.
//
// The classic hazard: a parent that writes all of its input before
// reading any output can block on a full stdin pipe while the child
// blocks on a full stdout pipe, and both hang forever. A Communicator
// interleaves bounded writes and reads so this cannot happen, and
// additionally supports bounding how much time or how many bytes a
// single Read call may consume, resuming cleanly afterward.
package comm

import (
	"errors"
	"os"
	"time"
)

// ErrTimeout is reported by Read when the configured time budget elapses
// before the requested streams finish. All communicator state is left
// intact and Read may simply be called again.
var ErrTimeout = errors.New("comm: time limit reached")

// Stream identifies one of the child's standard streams.
type Stream int

const (
	Stdin Stream = iota
	Stdout
	Stderr
)

func (s Stream) String() string {
	switch s {
	case Stdin:
		return "stdin"
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return "unknown"
	}
}

// chunkSize bounds every single pipe write and read. Writes must stay
// strictly below the kernel pipe buffer: a larger write can block even
// after poll reported the pipe writable for *some* capacity.
const chunkSize = 4096

// driver performs one bounded, resumable communication pass.
// A zero deadline means no time budget; limit <= 0 means no byte quota.
// Every return, including error returns, carries the output captured so
// far by the pass.
type driver interface {
	next(deadline time.Time, limit int) (out, errOut []byte, err error)
	done() bool
	close() error
}

// Communicator drives the parent side of one child-process interaction.
// It owns the pipe handles it was constructed with and is not safe for
// concurrent use.
type Communicator struct {
	drv       driver
	hasOut    bool
	hasErr    bool
	sizeLimit int
	timeLimit time.Duration
}

// New creates a Communicator over the parent-side pipe ends. Any handle
// may be nil if that stream is not redirected. input must be non-nil
// exactly when stdin is provided; a mismatch is a usage error reported
// immediately. The Communicator takes ownership of the handles.
func New(stdin, stdout, stderr *os.File, input []byte) (*Communicator, error) {
	if stdin == nil && input != nil {
		return nil, errors.New("comm: input provided without a stdin handle")
	}
	if stdin != nil && input == nil {
		return nil, errors.New("comm: stdin handle provided without input")
	}
	return &Communicator{
		drv:    newDriver(stdin, stdout, stderr, input),
		hasOut: stdout != nil,
		hasErr: stderr != nil,
	}, nil
}

// SetSizeLimit bounds the combined number of stdout+stderr bytes a
// single Read call may capture. Bytes beyond the quota are held back,
// never dropped, and are delivered by the next call. Zero or negative
// means unlimited.
func (c *Communicator) SetSizeLimit(n int) {
	c.sizeLimit = n
}

// SetTimeLimit bounds the wall-clock duration of a single Read call.
// On expiry Read returns ErrTimeout together with whatever it captured;
// a later call resumes where this one stopped. Zero or negative means
// unlimited.
func (c *Communicator) SetTimeLimit(d time.Duration) {
	c.timeLimit = d
}

// Read continues communicating with the child: remaining input is
// written, available output is captured, within the configured size and
// time limits. It returns the bytes newly captured by this call, per
// stream. A stream that was not requested at construction is always
// nil; a requested stream is always non-nil, even when empty.
//
// On failure the returned slices still hold everything captured before
// the failure. ErrTimeout is recoverable; other errors are terminal for
// the stream that produced them.
func (c *Communicator) Read() ([]byte, []byte, error) {
	var deadline time.Time
	if c.timeLimit > 0 {
		deadline = time.Now().Add(c.timeLimit)
	}
	out, errOut, err := c.drv.next(deadline, c.sizeLimit)
	return c.present(out, c.hasOut), c.present(errOut, c.hasErr), err
}

// present maps a driver buffer onto the requested/unrequested contract.
func (c *Communicator) present(b []byte, requested bool) []byte {
	if !requested {
		return nil
	}
	if b == nil {
		return []byte{}
	}
	return b
}

// Done reports whether every requested stream reached a terminal state:
// input fully written and each output at end-of-stream or failed.
func (c *Communicator) Done() bool {
	return c.drv.done()
}

// Close releases the remaining pipe handles. On the worker backend it
// also signals in-flight workers to exit, so an abandoned Communicator
// never leaves a goroutine blocked.
func (c *Communicator) Close() error {
	return c.drv.close()
}
