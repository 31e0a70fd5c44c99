//go:build unix

package comm

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// pollFD pairs an optional file with the events it is polled for and
// the readiness the kernel reported back. A nil file maps to fd -1,
// which poll(2) skips.
type pollFD struct {
	file    *os.File
	events  int16
	revents int16
}

func (p *pollFD) sys() unix.PollFd {
	fd := int32(-1)
	if p.file != nil {
		fd = int32(p.file.Fd())
	}
	return unix.PollFd{Fd: fd, Events: p.events}
}

// ready reports whether the handle can be serviced without blocking.
// POLLHUP and POLLERR count as ready: the subsequent read observes EOF
// and the subsequent write surfaces the pipe error.
func (p *pollFD) ready() bool {
	return p.file != nil && p.revents&(p.events|unix.POLLHUP|unix.POLLERR) != 0
}

// pollWait blocks until at least one descriptor is ready or the
// deadline expires, filling in revents. A zero deadline waits forever.
func pollWait(fds []pollFD, deadline time.Time) (int, error) {
	timeout := -1
	if !deadline.IsZero() {
		remaining := time.Until(deadline)
		if remaining < 0 {
			remaining = 0
		}
		// Round up so a sub-millisecond budget still polls once.
		timeout = int((remaining + time.Millisecond - 1) / time.Millisecond)
	}

	sys := make([]unix.PollFd, len(fds))
	for i := range fds {
		sys[i] = fds[i].sys()
	}
	for {
		n, err := unix.Poll(sys, timeout)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("poll: %w", err)
		}
		for i := range fds {
			fds[i].revents = sys[i].Revents
		}
		return n, nil
	}
}

// pollDriver multiplexes the three pipe handles from the calling
// goroutine using poll(2): no write or read is issued unless the kernel
// reported room or data, so neither side can stall the other. A handle
// is dropped once its stream finishes and is never polled again.
type pollDriver struct {
	stdin  *os.File
	stdout *os.File
	stderr *os.File
	input  []byte
}

func newPollDriver(stdin, stdout, stderr *os.File, input []byte) *pollDriver {
	return &pollDriver{stdin: stdin, stdout: stdout, stderr: stderr, input: input}
}

func (d *pollDriver) done() bool {
	return d.stdin == nil && d.stdout == nil && d.stderr == nil
}

func (d *pollDriver) close() error {
	var first error
	for _, f := range []**os.File{&d.stdin, &d.stdout, &d.stderr} {
		if *f == nil {
			continue
		}
		if err := (*f).Close(); err != nil && first == nil {
			first = err
		}
		*f = nil
	}
	return first
}

func (d *pollDriver) next(deadline time.Time, limit int) ([]byte, []byte, error) {
	var out, errOut bytes.Buffer
	captured := 0

	for !d.done() {
		if limit > 0 && captured >= limit {
			break
		}

		fds := []pollFD{
			{file: d.stdin, events: unix.POLLOUT},
			{file: d.stdout, events: unix.POLLIN},
			{file: d.stderr, events: unix.POLLIN},
		}
		n, err := pollWait(fds, deadline)
		if err != nil {
			return out.Bytes(), errOut.Bytes(), err
		}
		if n == 0 {
			// Nothing became ready within the deadline. No handle was
			// touched, so a later call picks up exactly here.
			return out.Bytes(), errOut.Bytes(), ErrTimeout
		}

		if fds[0].ready() {
			if err := d.writeChunk(); err != nil {
				return out.Bytes(), errOut.Bytes(), err
			}
		}
		if fds[1].ready() {
			if err := readChunk(&d.stdout, Stdout, &out, limit, &captured); err != nil {
				return out.Bytes(), errOut.Bytes(), err
			}
		}
		if fds[2].ready() {
			if err := readChunk(&d.stderr, Stderr, &errOut, limit, &captured); err != nil {
				return out.Bytes(), errOut.Bytes(), err
			}
		}
	}

	return out.Bytes(), errOut.Bytes(), nil
}

// writeChunk writes one bounded chunk of the remaining input and closes
// stdin once the input is exhausted so the child observes end-of-input.
func (d *pollDriver) writeChunk() error {
	chunk := d.input
	if len(chunk) > chunkSize {
		chunk = chunk[:chunkSize]
	}
	n, err := d.stdin.Write(chunk)
	d.input = d.input[n:]
	if err != nil {
		d.stdin.Close()
		d.stdin = nil
		return fmt.Errorf("stdin: write: %w", err)
	}
	if len(d.input) == 0 {
		err := d.stdin.Close()
		d.stdin = nil
		if err != nil {
			return fmt.Errorf("stdin: close: %w", err)
		}
	}
	return nil
}

// readChunk reads one bounded chunk from an output handle, capped by the
// remaining quota. A zero-length read is end-of-stream and drops the
// handle from future interest. Data beyond the quota stays in the pipe.
func readChunk(f **os.File, s Stream, buf *bytes.Buffer, limit int, captured *int) error {
	max := chunkSize
	if limit > 0 && limit-*captured < max {
		max = limit - *captured
	}
	if max <= 0 {
		return nil
	}

	p := make([]byte, max)
	n, err := (*f).Read(p)
	if n > 0 {
		buf.Write(p[:n])
		*captured += n
	}
	if err == io.EOF || (err == nil && n == 0) {
		(*f).Close()
		*f = nil
		return nil
	}
	if err != nil {
		(*f).Close()
		*f = nil
		return fmt.Errorf("%s: read: %w", s, err)
	}
	return nil
}
