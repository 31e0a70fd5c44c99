package comm

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// streamMsg is one unit of worker-to-consumer traffic: a chunk of data,
// an end-of-stream marker (nil data, nil err), or a terminal failure.
// Ownership of the data slice transfers to the consumer on send.
type streamMsg struct {
	stream Stream
	data   []byte
	err    error
}

// workerDriver achieves the same deadlock freedom as the poll driver
// with one goroutine per active stream, for platforms where poll(2)
// cannot be applied to pipe handles. All workers send through a single
// capacity-one channel; that rendezvous bound is the only backpressure
// needed: a producer running ahead of the consumer blocks on send
// instead of buffering without limit.
type workerDriver struct {
	stdin  *os.File
	stdout *os.File
	stderr *os.File
	input  []byte

	msgs chan streamMsg
	quit chan struct{}

	active   map[Stream]bool
	leftover *streamMsg
	started  bool
}

func newWorkerDriver(stdin, stdout, stderr *os.File, input []byte) *workerDriver {
	d := &workerDriver{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		input:  input,
		msgs:   make(chan streamMsg, 1),
		quit:   make(chan struct{}),
		active: make(map[Stream]bool),
	}
	// Stdin counts as active until its completion message arrives, even
	// though it never produces output.
	if stdin != nil {
		d.active[Stdin] = true
	}
	if stdout != nil {
		d.active[Stdout] = true
	}
	if stderr != nil {
		d.active[Stderr] = true
	}
	return d
}

func (d *workerDriver) start() {
	d.started = true
	if d.stdin != nil {
		go d.writeInput(d.stdin, d.input)
	}
	if d.stdout != nil {
		go d.readStream(Stdout, d.stdout)
	}
	if d.stderr != nil {
		go d.readStream(Stderr, d.stderr)
	}
}

// send delivers a message to the consumer. It reports false when the
// consumer is gone (Close was called); the worker then exits silently,
// which is expected shutdown, not an error.
func (d *workerDriver) send(m streamMsg) bool {
	select {
	case d.msgs <- m:
		return true
	case <-d.quit:
		return false
	}
}

// readStream forwards bounded chunks until end-of-stream or a read
// failure, then exits. Chunks of one stream arrive in production order.
func (d *workerDriver) readStream(s Stream, f *os.File) {
	defer f.Close()
	for {
		p := make([]byte, chunkSize)
		n, err := f.Read(p)
		if n > 0 {
			if !d.send(streamMsg{stream: s, data: p[:n]}) {
				return
			}
		}
		if err == io.EOF || (err == nil && n == 0) {
			d.send(streamMsg{stream: s})
			return
		}
		if err != nil {
			d.send(streamMsg{stream: s, err: fmt.Errorf("%s: read: %w", s, err)})
			return
		}
	}
}

// writeInput performs one full blocking write of the payload, closes
// stdin so the child observes end-of-input, and reports the outcome.
func (d *workerDriver) writeInput(f *os.File, input []byte) {
	_, err := f.Write(input)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		d.send(streamMsg{stream: Stdin, err: fmt.Errorf("stdin: write: %w", err)})
		return
	}
	d.send(streamMsg{stream: Stdin})
}

func (d *workerDriver) done() bool {
	return len(d.active) == 0 && d.leftover == nil
}

// close signals workers to stop and closes the handles. Closing a pipe
// unblocks a worker sitting in Read; it then observes the quit channel
// on its next send and exits.
func (d *workerDriver) close() error {
	select {
	case <-d.quit:
	default:
		close(d.quit)
	}
	var first error
	for _, f := range []*os.File{d.stdin, d.stdout, d.stderr} {
		if f == nil {
			continue
		}
		// Workers close their own handle on exit; a second close here
		// is not worth reporting.
		if err := f.Close(); err != nil && first == nil && !errors.Is(err, os.ErrClosed) {
			first = err
		}
	}
	return first
}

func (d *workerDriver) next(deadline time.Time, limit int) ([]byte, []byte, error) {
	if !d.started {
		d.start()
	}

	var out, errOut bytes.Buffer
	captured := 0

	// admit folds a data message into this call's capture, stashing any
	// suffix beyond the quota as the leftover fragment for the next
	// call. It reports false once the quota stops this call.
	admit := func(m streamMsg) bool {
		data := m.data
		if limit > 0 && captured+len(data) > limit {
			keep := limit - captured
			d.leftover = &streamMsg{stream: m.stream, data: data[keep:]}
			data = data[:keep]
		}
		if m.stream == Stderr {
			errOut.Write(data)
		} else {
			out.Write(data)
		}
		captured += len(data)
		return d.leftover == nil && (limit <= 0 || captured < limit)
	}

	// A fragment held back by the previous call is replayed before any
	// new message is received.
	if m := d.leftover; m != nil {
		d.leftover = nil
		if !admit(*m) {
			return out.Bytes(), errOut.Bytes(), nil
		}
	}

	var expired <-chan time.Time
	if !deadline.IsZero() {
		t := time.NewTimer(time.Until(deadline))
		defer t.Stop()
		expired = t.C
	}

	for len(d.active) > 0 {
		var m streamMsg
		select {
		case m = <-d.msgs:
		case <-expired:
			return out.Bytes(), errOut.Bytes(), ErrTimeout
		}

		switch {
		case m.err != nil:
			delete(d.active, m.stream)
			return out.Bytes(), errOut.Bytes(), m.err
		case m.data == nil:
			delete(d.active, m.stream)
		default:
			if !admit(m) {
				return out.Bytes(), errOut.Bytes(), nil
			}
		}
	}

	return out.Bytes(), errOut.Bytes(), nil
}
