package proc

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/procwire/procwire/lib/comm"
)

// Child couples a running child process with the communicator bound to
// its pipe ends. The parent-side pipe ends belong to the communicator;
// the child-side ends are closed once the process has been started.
type Child struct {
	Cmd  *exec.Cmd
	Comm *comm.Communicator
}

// StartChild launches argv as a child process with pipes attached for
// stdin (when input is non-nil) and for each requested output stream,
// and returns a communicator over the parent-side pipe ends.
func StartChild(argv []string, input []byte, wantOut, wantErr bool) (*Child, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("no command given")
	}

	cmd := exec.Command(argv[0], argv[1:]...)

	var parentIn, parentOut, parentErr *os.File
	var childSide []*os.File

	closeAll := func() {
		for _, f := range childSide {
			f.Close()
		}
		for _, f := range []*os.File{parentIn, parentOut, parentErr} {
			if f != nil {
				f.Close()
			}
		}
	}

	if input != nil {
		r, w, err := os.Pipe()
		if err != nil {
			return nil, fmt.Errorf("creating stdin pipe: %w", err)
		}
		cmd.Stdin = r
		childSide = append(childSide, r)
		parentIn = w
	}

	if wantOut {
		r, w, err := os.Pipe()
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("creating stdout pipe: %w", err)
		}
		cmd.Stdout = w
		childSide = append(childSide, w)
		parentOut = r
	}

	if wantErr {
		r, w, err := os.Pipe()
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("creating stderr pipe: %w", err)
		}
		cmd.Stderr = w
		childSide = append(childSide, w)
		parentErr = r
	}

	c, err := comm.New(parentIn, parentOut, parentErr, input)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("creating communicator: %w", err)
	}

	if err := cmd.Start(); err != nil {
		closeAll()
		return nil, fmt.Errorf("starting %s: %w", argv[0], err)
	}

	// The child holds its own copies now. Keeping ours open would mask
	// EOF on the output pipes.
	for _, f := range childSide {
		f.Close()
	}

	return &Child{Cmd: cmd, Comm: c}, nil
}

// Wait releases the communicator's pipe ends and reaps the child.
// Call it after capture is finished.
func (c *Child) Wait() error {
	if err := c.Comm.Close(); err != nil {
		c.Cmd.Wait()
		return fmt.Errorf("closing communicator: %w", err)
	}
	if err := c.Cmd.Wait(); err != nil {
		return fmt.Errorf("waiting for %s: %w", c.Cmd.Path, err)
	}
	return nil
}
