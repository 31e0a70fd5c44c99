//go:build unix

package comm

import (
	"bytes"
	"os"
	"os/exec"
	"testing"
)

func init() {
	testDrivers["poll"] = func(stdin, stdout, stderr *os.File, input []byte) driver {
		return newPollDriver(stdin, stdout, stderr, input)
	}
}

// TestRealChildEcho runs the full stack against an actual process: cat
// echoes several hundred KB of stdin back to stdout, which hangs any
// communicator that writes everything before reading anything.
func TestRealChildEcho(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}

	input := pattern(400 * 1024)

	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}

	cmd := exec.Command("cat")
	cmd.Stdin = stdinR
	cmd.Stdout = stdoutW
	if err := cmd.Start(); err != nil {
		t.Fatalf("start cat: %v", err)
	}
	// The child holds its own copies now.
	stdinR.Close()
	stdoutW.Close()

	c, err := New(stdinW, stdoutR, nil, input)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()

	out, errOut, err := c.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !bytes.Equal(out, input) {
		t.Errorf("echoed %d bytes, want %d", len(out), len(input))
	}
	if errOut != nil {
		t.Errorf("unrequested stderr came back non-nil (%d bytes)", len(errOut))
	}
	if err := cmd.Wait(); err != nil {
		t.Errorf("cat exited with %v", err)
	}
}
