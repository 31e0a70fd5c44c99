package proc

import (
	"bytes"
	"os/exec"
	"testing"
)

func TestRunScenarioEcho(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}

	sc := Scenario{
		Name:      "echo",
		Command:   []string{"cat"},
		InputSize: 100_000,
		Streams:   []string{"stdout"},
	}

	var samples []Sample
	result, err := RunScenario(sc, func(s Sample) { samples = append(samples, s) })
	if err != nil {
		t.Fatalf("RunScenario() error = %v", err)
	}

	want := scenarioInput(sc)
	if !bytes.Equal(result.Stdout, want) {
		t.Errorf("stdout capture mismatch: got %d bytes, want %d", len(result.Stdout), len(want))
	}
	if result.Stderr != nil {
		t.Errorf("expected nil stderr for unrequested stream, got %d bytes", len(result.Stderr))
	}
	if result.ExitErr != nil {
		t.Errorf("child exited with error: %v", result.ExitErr)
	}
	if len(samples) != len(result.Samples) {
		t.Errorf("callback saw %d samples, result holds %d", len(samples), len(result.Samples))
	}
}

func TestRunScenarioQuota(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}

	sc := Scenario{
		Name:      "quota",
		Command:   []string{"cat"},
		InputSize: 10_000,
		Streams:   []string{"stdout"},
		SizeLimit: 999,
	}

	result, err := RunScenario(sc, nil)
	if err != nil {
		t.Fatalf("RunScenario() error = %v", err)
	}

	if len(result.Stdout) != sc.InputSize {
		t.Errorf("stdout capture = %d bytes, want %d", len(result.Stdout), sc.InputSize)
	}
	for _, s := range result.Samples {
		if s.OutBytes+s.ErrBytes > sc.SizeLimit {
			t.Errorf("call %d returned %d bytes, over the %d quota", s.Call, s.OutBytes+s.ErrBytes, sc.SizeLimit)
		}
	}
	if len(result.Samples) < sc.InputSize/sc.SizeLimit {
		t.Errorf("only %d calls for %d bytes at quota %d", len(result.Samples), sc.InputSize, sc.SizeLimit)
	}
}
