package proc

import (
	"errors"
	"fmt"
	"time"

	"github.com/procwire/procwire/lib/comm"
	"github.com/procwire/procwire/lib/logger"
	"go.uber.org/zap"
)

// Sample records one Read call against a scenario's child process
type Sample struct {
	Scenario string
	Call     int
	OutBytes int
	ErrBytes int
	Elapsed  time.Duration
	TimedOut bool
}

// ScenarioResult is the full capture produced by one scenario run
type ScenarioResult struct {
	Scenario string
	Samples  []Sample
	Stdout   []byte
	Stderr   []byte
	ExitErr  error // non-nil when the child exited non-zero
}

// RunScenario launches the scenario's child process and drains it with
// repeated Read calls until capture is complete, recording one sample
// per call. A time-budget expiry is recorded and the read retried; any
// other capture error aborts the run. onSample, if non-nil, is invoked
// for every sample as it is taken.
func RunScenario(sc Scenario, onSample func(Sample)) (*ScenarioResult, error) {
	log := logger.Log().Named("runner").With(zap.String("scenario", sc.Name))

	input := scenarioInput(sc)
	child, err := StartChild(sc.Command, input, sc.WantsStream("stdout"), sc.WantsStream("stderr"))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	if sc.SizeLimit > 0 {
		child.Comm.SetSizeLimit(sc.SizeLimit)
	}
	if sc.TimeLimitMS > 0 {
		child.Comm.SetTimeLimit(time.Duration(sc.TimeLimitMS) * time.Millisecond)
	}

	result := &ScenarioResult{Scenario: sc.Name}
	log.Info("starting capture",
		zap.Strings("command", sc.Command),
		zap.Int("inputBytes", len(input)),
		zap.Int("sizeLimit", sc.SizeLimit),
		zap.Int("timeLimitMs", sc.TimeLimitMS),
	)

	for call := 0; !child.Comm.Done(); call++ {
		start := time.Now()
		out, errOut, err := child.Comm.Read()

		sample := Sample{
			Scenario: sc.Name,
			Call:     call,
			OutBytes: len(out),
			ErrBytes: len(errOut),
			Elapsed:  time.Since(start),
			TimedOut: errors.Is(err, comm.ErrTimeout),
		}
		result.Stdout = append(result.Stdout, out...)
		result.Stderr = append(result.Stderr, errOut...)
		result.Samples = append(result.Samples, sample)
		if onSample != nil {
			onSample(sample)
		}

		if err != nil && !errors.Is(err, comm.ErrTimeout) {
			log.Error("capture failed", zap.Int("call", call), zap.Error(err))
			child.Wait()
			return result, fmt.Errorf("scenario %s read %d: %w", sc.Name, call, err)
		}
	}

	if err := child.Wait(); err != nil {
		result.ExitErr = err
		log.Warn("child exited with error", zap.Error(err))
	}

	log.Info("capture complete",
		zap.Int("calls", len(result.Samples)),
		zap.Int("stdoutBytes", len(result.Stdout)),
		zap.Int("stderrBytes", len(result.Stderr)),
	)
	return result, nil
}

// scenarioInput builds the stdin payload for a scenario. A literal
// Input wins over InputSize; with neither set, stdin is not attached.
func scenarioInput(sc Scenario) []byte {
	if sc.Input != "" {
		return []byte(sc.Input)
	}
	if sc.InputSize > 0 {
		buf := make([]byte, sc.InputSize)
		for i := range buf {
			buf[i] = byte('a' + i%26)
		}
		return buf
	}
	return nil
}
