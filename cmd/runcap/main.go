package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/procwire/procwire/lib/comm"
	"github.com/procwire/procwire/lib/logger"
	"github.com/procwire/procwire/proc"
	"go.uber.org/zap"
)

var (
	configPath = flag.String("c", "", "path to a scenario YAML config")
	outDir     = flag.String("o", "", "directory to write captured streams into (stdout when empty)")
	sizeLimit  = flag.Int("size_limit", 0, "per-call byte quota for ad-hoc commands")
	timeLimit  = flag.Duration("time_limit", 0, "per-call time budget for ad-hoc commands")
	wantErr    = flag.Bool("stderr", false, "capture stderr for ad-hoc commands")
	input      = flag.String("input", "", "stdin payload for ad-hoc commands")
)

func main() {
	flag.Parse()
	logger.InitLogger()

	if *configPath != "" {
		runConfig(*configPath)
		return
	}

	if flag.NArg() == 0 {
		logger.Fatal("give a command to run, or -c with a scenario config")
	}
	runAdHoc(flag.Args())
}

// runConfig runs every scenario in the config file in order.
func runConfig(path string) {
	cfg, err := proc.ParseConfig(path)
	if err != nil {
		logger.Fatal("error parsing scenario config", zap.Error(err))
	}

	for _, sc := range cfg.Scenarios {
		result, err := proc.RunScenario(sc, nil)
		if err != nil {
			logger.Fatal("scenario failed", zap.String("scenario", sc.Name), zap.Error(err))
		}
		if err := writeResult(result); err != nil {
			logger.Fatal("error writing capture", zap.String("scenario", sc.Name), zap.Error(err))
		}
	}
}

// runAdHoc captures a single command given on the command line.
func runAdHoc(argv []string) {
	sc := proc.Scenario{
		Name:        "adhoc",
		Command:     argv,
		Input:       *input,
		Streams:     []string{"stdout"},
		SizeLimit:   *sizeLimit,
		TimeLimitMS: int(timeLimit.Milliseconds()),
	}
	if *wantErr {
		sc.Streams = append(sc.Streams, "stderr")
	}

	start := time.Now()
	result, err := proc.RunScenario(sc, nil)
	if err != nil {
		logger.Fatal("capture failed", zap.Error(err))
	}
	logger.Info("capture finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("calls", len(result.Samples)),
	)

	if err := writeResult(result); err != nil {
		logger.Fatal("error writing capture", zap.Error(err))
	}
	if result.ExitErr != nil {
		os.Exit(1)
	}
}

// writeResult writes captured streams to files under -o, or to the
// parent's own stdout/stderr when no directory was given.
func writeResult(result *proc.ScenarioResult) error {
	if *outDir == "" {
		if result.Stdout != nil {
			os.Stdout.Write(result.Stdout)
		}
		if result.Stderr != nil {
			os.Stderr.Write(result.Stderr)
		}
		return nil
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	for stream, data := range map[string][]byte{
		comm.Stdout.String(): result.Stdout,
		comm.Stderr.String(): result.Stderr,
	} {
		if data == nil {
			continue
		}
		path := filepath.Join(*outDir, fmt.Sprintf("%s.%s", result.Scenario, stream))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}
