package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"net/http"
	_ "net/http/pprof"

	"github.com/joho/godotenv"
	"github.com/procwire/procwire/lib/db"
	"github.com/procwire/procwire/proc"
)

var (
	configPath  = flag.String("c", "data/config/bench.yaml", "path to the scenario config")
	iterations  = flag.Int("n", 1, "iterations per scenario")
	profilePort = flag.Int("pprof", 0, "run pprof at a port")
	influxMode  = flag.String("influx", "", "stream samples to influx: v1 (udp) or v2 (http)")
	influxHost  = flag.String("influx_host", "localhost", "influx host")
	influxPort  = flag.Int("influx_port", 8089, "influx port")
)

func initProfiling(pprofPort int) {
	go func() {
		log.Printf("Running pprof server at localhost:%d", pprofPort)
		err := http.ListenAndServe(fmt.Sprintf("localhost:%d", pprofPort), nil)
		if err != nil {
			log.Fatalf("Error starting pprof server: %v", err)
		}
	}()
}

func main() {
	var outputFormat outputFormatFlagValue
	flag.Var(&outputFormat, "format", "output format: json, a text/template string, or unset for pretty print")
	flag.Parse()

	cfg, err := proc.ParseConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	if *profilePort != 0 {
		initProfiling(*profilePort)
	}

	sampleChan, flushSamples := initSampleSink()

	start := time.Now()
	output := BenchOutput{}

	for _, sc := range cfg.Scenarios {
		scOut, err := runScenarioIterations(sc, *iterations, sampleChan)
		if err != nil {
			log.Fatalf("scenario %s: %v", sc.Name, err)
		}

		output.Scenarios = append(output.Scenarios, scOut)
		output.TotalBytes += scOut.Bytes
		output.TotalCalls += scOut.Calls
		output.TotalTimeouts += scOut.Timeouts
	}
	output.Runtime = time.Since(start)
	flushSamples()

	text, err := outputFormat.GenerateBenchOutput(output)
	if err != nil {
		log.Fatalf("Error generating output: %v", err)
	}
	fmt.Print(text)
}

// runScenarioIterations runs one scenario n times and aggregates its samples.
func runScenarioIterations(sc proc.Scenario, n int, sampleChan chan proc.Sample) (ScenarioOutput, error) {
	scOut := ScenarioOutput{Name: sc.Name, Iterations: n}

	var totalDur time.Duration
	onSample := func(s proc.Sample) {
		scOut.Calls++
		scOut.Bytes += uint64(s.OutBytes + s.ErrBytes)
		totalDur += s.Elapsed
		if s.TimedOut {
			scOut.Timeouts++
		}
		if sampleChan != nil {
			sampleChan <- s
		}
	}

	for i := 0; i < n; i++ {
		if _, err := proc.RunScenario(sc, onSample); err != nil {
			return scOut, fmt.Errorf("iteration %d: %w", i, err)
		}
	}

	if scOut.Calls > 0 {
		scOut.MeanCallDur = totalDur / time.Duration(scOut.Calls)
	}
	return scOut, nil
}

// initSampleSink sets up the influx sample writer when -influx is given.
// Returns the channel to feed (nil when disabled) and a flush func.
func initSampleSink() (chan proc.Sample, func()) {
	if *influxMode == "" {
		return nil, func() {}
	}

	var handler db.Handler
	switch *influxMode {
	case "v1":
		handler = &db.InfluxDBV1Handler{}
		if err := handler.Initialize(*influxHost, *influxPort); err != nil {
			log.Fatalf("Error initializing influx v1: %v", err)
		}
	case "v2":
		if err := godotenv.Load(); err != nil {
			log.Printf("Error reading .env file: %v", err)
			// Program can continue if env variable was set elsewhere
		}
		v2 := &db.InfluxDBV2Handler{}
		err := v2.InitializeWithConfig(db.Config{
			URL:    fmt.Sprintf("http://%s:%d", *influxHost, *influxPort),
			Token:  os.Getenv("INFLUXDB_TOKEN"),
			Org:    "procwire",
			Bucket: "procwire",
		})
		if err != nil {
			log.Fatalf("Error initializing influx v2: %v", err)
		}
		handler = v2
	default:
		log.Fatalf("unknown influx mode %q, use v1 or v2", *influxMode)
	}

	sampleChan := make(chan proc.Sample, 256)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		proc.SampleWriter(ctx, handler, sampleChan)
		close(done)
	}()

	return sampleChan, func() {
		close(sampleChan)
		<-done
		cancel()
		if err := handler.Close(); err != nil {
			log.Printf("Error closing influx handler: %v", err)
		}
	}
}
