package proc

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Scenario describes one child process capture run
type Scenario struct {
	Name        string   `yaml:"name"`          // Name of the scenario
	Command     []string `yaml:"command"`       // Child argv, Command[0] is the executable
	Input       string   `yaml:"input"`         // Literal stdin payload
	InputSize   int      `yaml:"input_size"`    // Generated stdin payload size, ignored if Input is set
	Streams     []string `yaml:"streams"`       // Captured streams, "stdout" and/or "stderr"
	SizeLimit   int      `yaml:"size_limit"`    // Per-call byte quota, 0 means unlimited
	TimeLimitMS int      `yaml:"time_limit_ms"` // Per-call time budget in ms, 0 means unlimited
}

// Configuration is a struct that holds the capture scenario configuration
type Configuration struct {
	Name      string     `yaml:"name"`      // Name of the configuration
	Scenarios []Scenario `yaml:"scenarios"` // List of capture scenarios
}

var ProcwireConfig Configuration // TODO: Make global safer

// ResetConfig resets the global configuration
func ResetConfig() {
	ProcwireConfig = Configuration{}
}

// ParseConfig parses a YAML configuration file and returns a Configuration struct
func ParseConfig(filename string) (*Configuration, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading YAML file: %v", err)
	}
	return ParseConfigBytes(data)
}

// ParseConfigBytes parses a YAML formatted byte slice and returns a Configuration struct
func ParseConfigBytes(data []byte) (*Configuration, error) {
	// Unmarshalling doesn't seem to lead to errors with bad data. Better to check result config
	_ = yaml.Unmarshal(data, &ProcwireConfig)
	if ProcwireConfig.Name == "" {
		return nil, fmt.Errorf("no configuration name provided")
	}

	if len(ProcwireConfig.Scenarios) == 0 {
		return nil, fmt.Errorf("no scenarios found in configuration")
	}

	for i := range ProcwireConfig.Scenarios {
		sc := &ProcwireConfig.Scenarios[i]
		if sc.Name == "" {
			return nil, fmt.Errorf("scenario name missing in configuration")
		}

		if len(sc.Command) == 0 {
			return nil, fmt.Errorf("scenario %s has no command", sc.Name)
		}

		if len(sc.Streams) == 0 {
			sc.Streams = []string{"stdout"} // Default to stdout capture
		}
		for _, stream := range sc.Streams {
			if stream != "stdout" && stream != "stderr" {
				return nil, fmt.Errorf("scenario %s requests stream %s, instead of stdout or stderr", sc.Name, stream)
			}
		}

		if sc.SizeLimit < 0 {
			return nil, fmt.Errorf("scenario %s has negative size_limit", sc.Name)
		}
		if sc.TimeLimitMS < 0 {
			return nil, fmt.Errorf("scenario %s has negative time_limit_ms", sc.Name)
		}
	}

	return &ProcwireConfig, nil
}

// WantsStream reports whether the scenario captures the named stream
func (sc Scenario) WantsStream(name string) bool {
	for _, stream := range sc.Streams {
		if stream == name {
			return true
		}
	}
	return false
}
