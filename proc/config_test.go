package proc

import (
	"testing"
)

func TestParseConfigBytes(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
	}{
		{
			name: "valid config",
			yaml: `
name: bench
scenarios:
  - name: echo
    command: ["cat"]
    input: "hello"
    streams: ["stdout"]
    size_limit: 1024
    time_limit_ms: 500
`,
			wantErr: false,
		},
		{
			name: "missing name",
			yaml: `
scenarios:
  - name: echo
    command: ["cat"]
`,
			wantErr: true,
		},
		{
			name:    "no scenarios",
			yaml:    `name: bench`,
			wantErr: true,
		},
		{
			name: "scenario missing name",
			yaml: `
name: bench
scenarios:
  - command: ["cat"]
`,
			wantErr: true,
		},
		{
			name: "scenario missing command",
			yaml: `
name: bench
scenarios:
  - name: echo
`,
			wantErr: true,
		},
		{
			name: "bad stream name",
			yaml: `
name: bench
scenarios:
  - name: echo
    command: ["cat"]
    streams: ["stdlog"]
`,
			wantErr: true,
		},
		{
			name: "negative size limit",
			yaml: `
name: bench
scenarios:
  - name: echo
    command: ["cat"]
    size_limit: -1
`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			_, err := ParseConfigBytes([]byte(tt.yaml))
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseConfigBytes() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseConfigDefaultsStreams(t *testing.T) {
	ResetConfig()
	cfg, err := ParseConfigBytes([]byte(`
name: bench
scenarios:
  - name: echo
    command: ["cat"]
`))
	if err != nil {
		t.Fatalf("ParseConfigBytes() error = %v", err)
	}

	sc := cfg.Scenarios[0]
	if !sc.WantsStream("stdout") {
		t.Error("expected stdout capture by default")
	}
	if sc.WantsStream("stderr") {
		t.Error("did not expect stderr capture by default")
	}
}
