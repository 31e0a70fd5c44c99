package db

import "testing"

func TestSamplePoint(t *testing.T) {
	point := samplePoint(SampleGroup{
		Series:    "echo",
		Timestamp: 42,
		Fields: []Field{
			{Name: "call", Value: "3"},
			{Name: "elapsed", Value: "1.5"},
			{Name: "timed_out", Value: "false"},
		},
	})

	if point.Name() != "echo" {
		t.Errorf("point name = %q, want %q", point.Name(), "echo")
	}
	if got := point.Time().UnixNano(); got != 42 {
		t.Errorf("point timestamp = %d, want 42", got)
	}

	fields := make(map[string]interface{})
	for _, f := range point.FieldList() {
		fields[f.Key] = f.Value
	}
	if v, ok := fields["call"].(float64); !ok || v != 3 {
		t.Errorf("call field = %#v, want float64(3)", fields["call"])
	}
	if v, ok := fields["elapsed"].(float64); !ok || v != 1.5 {
		t.Errorf("elapsed field = %#v, want float64(1.5)", fields["elapsed"])
	}
	if v, ok := fields["timed_out"].(string); !ok || v != "false" {
		t.Errorf("timed_out field = %#v, want the string fallback", fields["timed_out"])
	}
}

func TestCreateQuery(t *testing.T) {
	tests := []struct {
		name    string
		samples SampleGroup
		want    string
	}{
		{
			name: "single field",
			samples: SampleGroup{
				Series:    "echo",
				Timestamp: 1234,
				Fields:    []Field{{Name: "call", Value: "0"}},
			},
			want: "echo call=0 1234",
		},
		{
			name: "multiple fields",
			samples: SampleGroup{
				Series:    "quota",
				Timestamp: 42,
				Fields: []Field{
					{Name: "stdout_bytes", Value: "999"},
					{Name: "timed_out", Value: "false"},
				},
			},
			want: "quota stdout_bytes=999,timed_out=false 42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CreateQuery(tt.samples); got != tt.want {
				t.Errorf("CreateQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}
