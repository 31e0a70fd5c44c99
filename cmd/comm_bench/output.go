package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"
)

type BenchOutput struct {
	Runtime       time.Duration
	TotalBytes    uint64
	TotalCalls    uint64
	TotalTimeouts uint64
	Scenarios     []ScenarioOutput
}

type ScenarioOutput struct {
	Name        string
	Iterations  int
	Calls       uint64
	Bytes       uint64
	Timeouts    uint64
	MeanCallDur time.Duration
}

type outputFormatType int

const (
	outputFormatTypePrettyPrint outputFormatType = iota
	outputFormatTypeJSON
	outputFormatTypeTemplate
)

type outputFormatFlagValue struct {
	formatType     outputFormatType
	templateString *string
	template       *template.Template
}

func (f *outputFormatFlagValue) String() string {
	switch f.formatType {
	case outputFormatTypeJSON:
		return "json"
	case outputFormatTypeTemplate:
		return fmt.Sprintf("template: %s", *f.templateString)
	case outputFormatTypePrettyPrint:
		return "pretty print"
	default:
		return "invalid output format"
	}
}

func (f *outputFormatFlagValue) Set(s string) error {
	if s == "json" {
		f.formatType = outputFormatTypeJSON
		return nil
	} else {
		tmpl, err := template.New("output_format").Parse(s)
		if err != nil {
			return fmt.Errorf("couldn't parse output format as template: %w", err)
		}
		f.template = tmpl
		f.templateString = &s
		f.formatType = outputFormatTypeTemplate
		return nil
	}
}

func (o *BenchOutput) PrettyPrint() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total runtime: %s\n", o.Runtime))
	sb.WriteString(fmt.Sprintf("Total bytes captured: %d (%.0f/s)\n", o.TotalBytes, float64(o.TotalBytes)/o.Runtime.Seconds()))
	sb.WriteString(fmt.Sprintf("Total read calls: %d (timeouts: %d)\n", o.TotalCalls, o.TotalTimeouts))
	for _, s := range o.Scenarios {
		sb.WriteString(fmt.Sprintf("[%s] (%d iterations):\n", s.Name, s.Iterations))
		sb.WriteString(fmt.Sprintf("\t[%s] Bytes captured: %d\n", s.Name, s.Bytes))
		sb.WriteString(fmt.Sprintf("\t[%s] Read calls: %d (timeouts: %d)\n", s.Name, s.Calls, s.Timeouts))
		sb.WriteString(fmt.Sprintf("\t[%s] Mean call duration: %s\n", s.Name, s.MeanCallDur))
	}
	return sb.String()
}

func (o *BenchOutput) JSON() (string, error) {
	prettyJson, err := json.MarshalIndent(o, "", "\t")
	if err != nil {
		return "", fmt.Errorf("generating json output: %w", err)
	}

	return string(prettyJson), nil
}

func (o *BenchOutput) Template(tmpl *template.Template) (string, error) {
	var buf bytes.Buffer
	err := tmpl.Execute(&buf, o)
	if err != nil {
		return "", fmt.Errorf("generating template output: %w", err)
	}
	return buf.String(), nil
}

func (f *outputFormatFlagValue) GenerateBenchOutput(output BenchOutput) (string, error) {
	switch f.formatType {
	case outputFormatTypeJSON:
		return output.JSON()
	case outputFormatTypePrettyPrint:
		return output.PrettyPrint(), nil
	case outputFormatTypeTemplate:
		return output.Template(f.template)
	default:
		return "", fmt.Errorf("unexpected outputFormatType: %#v", f.formatType)
	}
}
