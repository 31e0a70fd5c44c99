package db

import "fmt"

// Handler is an interface for database access implementations
type Handler interface {
	Initialize(host string, port int) error
	Insert(samples SampleGroup) error
	CreateQuery(samples SampleGroup) string
	Close() error
}

// BatchHandler extends Handler with batch write support
type BatchHandler interface {
	Handler
	Flush() error
}

// Config holds all configuration needed to initialize any Handler
// V1 only uses Host/Port. V2 requires URL, Token, Org, Bucket.
type Config struct {
	// V1
	Host string
	Port int

	// V2
	URL    string
	Token  string
	Org    string
	Bucket string

	// Batching (V2 only)
	BatchSize     uint   // Points to buffer before flushing
	FlushInterval uint   // Max ms before flushing partial batch
	Precision     string // "ns", "us", "ms", "s"
}

// SampleGroup is a group of capture samples to be sent to the database.
// One group corresponds to one Read call against a child process.
type SampleGroup struct {
	Series    string
	Timestamp int64
	Fields    []Field
}

// Field is a single named value within a sample
type Field struct {
	Name  string
	Value string
}

// CreateQuery generates InfluxDB line protocol for a SampleGroup.
// Shared by the V1 and V2 handlers so both speak the same dialect.
func CreateQuery(samples SampleGroup) string {
	query := samples.Series + " "

	for _, field := range samples.Fields {
		query += fmt.Sprintf("%s=%s,", field.Name, field.Value)
	}

	// Don't check if string is empty. We expect the Series and the fields to be non-empty.
	query = query[:len(query)-1]

	query += fmt.Sprintf(" %d", samples.Timestamp)
	return query
}
