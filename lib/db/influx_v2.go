package db

import (
	"context"
	"fmt"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/procwire/procwire/lib/logger"
	"go.uber.org/zap"
)

// InfluxDBV2Handler is a BatchHandler implementation for InfluxDB v2
type InfluxDBV2Handler struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	org      string
	bucket   string
	cfg      Config
}

// Initialize satisfies the Handler interface using host/port only so
// for V2 you most likely want InitializeWithConfig instead.
func (handler *InfluxDBV2Handler) Initialize(host string, port int) error {
	return handler.InitializeWithConfig(Config{
		URL:           fmt.Sprintf("http://%s:%d", host, port),
		Token:         "",
		Org:           "procwire",
		Bucket:        "procwire",
		BatchSize:     100,
		FlushInterval: 1000,
		Precision:     "ns",
	})
}

// InitializeWithConfig sets up the InfluxDB v2 client with full config
func (handler *InfluxDBV2Handler) InitializeWithConfig(cfg Config) error {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = 1000
	}
	if cfg.Precision == "" {
		cfg.Precision = "ns"
	}

	handler.cfg = cfg
	handler.org = cfg.Org
	handler.bucket = cfg.Bucket

	options := influxdb2.DefaultOptions().
		SetBatchSize(cfg.BatchSize).
		SetFlushInterval(cfg.FlushInterval)

	handler.client = influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, options)
	handler.writeAPI = handler.client.WriteAPI(cfg.Org, cfg.Bucket)

	go func() {
		for err := range handler.writeAPI.Errors() {
			logger.Error("InfluxDB V2 async write error", zap.Error(err))
		}
	}()

	logger.Info("InfluxDB V2 client initialized",
		zap.String("url", cfg.URL),
		zap.String("org", cfg.Org),
		zap.String("bucket", cfg.Bucket),
		zap.Uint("batchSize", cfg.BatchSize),
		zap.Uint("flushInterval", cfg.FlushInterval),
	)
	return nil
}

// CreateQuery generates InfluxDB line protocol for a SampleGroup.
// Reuses the same logic as V1 for consistency.
func (handler *InfluxDBV2Handler) CreateQuery(samples SampleGroup) string {
	return CreateQuery(samples)
}

// Insert writes a SampleGroup to InfluxDB v2 as a single point.
// The write is buffered and flushed based on batch size and flush interval.
func (handler *InfluxDBV2Handler) Insert(samples SampleGroup) error {
	handler.writeAPI.WritePoint(samplePoint(samples))
	return nil
}

// InsertBatch writes multiple SampleGroups in one shot and flushes.
func (handler *InfluxDBV2Handler) InsertBatch(batch []SampleGroup) error {
	for _, samples := range batch {
		if err := handler.Insert(samples); err != nil {
			return err
		}
	}
	return handler.Flush()
}

// Flush forces all buffered points to be sent immediately.
func (handler *InfluxDBV2Handler) Flush() error {
	handler.writeAPI.Flush()
	return nil
}

// Close flushes pending writes and closes the client.
func (handler *InfluxDBV2Handler) Close() error {
	handler.writeAPI.Flush()
	handler.client.Close()
	return nil
}

// BlockingInsert writes a point using the blocking write API.
func (handler *InfluxDBV2Handler) BlockingInsert(ctx context.Context, samples SampleGroup) error {
	blockingAPI := handler.client.WriteAPIBlocking(handler.org, handler.bucket)
	return blockingAPI.WritePoint(ctx, samplePoint(samples))
}

func samplePoint(samples SampleGroup) *write.Point {
	point := influxdb2.NewPointWithMeasurement(samples.Series)

	var ts time.Time
	if samples.Timestamp != 0 {
		ts = time.Unix(0, samples.Timestamp)
	} else {
		ts = time.Now()
	}
	point.SetTime(ts)

	for _, f := range samples.Fields {
		// Try numeric first; fall back to string field.
		if floatVal, err := strconv.ParseFloat(f.Value, 64); err == nil {
			point.AddField(f.Name, floatVal)
		} else if intVal, err := strconv.ParseInt(f.Value, 10, 64); err == nil {
			point.AddField(f.Name, intVal)
		} else {
			point.AddField(f.Name, f.Value)
		}
	}

	return point
}

// Ensure InfluxDBV2Handler satisfies BatchHandler at compile time.
var _ BatchHandler = (*InfluxDBV2Handler)(nil)
