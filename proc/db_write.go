package proc

import (
	"context"
	"strconv"
	"time"

	"github.com/procwire/procwire/lib/db"
	"github.com/procwire/procwire/lib/logger"
	"go.uber.org/zap"
)

// SampleWriter writes capture samples to the database.
// It reads samples from the channel and writes them until the channel
// closes or the context is cancelled.
func SampleWriter(ctx context.Context, handler db.Handler, channel chan Sample) {
	log := logger.Log().Named("database")
	log.Info("Started sample writer")

	for {
		select {
		case <-ctx.Done():
			log.Info("sample writer shutting down")
			return
		case sample, ok := <-channel:
			if !ok {
				return
			}
			if err := handler.Insert(sampleGroup(sample)); err != nil {
				log.Error("couldn't insert sample group", zap.Error(err))
			}
		}
	}
}

// sampleGroup converts a capture sample into a database sample group
func sampleGroup(sample Sample) db.SampleGroup {
	return db.SampleGroup{
		Series:    sample.Scenario,
		Timestamp: time.Now().UnixNano(),
		Fields: []db.Field{
			{Name: "call", Value: strconv.Itoa(sample.Call)},
			{Name: "stdout_bytes", Value: strconv.Itoa(sample.OutBytes)},
			{Name: "stderr_bytes", Value: strconv.Itoa(sample.ErrBytes)},
			{Name: "elapsed_ns", Value: strconv.FormatInt(sample.Elapsed.Nanoseconds(), 10)},
			{Name: "timed_out", Value: strconv.FormatBool(sample.TimedOut)},
		},
	}
}
