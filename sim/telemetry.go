// Telemetry boundary. The incident machine pushes one flat Record per solve,
// after classification, so downstream consumers see records in solve order.
// Emitter implementations live outside this package (sim/influx) or are the
// trivial ones below.

package sim

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Record is one telemetry emission. It is flat on purpose: the time-series
// store indexes tags and fields, not nested structures.
type Record struct {
	IncidentID     string
	Timestamp      time.Time
	RevisionNumber int64
	Converged      bool
	Classification Classification
	BusVoltages    map[string]float64 // nil on a diverged solve
	MinVoltagePU   float64
	TotalLoadMW    float64
	GenerationMW   float64
}

// Emitter receives telemetry records. Emit must not block the tick loop for
// long and must not fail it: implementations swallow and log their own errors.
type Emitter interface {
	Emit(rec Record)
}

// NopEmitter discards all records.
type NopEmitter struct{}

func (NopEmitter) Emit(Record) {}

// LogEmitter writes each record as a structured log line.
type LogEmitter struct{}

func (LogEmitter) Emit(rec Record) {
	logrus.WithFields(logrus.Fields{
		"incident":       rec.IncidentID,
		"revision":       rec.RevisionNumber,
		"converged":      rec.Converged,
		"classification": rec.Classification,
		"min_voltage":    rec.MinVoltagePU,
		"total_load_mw":  rec.TotalLoadMW,
		"generation_mw":  rec.GenerationMW,
	}).Info("telemetry")
}

// MultiEmitter fans one record out to several sinks in order.
type MultiEmitter []Emitter

func (m MultiEmitter) Emit(rec Record) {
	for _, e := range m {
		e.Emit(rec)
	}
}
