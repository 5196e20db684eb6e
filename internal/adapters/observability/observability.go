// Package observability implements ports.Observability over slog and
// Prometheus. Log output goes through a tint handler for readable
// terminal sessions; metrics are registered once per instance.
package observability

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hsfl/aeris-sees-software/internal/ports"
)

// Metric names emitted by the pipeline.
const (
	MetricSamplesTotal        = "sees_samples_total"
	MetricBytesTotal          = "sees_bytes_total"
	MetricUnrecognizedTotal   = "sees_lines_unrecognized_total"
	MetricCorruptTotal        = "sees_lines_corrupt_total"
	MetricSnapshotsTotal      = "sees_snapshots_total"
	MetricSnapshotsEmptyTotal = "sees_snapshots_empty_total"
	MetricSnapAnomaliesTotal  = "sees_snap_anomalies_total"
	MetricArchiveDroppedTotal = "sees_archive_dropped_total"
	MetricRetentionSamples    = "sees_retention_samples"
	MetricRetentionSpanMs     = "sees_retention_span_ms"
	MetricPendingSnaps        = "sees_pending_snapshots"
	MetricSnapshotWriteSecs   = "sees_snapshot_write_seconds"
	MetricArchiveFlushSecs    = "sees_archive_flush_seconds"
)

// Obs is the concrete observability backend.
type Obs struct {
	log      *slog.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

// New builds an Obs logging to w (stderr when nil) and registering its
// metrics on reg. A nil reg skips metric registration entirely, which
// keeps repeated construction in tests panic-free.
func New(w io.Writer, reg prometheus.Registerer) *Obs {
	if w == nil {
		w = os.Stderr
	}
	o := &Obs{
		log: slog.New(tint.NewHandler(w, &tint.Options{
			Level:      slog.LevelInfo,
			TimeFormat: time.TimeOnly,
		})),
		counters: make(map[string]prometheus.Counter),
		gauges:   make(map[string]prometheus.Gauge),
		histos:   make(map[string]prometheus.Observer),
	}

	counterHelp := map[string]string{
		MetricSamplesTotal:        "Samples accepted onto the live stream.",
		MetricBytesTotal:          "Raw bytes received from the transport.",
		MetricUnrecognizedTotal:   "Lines that matched no classification rule.",
		MetricCorruptTotal:        "Data-like lines suppressed by the corruption heuristic.",
		MetricSnapshotsTotal:      "Completed snapshot records persisted.",
		MetricSnapshotsEmptyTotal: "Device windows that closed without samples.",
		MetricSnapAnomaliesTotal:  "Snapshot protocol anomalies (nested starts, stray markers).",
		MetricArchiveDroppedTotal: "Samples dropped by archive backpressure policy.",
	}
	for name, help := range counterHelp {
		o.counters[name] = prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
	}

	gaugeHelp := map[string]string{
		MetricRetentionSamples: "Samples currently held in the retention buffer.",
		MetricRetentionSpanMs:  "Stream time covered by the retention buffer, in ms.",
		MetricPendingSnaps:     "Snapshot requests currently in flight.",
	}
	for name, help := range gaugeHelp {
		o.gauges[name] = prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
	}

	histoHelp := map[string]string{
		MetricSnapshotWriteSecs: "Time to persist one snapshot record.",
		MetricArchiveFlushSecs:  "Time to flush one archive batch.",
	}
	for name, help := range histoHelp {
		h := prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    name,
			Help:    help,
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		})
		o.histos[name] = h
	}

	if reg != nil {
		for _, c := range o.counters {
			reg.MustRegister(c)
		}
		for _, g := range o.gauges {
			reg.MustRegister(g)
		}
		for _, h := range o.histos {
			reg.MustRegister(h.(prometheus.Histogram))
		}
	}
	return o
}

// Nop returns an Obs that discards logs and registers no metrics.
func Nop() *Obs {
	return New(io.Discard, nil)
}

func (o *Obs) LogInfo(msg string, fields ...ports.Field) {
	o.log.Info(msg, attrs(fields)...)
}

func (o *Obs) LogWarn(msg string, fields ...ports.Field) {
	o.log.Warn(msg, attrs(fields)...)
}

func (o *Obs) LogError(msg string, err error, fields ...ports.Field) {
	o.log.Error(msg, append(attrs(fields), tint.Err(err))...)
}

func (o *Obs) LogCritical(msg string, err error, fields ...ports.Field) {
	o.log.Error("CRITICAL: "+msg, append(attrs(fields), tint.Err(err))...)
}

func (o *Obs) IncCounter(name string, v float64) {
	if c, ok := o.counters[name]; ok {
		c.Add(v)
	}
}

func (o *Obs) ObserveLatency(name string, seconds float64) {
	if h, ok := o.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (o *Obs) SetGauge(name string, v float64) {
	if g, ok := o.gauges[name]; ok {
		g.Set(v)
	}
}

func attrs(fields []ports.Field) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}

var _ ports.Observability = (*Obs)(nil)
