// Package ingest runs the session's main loop: poll the transport,
// assemble frames, classify them, and fan accepted samples out to the
// retention buffer, the sinks, and the snapshot coordinator. The loop
// is single threaded; every stage is called inline so no ordering is
// lost between classification and capture.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hsfl/aeris-sees-software/internal/classify"
	"github.com/hsfl/aeris-sees-software/internal/frame"
	"github.com/hsfl/aeris-sees-software/internal/ports"
	"github.com/hsfl/aeris-sees-software/internal/retention"
)

type Loop struct {
	tr    ports.Transport
	raw   ports.RawLog
	sinks []ports.StreamSink
	coord ports.Coordinator
	buf   *retention.Buffer
	obs   ports.Observability
	pol   ports.Policy

	asm      *frame.Assembler
	commands chan string
	now      func() time.Time

	samples int64
}

// New wires a loop and flushes whatever the transport buffered before
// the session existed (connection garbage, a stale stream). Anything
// queued after New returns is session data and is kept for Run.
func New(tr ports.Transport, raw ports.RawLog, sinks []ports.StreamSink, coord ports.Coordinator, buf *retention.Buffer, pol ports.Policy, obs ports.Observability) *Loop {
	if err := tr.DiscardPending(); err != nil {
		obs.LogWarn("discard of pre-session bytes failed",
			ports.Field{Key: "error", Value: err.Error()})
	}
	return &Loop{
		tr:       tr,
		raw:      raw,
		sinks:    sinks,
		coord:    coord,
		buf:      buf,
		obs:      obs,
		pol:      pol,
		asm:      frame.NewAssembler(),
		commands: make(chan string, 16),
		now:      time.Now,
	}
}

// Command queues a console command for delivery to the device. Carriage
// returns are rewritten to newlines, which is what the firmware's
// line reader expects.
func (l *Loop) Command(cmd string) error {
	cmd = strings.ReplaceAll(cmd, "\r", "\n")
	if !strings.HasSuffix(cmd, "\n") {
		cmd += "\n"
	}
	select {
	case l.commands <- cmd:
		return nil
	default:
		return fmt.Errorf("command queue full")
	}
}

// Run polls until ctx is cancelled or the transport fails. Cancellation
// is a clean exit; a transport error is returned to the caller.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-l.commands:
			if _, err := l.tr.Write([]byte(cmd)); err != nil {
				l.obs.LogError("command_write_failed", err)
			}
		default:
		}

		if l.tr.Available() == 0 {
			time.Sleep(l.pol.IdleSleep)
			continue
		}

		chunk, err := l.tr.ReadAvailable()
		if err != nil {
			l.obs.LogError("transport_read_failed", err)
			return err
		}
		if len(chunk) == 0 {
			continue
		}

		l.obs.IncCounter("sees_bytes_total", float64(len(chunk)))
		if err := l.raw.WriteRaw(chunk); err != nil {
			l.obs.LogError("raw_log_write_failed", err)
		}

		for _, line := range l.asm.Feed(chunk) {
			l.handleLine(line)
		}

		l.coord.Tick(l.buf.Latest())
		l.obs.SetGauge("sees_retention_samples", float64(l.buf.Len()))
		l.obs.SetGauge("sees_retention_span_ms", l.buf.SpanMs())
		l.obs.SetGauge("sees_pending_snapshots", float64(l.coord.PendingCount()))
	}
}

// SampleCount reports accepted samples, including those consumed by a
// device-relayed snapshot window.
func (l *Loop) SampleCount() int64 { return l.samples }

func (l *Loop) handleLine(line string) {
	msg := classify.Line(line)
	switch msg.Kind {
	case classify.KindSample:
		l.samples++
		l.obs.IncCounter("sees_samples_total", 1)
		if l.coord.HandleSample(msg.Sample) {
			return
		}
		l.buf.Insert(msg.Sample)
		for _, sink := range l.sinks {
			if err := sink.Append(msg.Sample); err != nil {
				l.obs.LogError("stream_sink_failed", err,
					ports.Field{Key: "sink", Value: sink.Name()})
			}
		}

	case classify.KindSnapAck:
		l.obs.LogInfo("snap trigger acknowledged")
		l.coord.HandleControl(ports.ControlSnapAck, l.now())

	case classify.KindSnapStart:
		l.coord.HandleControl(ports.ControlSnapStart, l.now())

	case classify.KindSnapEnd:
		l.coord.HandleControl(ports.ControlSnapEnd, l.now())

	case classify.KindStatus:
		l.obs.LogInfo("device status", ports.Field{Key: "text", Value: msg.Text})

	case classify.KindHeaderEcho:
		// The firmware reprints the column header on stream restart.
		l.obs.LogInfo("stream header", ports.Field{Key: "text", Value: msg.Text})

	default:
		if strings.TrimSpace(msg.Raw) == "" {
			return
		}
		if classify.LooksLikeCorruptedData(msg.Raw) {
			l.obs.IncCounter("sees_lines_corrupt_total", 1)
			l.obs.LogWarn("corrupted data line dropped", ports.Field{Key: "raw", Value: msg.Raw})
			return
		}
		l.obs.IncCounter("sees_lines_unrecognized_total", 1)
		l.obs.LogWarn("unrecognized line", ports.Field{Key: "raw", Value: msg.Raw})
	}
}
