package snapshot

import (
	"time"

	"github.com/hsfl/aeris-sees-software/internal/domain"
	"github.com/hsfl/aeris-sees-software/internal/ports"
	"github.com/hsfl/aeris-sees-software/internal/retention"
)

// request is one in-flight host-mode snapshot.
type request struct {
	seq       int
	triggerMs float64
	at        time.Time
}

// HostCoordinator implements the two-phase host-computed window: a
// trigger opens a pending request, and extraction is deferred until the
// stream clock has advanced past trigger+halfWidth, because the
// post-trigger half of the window has not arrived yet. Multiple
// requests may be pending at once; ties complete in creation order.
//
// Correctness requires the retention duration to exceed the half-width
// so pre-trigger data is still resident. Config validation enforces
// that precondition before a coordinator is ever built.
type HostCoordinator struct {
	buf        *retention.Buffer
	halfMs     float64
	sink       ports.SnapshotSink
	obs        ports.Observability
	maxPending int

	pending []request
	nextSeq int
}

// NewHostCoordinator builds a host-mode coordinator extracting
// ±halfMs windows from buf. maxPending <= 0 means unbounded.
func NewHostCoordinator(buf *retention.Buffer, halfMs float64, sink ports.SnapshotSink, obs ports.Observability, maxPending int) *HostCoordinator {
	return &HostCoordinator{
		buf:        buf,
		halfMs:     halfMs,
		sink:       sink,
		obs:        obs,
		maxPending: maxPending,
		nextSeq:    1,
	}
}

func (c *HostCoordinator) HandleControl(ev ports.ControlEvent, at time.Time) {
	switch ev {
	case ports.ControlSnapAck:
		if c.maxPending > 0 && len(c.pending) >= c.maxPending {
			c.obs.LogWarn("snapshot trigger dropped: pending cap reached",
				ports.Field{Key: "pending", Value: len(c.pending)})
			c.obs.IncCounter("sees_snap_anomalies_total", 1)
			return
		}
		req := request{seq: c.nextSeq, triggerMs: c.buf.Latest(), at: at}
		c.nextSeq++
		c.pending = append(c.pending, req)
		c.obs.LogInfo("snapshot trigger accepted",
			ports.Field{Key: "seq", Value: req.seq},
			ports.Field{Key: "trigger_ms", Value: req.triggerMs})
	case ports.ControlSnapStart, ports.ControlSnapEnd:
		// Window markers belong to relay-mode firmware. Seeing one here
		// means the configured mode does not match the device.
		c.obs.LogWarn("unexpected window marker in host mode",
			ports.Field{Key: "event", Value: ev.String()})
		c.obs.IncCounter("sees_snap_anomalies_total", 1)
	}
}

// HandleSample never consumes: host mode reads the retention buffer,
// so every sample stays on the live stream path.
func (c *HostCoordinator) HandleSample(domain.Sample) bool { return false }

// Tick completes every pending request whose post-trigger half has
// fully elapsed on the stream clock.
func (c *HostCoordinator) Tick(streamMs float64) {
	if len(c.pending) == 0 {
		return
	}
	remaining := c.pending[:0]
	for _, req := range c.pending {
		if streamMs-req.triggerMs < c.halfMs {
			remaining = append(remaining, req)
			continue
		}
		c.complete(req)
	}
	c.pending = remaining
}

func (c *HostCoordinator) complete(req request) {
	samples := c.buf.Window(req.triggerMs, c.halfMs)
	rec := newRecord(req.seq, req.at, req.triggerMs, req.triggerMs-c.halfMs, req.triggerMs+c.halfMs, samples)

	start := time.Now()
	if err := c.sink.WriteSnapshot(rec); err != nil {
		c.obs.LogError("snapshot_write_failed", err,
			ports.Field{Key: "seq", Value: req.seq})
		return
	}
	c.obs.ObserveLatency("sees_snapshot_write_seconds", time.Since(start).Seconds())
	c.obs.IncCounter("sees_snapshots_total", 1)
	c.obs.LogInfo("snapshot saved",
		ports.Field{Key: "seq", Value: req.seq},
		ports.Field{Key: "frames", Value: rec.FrameCount()},
		ports.Field{Key: "hits", Value: rec.TierCounts.Total()})
}

func (c *HostCoordinator) PendingCount() int { return len(c.pending) }

var _ ports.Coordinator = (*HostCoordinator)(nil)
