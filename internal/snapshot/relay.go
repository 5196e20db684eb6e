package snapshot

import (
	"time"

	"github.com/hsfl/aeris-sees-software/internal/domain"
	"github.com/hsfl/aeris-sees-software/internal/ports"
)

// RelayCoordinator handles firmware that keeps the rolling buffer on
// the device: a trigger makes the device emit a start marker, the
// already-windowed sample lines, then an end marker. The coordinator
// only accumulates what arrives between the markers.
//
// The record is tagged with the wall-clock time of the trigger
// acknowledgment, not of the end marker, so device-to-host relay
// latency does not bias the recorded window center.
//
// Relay capture is single slot: a second start marker while a capture
// is open is a protocol anomaly and is ignored.
type RelayCoordinator struct {
	sink ports.SnapshotSink
	obs  ports.Observability

	capturing   bool
	acc         []domain.Sample
	triggerAt   time.Time
	haveTrigger bool
	nextSeq     int
}

// NewRelayCoordinator builds a relay-mode coordinator.
func NewRelayCoordinator(sink ports.SnapshotSink, obs ports.Observability) *RelayCoordinator {
	return &RelayCoordinator{sink: sink, obs: obs, nextSeq: 1}
}

func (c *RelayCoordinator) HandleControl(ev ports.ControlEvent, at time.Time) {
	switch ev {
	case ports.ControlSnapAck:
		c.triggerAt = at
		c.haveTrigger = true
		c.obs.LogInfo("snap acknowledged, waiting for device window")

	case ports.ControlSnapStart:
		if c.capturing {
			c.obs.LogWarn("nested window start ignored: capture already in flight")
			c.obs.IncCounter("sees_snap_anomalies_total", 1)
			return
		}
		c.capturing = true
		c.acc = nil

	case ports.ControlSnapEnd:
		if !c.capturing {
			c.obs.LogWarn("window end without matching start")
			c.obs.IncCounter("sees_snap_anomalies_total", 1)
			return
		}
		c.capturing = false
		c.finish(at)
	}
}

// HandleSample consumes samples while a device window is open; captured
// samples belong to the snapshot, not the live stream.
func (c *RelayCoordinator) HandleSample(s domain.Sample) bool {
	if !c.capturing {
		return false
	}
	c.acc = append(c.acc, s)
	return true
}

func (c *RelayCoordinator) finish(endAt time.Time) {
	seq := c.nextSeq
	c.nextSeq++

	at := endAt
	if c.haveTrigger {
		at = c.triggerAt
	}
	c.haveTrigger = false

	samples := c.acc
	c.acc = nil

	// An empty window is not an error: the trigger may have raced a
	// transport hiccup. The event is still counted and logged.
	if len(samples) == 0 {
		c.obs.LogWarn("device window closed empty, no snapshot written",
			ports.Field{Key: "seq", Value: seq})
		c.obs.IncCounter("sees_snapshots_empty_total", 1)
		return
	}

	startMs := samples[0].TimeMs
	endMs := samples[len(samples)-1].TimeMs
	rec := newRecord(seq, at, endMs, startMs, endMs, samples)

	start := time.Now()
	if err := c.sink.WriteSnapshot(rec); err != nil {
		c.obs.LogError("snapshot_write_failed", err,
			ports.Field{Key: "seq", Value: seq})
		return
	}
	c.obs.ObserveLatency("sees_snapshot_write_seconds", time.Since(start).Seconds())
	c.obs.IncCounter("sees_snapshots_total", 1)
	c.obs.LogInfo("snapshot saved",
		ports.Field{Key: "seq", Value: seq},
		ports.Field{Key: "frames", Value: rec.FrameCount()},
		ports.Field{Key: "hits", Value: rec.TierCounts.Total()})
}

// Tick is a no-op: the device decides when the window closes.
func (c *RelayCoordinator) Tick(float64) {}

func (c *RelayCoordinator) PendingCount() int {
	if c.capturing {
		return 1
	}
	return 0
}

var _ ports.Coordinator = (*RelayCoordinator)(nil)
