package domain

import (
	"time"

	"github.com/google/uuid"
)

// Sample is one decoded detector reading from the SEEs line protocol.
// TimeMs is the device-monotonic timestamp; samples arrive in
// non-decreasing TimeMs order and are immutable once parsed.
type Sample struct {
	TimeMs    float64 `json:"time_ms"`
	Voltage   float64 `json:"voltage_v"`
	Hit       bool    `json:"hit"`
	TotalHits int     `json:"total_hits"`
}

// Tier is the penetration-depth classification of a hit, derived from
// the pulse amplitude. Valid values are 1 through 4.
type Tier int

const (
	Tier1 Tier = 1
	Tier2 Tier = 2
	Tier3 Tier = 3
	Tier4 Tier = 4
)

// TierCounts maps each tier to the number of rising-edge hits observed.
type TierCounts map[Tier]int

// Total sums the hits across all tiers.
func (tc TierCounts) Total() int {
	n := 0
	for _, c := range tc {
		n += c
	}
	return n
}

// SnapshotRecord is a finished time-windowed capture around a trigger.
// It is built once by the snapshot coordinator and handed outward for
// persistence; nothing mutates it afterwards.
type SnapshotRecord struct {
	ID        uuid.UUID
	Seq       int
	TriggerAt time.Time

	// Device-time window bounds in milliseconds. In host mode these are
	// the declared trigger±halfWidth bounds; in relay mode they span the
	// first and last relayed sample.
	TriggerMs     float64
	WindowStartMs float64
	WindowEndMs   float64

	Samples    []Sample
	TierCounts TierCounts
}

// FrameCount returns the number of samples captured in the window.
func (r *SnapshotRecord) FrameCount() int { return len(r.Samples) }
