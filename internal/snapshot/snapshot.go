// Package snapshot extracts time-bounded captures around operator
// triggers. Two coordinator implementations cover the two firmware
// generations: host mode computes the window from the live retention
// buffer, relay mode accumulates an already-windowed capture bracketed
// by start/end markers. Both satisfy ports.Coordinator and are selected
// by configuration, never mixed.
package snapshot

import (
	"time"

	"github.com/google/uuid"

	"github.com/hsfl/aeris-sees-software/internal/domain"
	"github.com/hsfl/aeris-sees-software/internal/energy"
)

func newRecord(seq int, at time.Time, triggerMs, startMs, endMs float64, samples []domain.Sample) *domain.SnapshotRecord {
	return &domain.SnapshotRecord{
		ID:            uuid.New(),
		Seq:           seq,
		TriggerAt:     at,
		TriggerMs:     triggerMs,
		WindowStartMs: startMs,
		WindowEndMs:   endMs,
		Samples:       samples,
		TierCounts:    energy.CountRisingEdges(samples),
	}
}
