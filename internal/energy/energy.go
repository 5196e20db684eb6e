// Package energy buckets detector pulses into penetration-depth tiers
// and counts discrete hit events within a sample window.
package energy

import "github.com/hsfl/aeris-sees-software/internal/domain"

// Tier thresholds in volts: midpoints between the four nominal layer
// amplitudes (~0.25, ~0.40, ~0.55, ~0.70 V).
const (
	tier2Threshold = 0.325
	tier3Threshold = 0.475
	tier4Threshold = 0.625
)

// ClassifyTier maps a pulse amplitude onto tiers 1-4. The thresholds
// partition the amplitude axis into four contiguous ranges with no gaps
// or overlaps; classification is monotone in amplitude.
func ClassifyTier(voltage float64) domain.Tier {
	switch {
	case voltage < tier2Threshold:
		return domain.Tier1
	case voltage < tier3Threshold:
		return domain.Tier2
	case voltage < tier4Threshold:
		return domain.Tier3
	default:
		return domain.Tier4
	}
}

// CountRisingEdges counts 0→1 transitions of the hit flag across
// consecutive samples, classifying each transition by the amplitude at
// the transition sample. A run of consecutive hit samples counts once,
// at its rising edge: this models the edge-triggered hit counter in the
// detector itself, and re-running on the same sequence is idempotent.
//
// The first sample counts as an edge if its flag is already set, since
// there is no earlier sample to prove the run started before the window.
func CountRisingEdges(samples []domain.Sample) domain.TierCounts {
	counts := domain.TierCounts{
		domain.Tier1: 0,
		domain.Tier2: 0,
		domain.Tier3: 0,
		domain.Tier4: 0,
	}
	prevHit := false
	for _, s := range samples {
		if s.Hit && !prevHit {
			counts[ClassifyTier(s.Voltage)]++
		}
		prevHit = s.Hit
	}
	return counts
}
