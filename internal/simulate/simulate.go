// Package simulate produces deterministic SiPM detector traces for
// replay sessions and tests: baseline noise at 0.1 V with Gaussian
// pulses around 0.5 V on Poisson-distributed arrival times, sampled at
// 10 kHz the way the real frontend does.
package simulate

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"time"

	"github.com/hsfl/aeris-sees-software/internal/domain"
)

const (
	sampleRateHz   = 10_000
	samplePeriodMs = 1000.0 / sampleRateHz
	baselineV      = 0.1
	noiseLevelV    = 0.02
	hitThresholdV  = 0.30
	hitCeilingV    = 0.80
	refractoryMs   = 0.3
	pulsePeakV     = 0.5
	pulseWidthMs   = 0.3

	DefaultHitRateHz = 5.0
	BurstHitRateHz   = 50.0
)

type Simulator struct {
	rng *rand.Rand
}

// New returns a simulator seeded for reproducible traces.
func New(seed int64) *Simulator {
	return &Simulator{rng: rand.New(rand.NewSource(seed))}
}

// Generate produces duration worth of samples with the given average
// hit rate. Hit flags follow the detection window and cumulative
// counts increment only on rising edges, matching the firmware's
// counting rule.
func (s *Simulator) Generate(duration time.Duration, hitRateHz float64) []domain.Sample {
	durationMs := float64(duration) / float64(time.Millisecond)

	var hitTimes []float64
	if hitRateHz > 0 {
		t := 0.0
		for {
			t += -1000.0 / hitRateHz * math.Log(s.rng.Float64())
			if t >= durationMs {
				break
			}
			hitTimes = append(hitTimes, t)
		}
	}

	num := int(durationMs * sampleRateHz / 1000.0)
	out := make([]domain.Sample, 0, num)

	hitIndex := 0
	pulseStart := math.NaN()
	lastHitMs := math.Inf(-1)
	total := 0
	prevHit := false

	for i := 0; i < num; i++ {
		nowMs := float64(i) * samplePeriodMs

		if hitIndex < len(hitTimes) &&
			nowMs >= hitTimes[hitIndex] &&
			math.IsNaN(pulseStart) &&
			nowMs-lastHitMs >= refractoryMs {
			pulseStart = nowMs
			hitIndex++
		}

		var voltage float64
		if !math.IsNaN(pulseStart) {
			inPulse := nowMs - pulseStart
			if inPulse < pulseWidthMs {
				voltage = s.pulse(inPulse)
			} else {
				pulseStart = math.NaN()
				voltage = s.noise()
			}
		} else {
			voltage = s.noise()
		}

		hit := voltage >= hitThresholdV && voltage <= hitCeilingV
		if hit && !prevHit {
			total++
			lastHitMs = nowMs
		}
		prevHit = hit

		out = append(out, domain.Sample{
			TimeMs:    nowMs,
			Voltage:   voltage,
			Hit:       hit,
			TotalHits: total,
		})
	}
	return out
}

// Quiet produces baseline-only samples with no hits.
func (s *Simulator) Quiet(duration time.Duration) []domain.Sample {
	return s.Generate(duration, 0)
}

// Burst produces a high-rate burst, useful for stressing the snapshot
// path.
func (s *Simulator) Burst(duration time.Duration) []domain.Sample {
	return s.Generate(duration, BurstHitRateHz)
}

func (s *Simulator) noise() float64 {
	return baselineV + s.rng.NormFloat64()*noiseLevelV
}

func (s *Simulator) pulse(inPulseMs float64) float64 {
	center := pulseWidthMs / 2
	sigma := pulseWidthMs / 4
	amplitude := pulsePeakV * (0.8 + 0.4*s.rng.Float64())
	d := inPulseMs - center
	return baselineV + amplitude*math.Exp(-(d*d)/(2*sigma*sigma))
}

// WriteCSV writes samples in the device's wire format, header first.
func WriteCSV(w io.Writer, samples []domain.Sample) error {
	if _, err := io.WriteString(w, "time_ms,voltage_V,hit,total_hits\n"); err != nil {
		return err
	}
	for _, s := range samples {
		hit := 0
		if s.Hit {
			hit = 1
		}
		if _, err := fmt.Fprintf(w, "%.1f,%.4f,%d,%d\n", s.TimeMs, s.Voltage, hit, s.TotalHits); err != nil {
			return err
		}
	}
	return nil
}
