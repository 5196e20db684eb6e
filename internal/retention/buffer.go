// Package retention holds the most recent samples bounded by stream
// duration, not by count. The ingest loop owns the buffer exclusively;
// the snapshot coordinator only receives read-only copies.
package retention

import "github.com/hsfl/aeris-sees-software/internal/domain"

// Buffer is a time-ordered store of samples pruned by age. After every
// insert, newest.TimeMs - oldest.TimeMs <= durationMs holds.
type Buffer struct {
	durationMs float64
	samples    []domain.Sample
	start      int // index of the oldest live sample
	maxSeenMs  float64
	seen       bool
}

// New returns a buffer retaining durationMs of stream time.
func New(durationMs float64) *Buffer {
	return &Buffer{durationMs: durationMs}
}

// Insert appends a sample in arrival order and eagerly prunes expired
// samples from the front. A timestamp older than the current tail is
// accepted (minor jitter must not corrupt ingestion), but pruning always
// compares against the maximum timestamp seen, never insertion order.
func (b *Buffer) Insert(s domain.Sample) {
	b.samples = append(b.samples, s)
	if !b.seen || s.TimeMs > b.maxSeenMs {
		b.maxSeenMs = s.TimeMs
		b.seen = true
	}

	cutoff := b.maxSeenMs - b.durationMs
	for b.start < len(b.samples) && b.samples[b.start].TimeMs < cutoff {
		b.start++
	}

	// Compact once the dead prefix dominates the backing array.
	if b.start > 1024 && b.start*2 > len(b.samples) {
		live := len(b.samples) - b.start
		copy(b.samples, b.samples[b.start:])
		b.samples = b.samples[:live]
		b.start = 0
	}
}

// Window returns the buffered samples with TimeMs in
// [center-half, center+half], both ends inclusive, in buffer order.
// The buffer is not mutated; the result is a fresh slice.
func (b *Buffer) Window(centerMs, halfMs float64) []domain.Sample {
	lo := centerMs - halfMs
	hi := centerMs + halfMs
	var out []domain.Sample
	for _, s := range b.samples[b.start:] {
		if s.TimeMs >= lo && s.TimeMs <= hi {
			out = append(out, s)
		}
	}
	return out
}

// Snapshot returns a read-only copy of the whole buffer, oldest first.
func (b *Buffer) Snapshot() []domain.Sample {
	out := make([]domain.Sample, len(b.samples)-b.start)
	copy(out, b.samples[b.start:])
	return out
}

// Len reports the number of retained samples.
func (b *Buffer) Len() int {
	return len(b.samples) - b.start
}

// Latest returns the maximum timestamp seen, or 0 before any insert.
// This is the stream clock the snapshot coordinator ticks against.
func (b *Buffer) Latest() float64 {
	return b.maxSeenMs
}

// SpanMs reports the stream time covered by the retained samples.
func (b *Buffer) SpanMs() float64 {
	if b.Len() < 2 {
		return 0
	}
	return b.maxSeenMs - b.samples[b.start].TimeMs
}

// DurationMs returns the configured retention bound.
func (b *Buffer) DurationMs() float64 {
	return b.durationMs
}
