package ports

import "github.com/hsfl/aeris-sees-software/internal/domain"

// StreamSink receives every accepted sample in arrival order.
type StreamSink interface {
	Append(s domain.Sample) error
	Name() string
}

// SnapshotSink persists a completed snapshot record.
type SnapshotSink interface {
	WriteSnapshot(rec *domain.SnapshotRecord) error
	Name() string
}

// RawLog receives every decoded byte from the transport, before any
// framing or classification, so a session can be replayed offline.
type RawLog interface {
	WriteRaw(p []byte) error
}
