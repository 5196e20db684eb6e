package ports

import "time"

// Policy controls loop pacing and backpressure thresholds.
type Policy struct {
	// IdleSleep is how long the ingest loop sleeps when the transport
	// has no pending bytes.
	IdleSleep time.Duration

	// MaxPendingSnaps caps concurrent host-mode snapshot requests.
	// Triggers beyond the cap are dropped with a logged anomaly.
	MaxPendingSnaps int

	// ArchiveBatchSize is how many rows the archive sink accumulates
	// before issuing one INSERT.
	ArchiveBatchSize int

	// ArchiveQueueLen bounds rows buffered for the archive sink.
	ArchiveQueueLen int

	// OnArchiveFull selects which end of a full archive queue loses
	// rows: "drop_newest" or "drop_oldest".
	OnArchiveFull string
}
