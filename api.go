package sees

import (
	base "github.com/hsfl/aeris-sees-software/pkg/sees"
)

// Re-exported errors for convenience.
var ErrChannelSinkClosed = base.ErrChannelSinkClosed

// Type aliases so consumers can import github.com/hsfl/aeris-sees-software directly.
type (
	Config          = base.Config
	Duration        = base.Duration
	Runtime         = base.Runtime
	Option          = base.Option
	Sample          = base.Sample
	SnapshotRecord  = base.SnapshotRecord
	SnapshotHandler = base.SnapshotHandler
	Tier            = base.Tier
	TierCounts      = base.TierCounts
	Transport       = base.Transport
	StreamSink      = base.StreamSink
	SnapshotSink    = base.SnapshotSink
	Observability   = base.Observability
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

// Runtime and options.
func NewRuntime(cfg *Config, opts ...Option) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func WithTransport(tr Transport) Option {
	return base.WithTransport(tr)
}

func WithObservability(obs Observability) Option {
	return base.WithObservability(obs)
}

func WithStreamSink(s StreamSink) Option {
	return base.WithStreamSink(s)
}

func WithSnapshotSink(s SnapshotSink) Option {
	return base.WithSnapshotSink(s)
}

// Sink adapters.
func NewCallbackSnapshotSink(name string, fn SnapshotHandler) SnapshotSink {
	return base.NewCallbackSnapshotSink(name, fn)
}

func NewChannelSnapshotSink(name string, buffer int) (SnapshotSink, <-chan *SnapshotRecord, func()) {
	return base.NewChannelSnapshotSink(name, buffer)
}
