package sees

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hsfl/aeris-sees-software/internal/domain"
	"github.com/hsfl/aeris-sees-software/internal/ports"
)

// ErrChannelSinkClosed is returned when a channel sink is written to after being closed.
var ErrChannelSinkClosed = errors.New("sees: channel sink closed")

// SnapshotHandler is invoked with each completed snapshot record.
type SnapshotHandler func(*SnapshotRecord) error

// NewCallbackSnapshotSink adapts a function into a SnapshotSink so
// callers can react to snapshots without defining structs.
func NewCallbackSnapshotSink(name string, fn SnapshotHandler) SnapshotSink {
	if name == "" {
		name = "callback"
	}
	return &callbackSink{name: name, fn: fn}
}

// NewChannelSnapshotSink exposes completed snapshots via a channel; it
// returns the sink, the read-only channel, and a close function the
// caller should invoke during shutdown.
func NewChannelSnapshotSink(name string, buffer int) (SnapshotSink, <-chan *SnapshotRecord, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan *SnapshotRecord, buffer)
	s := &channelSink{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return s, ch, func() { s.close() }
}

type callbackSink struct {
	name string
	fn   SnapshotHandler
}

func (s *callbackSink) WriteSnapshot(rec *domain.SnapshotRecord) error {
	if s.fn == nil {
		return fmt.Errorf("callback sink %q: nil handler", s.name)
	}
	return s.fn(rec)
}

func (s *callbackSink) Name() string { return s.name }

type channelSink struct {
	name   string
	ch     chan *SnapshotRecord
	closed chan struct{}
	once   sync.Once
}

func (s *channelSink) WriteSnapshot(rec *domain.SnapshotRecord) error {
	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	case s.ch <- rec:
		return nil
	}
}

func (s *channelSink) Name() string { return s.name }

func (s *channelSink) close() {
	s.once.Do(func() {
		close(s.closed)
		close(s.ch)
	})
}

// fanoutSnapshotSink delivers each record to every sink, keeping the
// first error but never skipping a sink.
func fanoutSnapshotSink(sinks []ports.SnapshotSink) ports.SnapshotSink {
	if len(sinks) == 1 {
		return sinks[0]
	}
	return &fanoutSink{sinks: sinks}
}

type fanoutSink struct {
	sinks []ports.SnapshotSink
}

func (f *fanoutSink) WriteSnapshot(rec *domain.SnapshotRecord) error {
	var firstErr error
	for _, s := range f.sinks {
		if err := s.WriteSnapshot(rec); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("sink %s: %w", s.Name(), err)
		}
	}
	return firstErr
}

func (f *fanoutSink) Name() string { return "fanout" }
