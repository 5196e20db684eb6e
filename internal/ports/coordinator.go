package ports

import (
	"time"

	"github.com/hsfl/aeris-sees-software/internal/domain"
)

// ControlEvent identifies a protocol control message relevant to
// snapshot capture. The ingest loop maps classified lines onto these.
type ControlEvent int

const (
	// ControlSnapAck is the device acknowledging a snap command. Both
	// coordinator modes treat its arrival time as the trigger time.
	ControlSnapAck ControlEvent = iota
	// ControlSnapStart opens a device-relayed snapshot window.
	ControlSnapStart
	// ControlSnapEnd closes a device-relayed snapshot window.
	ControlSnapEnd
)

func (e ControlEvent) String() string {
	switch e {
	case ControlSnapAck:
		return "snap_ack"
	case ControlSnapStart:
		return "snap_start"
	case ControlSnapEnd:
		return "snap_end"
	default:
		return "unknown"
	}
}

// Coordinator drives snapshot capture. Implementations are single
// threaded: the ingest loop owns the coordinator and calls it inline.
type Coordinator interface {
	// HandleControl processes a snapshot control event observed at the
	// given host wall-clock time.
	HandleControl(ev ControlEvent, at time.Time)

	// HandleSample offers a classified data sample. It returns true if
	// the coordinator consumed the sample (relay mode capturing a
	// device window); consumed samples belong to the snapshot, not the
	// live stream.
	HandleSample(s domain.Sample) bool

	// Tick advances the coordinator's view of the stream clock (the
	// newest buffered device timestamp, milliseconds) and completes any
	// pending request whose window has fully elapsed.
	Tick(streamMs float64)

	// PendingCount reports in-flight snapshot requests.
	PendingCount() int
}
