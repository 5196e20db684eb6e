package ports

import "errors"

// ErrTransportClosed is returned by transport operations after Close.
var ErrTransportClosed = errors.New("transport closed")

// Transport is a best-effort byte channel to the detector: a serial
// device, a named pipe, or a subprocess. Reads never block; absence of
// data is a normal outcome, not an error. The transport does not
// guarantee lossless delivery.
type Transport interface {
	// Available reports how many bytes can be read without blocking.
	Available() int

	// ReadAvailable drains and returns all currently buffered bytes.
	// It returns an empty slice when nothing is pending.
	ReadAvailable() ([]byte, error)

	// Write sends bytes toward the device.
	Write(p []byte) (int, error)

	// DiscardPending drops any bytes buffered but not yet read. Used
	// once at session start to flush connection garbage.
	DiscardPending() error

	Close() error
}
