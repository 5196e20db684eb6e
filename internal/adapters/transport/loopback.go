package transport

import (
	"sync"

	"github.com/hsfl/aeris-sees-software/internal/ports"
)

// Loopback is an in-memory transport. The host side satisfies
// ports.Transport; the device side is driven by tests and by the replay
// command to emit protocol lines and observe forwarded commands.
type Loopback struct {
	mu     sync.Mutex
	toHost []byte
	toDev  []byte
	closed bool
}

// NewLoopback returns an empty loopback transport.
func NewLoopback() *Loopback {
	return &Loopback{}
}

func (t *Loopback) Available() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.toHost)
}

func (t *Loopback) ReadAvailable() ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ports.ErrTransportClosed
	}
	out := t.toHost
	t.toHost = nil
	return out, nil
}

func (t *Loopback) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, ports.ErrTransportClosed
	}
	t.toDev = append(t.toDev, p...)
	return len(p), nil
}

func (t *Loopback) DiscardPending() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.toHost = nil
	return nil
}

func (t *Loopback) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.toHost = nil
	t.toDev = nil
	return nil
}

// DeviceWrite queues bytes for the host to read, as if the detector
// had transmitted them.
func (t *Loopback) DeviceWrite(p []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.toHost = append(t.toHost, p...)
}

// DeviceWriteLine queues one line with the device's CRLF terminator.
func (t *Loopback) DeviceWriteLine(line string) {
	t.DeviceWrite([]byte(line + "\r\n"))
}

// DeviceRead drains bytes the host has written toward the device.
func (t *Loopback) DeviceRead() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.toDev
	t.toDev = nil
	return out
}

var _ ports.Transport = (*Loopback)(nil)
