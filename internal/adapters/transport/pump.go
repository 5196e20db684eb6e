// Package transport provides the concrete byte-channel bindings used to
// reach the detector: a named pipe, a spawned firmware subprocess, and
// an in-memory loopback for tests and replay. Every binding presents
// the same non-blocking surface, so the ingest loop never stalls on a
// quiet link.
package transport

import (
	"errors"
	"io"
	"sync"
)

// pump drains an io.Reader on its own goroutine into a bounded byte
// buffer, turning a blocking reader into the Available/ReadAvailable
// poll surface that ports.Transport requires. Only the pump goroutine
// writes the buffer; readers take the whole buffer under the lock.
type pump struct {
	mu     sync.Mutex
	buf    []byte
	err    error
	closed bool
	done   chan struct{}
}

const pumpChunk = 4096

func newPump(r io.Reader) *pump {
	p := &pump{done: make(chan struct{})}
	go p.run(r)
	return p
}

func (p *pump) run(r io.Reader) {
	defer close(p.done)
	chunk := make([]byte, pumpChunk)
	for {
		n, err := r.Read(chunk)
		p.mu.Lock()
		if n > 0 && !p.closed {
			p.buf = append(p.buf, chunk[:n]...)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				p.err = err
			}
			p.mu.Unlock()
			return
		}
		closed := p.closed
		p.mu.Unlock()
		if closed {
			return
		}
	}
}

func (p *pump) available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buf)
}

// take returns everything buffered so far. A sticky read error is
// surfaced once after the buffer drains.
func (p *pump) take() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.buf) == 0 {
		err := p.err
		p.err = nil
		return nil, err
	}
	out := p.buf
	p.buf = nil
	return out, nil
}

func (p *pump) discard() {
	p.mu.Lock()
	p.buf = nil
	p.mu.Unlock()
}

func (p *pump) close() {
	p.mu.Lock()
	p.closed = true
	p.buf = nil
	p.mu.Unlock()
}
