package transport

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/hsfl/aeris-sees-software/internal/ports"
)

// FIFO reads the detector stream from a named pipe, the simulation mode
// where an external process writes CSV lines into a FIFO. The pipe is
// read-only: commands cannot travel back through it, matching the
// original console's pipe binding, so Write is accepted and dropped.
type FIFO struct {
	file *os.File
	pump *pump

	mu     sync.Mutex
	closed bool
}

// OpenFIFO opens path as a non-blocking named pipe.
func OpenFIFO(path string) (*FIFO, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("fifo %s: %w", path, err)
	}
	if st.Mode()&os.ModeNamedPipe == 0 {
		return nil, fmt.Errorf("fifo %s: not a named pipe", path)
	}

	// O_NONBLOCK lets the open succeed before any writer attaches.
	f, err := os.OpenFile(path, os.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("fifo %s: %w", path, err)
	}
	return &FIFO{file: f, pump: newPump(&fifoReader{f: f})}, nil
}

func (t *FIFO) Available() int { return t.pump.available() }

func (t *FIFO) ReadAvailable() ([]byte, error) { return t.pump.take() }

// Write drops outbound bytes: a read-only pipe has no return path.
func (t *FIFO) Write(p []byte) (int, error) { return len(p), nil }

func (t *FIFO) DiscardPending() error {
	t.pump.discard()
	return nil
}

// Close is idempotent: the runtime shuts the transport down once on
// loop exit and again from Shutdown.
func (t *FIFO) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	t.pump.close()
	return t.file.Close()
}

// fifoReader retries empty non-blocking reads with a short sleep so the
// pump goroutine does not spin, and keeps reading across writer churn
// (a FIFO reports EOF whenever its last writer detaches).
type fifoReader struct {
	f *os.File
}

func (r *fifoReader) Read(p []byte) (int, error) {
	for {
		n, err := r.f.Read(p)
		if n > 0 {
			return n, nil
		}
		if err != nil && !errors.Is(err, io.EOF) && !isWouldBlock(err) {
			return 0, err
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func isWouldBlock(err error) bool {
	var pe *os.PathError
	if errors.As(err, &pe) {
		err = pe.Err
	}
	return err == unix.EAGAIN || err == unix.EWOULDBLOCK
}

var _ ports.Transport = (*FIFO)(nil)
