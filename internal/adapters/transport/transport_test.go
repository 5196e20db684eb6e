package transport

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/hsfl/aeris-sees-software/internal/ports"
)

func TestLoopbackRoundTrip(t *testing.T) {
	lb := NewLoopback()

	lb.DeviceWriteLine("1.0,0.2,0,0")
	if lb.Available() == 0 {
		t.Fatal("device bytes not visible to host")
	}
	data, err := lb.ReadAvailable()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "1.0,0.2,0,0\r\n" {
		t.Fatalf("unexpected host bytes: %q", data)
	}
	if lb.Available() != 0 {
		t.Fatal("read did not drain buffer")
	}

	if _, err := lb.Write([]byte("snap\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := lb.DeviceRead(); string(got) != "snap\n" {
		t.Fatalf("device did not receive command: %q", got)
	}
}

func TestLoopbackDiscardPending(t *testing.T) {
	lb := NewLoopback()
	lb.DeviceWrite([]byte("garbage at connect"))
	if err := lb.DiscardPending(); err != nil {
		t.Fatalf("discard: %v", err)
	}
	if lb.Available() != 0 {
		t.Fatal("discard left bytes pending")
	}
}

func TestLoopbackClosed(t *testing.T) {
	lb := NewLoopback()
	if err := lb.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := lb.ReadAvailable(); err != ports.ErrTransportClosed {
		t.Fatalf("expected ErrTransportClosed, got %v", err)
	}
	if _, err := lb.Write([]byte("x")); err != ports.ErrTransportClosed {
		t.Fatalf("expected ErrTransportClosed on write, got %v", err)
	}
}

func TestLoopbackCloseIdempotent(t *testing.T) {
	lb := NewLoopback()
	if err := lb.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := lb.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestFIFOCloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.pipe")
	if err := unix.Mkfifo(path, 0o600); err != nil {
		t.Fatalf("mkfifo: %v", err)
	}

	f, err := OpenFIFO(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestPumpAccumulatesUntilTaken(t *testing.T) {
	r := &fixedReader{data: []byte("abc,def\nghi")}
	p := newPump(r)

	deadline := time.Now().Add(2 * time.Second)
	for p.available() < len(r.data) {
		if time.Now().After(deadline) {
			t.Fatalf("pump never buffered input, have %d bytes", p.available())
		}
		time.Sleep(time.Millisecond)
	}

	got, err := p.take()
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if !bytes.Equal(got, r.data) {
		t.Fatalf("pump corrupted bytes: %q", got)
	}
	if p.available() != 0 {
		t.Fatal("take did not drain pump")
	}
	p.close()
}

type fixedReader struct {
	data []byte
	off  int
}

func (r *fixedReader) Read(p []byte) (int, error) {
	if r.off >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.off:])
	r.off += n
	return n, nil
}

func TestPumpDiscard(t *testing.T) {
	r := &fixedReader{data: []byte("stale")}
	p := newPump(r)
	deadline := time.Now().Add(2 * time.Second)
	for p.available() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	p.discard()
	if p.available() != 0 {
		t.Fatal("discard left bytes buffered")
	}
	p.close()
}
