package sees

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/hsfl/aeris-sees-software/internal/adapters/transport"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := &Config{}
	cfg.ApplyDefaults()
	cfg.Transport.Kind = "loopback"
	cfg.Session.Dir = t.TempDir()
	cfg.Metrics.Addr = "off"
	cfg.Policy.IdleSleep = Duration(100 * time.Microsecond)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func TestNewRuntimeRequiresConfig(t *testing.T) {
	if _, err := NewRuntime(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestNewRuntimeFailsBeforeCreatingArtifacts(t *testing.T) {
	cfg := testConfig(t)
	cfg.Transport.Kind = "fifo"
	cfg.Transport.Path = filepath.Join(t.TempDir(), "no-such-pipe")

	if _, err := NewRuntime(cfg); err == nil {
		t.Fatal("expected transport open failure")
	}
	ents, err := os.ReadDir(cfg.Session.Dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(ents) != 0 {
		t.Fatalf("session artifacts created despite transport failure: %v", ents)
	}
}

func TestRuntimeEndToEndHostSnapshot(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retention.Duration = Duration(10 * time.Second)
	cfg.Snapshot.HalfWidth = Duration(100 * time.Millisecond)

	lb := transport.NewLoopback()
	snapSink, snaps, closeSink := NewChannelSnapshotSink("test", 4)
	defer closeSink()

	rt, err := NewRuntime(cfg, WithTransport(lb), WithSnapshotSink(snapSink))
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- rt.Run(ctx) }()

	// 1 kHz for 400 ms with a trigger at 200 ms.
	total := 0
	for i := 0; i <= 400; i++ {
		hit := i == 150
		v := 0.1
		if hit {
			v = 0.5
			total = 1
		}
		h := "0"
		if hit {
			h = "1"
		}
		lb.DeviceWrite([]byte(
			strings.Join([]string{formatMs(float64(i)), formatV(v), h, itoa(total)}, ",") + "\r\n"))
		if i == 200 {
			lb.DeviceWriteLine("SNAP command received")
		}
	}

	var rec *SnapshotRecord
	select {
	case rec = <-snaps:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}

	if rec.TriggerMs != 200 {
		t.Fatalf("trigger ms = %v, want 200", rec.TriggerMs)
	}
	if got := rec.FrameCount(); got != 201 {
		t.Fatalf("frame count = %d, want 201", got)
	}
	if rec.TierCounts.Total() != 1 {
		t.Fatalf("tier total = %d, want 1", rec.TierCounts.Total())
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}

	// The session store wrote the same snapshot to disk.
	ents, err := os.ReadDir(rt.SessionDir())
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	var snapFiles, streamFiles int
	for _, e := range ents {
		switch {
		case strings.HasSuffix(e.Name(), ".stream.csv"):
			streamFiles++
		case strings.HasSuffix(e.Name(), ".csv"):
			snapFiles++
		}
	}
	if snapFiles != 1 || streamFiles != 1 {
		t.Fatalf("session dir contents: %d snapshots, %d stream tables", snapFiles, streamFiles)
	}
}

// A producer may queue the entire stream, trigger included, before the
// ingest goroutine ever runs. That is how the replay command drives a
// session, so none of it may be dropped.
func TestRuntimeKeepsStreamQueuedBeforeRun(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retention.Duration = Duration(10 * time.Second)
	cfg.Snapshot.HalfWidth = Duration(100 * time.Millisecond)

	lb := transport.NewLoopback()
	snapSink, snaps, closeSink := NewChannelSnapshotSink("test", 4)
	defer closeSink()

	rt, err := NewRuntime(cfg, WithTransport(lb), WithSnapshotSink(snapSink))
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}

	for i := 0; i <= 400; i++ {
		lb.DeviceWriteLine(
			strings.Join([]string{formatMs(float64(i)), formatV(0.1), "0", "0"}, ","))
		if i == 200 {
			lb.DeviceWriteLine("SNAP command received")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- rt.Run(ctx) }()

	var rec *SnapshotRecord
	select {
	case rec = <-snaps:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	if rec.TriggerMs != 200 {
		t.Fatalf("trigger ms = %v, want 200", rec.TriggerMs)
	}
	if got := rec.FrameCount(); got != 201 {
		t.Fatalf("frame count = %d, want 201", got)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRuntimeForwardsCommands(t *testing.T) {
	cfg := testConfig(t)
	lb := transport.NewLoopback()

	rt, err := NewRuntime(cfg, WithTransport(lb))
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- rt.Run(ctx) }()

	if err := rt.Command("snap"); err != nil {
		t.Fatalf("Command: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	var got []byte
	for time.Now().Before(deadline) {
		got = append(got, lb.DeviceRead()...)
		if strings.Contains(string(got), "snap\n") {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if !strings.Contains(string(got), "snap\n") {
		t.Fatalf("command not delivered, device saw %q", got)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Run already shut everything down; a second Shutdown is a no-op.
	if err := rt.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown after Run: %v", err)
	}
}

func formatMs(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }
func formatV(v float64) string  { return strconv.FormatFloat(v, 'f', 4, 64) }
func itoa(v int) string         { return strconv.Itoa(v) }
