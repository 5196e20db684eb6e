package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
transport:
  kind: loopback
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Snapshot.Mode != ModeHost {
		t.Fatalf("mode = %s, want host", cfg.Snapshot.Mode)
	}
	if cfg.Snapshot.HalfWidth.Std() != 2500*time.Millisecond {
		t.Fatalf("half width = %s", cfg.Snapshot.HalfWidth)
	}
	if cfg.Retention.Duration.Std() != 20*time.Second {
		t.Fatalf("retention = %s", cfg.Retention.Duration)
	}
	if cfg.Policy.IdleSleep.Std() != 2*time.Millisecond {
		t.Fatalf("idle sleep = %s", cfg.Policy.IdleSleep)
	}
	if cfg.Policy.OnArchiveFull != "drop_newest" {
		t.Fatalf("on_archive_full = %s", cfg.Policy.OnArchiveFull)
	}
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
transport:
  kind: subprocess
  command: ["./detector", "--port", "sim"]
session:
  dir: /tmp/sessions
retention:
  duration: 30s
snapshot:
  mode: relay
  half_width: 1s
archive:
  enabled: true
  conn_string: postgres://sees@localhost/sees?sslmode=disable
  table: rows
metrics:
  addr: ":9200"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Transport.Kind != "subprocess" || len(cfg.Transport.Command) != 3 {
		t.Fatalf("transport = %+v", cfg.Transport)
	}
	if cfg.Snapshot.Mode != ModeRelay {
		t.Fatalf("mode = %s", cfg.Snapshot.Mode)
	}
	if cfg.Archive.Table != "rows" {
		t.Fatalf("table = %s", cfg.Archive.Table)
	}
}

func TestHostModeRequiresRetentionBeyondHalfWidth(t *testing.T) {
	path := writeConfig(t, `
transport:
  kind: loopback
retention:
  duration: 2s
snapshot:
  mode: host
  half_width: 2500ms
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "retention.duration") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRelayModeAllowsShortRetention(t *testing.T) {
	path := writeConfig(t, `
transport:
  kind: loopback
retention:
  duration: 1s
snapshot:
  mode: relay
  half_width: 2500ms
`)
	if _, err := Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}
}

func TestFifoRequiresPath(t *testing.T) {
	path := writeConfig(t, `
transport:
  kind: fifo
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestArchiveEnabledRequiresConnString(t *testing.T) {
	path := writeConfig(t, `
transport:
  kind: loopback
archive:
  enabled: true
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestInvalidDurationRejected(t *testing.T) {
	path := writeConfig(t, `
transport:
  kind: loopback
retention:
  duration: fast
`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "invalid duration") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUnknownModeRejected(t *testing.T) {
	path := writeConfig(t, `
transport:
  kind: loopback
snapshot:
  mode: burst
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error")
	}
}
