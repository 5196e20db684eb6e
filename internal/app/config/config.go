package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hsfl/aeris-sees-software/internal/ports"
)

// Snapshot modes. Host mode triggers from the console and extracts
// windows from the retention buffer; relay mode records the window the
// device delimits itself.
const (
	ModeHost  = "host"
	ModeRelay = "relay"
)

// Duration wraps time.Duration so yaml values can be written with
// units ("30s", "2500ms").
type Duration time.Duration

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std converts back to the standard duration type.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

type Config struct {
	Transport TransportConfig `yaml:"transport"`
	Session   SessionConfig   `yaml:"session"`
	Retention RetentionConfig `yaml:"retention"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Policy    PolicyConfig    `yaml:"policy"`
}

type TransportConfig struct {
	// Kind selects the binding: "fifo", "subprocess", or "loopback".
	Kind string `yaml:"kind"`
	// Path of the named pipe for the fifo binding.
	Path string `yaml:"path"`
	// Command plus arguments for the subprocess binding.
	Command []string `yaml:"command"`
}

type SessionConfig struct {
	Dir string `yaml:"dir"`
}

type RetentionConfig struct {
	Duration Duration `yaml:"duration"`
}

type SnapshotConfig struct {
	Mode      string   `yaml:"mode"`
	HalfWidth Duration `yaml:"half_width"`
}

type ArchiveConfig struct {
	Enabled       bool     `yaml:"enabled"`
	ConnString    string   `yaml:"conn_string"`
	Table         string   `yaml:"table"`
	FlushInterval Duration `yaml:"flush_interval"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type PolicyConfig struct {
	IdleSleep        Duration `yaml:"idle_sleep"`
	MaxPendingSnaps  int      `yaml:"max_pending_snaps"`
	ArchiveBatchSize int      `yaml:"archive_batch_size"`
	ArchiveQueueLen  int      `yaml:"archive_queue_len"`
	OnArchiveFull    string   `yaml:"on_archive_full"`
}

// Ports converts the yaml-facing policy into the runtime policy type.
func (p PolicyConfig) Ports() ports.Policy {
	return ports.Policy{
		IdleSleep:        p.IdleSleep.Std(),
		MaxPendingSnaps:  p.MaxPendingSnaps,
		ArchiveBatchSize: p.ArchiveBatchSize,
		ArchiveQueueLen:  p.ArchiveQueueLen,
		OnArchiveFull:    p.OnArchiveFull,
	}
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Transport.Kind == "" {
		c.Transport.Kind = "fifo"
	}
	if c.Session.Dir == "" {
		c.Session.Dir = "./data/sessions"
	}
	if c.Retention.Duration == 0 {
		c.Retention.Duration = Duration(20 * time.Second)
	}
	if c.Snapshot.Mode == "" {
		c.Snapshot.Mode = ModeHost
	}
	if c.Snapshot.HalfWidth == 0 {
		c.Snapshot.HalfWidth = Duration(2500 * time.Millisecond)
	}
	if c.Archive.Table == "" {
		c.Archive.Table = "sees_samples"
	}
	if c.Archive.FlushInterval == 0 {
		c.Archive.FlushInterval = Duration(time.Second)
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.Policy.IdleSleep == 0 {
		c.Policy.IdleSleep = Duration(2 * time.Millisecond)
	}
	if c.Policy.MaxPendingSnaps == 0 {
		c.Policy.MaxPendingSnaps = 16
	}
	if c.Policy.ArchiveBatchSize == 0 {
		c.Policy.ArchiveBatchSize = 5_000
	}
	if c.Policy.ArchiveQueueLen == 0 {
		c.Policy.ArchiveQueueLen = 100_000
	}
	if c.Policy.OnArchiveFull == "" {
		c.Policy.OnArchiveFull = "drop_newest"
	}
}

func (c *Config) Validate() error {
	switch c.Transport.Kind {
	case "fifo":
		if c.Transport.Path == "" {
			return fmt.Errorf("transport.path is required for the fifo transport")
		}
	case "subprocess":
		if len(c.Transport.Command) == 0 {
			return fmt.Errorf("transport.command is required for the subprocess transport")
		}
	case "loopback":
	default:
		return fmt.Errorf("transport.kind %q is not one of fifo, subprocess, loopback", c.Transport.Kind)
	}

	switch c.Snapshot.Mode {
	case ModeHost:
		// A centered window cannot be cut from a buffer shorter than
		// its trailing half.
		if c.Retention.Duration <= c.Snapshot.HalfWidth {
			return fmt.Errorf("retention.duration (%s) must exceed snapshot.half_width (%s)",
				c.Retention.Duration, c.Snapshot.HalfWidth)
		}
	case ModeRelay:
	default:
		return fmt.Errorf("snapshot.mode %q is not one of host, relay", c.Snapshot.Mode)
	}

	if c.Snapshot.HalfWidth <= 0 {
		return fmt.Errorf("snapshot.half_width must be positive")
	}
	if c.Retention.Duration <= 0 {
		return fmt.Errorf("retention.duration must be positive")
	}
	if c.Archive.Enabled && c.Archive.ConnString == "" {
		return fmt.Errorf("archive.conn_string is required when archive.enabled")
	}
	switch c.Policy.OnArchiveFull {
	case "drop_newest", "drop_oldest":
	default:
		return fmt.Errorf("policy.on_archive_full %q is not one of drop_newest, drop_oldest", c.Policy.OnArchiveFull)
	}
	return nil
}
