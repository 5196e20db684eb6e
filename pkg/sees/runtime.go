// Package sees wires the full console together: transport, session
// store, retention buffer, snapshot coordinator, and metrics, behind a
// runtime suitable for embedding in other Go services.
package sees

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hsfl/aeris-sees-software/internal/adapters/archive"
	"github.com/hsfl/aeris-sees-software/internal/adapters/observability"
	"github.com/hsfl/aeris-sees-software/internal/adapters/session"
	"github.com/hsfl/aeris-sees-software/internal/adapters/transport"
	"github.com/hsfl/aeris-sees-software/internal/app/config"
	"github.com/hsfl/aeris-sees-software/internal/app/ingest"
	"github.com/hsfl/aeris-sees-software/internal/domain"
	"github.com/hsfl/aeris-sees-software/internal/ports"
	"github.com/hsfl/aeris-sees-software/internal/retention"
	"github.com/hsfl/aeris-sees-software/internal/snapshot"
)

// Externally usable aliases for the domain types the runtime hands out.
type (
	Config         = config.Config
	Duration       = config.Duration
	Sample         = domain.Sample
	SnapshotRecord = domain.SnapshotRecord
	Tier           = domain.Tier
	TierCounts     = domain.TierCounts
	Transport      = ports.Transport
	StreamSink     = ports.StreamSink
	SnapshotSink   = ports.SnapshotSink
	Observability  = ports.Observability
)

// LoadConfig reads, defaults, and validates a YAML configuration file.
func LoadConfig(path string) (*Config, error) { return config.Load(path) }

// Option customizes the dependencies used by Runtime.
type Option func(*overrides)

type overrides struct {
	transport   ports.Transport
	obs         ports.Observability
	streamSinks []ports.StreamSink
	snapSinks   []ports.SnapshotSink
}

// WithTransport injects a custom transport (a simulator loopback, a
// serial bridge, a replay reader).
func WithTransport(tr ports.Transport) Option {
	return func(o *overrides) { o.transport = tr }
}

// WithObservability plugs in a custom logging/metrics backend.
func WithObservability(obs ports.Observability) Option {
	return func(o *overrides) { o.obs = obs }
}

// WithStreamSink registers an extra consumer of the accepted sample
// stream alongside the session store.
func WithStreamSink(s ports.StreamSink) Option {
	return func(o *overrides) { o.streamSinks = append(o.streamSinks, s) }
}

// WithSnapshotSink registers an extra consumer of completed snapshot
// records alongside the session store.
func WithSnapshotSink(s ports.SnapshotSink) Option {
	return func(o *overrides) { o.snapSinks = append(o.snapSinks, s) }
}

// Runtime owns one capture session from transport open to shutdown.
type Runtime struct {
	cfg   *config.Config
	obs   ports.Observability
	tr    ports.Transport
	store *session.Store
	arch  *archive.Sink
	buf   *retention.Buffer
	loop  *ingest.Loop

	reg        *prometheus.Registry
	metricsSrv *http.Server
}

// NewRuntime opens the transport and session artifacts and wires the
// pipeline. The transport is opened first: if the device is absent the
// constructor fails before any session directory is created. Bytes the
// transport buffered before construction are flushed; anything a
// producer queues once NewRuntime returns is kept for Run.
func NewRuntime(cfg *config.Config, opts ...Option) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var ov overrides
	for _, opt := range opts {
		if opt != nil {
			opt(&ov)
		}
	}

	var reg *prometheus.Registry
	obs := ov.obs
	if obs == nil {
		reg = prometheus.NewRegistry()
		obs = observability.New(nil, reg)
	}

	tr := ov.transport
	if tr == nil {
		var err error
		switch cfg.Transport.Kind {
		case "fifo":
			tr, err = transport.OpenFIFO(cfg.Transport.Path)
		case "subprocess":
			tr, err = transport.StartSubprocess(cfg.Transport.Command[0], cfg.Transport.Command[1:]...)
		case "loopback":
			tr = transport.NewLoopback()
		default:
			err = fmt.Errorf("unknown transport kind %q", cfg.Transport.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("open transport: %w", err)
		}
	}

	store, err := session.Open(cfg.Session.Dir, time.Now())
	if err != nil {
		tr.Close()
		return nil, err
	}

	streamSinks := append([]ports.StreamSink{store}, ov.streamSinks...)

	var arch *archive.Sink
	if cfg.Archive.Enabled {
		arch, err = archive.Open(cfg.Archive.ConnString, cfg.Archive.Table, store.ID(),
			cfg.Policy.ArchiveQueueLen, cfg.Policy.ArchiveBatchSize,
			cfg.Policy.OnArchiveFull, obs)
		if err != nil {
			store.Close()
			tr.Close()
			return nil, err
		}
		streamSinks = append(streamSinks, arch)
	}

	snapSink := fanoutSnapshotSink(append([]ports.SnapshotSink{store}, ov.snapSinks...))

	buf := retention.New(float64(cfg.Retention.Duration.Std()) / float64(time.Millisecond))
	halfMs := float64(cfg.Snapshot.HalfWidth.Std()) / float64(time.Millisecond)

	var coord ports.Coordinator
	switch cfg.Snapshot.Mode {
	case config.ModeRelay:
		coord = snapshot.NewRelayCoordinator(snapSink, obs)
	default:
		coord = snapshot.NewHostCoordinator(buf, halfMs, snapSink, obs, cfg.Policy.MaxPendingSnaps)
	}

	return &Runtime{
		cfg:   cfg,
		obs:   obs,
		tr:    tr,
		store: store,
		arch:  arch,
		buf:   buf,
		loop:  ingest.New(tr, store, streamSinks, coord, buf, cfg.Policy.Ports(), obs),
		reg:   reg,
	}, nil
}

// SessionDir returns the directory holding this session's artifacts.
func (r *Runtime) SessionDir() string { return r.store.Dir() }

// Command forwards a console command to the device.
func (r *Runtime) Command(cmd string) error { return r.loop.Command(cmd) }

// Run blocks ingesting until ctx is cancelled or the transport fails,
// then shuts everything down.
func (r *Runtime) Run(ctx context.Context) error {
	r.startMetrics()

	var cancelArchive context.CancelFunc
	if r.arch != nil {
		var actx context.Context
		actx, cancelArchive = context.WithCancel(context.Background())
		r.arch.Run(actx, r.cfg.Archive.FlushInterval.Std())
	}

	r.obs.LogInfo("session started",
		ports.Field{Key: "dir", Value: r.store.Dir()},
		ports.Field{Key: "mode", Value: r.cfg.Snapshot.Mode})

	runErr := r.loop.Run(ctx)

	if cancelArchive != nil {
		cancelArchive()
	}
	return errors.Join(runErr, r.Shutdown(context.Background()))
}

// Shutdown releases every resource the runtime holds. It is safe to
// call after Run has returned.
func (r *Runtime) Shutdown(ctx context.Context) error {
	var errs []error

	if r.metricsSrv != nil {
		if err := r.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
		r.metricsSrv = nil
	}
	if r.arch != nil {
		if err := r.arch.Close(); err != nil {
			errs = append(errs, err)
		}
		r.arch = nil
	}
	if err := r.tr.Close(); err != nil && !errors.Is(err, ports.ErrTransportClosed) {
		errs = append(errs, err)
	}
	if err := r.store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (r *Runtime) startMetrics() {
	if r.cfg.Metrics.Addr == "" || r.cfg.Metrics.Addr == "off" {
		return
	}

	handler := promhttp.Handler()
	if r.reg != nil {
		handler = promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.metricsSrv = &http.Server{Addr: r.cfg.Metrics.Addr, Handler: mux}
	go func(srv *http.Server) {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server exited: %v", err)
		}
	}(r.metricsSrv)
}
