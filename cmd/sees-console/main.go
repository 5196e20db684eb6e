package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	sees "github.com/hsfl/aeris-sees-software"
	"github.com/hsfl/aeris-sees-software/internal/adapters/transport"
	"github.com/hsfl/aeris-sees-software/internal/simulate"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "run":
		err = runCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "replay":
		err = replayCommand(os.Args[2:])
	case "stats":
		err = statsCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		log.Fatalf("sees-console %s: %v", cmd, err)
	}
}

func runCommand(args []string) error {
	fs := pflag.NewFlagSet("run", pflag.ExitOnError)
	cfgPath := fs.StringP("config", "c", "./data/config.yaml", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := sees.LoadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	rt, err := sees.NewRuntime(cfg)
	if err != nil {
		return err
	}
	fmt.Printf("session: %s\n", rt.SessionDir())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go forwardStdin(ctx, rt)
	return rt.Run(ctx)
}

// forwardStdin relays console input to the device, one line per
// command. "snap" is the one the detector cares about.
func forwardStdin(ctx context.Context, rt *sees.Runtime) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := rt.Command(line); err != nil {
			fmt.Fprintf(os.Stderr, "command: %v\n", err)
		}
	}
}

func validateCommand(args []string) error {
	fs := pflag.NewFlagSet("validate", pflag.ExitOnError)
	cfgPath := fs.StringP("config", "c", "./data/config.yaml", "Path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := sees.LoadConfig(*cfgPath); err != nil {
		return err
	}
	fmt.Printf("config %s looks good\n", *cfgPath)
	return nil
}

// replayCommand runs a full session against a simulated detector and
// triggers one snapshot mid-stream. Useful for exercising the pipeline
// with no hardware attached.
func replayCommand(args []string) error {
	fs := pflag.NewFlagSet("replay", pflag.ExitOnError)
	cfgPath := fs.StringP("config", "c", "./data/config.yaml", "Path to configuration file")
	duration := fs.DurationP("duration", "d", 10*time.Second, "Simulated stream duration")
	hitRate := fs.Float64P("hit-rate", "r", simulate.DefaultHitRateHz, "Average particle hit rate (Hz)")
	seed := fs.Int64P("seed", "s", 42, "Random seed")
	snapAt := fs.Duration("snap-at", 5*time.Second, "Stream position of the snapshot trigger")
	burst := fs.Bool("burst", false, "Simulate a particle burst instead of the --hit-rate background")
	dump := fs.String("dump", "", "Also write the generated stream to a CSV file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := sees.LoadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sim := simulate.New(*seed)
	var samples []sees.Sample
	if *burst {
		samples = sim.Burst(*duration)
	} else {
		samples = sim.Generate(*duration, *hitRate)
	}
	if *dump != "" {
		f, err := os.Create(*dump)
		if err != nil {
			return fmt.Errorf("dump: %w", err)
		}
		err = simulate.WriteCSV(f, samples)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("dump: %w", err)
		}
		fmt.Printf("dump: %s (%d samples)\n", *dump, len(samples))
	}

	lb := transport.NewLoopback()
	rt, err := sees.NewRuntime(cfg, sees.WithTransport(lb))
	if err != nil {
		return err
	}
	fmt.Printf("session: %s\n", rt.SessionDir())

	snapMs := float64(*snapAt) / float64(time.Millisecond)
	go func() {
		triggered := false
		for _, s := range samples {
			if !triggered && s.TimeMs >= snapMs {
				lb.DeviceWriteLine("SNAP command received")
				triggered = true
			}
			hit := 0
			if s.Hit {
				hit = 1
			}
			lb.DeviceWriteLine(fmt.Sprintf("%.1f,%.4f,%d,%d", s.TimeMs, s.Voltage, hit, s.TotalHits))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Stop once the loop has drained the simulated stream.
	go func() {
		for ctx.Err() == nil {
			time.Sleep(100 * time.Millisecond)
			if lb.Available() == 0 {
				time.Sleep(500 * time.Millisecond)
				if lb.Available() == 0 {
					stop()
					return
				}
			}
		}
	}()

	return rt.Run(ctx)
}

func statsCommand(args []string) error {
	fs := pflag.NewFlagSet("stats", pflag.ExitOnError)
	url := fs.String("url", "http://localhost:9100/metrics", "Prometheus metrics endpoint")
	interval := fs.Duration("interval", 2*time.Second, "Refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("Streaming metrics from %s (Ctrl+C to stop)\n", *url)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printMetricsSnapshot(*url); err != nil {
				fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
			}
		}
	}
}

func printMetricsSnapshot(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	targets := map[string]float64{
		"sees_samples_total":     0,
		"sees_snapshots_total":   0,
		"sees_pending_snapshots": 0,
		"sees_retention_span_ms": 0,
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		for key := range targets {
			if strings.HasPrefix(line, key+" ") {
				var value float64
				if _, err := fmt.Sscanf(line, key+" %f", &value); err == nil {
					targets[key] = value
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	fmt.Printf("[%s] samples=%.0f snapshots=%.0f pending=%.0f span_ms=%.0f\n",
		time.Now().Format(time.RFC3339),
		targets["sees_samples_total"],
		targets["sees_snapshots_total"],
		targets["sees_pending_snapshots"],
		targets["sees_retention_span_ms"],
	)
	return nil
}

func printUsage() {
	fmt.Printf(`SEEs console

Usage:
  sees-console <command> [flags]

Commands:
  run        Start a capture session using the provided config
  validate   Load and validate a config file without starting a session
  replay     Run a session against a simulated detector
  stats      Poll the Prometheus metrics endpoint and print live counters

Examples:
  sees-console run --config ./data/config.yaml
  sees-console validate --config ./data/config.yaml
  sees-console replay --duration 10s --hit-rate 5
  sees-console replay --duration 2s --burst --dump burst.csv
  sees-console stats --url http://localhost:9100/metrics --interval 1s
`)
}
