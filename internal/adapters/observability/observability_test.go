package observability

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/hsfl/aeris-sees-software/internal/ports"
)

func TestCountersRegisteredAndIncremented(t *testing.T) {
	reg := prometheus.NewRegistry()
	o := New(nil, reg)

	o.IncCounter(MetricSamplesTotal, 3)
	o.IncCounter(MetricSamplesTotal, 2)

	got := testutil.ToFloat64(o.counters[MetricSamplesTotal])
	if got != 5 {
		t.Fatalf("expected counter value 5, got %f", got)
	}
}

func TestGaugeSet(t *testing.T) {
	o := New(nil, prometheus.NewRegistry())
	o.SetGauge(MetricRetentionSamples, 123)
	if got := testutil.ToFloat64(o.gauges[MetricRetentionSamples]); got != 123 {
		t.Fatalf("expected gauge 123, got %f", got)
	}
}

func TestUnknownMetricNamesIgnored(t *testing.T) {
	o := Nop()
	o.IncCounter("no_such_counter", 1)
	o.SetGauge("no_such_gauge", 1)
	o.ObserveLatency("no_such_histogram", 0.5)
}

func TestLogOutputContainsFields(t *testing.T) {
	var buf bytes.Buffer
	o := New(&buf, nil)

	o.LogInfo("stream started", ports.Field{Key: "port", Value: "/tmp/tty_sees"})
	o.LogError("transport fault", errors.New("read failed"))

	out := buf.String()
	if !strings.Contains(out, "stream started") || !strings.Contains(out, "/tmp/tty_sees") {
		t.Fatalf("info line missing content: %q", out)
	}
	if !strings.Contains(out, "transport fault") || !strings.Contains(out, "read failed") {
		t.Fatalf("error line missing content: %q", out)
	}
}

func TestNilRegistererSafeToRepeat(t *testing.T) {
	for i := 0; i < 3; i++ {
		_ = Nop()
	}
}
