package classify

import (
	"math"
	"testing"
)

func TestLineStrictSampleParse(t *testing.T) {
	msg := Line("1234.5,0.4567,1,42\r")
	if msg.Kind != KindSample {
		t.Fatalf("expected sample, got %s", msg.Kind)
	}
	s := msg.Sample
	if math.Abs(s.TimeMs-1234.5) > 1e-9 || math.Abs(s.Voltage-0.4567) > 1e-9 {
		t.Fatalf("fields parsed wrong: %+v", s)
	}
	if !s.Hit || s.TotalHits != 42 {
		t.Fatalf("flag fields parsed wrong: %+v", s)
	}
}

func TestLineNegativeTimestampAccepted(t *testing.T) {
	msg := Line("-2.5,0.1,0,0")
	if msg.Kind != KindSample {
		t.Fatalf("minus-prefixed line should parse, got %s", msg.Kind)
	}
}

func TestLineRejectsMalformedData(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"1.0,0.2,1",           // three fields
		"1.0,0.2,1,5,9",       // five fields
		"1.0,abc,1,5",         // non-numeric voltage
		"1.0,0.2,2,5",         // flag outside {0,1}
		"1.0,0.2,x,5",         // non-integer flag
		"1.0,0.2,1,5.5",       // non-integer count
		"x1.0,0.2,1,5",        // leading garbage
		"snap",                // command echo
		"some banner text",    // free text
	}
	for _, c := range cases {
		if msg := Line(c); msg.Kind == KindSample {
			t.Fatalf("line %q must not classify as sample", c)
		}
	}
}

func TestLineControlTokenPriority(t *testing.T) {
	cases := []struct {
		line string
		want Kind
	}{
		{"[SEEs] SNAP command received", KindSnapAck},
		{"[SNAP_START]", KindSnapStart},
		{"[SNAP_END]", KindSnapEnd},
		{"[SEEs] Streaming at 10 kS/s", KindStatus},
		{"time_ms,voltage_V,hit,total_hits", KindHeaderEcho},
		// Numeric-looking content inside control lines must not win.
		{"[SEEs] SNAP command received 1.0,0.2,1,5", KindSnapAck},
		{"[SEEs] 12.0,0.3,1,7", KindStatus},
	}
	for _, c := range cases {
		if msg := Line(c.line); msg.Kind != c.want {
			t.Fatalf("line %q: got %s, want %s", c.line, msg.Kind, c.want)
		}
	}
}

func TestLineStatusTextStripped(t *testing.T) {
	msg := Line("[SEEs] Buffer initialized")
	if msg.Kind != KindStatus || msg.Text != "Buffer initialized" {
		t.Fatalf("status text not extracted: %+v", msg)
	}
}

func TestLineUnrecognizedDefault(t *testing.T) {
	msg := Line("### totally unknown ###")
	if msg.Kind != KindUnrecognized {
		t.Fatalf("expected unrecognized, got %s", msg.Kind)
	}
}

func TestLooksLikeCorruptedData(t *testing.T) {
	positive := []string{
		"1234.5,0.45",               // truncated row
		"12.0,0.3,1",                // three numeric fields
		"snap12.0,0.3,1",            // echoed keystrokes before a row
		"-1.5,0.2,0",                // negative start
	}
	for _, c := range positive {
		if !LooksLikeCorruptedData(c) {
			t.Fatalf("line %q should be data-like", c)
		}
	}

	negative := []string{
		"",
		"no commas here",
		"[SEEs] status, with a comma",
		"a,b,c",
		"alpha,beta,0.5", // only trailing field numeric
	}
	for _, c := range negative {
		if LooksLikeCorruptedData(c) {
			t.Fatalf("line %q should not be data-like", c)
		}
	}
}

// The heuristic is display-only: nothing it matches may also satisfy
// the strict parser unless the strict parser accepted it first.
func TestCorruptHeuristicNeverProducesSamples(t *testing.T) {
	cases := []string{"1234.5,0.45", "12.0,0.3,1", "snap12.0,0.3,1"}
	for _, c := range cases {
		if Line(c).Kind == KindSample {
			t.Fatalf("heuristic case %q leaked into strict sample path", c)
		}
	}
}
