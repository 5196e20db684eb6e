// Package classify maps one protocol line onto exactly one message
// variant. Control tokens are checked before any data heuristic because
// the device interleaves control and data lines with no out-of-band
// delimiter; a status line that happens to contain digits must never be
// mistaken for a sample.
package classify

import (
	"strconv"
	"strings"

	"github.com/hsfl/aeris-sees-software/internal/domain"
)

// Kind enumerates the message variants.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindSample
	KindStatus
	KindSnapAck
	KindSnapStart
	KindSnapEnd
	KindHeaderEcho
)

func (k Kind) String() string {
	switch k {
	case KindSample:
		return "sample"
	case KindStatus:
		return "status"
	case KindSnapAck:
		return "snap_ack"
	case KindSnapStart:
		return "snap_start"
	case KindSnapEnd:
		return "snap_end"
	case KindHeaderEcho:
		return "header_echo"
	default:
		return "unrecognized"
	}
}

// Protocol tokens emitted by the detector firmware.
const (
	statusPrefix   = "[SEEs]"
	snapAckToken   = "SNAP command received"
	snapStartToken = "[SNAP_START]"
	snapEndToken   = "[SNAP_END]"
	headerToken    = "voltage_V"
)

// Message is the classification result for one raw line. Exactly one
// variant applies; Sample is populated only when Kind == KindSample.
type Message struct {
	Kind   Kind
	Raw    string
	Text   string
	Sample domain.Sample
}

// Line classifies one assembled line. Classification is total: every
// input maps to a variant, with KindUnrecognized as the default.
func Line(raw string) Message {
	line := strings.TrimSpace(raw)
	if line == "" {
		return Message{Kind: KindUnrecognized, Raw: raw}
	}

	// Control tokens take priority over any data-shaped content.
	if strings.Contains(line, snapAckToken) {
		return Message{Kind: KindSnapAck, Raw: raw, Text: line}
	}
	switch line {
	case snapStartToken:
		return Message{Kind: KindSnapStart, Raw: raw, Text: line}
	case snapEndToken:
		return Message{Kind: KindSnapEnd, Raw: raw, Text: line}
	}
	if strings.HasPrefix(line, statusPrefix) {
		return Message{Kind: KindStatus, Raw: raw, Text: strings.TrimSpace(strings.TrimPrefix(line, statusPrefix))}
	}
	if strings.Contains(line, headerToken) {
		return Message{Kind: KindHeaderEcho, Raw: raw, Text: line}
	}

	if s, ok := parseSample(line); ok {
		return Message{Kind: KindSample, Raw: raw, Sample: s}
	}
	return Message{Kind: KindUnrecognized, Raw: raw, Text: line}
}

// parseSample applies the strict data-line rule: the line must begin
// with a digit or minus sign and split into exactly four comma fields
// parseable as float, float, {0,1}, int. Anything less falls through;
// a truncated three-field line is never partially accepted.
func parseSample(line string) (domain.Sample, bool) {
	c := line[0]
	if c != '-' && (c < '0' || c > '9') {
		return domain.Sample{}, false
	}

	parts := strings.Split(line, ",")
	if len(parts) != 4 {
		return domain.Sample{}, false
	}

	timeMs, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return domain.Sample{}, false
	}
	voltage, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return domain.Sample{}, false
	}
	hit, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil || (hit != 0 && hit != 1) {
		return domain.Sample{}, false
	}
	total, err := strconv.Atoi(strings.TrimSpace(parts[3]))
	if err != nil {
		return domain.Sample{}, false
	}

	return domain.Sample{
		TimeMs:    timeMs,
		Voltage:   voltage,
		Hit:       hit == 1,
		TotalHits: total,
	}, true
}
