// Package frame reassembles the detector's unbounded byte stream into
// discrete newline-terminated messages.
package frame

import (
	"bytes"
	"strings"
)

// Assembler turns arbitrary byte chunks into complete lines. Bytes of a
// trailing partial line are carried over to the next Feed call, so a
// message is never split across two outputs regardless of how the
// transport fragments it.
type Assembler struct {
	carry []byte
}

// NewAssembler returns an empty Assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Feed appends chunk to the carry buffer and returns every complete
// line it now contains, in arrival order. Line content excludes the
// newline; a trailing carriage return is stripped. Invalid UTF-8 is
// replaced rather than rejected: a noisy link must never halt ingestion.
func (a *Assembler) Feed(chunk []byte) []string {
	if len(chunk) == 0 && len(a.carry) == 0 {
		return nil
	}
	a.carry = append(a.carry, chunk...)

	var lines []string
	for {
		i := bytes.IndexByte(a.carry, '\n')
		if i < 0 {
			break
		}
		line := a.carry[:i]
		a.carry = a.carry[i+1:]
		line = bytes.TrimSuffix(line, []byte{'\r'})
		lines = append(lines, strings.ToValidUTF8(string(line), "�"))
	}

	// Reclaim the backing array once consumed lines dominate it.
	if len(a.carry) == 0 {
		a.carry = nil
	} else if cap(a.carry) > 4096 && len(a.carry) < cap(a.carry)/4 {
		a.carry = append([]byte(nil), a.carry...)
	}
	return lines
}

// PendingBytes reports how many bytes of an incomplete line are held.
func (a *Assembler) PendingBytes() int {
	return len(a.carry)
}

// Reset discards any carried partial line.
func (a *Assembler) Reset() {
	a.carry = nil
}
