package transport

import (
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/hsfl/aeris-sees-software/internal/ports"
)

// Subprocess runs the native firmware build as a child process and
// speaks the line protocol over its stdin/stdout, the second simulation
// mode of the original console.
type Subprocess struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	pump  *pump

	mu     sync.Mutex
	closed bool
}

// StartSubprocess launches command with args. Stderr is discarded: the
// firmware's diagnostic chatter is not part of the line protocol.
func StartSubprocess(command string, args ...string) (*Subprocess, error) {
	cmd := exec.Command(command, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("subprocess stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("subprocess stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("subprocess start %s: %w", command, err)
	}

	return &Subprocess{
		cmd:   cmd,
		stdin: stdin,
		pump:  newPump(stdout),
	}, nil
}

func (t *Subprocess) Available() int { return t.pump.available() }

func (t *Subprocess) ReadAvailable() ([]byte, error) { return t.pump.take() }

func (t *Subprocess) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, ports.ErrTransportClosed
	}
	return t.stdin.Write(p)
}

func (t *Subprocess) DiscardPending() error {
	t.pump.discard()
	return nil
}

// Close terminates the child and reaps it. A child that already exited
// is not an error.
func (t *Subprocess) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	t.pump.close()
	_ = t.stdin.Close()
	if t.cmd.Process != nil {
		_ = t.cmd.Process.Kill()
	}
	_ = t.cmd.Wait()
	return nil
}

var _ ports.Transport = (*Subprocess)(nil)
