package capture

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
)

// stderrTailBytes is how much child output is kept for error reporting.
const stderrTailBytes = 4096

// Process is a running capture child.
type Process interface {
	Pid() int
	// Signal requests termination. It fails where the signal is unsupported.
	Signal(sig os.Signal) error
	Kill() error
	// Done is closed once the process has been reaped.
	Done() <-chan struct{}
	// Err reports the exit error. It is only meaningful after Done is closed.
	Err() error
	// Output returns the retained tail of combined stdout and stderr.
	Output() string
}

// launchFunc starts a capture child without waiting for it.
type launchFunc func(name string, args []string) (Process, error)

// execProcess wraps an os/exec child reaped by a background goroutine.
type execProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
	out  *tailBuffer
}

// startProcess launches name detached from any context: capture children
// outlive the tick that started them and are only stopped through Stop.
func startProcess(name string, args []string) (Process, error) {
	out := newTailBuffer(stderrTailBytes)
	cmd := exec.Command(name, args...)
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", name, err)
	}

	p := &execProcess{cmd: cmd, done: make(chan struct{}), out: out}
	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

func (p *execProcess) Pid() int                   { return p.cmd.Process.Pid }
func (p *execProcess) Signal(sig os.Signal) error { return p.cmd.Process.Signal(sig) }
func (p *execProcess) Kill() error                { return p.cmd.Process.Kill() }
func (p *execProcess) Done() <-chan struct{}      { return p.done }
func (p *execProcess) Output() string             { return p.out.String() }

func (p *execProcess) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// tailBuffer is an io.Writer that keeps only the last max bytes written.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.max; over > 0 {
		b.buf = append([]byte(nil), b.buf[over:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
