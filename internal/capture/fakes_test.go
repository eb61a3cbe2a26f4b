package capture

import (
	"context"
	"errors"
	"os"
	"sync"
)

// fakeRunner simulates command execution outcomes.
type fakeRunner struct {
	mu    sync.Mutex
	calls int
	run   func(ctx context.Context, name string, args ...string) (CommandResult, error)
}

// Run delegates to injected behavior.
func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (CommandResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.run == nil {
		return CommandResult{}, nil
	}
	return f.run(ctx, name, args...)
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeProcess is a controllable capture child.
type fakeProcess struct {
	pid    int
	output string

	// exitOnSignal makes Signal behave like a tool that exits cleanly on SIGINT.
	exitOnSignal bool
	signalErr    error

	done chan struct{}
	once sync.Once
	err  error

	mu      sync.Mutex
	signals []os.Signal
	kills   int
}

func newFakeProcess(pid int) *fakeProcess {
	return &fakeProcess{pid: pid, done: make(chan struct{})}
}

func (p *fakeProcess) exit(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.done)
	})
}

func (p *fakeProcess) Pid() int              { return p.pid }
func (p *fakeProcess) Done() <-chan struct{} { return p.done }
func (p *fakeProcess) Output() string        { return p.output }

func (p *fakeProcess) Signal(sig os.Signal) error {
	p.mu.Lock()
	p.signals = append(p.signals, sig)
	p.mu.Unlock()
	if p.signalErr != nil {
		return p.signalErr
	}
	if p.exitOnSignal {
		p.exit(nil)
	}
	return nil
}

func (p *fakeProcess) Kill() error {
	p.mu.Lock()
	p.kills++
	p.mu.Unlock()
	p.exit(errors.New("signal: killed"))
	return nil
}

func (p *fakeProcess) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

func (p *fakeProcess) killCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.kills
}

func (p *fakeProcess) signalCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.signals)
}

// lookPathOnly resolves only the listed binaries to /usr/bin/<name>.
func lookPathOnly(names ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, candidate := range names {
			if candidate == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", errors.New("executable file not found in $PATH")
	}
}

func testLiveURL(username string) string {
	return "https://www.tiktok.com/@" + username + "/live"
}
