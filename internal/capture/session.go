package capture

import (
	"sync/atomic"
	"time"
)

// Session is one in-progress capture owned by the Recorder.
type Session struct {
	ID         string
	Username   string
	Backend    string
	OutputPath string
	StartedAt  time.Time

	proc          Process
	stopRequested atomic.Bool
}

// NewSessionForTests wraps proc in a session without launching anything.
func NewSessionForTests(username, outputPath string, proc Process) *Session {
	return &Session{
		ID:         "test-" + username,
		Username:   username,
		Backend:    "test",
		OutputPath: outputPath,
		StartedAt:  time.Now(),
		proc:       proc,
	}
}

// Done is closed when the capture process has exited for any reason.
func (s *Session) Done() <-chan struct{} {
	return s.proc.Done()
}

// Exited reports whether the capture process is gone.
func (s *Session) Exited() bool {
	select {
	case <-s.proc.Done():
		return true
	default:
		return false
	}
}

// Err returns the process exit error once Exited is true.
func (s *Session) Err() error {
	return s.proc.Err()
}

// Output returns the retained tail of the capture tool output.
func (s *Session) Output() string {
	return s.proc.Output()
}

// Pid returns the capture process ID.
func (s *Session) Pid() int {
	return s.proc.Pid()
}

// StopRequested reports whether Stop was called, distinguishing a user stop
// from the process exiting on its own.
func (s *Session) StopRequested() bool {
	return s.stopRequested.Load()
}
