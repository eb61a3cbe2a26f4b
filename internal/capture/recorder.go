package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
)

// ErrAlreadyRecording is returned when a session is active for the username.
var ErrAlreadyRecording = errors.New("already recording")

// remuxTimeout bounds the post-stop ffmpeg pass.
const remuxTimeout = 30 * time.Minute

// StartAttempt records why one backend could not start a capture.
type StartAttempt struct {
	Backend string
	Err     error
}

// StartError reports that no backend could start a capture.
type StartError struct {
	Username string
	Attempts []StartAttempt
}

// Error formats per-backend failures on one line.
func (e *StartError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("start recording @%s: no capture backend configured", e.Username)
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, attempt := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", attempt.Backend, attempt.Err))
	}
	return fmt.Sprintf("start recording @%s: %s", e.Username, strings.Join(parts, "; "))
}

// Unwrap exposes attempt errors for errors.Is / errors.As.
func (e *StartError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, attempt := range e.Attempts {
		errs = append(errs, attempt.Err)
	}
	return errs
}

// RecorderOptions configures a Recorder.
type RecorderOptions struct {
	Backends    []Backend
	OutputDir   string
	LiveURL     func(username string) string
	StartupWait time.Duration
	StopGrace   time.Duration
	Remuxer     *Remuxer
	Logger      *slog.Logger
}

// Recorder launches capture children, at most one per username.
type Recorder struct {
	backends    []Backend
	outputDir   string
	liveURL     func(string) string
	startupWait time.Duration
	stopGrace   time.Duration
	remuxer     *Remuxer
	logger      *slog.Logger

	lookPath func(string) (string, error)
	launch   launchFunc
	mkdirAll func(string, os.FileMode) error
	stat     func(string) (os.FileInfo, error)
	remove   func(string) error
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	starting map[string]struct{}

	remuxes conc.WaitGroup
}

// NewRecorder constructs the production recorder.
func NewRecorder(opts RecorderOptions) *Recorder {
	return NewRecorderForTests(opts, exec.LookPath, startProcess, time.Now)
}

// NewRecorderForTests constructs a recorder with injectable process hooks.
func NewRecorderForTests(
	opts RecorderOptions,
	lookPath func(string) (string, error),
	launch func(name string, args []string) (Process, error),
	now func() time.Time,
) *Recorder {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Recorder{
		backends:    opts.Backends,
		outputDir:   opts.OutputDir,
		liveURL:     opts.LiveURL,
		startupWait: opts.StartupWait,
		stopGrace:   opts.StopGrace,
		remuxer:     opts.Remuxer,
		logger:      opts.Logger,
		lookPath:    lookPath,
		launch:      launch,
		mkdirAll:    os.MkdirAll,
		stat:        os.Stat,
		remove:      os.Remove,
		now:         now,
		sessions:    make(map[string]*Session),
		starting:    make(map[string]struct{}),
	}
}

// OutputDir returns the directory captures are written to.
func (r *Recorder) OutputDir() string {
	return r.outputDir
}

// Start launches a capture for username with the first backend that
// survives its startup window. When a session is already active or starting
// it returns that session (possibly nil) and ErrAlreadyRecording.
func (r *Recorder) Start(ctx context.Context, username string) (*Session, error) {
	r.mu.Lock()
	if existing, ok := r.sessions[username]; ok {
		if !existing.Exited() {
			r.mu.Unlock()
			return existing, ErrAlreadyRecording
		}
		delete(r.sessions, username)
	}
	if _, ok := r.starting[username]; ok {
		r.mu.Unlock()
		return nil, ErrAlreadyRecording
	}
	r.starting[username] = struct{}{}
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.starting, username)
		r.mu.Unlock()
	}()

	if err := r.mkdirAll(r.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create recordings directory %s: %w", r.outputDir, err)
	}

	startedAt := r.now()
	url := r.liveURL(username)
	startErr := &StartError{Username: username}

	for _, backend := range r.backends {
		binary, err := r.lookPath(backend.Binary())
		if err != nil {
			startErr.Attempts = append(startErr.Attempts, StartAttempt{
				Backend: backend.Name(),
				Err:     fmt.Errorf("%s not found on PATH", backend.Binary()),
			})
			continue
		}

		path, err := uniquePath(OutputPath(r.outputDir, username, startedAt, backend.Extension()), r.stat)
		if err != nil {
			startErr.Attempts = append(startErr.Attempts, StartAttempt{Backend: backend.Name(), Err: err})
			continue
		}
		proc, err := r.launch(binary, backend.RecordArgs(url, path))
		if err != nil {
			startErr.Attempts = append(startErr.Attempts, StartAttempt{Backend: backend.Name(), Err: err})
			continue
		}

		if err := r.awaitStartup(ctx, proc); err != nil {
			r.removeIfEmpty(path)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			r.logger.Warn("recording.backend_failed",
				"username", username,
				"backend", backend.Name(),
				"error", err,
			)
			startErr.Attempts = append(startErr.Attempts, StartAttempt{Backend: backend.Name(), Err: err})
			continue
		}

		session := &Session{
			ID:         uuid.NewString(),
			Username:   username,
			Backend:    backend.Name(),
			OutputPath: path,
			StartedAt:  startedAt,
			proc:       proc,
		}
		r.mu.Lock()
		r.sessions[username] = session
		r.mu.Unlock()

		r.logger.Info("recording.started",
			"username", username,
			"session", session.ID,
			"backend", backend.Name(),
			"pid", proc.Pid(),
			"output", path,
		)
		return session, nil
	}

	return nil, startErr
}

// awaitStartup fails when proc exits within the startup window.
func (r *Recorder) awaitStartup(ctx context.Context, proc Process) error {
	if r.startupWait <= 0 {
		select {
		case <-proc.Done():
			return exitedDuringStartup(proc)
		default:
			return nil
		}
	}

	timer := time.NewTimer(r.startupWait)
	defer timer.Stop()

	select {
	case <-proc.Done():
		return exitedDuringStartup(proc)
	case <-timer.C:
		return nil
	case <-ctx.Done():
		_ = proc.Kill()
		return ctx.Err()
	}
}

func exitedDuringStartup(proc Process) error {
	detail := lastLine(proc.Output())
	if detail == "" {
		detail = "no output"
	}
	if err := proc.Err(); err != nil {
		return fmt.Errorf("exited during startup: %w: %s", err, detail)
	}
	return fmt.Errorf("exited during startup: %s", detail)
}

// Active returns the running session for username, if any.
func (r *Recorder) Active(username string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[username]
	if !ok || session.Exited() {
		return nil, false
	}
	return session, true
}

// Stop interrupts the capture, waits up to the grace period, then kills it.
// The output file is always kept. A session that already exited is just
// released. The remux runs in the background; StopAll and WaitRemux wait
// for it.
func (r *Recorder) Stop(session *Session) error {
	if session == nil {
		return nil
	}
	session.stopRequested.Store(true)

	err := r.terminate(session)
	r.release(session)

	if err == nil && r.remuxer != nil {
		path := session.OutputPath
		r.remuxes.Go(func() { r.remuxOutput(path) })
	}
	return err
}

// StopAll stops every tracked session.
func (r *Recorder) StopAll() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	r.mu.Unlock()

	for _, session := range sessions {
		if err := r.Stop(session); err != nil {
			r.logger.Error("recording.stop_failed", "username", session.Username, "error", err)
		}
	}
	r.WaitRemux()
}

// WaitRemux blocks until every remux started by Stop has finished.
func (r *Recorder) WaitRemux() {
	r.remuxes.Wait()
}

func (r *Recorder) terminate(session *Session) error {
	if session.Exited() {
		return nil
	}

	if err := session.proc.Signal(os.Interrupt); err != nil {
		r.logger.Debug("recording.interrupt_unsupported", "username", session.Username, "error", err)
		return r.kill(session)
	}

	timer := time.NewTimer(r.stopGrace)
	defer timer.Stop()
	select {
	case <-session.Done():
		r.logger.Info("recording.stopped", "username", session.Username, "session", session.ID)
		return nil
	case <-timer.C:
	}

	r.logger.Warn("recording.force_stop", "username", session.Username, "grace", r.stopGrace)
	return r.kill(session)
}

func (r *Recorder) kill(session *Session) error {
	if err := session.proc.Kill(); err != nil && !session.Exited() {
		return fmt.Errorf("kill capture process %d: %w", session.Pid(), err)
	}

	timer := time.NewTimer(r.stopGrace + time.Second)
	defer timer.Stop()
	select {
	case <-session.Done():
		return nil
	case <-timer.C:
		return fmt.Errorf("capture process %d did not exit after kill", session.Pid())
	}
}

func (r *Recorder) release(session *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.sessions[session.Username]; ok && current == session {
		delete(r.sessions, session.Username)
	}
}

func (r *Recorder) remuxOutput(path string) {
	if !strings.EqualFold(filepath.Ext(path), ".mp4") {
		return
	}
	info, err := r.stat(path)
	if err != nil || info.Size() == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), remuxTimeout)
	defer cancel()
	if err := r.remuxer.Remux(ctx, path); err != nil {
		r.logger.Warn("recording.remux_failed", "output", path, "error", err)
		return
	}
	r.logger.Info("recording.remuxed", "output", path)
}

func (r *Recorder) removeIfEmpty(path string) {
	if info, err := r.stat(path); err == nil && info.Size() == 0 {
		_ = r.remove(path)
	}
}
