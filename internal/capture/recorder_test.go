package capture

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

var fixedStart = time.Date(2024, 5, 6, 7, 8, 9, 0, time.Local)

// launchRecorder captures launch calls and hands out scripted processes.
type launchRecorder struct {
	mu    sync.Mutex
	names []string
	args  [][]string
	procs []*fakeProcess
	err   error
}

func (l *launchRecorder) launch(name string, args []string) (Process, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.names = append(l.names, name)
	l.args = append(l.args, append([]string(nil), args...))
	if l.err != nil {
		return nil, l.err
	}
	if len(l.procs) == 0 {
		return newFakeProcess(100 + len(l.names)), nil
	}
	proc := l.procs[0]
	l.procs = l.procs[1:]
	return proc, nil
}

func testRecorder(t *testing.T, launcher *launchRecorder, lookPath func(string) (string, error)) *Recorder {
	t.Helper()
	return NewRecorderForTests(RecorderOptions{
		Backends:    []Backend{&Streamlink{}, &YtDlp{}},
		OutputDir:   filepath.Join(t.TempDir(), "Recordings"),
		LiveURL:     testLiveURL,
		StartupWait: 20 * time.Millisecond,
		StopGrace:   50 * time.Millisecond,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, lookPath, launcher.launch, func() time.Time { return fixedStart })
}

func exitedProcess(pid int, output string) *fakeProcess {
	proc := newFakeProcess(pid)
	proc.output = output
	proc.exit(errors.New("exit status 1"))
	return proc
}

// TestRecorderStartUsesFirstBackend checks a surviving streamlink child becomes the session.
func TestRecorderStartUsesFirstBackend(t *testing.T) {
	launcher := &launchRecorder{}
	recorder := testRecorder(t, launcher, lookPathOnly("streamlink", "yt-dlp"))

	session, err := recorder.Start(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if session.Backend != "streamlink" {
		t.Fatalf("backend = %q, want streamlink", session.Backend)
	}
	wantPath := filepath.Join(recorder.OutputDir(), "alice_2024-05-06_07-08-09.mp4")
	if session.OutputPath != wantPath {
		t.Fatalf("output = %q, want %q", session.OutputPath, wantPath)
	}
	if session.ID == "" || !session.StartedAt.Equal(fixedStart) {
		t.Fatalf("session = %+v", session)
	}
	if _, err := os.Stat(recorder.OutputDir()); err != nil {
		t.Fatalf("recordings dir not created: %v", err)
	}

	if len(launcher.names) != 1 || launcher.names[0] != "/usr/bin/streamlink" {
		t.Fatalf("launches = %v", launcher.names)
	}
	args := strings.Join(launcher.args[0], " ")
	if !strings.Contains(args, "--output "+wantPath) || !strings.Contains(args, "https://www.tiktok.com/@alice/live best") {
		t.Fatalf("record args = %q", args)
	}

	active, ok := recorder.Active("alice")
	if !ok || active != session {
		t.Fatalf("Active() = %v, %v", active, ok)
	}
}

// TestRecorderStartFallsBackWhenPrimaryExits checks yt-dlp runs when streamlink dies during startup.
func TestRecorderStartFallsBackWhenPrimaryExits(t *testing.T) {
	launcher := &launchRecorder{procs: []*fakeProcess{
		exitedProcess(1, "error: No playable streams found"),
		newFakeProcess(2),
	}}
	recorder := testRecorder(t, launcher, lookPathOnly("streamlink", "yt-dlp"))

	session, err := recorder.Start(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if session.Backend != "yt-dlp" || session.Pid() != 2 {
		t.Fatalf("session backend=%q pid=%d", session.Backend, session.Pid())
	}
	if len(launcher.names) != 2 || launcher.names[1] != "/usr/bin/yt-dlp" {
		t.Fatalf("launches = %v", launcher.names)
	}
}

// TestRecorderStartSkipsMissingBinary checks an uninstalled backend is skipped.
func TestRecorderStartSkipsMissingBinary(t *testing.T) {
	launcher := &launchRecorder{}
	recorder := testRecorder(t, launcher, lookPathOnly("yt-dlp"))

	session, err := recorder.Start(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if session.Backend != "yt-dlp" || len(launcher.names) != 1 {
		t.Fatalf("backend=%q launches=%v", session.Backend, launcher.names)
	}
}

// TestRecorderStartAllBackendsFail checks the error lists every attempt.
func TestRecorderStartAllBackendsFail(t *testing.T) {
	launchErr := errors.New("permission denied")
	launcher := &launchRecorder{procs: []*fakeProcess{exitedProcess(1, "boom")}}
	recorder := testRecorder(t, launcher, lookPathOnly("streamlink", "yt-dlp"))
	launcherAfterFirst := launcher.launch
	calls := 0
	recorder.launch = func(name string, args []string) (Process, error) {
		calls++
		if calls == 2 {
			return nil, launchErr
		}
		return launcherAfterFirst(name, args)
	}

	session, err := recorder.Start(context.Background(), "alice")
	if session != nil {
		t.Fatalf("session = %+v, want nil", session)
	}
	var startErr *StartError
	if !errors.As(err, &startErr) {
		t.Fatalf("error = %T %v, want *StartError", err, err)
	}
	if len(startErr.Attempts) != 2 {
		t.Fatalf("attempts = %+v", startErr.Attempts)
	}
	if !errors.Is(err, launchErr) {
		t.Fatalf("errors.Is(launchErr) = false for %v", err)
	}
	if !strings.Contains(err.Error(), "exited during startup") || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("error text = %q", err.Error())
	}
	if _, ok := recorder.Active("alice"); ok {
		t.Fatalf("Active() = true after failed start")
	}
}

// TestRecorderStartNoToolsInstalled checks a fully missing toolchain is a StartError.
func TestRecorderStartNoToolsInstalled(t *testing.T) {
	launcher := &launchRecorder{}
	recorder := testRecorder(t, launcher, lookPathOnly())

	_, err := recorder.Start(context.Background(), "alice")
	var startErr *StartError
	if !errors.As(err, &startErr) || len(startErr.Attempts) != 2 {
		t.Fatalf("error = %v", err)
	}
	if len(launcher.names) != 0 {
		t.Fatalf("launches = %v, want none", launcher.names)
	}
}

// TestRecorderStartWhileRecording checks a second start is a no-op.
func TestRecorderStartWhileRecording(t *testing.T) {
	launcher := &launchRecorder{}
	recorder := testRecorder(t, launcher, lookPathOnly("streamlink"))

	first, err := recorder.Start(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	second, err := recorder.Start(context.Background(), "alice")
	if !errors.Is(err, ErrAlreadyRecording) {
		t.Fatalf("second Start() error = %v, want ErrAlreadyRecording", err)
	}
	if second != first {
		t.Fatalf("second Start() returned a different session")
	}
	if len(launcher.names) != 1 {
		t.Fatalf("launches = %d, want 1", len(launcher.names))
	}
}

// TestRecorderRestartAfterExit checks an exited session does not block a new start.
func TestRecorderRestartAfterExit(t *testing.T) {
	first := newFakeProcess(1)
	launcher := &launchRecorder{procs: []*fakeProcess{first}}
	recorder := testRecorder(t, launcher, lookPathOnly("streamlink"))

	if _, err := recorder.Start(context.Background(), "alice"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	first.exit(nil)

	if _, ok := recorder.Active("alice"); ok {
		t.Fatalf("Active() = true after process exit")
	}
	session, err := recorder.Start(context.Background(), "alice")
	if err != nil {
		t.Fatalf("restart error = %v", err)
	}
	if session.Pid() == 1 {
		t.Fatalf("restart reused exited process")
	}
}

// TestRecorderStopGraceful checks an interrupt that ends the child avoids a kill.
func TestRecorderStopGraceful(t *testing.T) {
	proc := newFakeProcess(7)
	proc.exitOnSignal = true
	launcher := &launchRecorder{procs: []*fakeProcess{proc}}
	recorder := testRecorder(t, launcher, lookPathOnly("streamlink"))

	session, err := recorder.Start(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := recorder.Stop(session); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if proc.signalCount() != 1 || proc.killCount() != 0 {
		t.Fatalf("signals=%d kills=%d, want 1/0", proc.signalCount(), proc.killCount())
	}
	if !session.StopRequested() {
		t.Fatalf("StopRequested() = false")
	}
	if _, ok := recorder.Active("alice"); ok {
		t.Fatalf("Active() = true after Stop")
	}
}

// TestRecorderStopForcesKillAfterGrace checks a child that ignores the interrupt is killed.
func TestRecorderStopForcesKillAfterGrace(t *testing.T) {
	proc := newFakeProcess(7)
	launcher := &launchRecorder{procs: []*fakeProcess{proc}}
	recorder := testRecorder(t, launcher, lookPathOnly("streamlink"))

	session, err := recorder.Start(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	started := time.Now()
	if err := recorder.Stop(session); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if elapsed := time.Since(started); elapsed < 50*time.Millisecond {
		t.Fatalf("Stop returned after %s, want at least the grace period", elapsed)
	}
	if proc.killCount() != 1 {
		t.Fatalf("kills = %d, want 1", proc.killCount())
	}
}

// TestRecorderStopKillsWhenSignalUnsupported checks the interrupt failure path.
func TestRecorderStopKillsWhenSignalUnsupported(t *testing.T) {
	proc := newFakeProcess(7)
	proc.signalErr = errors.New("not supported by windows")
	launcher := &launchRecorder{procs: []*fakeProcess{proc}}
	recorder := testRecorder(t, launcher, lookPathOnly("streamlink"))

	session, err := recorder.Start(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := recorder.Stop(session); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if proc.killCount() != 1 {
		t.Fatalf("kills = %d, want 1", proc.killCount())
	}
}

// TestRecorderStopAll checks every active session is stopped.
func TestRecorderStopAll(t *testing.T) {
	launcher := &launchRecorder{}
	recorder := testRecorder(t, launcher, lookPathOnly("streamlink"))

	for _, username := range []string{"alice", "bob"} {
		if _, err := recorder.Start(context.Background(), username); err != nil {
			t.Fatalf("Start(%s) error = %v", username, err)
		}
	}
	recorder.StopAll()

	for _, username := range []string{"alice", "bob"} {
		if _, ok := recorder.Active(username); ok {
			t.Fatalf("Active(%s) = true after StopAll", username)
		}
	}
}

// TestRecorderStopNil checks Stop tolerates a nil session.
func TestRecorderStopNil(t *testing.T) {
	recorder := testRecorder(t, &launchRecorder{}, lookPathOnly())
	if err := recorder.Stop(nil); err != nil {
		t.Fatalf("Stop(nil) error = %v", err)
	}
}

// TestRecorderStopRemuxesOutput checks a non-empty capture is handed to ffmpeg after stop.
func TestRecorderStopRemuxesOutput(t *testing.T) {
	proc := newFakeProcess(7)
	proc.exitOnSignal = true
	launcher := &launchRecorder{procs: []*fakeProcess{proc}}

	var remuxInput string
	runner := &fakeRunner{run: func(ctx context.Context, name string, args ...string) (CommandResult, error) {
		remuxInput = argValue(args, "-i")
		mustWriteFile(t, args[len(args)-1], "remuxed")
		return CommandResult{}, nil
	}}

	recorder := NewRecorderForTests(RecorderOptions{
		Backends:    []Backend{&Streamlink{}},
		OutputDir:   t.TempDir(),
		LiveURL:     testLiveURL,
		StartupWait: time.Millisecond,
		StopGrace:   50 * time.Millisecond,
		Remuxer:     NewRemuxerForTests("ffmpeg", runner, lookPathOnly("ffmpeg"), nil),
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, lookPathOnly("streamlink"), launcher.launch, func() time.Time { return fixedStart })

	session, err := recorder.Start(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	mustWriteFile(t, session.OutputPath, "captured")

	if err := recorder.Stop(session); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	recorder.WaitRemux()
	if remuxInput != session.OutputPath {
		t.Fatalf("remux input = %q, want %q", remuxInput, session.OutputPath)
	}
	if got := mustReadFile(t, session.OutputPath); got != "remuxed" {
		t.Fatalf("output content = %q, want remuxed", got)
	}
}

// TestRecorderStopDoesNotWaitForRemux checks a slow remux runs after Stop returns and StopAll waits for it.
func TestRecorderStopDoesNotWaitForRemux(t *testing.T) {
	proc := newFakeProcess(8)
	proc.exitOnSignal = true
	launcher := &launchRecorder{procs: []*fakeProcess{proc}}

	started := make(chan struct{})
	release := make(chan struct{})
	runner := &fakeRunner{run: func(ctx context.Context, name string, args ...string) (CommandResult, error) {
		close(started)
		<-release
		mustWriteFile(t, args[len(args)-1], "remuxed")
		return CommandResult{}, nil
	}}

	recorder := NewRecorderForTests(RecorderOptions{
		Backends:    []Backend{&Streamlink{}},
		OutputDir:   t.TempDir(),
		LiveURL:     testLiveURL,
		StartupWait: time.Millisecond,
		StopGrace:   50 * time.Millisecond,
		Remuxer:     NewRemuxerForTests("ffmpeg", runner, lookPathOnly("ffmpeg"), nil),
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, lookPathOnly("streamlink"), launcher.launch, func() time.Time { return fixedStart })

	session, err := recorder.Start(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	mustWriteFile(t, session.OutputPath, "captured")

	stopped := make(chan error, 1)
	go func() { stopped <- recorder.Stop(session) }()
	select {
	case err := <-stopped:
		if err != nil {
			t.Fatalf("Stop() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() blocked on the remux")
	}

	<-started
	if got := mustReadFile(t, session.OutputPath); got != "captured" {
		t.Fatalf("output before remux finished = %q", got)
	}

	close(release)
	recorder.StopAll()
	if got := mustReadFile(t, session.OutputPath); got != "remuxed" {
		t.Fatalf("output after StopAll = %q, want remuxed", got)
	}
}

// TestRecorderStartOutputDirUnreadable checks a stat failure on the output path is a failed start, not a hang.
func TestRecorderStartOutputDirUnreadable(t *testing.T) {
	launcher := &launchRecorder{}
	recorder := testRecorder(t, launcher, lookPathOnly("streamlink", "yt-dlp"))
	recorder.stat = func(string) (os.FileInfo, error) { return nil, os.ErrPermission }

	done := make(chan error, 1)
	go func() {
		_, err := recorder.Start(context.Background(), "alice")
		done <- err
	}()

	var err error
	select {
	case err = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return")
	}

	var startErr *StartError
	if !errors.As(err, &startErr) || len(startErr.Attempts) != 2 {
		t.Fatalf("error = %v, want StartError with 2 attempts", err)
	}
	if !errors.Is(err, os.ErrPermission) {
		t.Fatalf("errors.Is(os.ErrPermission) = false for %v", err)
	}
	if len(launcher.names) != 0 {
		t.Fatalf("launches = %v, want none", launcher.names)
	}
	if _, err := recorder.Start(context.Background(), "alice"); errors.Is(err, ErrAlreadyRecording) {
		t.Fatal("starting slot was not released")
	}
}

// TestRecorderStartCanceled checks cancellation during the startup window aborts without fallback.
func TestRecorderStartCanceled(t *testing.T) {
	first := newFakeProcess(1)
	launcher := &launchRecorder{procs: []*fakeProcess{first}}
	recorder := testRecorder(t, launcher, lookPathOnly("streamlink", "yt-dlp"))
	recorder.startupWait = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := recorder.Start(ctx, "alice")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Start() error = %v, want context.Canceled", err)
	}
	if first.killCount() != 1 {
		t.Fatalf("kills = %d, want started child killed", first.killCount())
	}
	if len(launcher.names) != 1 {
		t.Fatalf("launches = %v, want no fallback after cancel", launcher.names)
	}
}

func argValue(args []string, key string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == key {
			return args[i+1]
		}
	}
	return ""
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func mustReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
