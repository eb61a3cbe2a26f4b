package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"live-watcher/internal/bootstrap"
	"live-watcher/internal/capture"
	"live-watcher/internal/config"
	"live-watcher/internal/domain"
	"live-watcher/internal/logging"
	"live-watcher/internal/monitor"
	"live-watcher/internal/watchlist"
)

type stubChecker struct {
	status domain.LiveStatus
	onCall func()
}

func (c *stubChecker) CheckStatus(context.Context, string, time.Duration) domain.LiveStatus {
	if c.onCall != nil {
		c.onCall()
	}
	return c.status
}

type stubRecorder struct {
	mu      sync.Mutex
	started []string
	stopped int
}

func (r *stubRecorder) Start(_ context.Context, username string) (*capture.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, username)
	return capture.NewSessionForTests(username, "Recordings/"+username+".mp4", &pendingProcess{done: make(chan struct{})}), nil
}

func (r *stubRecorder) Stop(*capture.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped++
	return nil
}

func (r *stubRecorder) StopAll() {}

type pendingProcess struct {
	done chan struct{}
}

func (p *pendingProcess) Pid() int               { return 42 }
func (p *pendingProcess) Signal(os.Signal) error { return nil }
func (p *pendingProcess) Kill() error            { return nil }
func (p *pendingProcess) Done() <-chan struct{}  { return p.done }
func (p *pendingProcess) Err() error             { return nil }
func (p *pendingProcess) Output() string         { return "" }

// fixture is a CLI wired to in-memory state. Any monitoring run is
// cancelled as soon as the checker has been consulted once.
type fixture struct {
	deps     *Dependencies
	checker  *stubChecker
	recorder *stubRecorder
	fs       afero.Fs
	cancel   context.CancelFunc
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fx := &fixture{
		checker:  &stubChecker{status: domain.LiveStatusLive},
		recorder: &stubRecorder{},
		fs:       afero.NewMemMapFs(),
	}
	fx.checker.onCall = func() {
		if fx.cancel != nil {
			fx.cancel()
		}
	}

	list, err := watchlist.New(config.NewUsernameStoreWithFs(fx.fs, "/data/usernames.json"))
	require.NoError(t, err)
	prefs, err := watchlist.NewPreferences(config.NewJSONStoreWithFs(fx.fs, "/data/settings.json"))
	require.NoError(t, err)

	dir := t.TempDir()
	cfg := config.Default(dir)
	cfg.RecordingsDir = filepath.Join(dir, config.DefaultRecordingsDir)
	cfg.PollInterval = time.Hour

	app := &bootstrap.App{
		Config:      cfg,
		Watchlist:   list,
		Preferences: prefs,
		Checker:     fx.checker,
		Recorder:    fx.recorder,
		Events:      monitor.NewEventBus(100),
		Logger:      logging.Discard(),
	}
	fx.deps = &Dependencies{
		App:    app,
		Config: cfg,
		NotifyContext: func(parent context.Context) (context.Context, context.CancelFunc) {
			ctx, cancel := context.WithCancel(parent)
			fx.cancel = cancel
			return ctx, cancel
		},
	}
	return fx
}

// execute runs the root command with args and stdin, returning stdout.
func (fx *fixture) execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd(fx.deps)
	cmd.SetArgs(args)
	cmd.SetIn(bytes.NewBufferString(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}
