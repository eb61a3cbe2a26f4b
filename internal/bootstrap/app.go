package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"live-watcher/internal/capture"
	"live-watcher/internal/config"
	"live-watcher/internal/diagnostics"
	"live-watcher/internal/domain"
	"live-watcher/internal/logging"
	"live-watcher/internal/monitor"
	"live-watcher/internal/watchlist"
)

// sessionRecorder is the recorder surface the App drives.
type sessionRecorder interface {
	monitor.SessionRecorder
	StopAll()
}

// App wires configuration, persisted state, capture and monitoring.
type App struct {
	Config      *config.Config
	Watchlist   *watchlist.Watchlist
	Preferences *watchlist.Preferences
	Checker     monitor.StatusChecker
	Recorder    sessionRecorder
	Events      *monitor.EventBus
	Logger      *slog.Logger
	Tools       []domain.ExternalTool

	diagnostics *diagnostics.Checker
	fixer       *diagnostics.Fixer
	closer      io.Closer

	mu          sync.Mutex
	Diagnostics domain.DiagnosticReport
}

// New builds the application from resolved configuration. Unreadable state
// files are logged and replaced by defaults rather than failing startup.
func New(cfg *config.Config, stderr io.Writer) (*App, error) {
	logger, closer, err := logging.New(cfg.Log, stderr)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	logger.Info("app.start", "data_dir", cfg.DataDir, "config", cfg.SourcePath)

	if homeDir, err := os.UserHomeDir(); err == nil {
		if err := ensureLocalBinOnPATH(homeDir); err != nil {
			logger.Warn("app.local_bin", "error", err)
		}
	}

	list, err := watchlist.New(config.NewUsernameStore(cfg.UsernamesFile))
	if err != nil {
		logger.Warn("state.usernames_unreadable", "path", cfg.UsernamesFile, "error", err)
	}
	prefs, err := watchlist.NewPreferences(config.NewJSONStore(cfg.SettingsFile))
	if err != nil {
		logger.Warn("state.settings_unreadable", "path", cfg.SettingsFile, "error", err)
	}

	backends, err := capture.NewBackends(cfg.Backends, cfg.StreamlinkPath, cfg.YtDlpPath)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}

	var remuxer *capture.Remuxer
	if cfg.Remux {
		remuxer = capture.NewRemuxer(cfg.FFmpegPath, logger)
	}

	return &App{
		Config:      cfg,
		Watchlist:   list,
		Preferences: prefs,
		Checker: capture.NewChecker(capture.CheckerOptions{
			Backends:   backends,
			LiveURL:    cfg.LiveURL,
			Attempts:   cfg.ProbeAttempts,
			RetryDelay: cfg.ProbeRetryDelay,
			Logger:     logger,
		}),
		Recorder: capture.NewRecorder(capture.RecorderOptions{
			Backends:    backends,
			OutputDir:   cfg.RecordingsDir,
			LiveURL:     cfg.LiveURL,
			StartupWait: cfg.StartupWait,
			StopGrace:   cfg.StopGrace,
			Remuxer:     remuxer,
			Logger:      logger,
		}),
		Events:      monitor.NewEventBus(1000),
		Logger:      logger,
		Tools:       config.DefaultTools(cfg),
		diagnostics: diagnostics.NewChecker(),
		fixer:       diagnostics.NewFixer(logger),
		closer:      closer,
	}, nil
}

// NewLoop builds a monitor loop for username sharing the App's collaborators.
func (a *App) NewLoop(username string) *monitor.Loop {
	return monitor.NewLoop(monitor.LoopOptions{
		Username:     username,
		Checker:      a.Checker,
		Recorder:     a.Recorder,
		Recording:    a.Preferences,
		Events:       a.Events,
		PollInterval: a.Config.PollInterval,
		ProbeTimeout: a.Config.ProbeTimeout,
		Logger:       a.Logger,
	})
}

// Monitor watches one username until ctx is done.
func (a *App) Monitor(ctx context.Context, raw string) error {
	username, err := watchlist.Normalize(raw)
	if err != nil {
		return err
	}
	return a.NewLoop(username).Run(ctx)
}

// MonitorAll watches every saved username concurrently until ctx is done.
func (a *App) MonitorAll(ctx context.Context) error {
	group := monitor.NewGroup(a.NewLoop, a.Logger)
	err := group.Run(ctx, a.Watchlist.List())
	if errors.Is(err, monitor.ErrNoUsernames) {
		return fmt.Errorf("%w: add one first", err)
	}
	return err
}

// RefreshDiagnostics reruns dependency checks and caches the report.
func (a *App) RefreshDiagnostics() domain.DiagnosticReport {
	report := a.diagnostics.Run(a.Tools, a.Config.RecordingsDir)

	a.mu.Lock()
	a.Diagnostics = report
	a.mu.Unlock()

	for _, item := range report.Items {
		if item.Status != domain.DiagnosticStatusPass {
			a.Logger.Warn("doctor.item", "id", item.ID, "status", string(item.Status), "message", item.Message)
		}
	}
	return report
}

// FixDiagnostics tries to remedy every non-passing item, then rechecks.
func (a *App) FixDiagnostics(ctx context.Context) ([]diagnostics.FixResult, domain.DiagnosticReport) {
	report := a.RefreshDiagnostics()
	results := a.fixer.FixAll(ctx, report, a.Tools, a.Config.RecordingsDir)
	return results, a.RefreshDiagnostics()
}

// Recordings lists captured files, newest first.
func (a *App) Recordings() ([]domain.RecordingFile, error) {
	return capture.ListRecordings(a.Config.RecordingsDir)
}

// Shutdown stops any capture still running and closes the log file.
func (a *App) Shutdown() {
	if a.Recorder != nil {
		a.Recorder.StopAll()
	}
	if a.Logger != nil {
		a.Logger.Info("app.stop")
	}
	if a.closer != nil {
		_ = a.closer.Close()
	}
}
