// Package monitor runs the per-username polling loop that turns liveness
// probes into notifications and recording start/stop decisions.
package monitor

//go:generate mockgen -source=loop.go -destination=mock_loop_test.go -package=monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"live-watcher/internal/capture"
	"live-watcher/internal/domain"
)

// StatusChecker probes whether a username is live.
type StatusChecker interface {
	CheckStatus(ctx context.Context, username string, timeout time.Duration) domain.LiveStatus
}

// SessionRecorder starts and stops capture sessions.
type SessionRecorder interface {
	Start(ctx context.Context, username string) (*capture.Session, error)
	Stop(session *capture.Session) error
}

// RecordingSwitch exposes the persisted recording toggle.
type RecordingSwitch interface {
	RecordingEnabled() bool
}

// LoopOptions configures a Loop.
type LoopOptions struct {
	Username     string
	Checker      StatusChecker
	Recorder     SessionRecorder
	Recording    RecordingSwitch
	Events       *EventBus
	PollInterval time.Duration
	ProbeTimeout time.Duration
	Logger       *slog.Logger
	Now          func() time.Time
}

// Loop monitors one username. It is not safe for concurrent Tick calls.
type Loop struct {
	username     string
	checker      StatusChecker
	recorder     SessionRecorder
	recording    RecordingSwitch
	events       *EventBus
	pollInterval time.Duration
	probeTimeout time.Duration
	logger       *slog.Logger
	now          func() time.Time
	tracker      *Tracker
}

// NewLoop creates a loop with a fresh Tracker.
func NewLoop(opts LoopOptions) *Loop {
	if opts.Events == nil {
		opts.Events = NewEventBus(0)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Loop{
		username:     opts.Username,
		checker:      opts.Checker,
		recorder:     opts.Recorder,
		recording:    opts.Recording,
		events:       opts.Events,
		pollInterval: opts.PollInterval,
		probeTimeout: opts.ProbeTimeout,
		logger:       opts.Logger.With("username", opts.Username),
		now:          opts.Now,
		tracker:      NewTracker(opts.Username),
	}
}

// Tracker exposes the loop state.
func (l *Loop) Tracker() *Tracker {
	return l.tracker
}

// Run ticks immediately and then every poll interval until ctx is done.
// An active session is stopped before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("monitor.start", "interval", l.pollInterval)
	l.publish(Event{Type: EventTypeInfo, Message: fmt.Sprintf("monitoring @%s every %s", l.username, l.pollInterval)})
	defer l.shutdown()

	timer := time.NewTimer(l.pollInterval)
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			return nil
		}
		l.Tick(ctx)

		timer.Reset(l.pollInterval)

		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}
	}
}

// Tick performs one poll: reap, probe, notify, then start or stop capture.
func (l *Loop) Tick(ctx context.Context) {
	l.reap()

	status := l.checker.CheckStatus(context.WithoutCancel(ctx), l.username, l.probeTimeout)
	obs := l.tracker.Observe(status, l.now())
	l.publish(Event{
		Type:    EventTypeCheck,
		Status:  status,
		Message: fmt.Sprintf("@%s: %s", l.username, status.Label()),
	})

	if status == domain.LiveStatusUnknown {
		l.logger.Warn("monitor.unknown", "previous", string(obs.Previous))
		l.publish(Event{
			Type:    EventTypeUnknown,
			Status:  status,
			Message: fmt.Sprintf("@%s: UNKNOWN (network error)", l.username),
		})
		return
	}

	if obs.Changed {
		l.logger.Info("monitor.status", "from", string(obs.Previous), "to", string(status))
		l.publish(Event{
			Type:    EventTypeStatus,
			Status:  status,
			Message: fmt.Sprintf("@%s is %s", l.username, status.Label()),
		})
	}

	switch status {
	case domain.LiveStatusLive:
		if obs.WentLive() {
			l.startRecording(ctx)
		}
	case domain.LiveStatusOffline:
		if session := l.tracker.ClearSession(); session != nil {
			l.stopRecording(session, "stream went offline")
		}
	}
}

func (l *Loop) startRecording(ctx context.Context) {
	if l.recording == nil || !l.recording.RecordingEnabled() {
		if l.tracker.markNotice() {
			l.publish(Event{
				Type:    EventTypeInfo,
				Message: "recording is disabled; turn it on with `record on` or menu option 4",
			})
		}
		return
	}

	session, err := l.recorder.Start(ctx, l.username)
	if errors.Is(err, capture.ErrAlreadyRecording) {
		if session != nil {
			l.tracker.SetSession(session)
		}
		l.logger.Debug("monitor.already_recording")
		return
	}
	if err != nil {
		l.logger.Error("monitor.recording_failed", "error", err)
		l.publish(Event{
			Type:    EventTypeRecordingFailed,
			Status:  domain.LiveStatusLive,
			Message: fmt.Sprintf("could not record @%s: %v", l.username, err),
		})
		return
	}

	l.tracker.SetSession(session)
	l.publish(Event{
		Type:       EventTypeRecordingStarted,
		Status:     domain.LiveStatusLive,
		Message:    fmt.Sprintf("recording @%s with %s", l.username, session.Backend),
		SessionID:  session.ID,
		OutputPath: session.OutputPath,
		Backend:    session.Backend,
	})
}

func (l *Loop) stopRecording(session *capture.Session, reason string) {
	message := fmt.Sprintf("stopped recording @%s (%s)", l.username, reason)
	if err := l.recorder.Stop(session); err != nil {
		l.logger.Error("monitor.stop_failed", "session", session.ID, "error", err)
		message = fmt.Sprintf("%s: %v", message, err)
	}
	l.publish(Event{
		Type:       EventTypeRecordingStopped,
		Message:    message,
		SessionID:  session.ID,
		OutputPath: session.OutputPath,
		Backend:    session.Backend,
		Duration:   l.now().Sub(session.StartedAt),
	})
}

// reap clears a session whose process exited on its own. Stop still runs so
// the recorder releases it and finalizes the file.
func (l *Loop) reap() {
	session := l.tracker.Session()
	if session == nil || !session.Exited() {
		return
	}
	l.tracker.ClearSession()

	detail := "capture process exited"
	if err := session.Err(); err != nil {
		detail = fmt.Sprintf("capture process exited: %v", err)
	}
	l.logger.Warn("monitor.recording_ended", "session", session.ID, "error", session.Err())
	if err := l.recorder.Stop(session); err != nil {
		l.logger.Error("monitor.stop_failed", "session", session.ID, "error", err)
	}
	l.publish(Event{
		Type:       EventTypeRecordingEnded,
		Message:    fmt.Sprintf("recording of @%s ended: %s", l.username, detail),
		SessionID:  session.ID,
		OutputPath: session.OutputPath,
		Backend:    session.Backend,
		Duration:   l.now().Sub(session.StartedAt),
	})
}

func (l *Loop) shutdown() {
	if session := l.tracker.ClearSession(); session != nil {
		l.stopRecording(session, "monitoring stopped")
	}
	l.logger.Info("monitor.stop")
	l.publish(Event{Type: EventTypeInfo, Message: fmt.Sprintf("stopped monitoring @%s", l.username)})
}

func (l *Loop) publish(event Event) {
	event.Username = l.username
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now()
	}
	l.events.Publish(event)
}
